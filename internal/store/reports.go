package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/cautelas/internal/model"
)

// GetStockSnapshot collects the serial numbers currently out on open loans
// and every equipment type with its stock and value.
func GetStockSnapshot(ctx context.Context, db *sql.DB) (*model.StockSnapshot, error) {
	snap := &model.StockSnapshot{TotalValue: decimal.Zero}

	onLoan, err := listSerialsOnLoan(ctx, db)
	if err != nil {
		return nil, err
	}
	snap.OnLoan = onLoan

	equipments, err := ListEquipments(ctx, db)
	if err != nil {
		return nil, err
	}
	for _, e := range equipments {
		line := model.StockLine{
			Equipment: e.Name,
			Category:  e.CategoryName,
			Condition: e.Condition,
			Amount:    e.Amount,
			UnitPrice: e.UnitPrice,
		}
		for _, s := range e.SerialNumbers {
			line.SerialNumbers = append(line.SerialNumbers, s.Number)
		}
		snap.Equipments = append(snap.Equipments, line)
		snap.TotalValue = snap.TotalValue.Add(e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Amount))))
	}
	return snap, nil
}

// listSerialsOnLoan joins each ON_LOAN serial with the most recent open loan
// that holds it.
func listSerialsOnLoan(ctx context.Context, db *sql.DB) ([]model.StockOnLoan, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT e.name, s.number, c.name, c.war_name, l.mission, l.issued_at
		 FROM serial_numbers s
		 JOIN equipments e ON e.id = s.equipment_id
		 LEFT JOIN loans l ON l.id = (
		     SELECT ls.loan_id FROM loan_serials ls
		     JOIN loans ol ON ol.id = ls.loan_id
		     WHERE ls.serial_number_id = s.id AND ol.status = ?
		     ORDER BY ol.issued_at DESC, ol.id DESC
		     LIMIT 1)
		 LEFT JOIN customers c ON c.id = l.customer_id
		 WHERE s.status = ?
		 ORDER BY e.name, s.number`,
		model.LoanOpen, model.SerialOnLoan,
	)
	if err != nil {
		return nil, fmt.Errorf("listing serials on loan: %w", err)
	}
	defer rows.Close()

	var out []model.StockOnLoan
	for rows.Next() {
		var r model.StockOnLoan
		var customer, warName, mission sql.NullString
		if err := rows.Scan(&r.Equipment, &r.SerialNumber, &customer, &warName, &mission, &r.IssuedAt); err != nil {
			return nil, fmt.Errorf("scanning serial on loan: %w", err)
		}
		r.Customer = customer.String
		r.WarName = warName.String
		r.Mission = mission.String
		out = append(out, r)
	}
	return out, rows.Err()
}

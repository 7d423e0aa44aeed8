package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/cautelas/internal/model"
)

// GetStats computes the dashboard summary from current rows.
func GetStats(ctx context.Context, db *sql.DB) (*model.Stats, error) {
	s := &model.Stats{TotalValue: decimal.Zero}

	if err := db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM equipments),
		        (SELECT COUNT(*) FROM serial_numbers WHERE status = ?),
		        (SELECT COUNT(*) FROM loans WHERE status = ?)`,
		model.SerialOnLoan, model.LoanOpen,
	).Scan(&s.TotalEquipments, &s.EquipmentsInLoan, &s.PendingLoans); err != nil {
		return nil, fmt.Errorf("counting stats: %w", err)
	}

	// Prices are stored as decimal text, so the value is summed here rather
	// than in SQL floating point.
	rows, err := db.QueryContext(ctx, `SELECT amount, unit_price FROM equipments`)
	if err != nil {
		return nil, fmt.Errorf("summing equipment value: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var amount int64
		var price decimal.Decimal
		if err := rows.Scan(&amount, &price); err != nil {
			return nil, fmt.Errorf("scanning equipment value: %w", err)
		}
		s.TotalValue = s.TotalValue.Add(price.Mul(decimal.NewFromInt(amount)))
	}
	return s, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/cautelas/internal/model"
)

// Page size bounds for ListLoans.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// loanLinePlan is a validated loan line ready to be written.
type loanLinePlan struct {
	line      model.LoanLine
	name      string
	unitPrice decimal.Decimal
}

// CreateLoan hands equipment out to a customer. Every line is validated
// before anything is written, and the whole loan is written in one
// transaction: either all stock and serial changes happen or none do.
func CreateLoan(ctx context.Context, db *sql.DB, lenderID int64, in model.LoanInput) (*model.Loan, error) {
	if len(in.Equipments) == 0 {
		return nil, fmt.Errorf("creating loan: %w: at least one equipment required", ErrInvalidInput)
	}
	if in.Type == "" {
		in.Type = model.LoanCustody
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("creating loan: %w: unknown loan type %q", ErrInvalidInput, in.Type)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if in.CustomerID != nil {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM customers WHERE id = ?`, *in.CustomerID).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("creating loan: customer %d: %w", *in.CustomerID, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("checking customer: %w", err)
		}
	}

	plans, err := planLoanLines(ctx, tx, in.Equipments)
	if err != nil {
		return nil, fmt.Errorf("creating loan: %w", err)
	}

	var orderNumber int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(order_number), 0) + 1 FROM loans`,
	).Scan(&orderNumber); err != nil {
		return nil, fmt.Errorf("allocating order number: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO loans (order_number, lender_id, customer_id, status, type, devolution_date,
		                    mission, urgency, observation)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		orderNumber, lenderID, in.CustomerID, model.LoanOpen, in.Type, in.DevolutionDate,
		nullString(in.Mission), nullString(in.Urgency), nullString(in.Observation),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting loan: %w", err)
	}
	loanID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting loan id: %w", err)
	}

	for _, p := range plans {
		total := p.unitPrice.Mul(decimal.NewFromInt(int64(p.line.Quantity)))
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO loan_equipments (loan_id, equipment_id, quantity, total_price) VALUES (?, ?, ?, ?)`,
			loanID, p.line.EquipmentID, p.line.Quantity, total,
		); err != nil {
			return nil, fmt.Errorf("inserting loan equipment: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE equipments SET amount = amount - ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND amount >= ?`,
			p.line.Quantity, p.line.EquipmentID, p.line.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("decrementing stock: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("creating loan: %w for %s", ErrInsufficientStock, p.name)
		}

		for _, serialID := range p.line.SerialNumbers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO loan_serials (loan_id, serial_number_id) VALUES (?, ?)`,
				loanID, serialID,
			); err != nil {
				return nil, fmt.Errorf("inserting loan serial: %w", err)
			}

			res, err := tx.ExecContext(ctx,
				`UPDATE serial_numbers SET status = ?, updated_at = CURRENT_TIMESTAMP
				 WHERE id = ? AND status = ?`,
				model.SerialOnLoan, serialID, model.SerialInStock,
			)
			if err != nil {
				return nil, fmt.Errorf("reserving serial number: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return nil, fmt.Errorf("creating loan: %w for %s", ErrSerialsUnavailable, p.name)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing loan: %w", err)
	}

	return GetLoan(ctx, db, loanID)
}

// planLoanLines checks every requested line against current stock without
// writing anything.
func planLoanLines(ctx context.Context, tx *sql.Tx, lines []model.LoanLine) ([]loanLinePlan, error) {
	demand := make(map[int64]int)
	claimed := make(map[int64]bool)
	plans := make([]loanLinePlan, 0, len(lines))

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}

		p := loanLinePlan{line: line}
		var amount int
		err := tx.QueryRowContext(ctx,
			`SELECT name, amount, unit_price FROM equipments WHERE id = ?`, line.EquipmentID,
		).Scan(&p.name, &amount, &p.unitPrice)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("equipment %d: %w", line.EquipmentID, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("checking equipment: %w", err)
		}

		demand[line.EquipmentID] += line.Quantity
		if amount < demand[line.EquipmentID] {
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, p.name)
		}

		if len(line.SerialNumbers) > 0 {
			unique := make([]any, 0, len(line.SerialNumbers))
			for _, id := range line.SerialNumbers {
				if claimed[id] {
					continue
				}
				claimed[id] = true
				unique = append(unique, id)
			}

			matched := 0
			if len(unique) > 0 {
				placeholders := strings.TrimSuffix(strings.Repeat("?,", len(unique)), ",")
				args := append(unique, line.EquipmentID, model.SerialInStock)
				if err := tx.QueryRowContext(ctx,
					`SELECT COUNT(*) FROM serial_numbers
					 WHERE id IN (`+placeholders+`) AND equipment_id = ? AND status = ?`,
					args...,
				).Scan(&matched); err != nil {
					return nil, fmt.Errorf("checking serial numbers: %w", err)
				}
			}
			if matched != len(line.SerialNumbers) {
				return nil, fmt.Errorf("%w for %s", ErrSerialsUnavailable, p.name)
			}
		}

		plans = append(plans, p)
	}
	return plans, nil
}

// UpdateLoanStatus moves a loan to the given status. Closing an open loan
// returns its equipment to stock and its serial numbers to IN_STOCK.
// Setting the status a loan already has changes nothing, and a closed loan
// cannot be reopened. The returned bool reports whether anything changed.
func UpdateLoanStatus(ctx context.Context, db *sql.DB, id int64, status model.LoanStatus) (*model.Loan, bool, error) {
	if !status.Valid() {
		return nil, false, fmt.Errorf("updating loan: %w: unknown status %q", ErrInvalidInput, status)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current model.LoanStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM loans WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, false, fmt.Errorf("updating loan %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, false, fmt.Errorf("checking loan: %w", err)
	}

	switch {
	case current == status:
		tx.Rollback()
		loan, err := GetLoan(ctx, db, id)
		return loan, false, err
	case current == model.LoanClosed:
		return nil, false, fmt.Errorf("updating loan %d: %w", id, ErrLoanClosed)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE loans SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		model.LoanClosed, id, model.LoanOpen,
	)
	if err != nil {
		return nil, false, fmt.Errorf("closing loan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, false, fmt.Errorf("updating loan %d: %w", id, ErrLoanClosed)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE equipments
		 SET amount = amount + (SELECT SUM(le.quantity) FROM loan_equipments le
		                        WHERE le.loan_id = ? AND le.equipment_id = equipments.id),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id IN (SELECT equipment_id FROM loan_equipments WHERE loan_id = ?)`,
		id, id,
	); err != nil {
		return nil, false, fmt.Errorf("restoring stock: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE serial_numbers SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id IN (SELECT serial_number_id FROM loan_serials WHERE loan_id = ?)`,
		model.SerialInStock, id,
	); err != nil {
		return nil, false, fmt.Errorf("releasing serial numbers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("committing loan close: %w", err)
	}

	loan, err := GetLoan(ctx, db, id)
	return loan, true, err
}

const loanSelect = `SELECT l.id, l.order_number, l.lender_id, l.customer_id, l.status, l.type,
	       l.issued_at, l.devolution_date, l.mission, l.urgency, l.observation,
	       l.created_at, l.updated_at, u.name, c.name
	FROM loans l
	JOIN users u ON u.id = l.lender_id
	LEFT JOIN customers c ON c.id = l.customer_id`

func scanLoan(row rowScanner) (*model.Loan, error) {
	l := &model.Loan{}
	var mission, urgency, obs, customerName sql.NullString
	if err := row.Scan(&l.ID, &l.OrderNumber, &l.LenderID, &l.CustomerID, &l.Status, &l.Type,
		&l.IssuedAt, &l.DevolutionDate, &mission, &urgency, &obs,
		&l.CreatedAt, &l.UpdatedAt, &l.LenderName, &customerName); err != nil {
		return nil, err
	}
	l.Mission = mission.String
	l.Urgency = urgency.String
	l.Observation = obs.String
	l.CustomerName = customerName.String
	return l, nil
}

// GetLoan returns a loan without its relations.
func GetLoan(ctx context.Context, db *sql.DB, id int64) (*model.Loan, error) {
	l, err := scanLoan(db.QueryRowContext(ctx, loanSelect+` WHERE l.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting loan: %w", err)
	}
	return l, nil
}

// GetLoanDetail returns a loan with lender, customer, equipment lines and
// serial numbers resolved.
func GetLoanDetail(ctx context.Context, db *sql.DB, id int64) (*model.LoanDetail, error) {
	loan, err := GetLoan(ctx, db, id)
	if err != nil || loan == nil {
		return nil, err
	}

	d := &model.LoanDetail{Loan: *loan}
	if d.Lender, err = GetUser(ctx, db, loan.LenderID); err != nil {
		return nil, err
	}
	if loan.CustomerID != nil {
		if d.Customer, err = GetCustomer(ctx, db, *loan.CustomerID); err != nil {
			return nil, err
		}
	}
	if d.Equipments, err = listLoanEquipments(ctx, db, id); err != nil {
		return nil, err
	}
	if d.Serials, err = listLoanSerials(ctx, db, id); err != nil {
		return nil, err
	}
	return d, nil
}

func listLoanEquipments(ctx context.Context, db *sql.DB, loanID int64) ([]model.LoanEquipment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT le.id, le.loan_id, le.equipment_id, le.quantity, le.total_price,
		        e.name, e.description, e.condition
		 FROM loan_equipments le
		 JOIN equipments e ON e.id = le.equipment_id
		 WHERE le.loan_id = ?
		 ORDER BY le.id`, loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing loan equipment: %w", err)
	}
	defer rows.Close()

	var lines []model.LoanEquipment
	for rows.Next() {
		var le model.LoanEquipment
		var desc sql.NullString
		if err := rows.Scan(&le.ID, &le.LoanID, &le.EquipmentID, &le.Quantity, &le.TotalPrice,
			&le.EquipmentName, &desc, &le.EquipmentCondition); err != nil {
			return nil, fmt.Errorf("scanning loan equipment: %w", err)
		}
		le.EquipmentDescription = desc.String
		lines = append(lines, le)
	}
	return lines, rows.Err()
}

func listLoanSerials(ctx context.Context, db *sql.DB, loanID int64) ([]model.LoanSerial, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT ls.id, ls.loan_id, ls.serial_number_id, s.number, s.equipment_id
		 FROM loan_serials ls
		 JOIN serial_numbers s ON s.id = ls.serial_number_id
		 WHERE ls.loan_id = ?
		 ORDER BY s.number`, loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing loan serials: %w", err)
	}
	defer rows.Close()

	var serials []model.LoanSerial
	for rows.Next() {
		var ls model.LoanSerial
		if err := rows.Scan(&ls.ID, &ls.LoanID, &ls.SerialNumberID, &ls.Number, &ls.EquipmentID); err != nil {
			return nil, fmt.Errorf("scanning loan serial: %w", err)
		}
		serials = append(serials, ls)
	}
	return serials, rows.Err()
}

// ListLoans returns one page of loans, newest first.
func ListLoans(ctx context.Context, db *sql.DB, f model.LoanFilter) ([]model.Loan, model.Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	where := ` WHERE 1=1`
	var args []any
	if f.LenderID > 0 {
		where += ` AND l.lender_id = ?`
		args = append(args, f.LenderID)
	}
	if f.Status != "" {
		where += ` AND l.status = ?`
		args = append(args, f.Status)
	}

	page := model.Pagination{Page: f.Page, Limit: f.Limit}
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans l`+where, args...,
	).Scan(&page.Total); err != nil {
		return nil, page, fmt.Errorf("counting loans: %w", err)
	}
	page.Pages = (page.Total + f.Limit - 1) / f.Limit

	rows, err := db.QueryContext(ctx,
		loanSelect+where+` ORDER BY l.order_number DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, (f.Page-1)*f.Limit)...,
	)
	if err != nil {
		return nil, page, fmt.Errorf("listing loans: %w", err)
	}
	defer rows.Close()

	var loans []model.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, page, fmt.Errorf("scanning loan: %w", err)
		}
		loans = append(loans, *l)
	}
	return loans, page, rows.Err()
}

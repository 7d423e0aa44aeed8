package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erazemk/cautelas/internal/model"
)

func validateAlteration(a *model.Alteration) error {
	switch {
	case a.CustomerID <= 0:
		return fmt.Errorf("%w: customer required", ErrInvalidInput)
	case strings.TrimSpace(a.Description) == "":
		return fmt.Errorf("%w: description required", ErrInvalidInput)
	case strings.TrimSpace(a.Mission) == "":
		return fmt.Errorf("%w: mission required", ErrInvalidInput)
	case strings.TrimSpace(a.Location) == "":
		return fmt.Errorf("%w: location required", ErrInvalidInput)
	case strings.TrimSpace(a.Equipment) == "":
		return fmt.Errorf("%w: equipment required", ErrInvalidInput)
	case a.Date.IsZero():
		return fmt.Errorf("%w: date required", ErrInvalidInput)
	case a.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return nil
}

func encodeSerials(serials []string) (string, error) {
	if serials == nil {
		serials = []string{}
	}
	b, err := json.Marshal(serials)
	if err != nil {
		return "", fmt.Errorf("encoding serial numbers: %w", err)
	}
	return string(b), nil
}

// CreateAlteration records an equipment alteration. Stock is not touched.
func CreateAlteration(ctx context.Context, db *sql.DB, a model.Alteration) (*model.Alteration, error) {
	if err := validateAlteration(&a); err != nil {
		return nil, fmt.Errorf("creating alteration: %w", err)
	}
	serials, err := encodeSerials(a.SerialNumbers)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO equipment_alterations (customer_id, loan_id, description, mission, location, date,
		                                    equipment, serial_numbers, amount)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.CustomerID, a.LoanID, a.Description, a.Mission, a.Location, a.Date,
		a.Equipment, serials, a.Amount,
	)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("creating alteration: %w: customer or loan", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("creating alteration: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting alteration id: %w", err)
	}
	return GetAlteration(ctx, db, id)
}

// UpdateAlteration replaces every field of an alteration.
func UpdateAlteration(ctx context.Context, db *sql.DB, id int64, a model.Alteration) (*model.Alteration, error) {
	if err := validateAlteration(&a); err != nil {
		return nil, fmt.Errorf("updating alteration: %w", err)
	}
	serials, err := encodeSerials(a.SerialNumbers)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE equipment_alterations
		 SET customer_id = ?, loan_id = ?, description = ?, mission = ?, location = ?, date = ?,
		     equipment = ?, serial_numbers = ?, amount = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		a.CustomerID, a.LoanID, a.Description, a.Mission, a.Location, a.Date,
		a.Equipment, serials, a.Amount, id,
	)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("updating alteration: %w: customer or loan", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("updating alteration: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("updating alteration %d: %w", id, ErrNotFound)
	}
	return GetAlteration(ctx, db, id)
}

const alterationSelect = `SELECT a.id, a.customer_id, a.loan_id, a.description, a.mission, a.location,
	       a.date, a.equipment, a.serial_numbers, a.amount, a.created_at, a.updated_at,
	       c.id, c.name, c.email, c.phone, c.rank, c.war_name, c.military_organization,
	       c.document, c.created_at
	FROM equipment_alterations a
	JOIN customers c ON c.id = a.customer_id`

func scanAlteration(row rowScanner) (*model.Alteration, error) {
	a := &model.Alteration{Customer: &model.Customer{}}
	c := a.Customer
	var serials string
	if err := row.Scan(&a.ID, &a.CustomerID, &a.LoanID, &a.Description, &a.Mission, &a.Location,
		&a.Date, &a.Equipment, &serials, &a.Amount, &a.CreatedAt, &a.UpdatedAt,
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Rank, &c.WarName, &c.MilitaryOrganization,
		&c.Document, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(serials), &a.SerialNumbers); err != nil {
		return nil, fmt.Errorf("decoding serial numbers of alteration %d: %w", a.ID, err)
	}
	return a, nil
}

// GetAlteration returns an alteration with its customer.
func GetAlteration(ctx context.Context, db *sql.DB, id int64) (*model.Alteration, error) {
	a, err := scanAlteration(db.QueryRowContext(ctx, alterationSelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting alteration: %w", err)
	}
	return a, nil
}

// ListAlterations returns all alterations with their customers, newest first.
func ListAlterations(ctx context.Context, db *sql.DB) ([]model.Alteration, error) {
	rows, err := db.QueryContext(ctx, alterationSelect+` ORDER BY a.date DESC, a.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing alterations: %w", err)
	}
	defer rows.Close()

	var alterations []model.Alteration
	for rows.Next() {
		a, err := scanAlteration(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning alteration: %w", err)
		}
		alterations = append(alterations, *a)
	}
	return alterations, rows.Err()
}

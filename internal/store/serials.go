package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/cautelas/internal/model"
)

// ListSerialNumbers returns serial numbers, optionally only those of one
// equipment type.
func ListSerialNumbers(ctx context.Context, db *sql.DB, equipmentID int64) ([]model.SerialNumber, error) {
	query := `SELECT s.id, s.equipment_id, s.number, s.status, s.condition, s.observation,
	                 s.created_at, s.updated_at, e.name
	          FROM serial_numbers s
	          JOIN equipments e ON e.id = s.equipment_id`
	var args []any

	if equipmentID > 0 {
		query += ` WHERE s.equipment_id = ?`
		args = append(args, equipmentID)
	}
	query += ` ORDER BY s.number`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing serial numbers: %w", err)
	}
	defer rows.Close()

	var serials []model.SerialNumber
	for rows.Next() {
		var s model.SerialNumber
		var obs sql.NullString
		if err := rows.Scan(&s.ID, &s.EquipmentID, &s.Number, &s.Status, &s.Condition, &obs,
			&s.CreatedAt, &s.UpdatedAt, &s.EquipmentName); err != nil {
			return nil, fmt.Errorf("scanning serial number: %w", err)
		}
		s.Observation = obs.String
		serials = append(serials, s)
	}
	return serials, rows.Err()
}

// CreateSerialNumber registers a serial-numbered unit. An unknown status
// falls back to IN_STOCK and an unknown condition to GOOD.
func CreateSerialNumber(ctx context.Context, db *sql.DB, equipmentID int64, number string, status model.SerialStatus, condition model.Condition, observation string) (*model.SerialNumber, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, fmt.Errorf("creating serial number: %w: number required", ErrInvalidInput)
	}
	if !status.Valid() {
		status = model.SerialInStock
	}
	if !condition.Valid() {
		condition = model.ConditionGood
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO serial_numbers (equipment_id, number, status, condition, observation)
		 VALUES (?, ?, ?, ?, ?)`,
		equipmentID, number, status, condition, nullString(observation),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating serial number: %w: serial number %s already exists", ErrConflict, number)
	}
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("creating serial number: %w: equipment %d", ErrNotFound, equipmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("creating serial number: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting serial number id: %w", err)
	}
	return GetSerialNumber(ctx, db, id)
}

// GetSerialNumber returns a serial number by ID.
func GetSerialNumber(ctx context.Context, db *sql.DB, id int64) (*model.SerialNumber, error) {
	s := &model.SerialNumber{}
	var obs sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT s.id, s.equipment_id, s.number, s.status, s.condition, s.observation,
		        s.created_at, s.updated_at, e.name
		 FROM serial_numbers s
		 JOIN equipments e ON e.id = s.equipment_id
		 WHERE s.id = ?`, id,
	).Scan(&s.ID, &s.EquipmentID, &s.Number, &s.Status, &s.Condition, &obs,
		&s.CreatedAt, &s.UpdatedAt, &s.EquipmentName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting serial number: %w", err)
	}
	s.Observation = obs.String
	return s, nil
}

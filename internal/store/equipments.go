package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/cautelas/internal/model"
)

const equipmentSelect = `SELECT e.id, e.name, e.description, e.category_id, e.amount, e.unit_price,
	       e.condition, e.observation, e.photo_mime, e.created_at, e.updated_at,
	       c.name,
	       (SELECT COUNT(*) FROM serial_numbers s WHERE s.equipment_id = e.id AND s.status = 'IN_STOCK')
	FROM equipments e
	JOIN categories c ON c.id = e.category_id`

func scanEquipment(row rowScanner) (*model.Equipment, error) {
	e := &model.Equipment{}
	var desc, obs, mime sql.NullString
	if err := row.Scan(&e.ID, &e.Name, &desc, &e.CategoryID, &e.Amount, &e.UnitPrice,
		&e.Condition, &obs, &mime, &e.CreatedAt, &e.UpdatedAt,
		&e.CategoryName, &e.InStockCount); err != nil {
		return nil, err
	}
	e.Description = desc.String
	e.Observation = obs.String
	e.PhotoMime = mime.String
	return e, nil
}

func validateEquipment(in model.EquipmentInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	case in.CategoryID <= 0:
		return fmt.Errorf("%w: category required", ErrInvalidInput)
	case in.Amount < 0:
		return fmt.Errorf("%w: amount cannot be negative", ErrInvalidInput)
	case in.UnitPrice.IsNegative():
		return fmt.Errorf("%w: unit price cannot be negative", ErrInvalidInput)
	case !in.Condition.Valid():
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidInput, in.Condition)
	}
	return nil
}

// ListEquipments returns all equipment with category names and serial numbers.
func ListEquipments(ctx context.Context, db *sql.DB) ([]model.Equipment, error) {
	rows, err := db.QueryContext(ctx, equipmentSelect+` ORDER BY e.name`)
	if err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}

	var equipments []model.Equipment
	index := make(map[int64]int)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		index[e.ID] = len(equipments)
		equipments = append(equipments, *e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	rows.Close()

	serials, err := ListSerialNumbers(ctx, db, 0)
	if err != nil {
		return nil, err
	}
	for _, s := range serials {
		if i, ok := index[s.EquipmentID]; ok {
			equipments[i].SerialNumbers = append(equipments[i].SerialNumbers, s)
		}
	}
	return equipments, nil
}

// GetEquipment returns a piece of equipment with its serial numbers.
func GetEquipment(ctx context.Context, db *sql.DB, id int64) (*model.Equipment, error) {
	e, err := scanEquipment(db.QueryRowContext(ctx, equipmentSelect+` WHERE e.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment: %w", err)
	}

	e.SerialNumbers, err = ListSerialNumbers(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEquipment creates a new equipment type.
func CreateEquipment(ctx context.Context, db *sql.DB, in model.EquipmentInput) (*model.Equipment, error) {
	if in.Condition == "" {
		in.Condition = model.ConditionGood
	}
	if err := validateEquipment(in); err != nil {
		return nil, fmt.Errorf("creating equipment: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO equipments (name, description, category_id, amount, unit_price, condition, observation)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(in.Name), nullString(in.Description), in.CategoryID, in.Amount,
		in.UnitPrice, in.Condition, nullString(in.Observation),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating equipment: %w: equipment %s already exists", ErrConflict, in.Name)
	}
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("creating equipment: %w: category %d", ErrNotFound, in.CategoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("creating equipment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting equipment id: %w", err)
	}
	return GetEquipment(ctx, db, id)
}

// UpdateEquipment replaces every writable field of a piece of equipment.
func UpdateEquipment(ctx context.Context, db *sql.DB, id int64, in model.EquipmentInput) (*model.Equipment, error) {
	if err := validateEquipment(in); err != nil {
		return nil, fmt.Errorf("updating equipment: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE equipments SET name = ?, description = ?, category_id = ?, amount = ?, unit_price = ?,
		                       condition = ?, observation = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		strings.TrimSpace(in.Name), nullString(in.Description), in.CategoryID, in.Amount,
		in.UnitPrice, in.Condition, nullString(in.Observation), id,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("updating equipment: %w: equipment %s already exists", ErrConflict, in.Name)
	}
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("updating equipment: %w: category %d", ErrNotFound, in.CategoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("updating equipment: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("updating equipment %d: %w", id, ErrNotFound)
	}
	return GetEquipment(ctx, db, id)
}

// DeleteEquipment removes a piece of equipment and its serial numbers.
// Equipment that appears on any loan cannot be deleted.
func DeleteEquipment(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var loaned int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loan_equipments WHERE equipment_id = ?`, id,
	).Scan(&loaned); err != nil {
		return fmt.Errorf("checking loan references: %w", err)
	}
	if loaned > 0 {
		return fmt.Errorf("deleting equipment %d: %w: referenced by loans", id, ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM serial_numbers WHERE equipment_id = ?`, id); err != nil {
		return fmt.Errorf("deleting serial numbers: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM equipments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting equipment: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("deleting equipment %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing equipment delete: %w", err)
	}
	return nil
}

// SetEquipmentPhoto stores an already normalised photo.
func SetEquipmentPhoto(ctx context.Context, db *sql.DB, id int64, data []byte, mimeType string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE equipments SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		data, mimeType, id,
	)
	if err != nil {
		return fmt.Errorf("setting equipment photo: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("setting equipment photo %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetEquipmentPhoto returns the photo bytes and MIME type. Both are empty
// when the equipment has no photo.
func GetEquipmentPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM equipments WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("getting equipment photo %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting equipment photo: %w", err)
	}
	return data, mime.String, nil
}

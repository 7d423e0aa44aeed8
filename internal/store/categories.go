package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/cautelas/internal/model"
)

// ListCategories returns all categories with their equipment counts.
func ListCategories(ctx context.Context, db *sql.DB) ([]model.Category, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT c.id, c.name, c.description, c.created_at,
		        (SELECT COUNT(*) FROM equipments e WHERE e.category_id = c.id)
		 FROM categories c
		 ORDER BY c.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		var desc sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &desc, &c.CreatedAt, &c.EquipmentCount); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		c.Description = desc.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory returns a category by ID.
func GetCategory(ctx context.Context, db *sql.DB, id int64) (*model.Category, error) {
	c := &model.Category{}
	var desc sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT c.id, c.name, c.description, c.created_at,
		        (SELECT COUNT(*) FROM equipments e WHERE e.category_id = c.id)
		 FROM categories c WHERE c.id = ?`, id,
	).Scan(&c.ID, &c.Name, &desc, &c.CreatedAt, &c.EquipmentCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	c.Description = desc.String
	return c, nil
}

// CreateCategory creates a new category.
func CreateCategory(ctx context.Context, db *sql.DB, name, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("creating category: %w: name required", ErrInvalidInput)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO categories (name, description) VALUES (?, ?)`,
		name, nullString(description),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating category: %w: category %s already exists", ErrConflict, name)
	}
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting category id: %w", err)
	}
	return GetCategory(ctx, db, id)
}

// UpdateCategory renames a category or changes its description.
func UpdateCategory(ctx context.Context, db *sql.DB, id int64, name, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("updating category: %w: name required", ErrInvalidInput)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ? WHERE id = ?`,
		name, nullString(description), id,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("updating category: %w: category %s already exists", ErrConflict, name)
	}
	if err != nil {
		return nil, fmt.Errorf("updating category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("updating category %d: %w", id, ErrNotFound)
	}
	return GetCategory(ctx, db, id)
}

// DeleteCategory removes a category together with its equipment and their
// serial numbers. It refuses when any of that equipment appears on a loan.
func DeleteCategory(ctx context.Context, db *sql.DB, id int64) (*model.CategoryDeletion, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("deleting category %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking category: %w", err)
	}

	var loaned int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loan_equipments le
		 JOIN equipments e ON e.id = le.equipment_id
		 WHERE e.category_id = ?`, id,
	).Scan(&loaned); err != nil {
		return nil, fmt.Errorf("checking loan references: %w", err)
	}
	if loaned > 0 {
		return nil, fmt.Errorf("deleting category %d: %w: equipment in this category is referenced by loans", id, ErrConflict)
	}

	del := &model.CategoryDeletion{}
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM equipments WHERE category_id = ?`, id,
	).Scan(&del.DeletedEquipments); err != nil {
		return nil, fmt.Errorf("counting equipment: %w", err)
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM serial_numbers
		 WHERE equipment_id IN (SELECT id FROM equipments WHERE category_id = ?)`, id,
	).Scan(&del.DeletedSerials); err != nil {
		return nil, fmt.Errorf("counting serial numbers: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM serial_numbers
		 WHERE equipment_id IN (SELECT id FROM equipments WHERE category_id = ?)`, id,
	); err != nil {
		return nil, fmt.Errorf("deleting serial numbers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM equipments WHERE category_id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting equipment: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing category delete: %w", err)
	}
	return del, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/cautelas/internal/model"
)

const customerColumns = `id, name, email, phone, rank, war_name, military_organization, document, created_at`

func scanCustomer(row rowScanner) (*model.Customer, error) {
	c := &model.Customer{}
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Rank, &c.WarName,
		&c.MilitaryOrganization, &c.Document, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCustomer validates and stores a new customer.
func CreateCustomer(ctx context.Context, db *sql.DB, c model.Customer) (*model.Customer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("creating customer: %w: %v", ErrInvalidInput, err)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO customers (name, email, phone, rank, war_name, military_organization, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Email, c.Phone, c.Rank, c.WarName, c.MilitaryOrganization, c.Document,
	)
	if err != nil {
		return nil, fmt.Errorf("creating customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting customer id: %w", err)
	}

	return GetCustomer(ctx, db, id)
}

// GetCustomer returns a customer by ID.
func GetCustomer(ctx context.Context, db *sql.DB, id int64) (*model.Customer, error) {
	c, err := scanCustomer(db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns all customers, newest first.
func ListCustomers(ctx context.Context, db *sql.DB) ([]model.Customer, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/cautelas/internal/model"
)

const userColumns = `id, email, name, password_hash, role, phone, document, rank, war_name,
	military_organization, function_name, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var phone, document, rank, warName, org, function sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&phone, &document, &rank, &warName, &org, &function,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
		return nil, err
	}
	u.Phone = phone.String
	u.Document = document.String
	u.Rank = rank.String
	u.WarName = warName.String
	u.MilitaryOrganization = org.String
	u.FunctionName = function.String
	return u, nil
}

// CreateUser creates a new user.
func CreateUser(ctx context.Context, db *sql.DB, p model.UserProfile, passwordHash string) (*model.User, error) {
	if !p.Role.Valid() {
		return nil, fmt.Errorf("creating user: %w: unknown role %q", ErrInvalidInput, p.Role)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, role, phone, document, rank, war_name,
		                    military_organization, function_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Email, p.Name, passwordHash, p.Role,
		nullString(p.Phone), nullString(p.Document), nullString(p.Rank), nullString(p.WarName),
		nullString(p.MilitaryOrganization), nullString(p.FunctionName),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating user: %w: email %s already exists", ErrConflict, p.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the active user with the given email.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND deleted_at IS NULL`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users, newest first.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountUsers returns the number of active users.
func CountUsers(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// UpdateUser replaces a user's profile.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, p model.UserProfile) (*model.User, error) {
	if !p.Role.Valid() {
		return nil, fmt.Errorf("updating user: %w: unknown role %q", ErrInvalidInput, p.Role)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE users SET email = ?, name = ?, role = ?, phone = ?, document = ?, rank = ?,
		                  war_name = ?, military_organization = ?, function_name = ?,
		                  updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		p.Email, p.Name, p.Role,
		nullString(p.Phone), nullString(p.Document), nullString(p.Rank), nullString(p.WarName),
		nullString(p.MilitaryOrganization), nullString(p.FunctionName), id,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("updating user: %w: email %s already exists", ErrConflict, p.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("updating user %d: %w", id, ErrNotFound)
	}

	return GetUser(ctx, db, id)
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("updating user password %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteUser soft-deletes a user. Loans keep pointing at the row.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("deleting user %d: %w", id, ErrNotFound)
	}
	return nil
}

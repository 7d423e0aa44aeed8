package model

import (
	"fmt"
	"time"
)

// User represents a login identity. Military profile fields reuse the
// customer vocabulary and are optional.
type User struct {
	ID                   int64      `json:"id"`
	Email                string     `json:"email"`
	Name                 string     `json:"name"`
	PasswordHash         string     `json:"-"`
	Role                 Role       `json:"role"`
	Phone                string     `json:"phone,omitempty"`
	Document             string     `json:"document,omitempty"`
	Rank                 string     `json:"rank,omitempty"`
	WarName              string     `json:"war_name,omitempty"`
	MilitaryOrganization string     `json:"military_organization,omitempty"`
	FunctionName         string     `json:"function_name,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	DeletedAt            *time.Time `json:"deleted_at,omitempty"`
}

// UserProfile holds the editable profile fields of a user.
type UserProfile struct {
	Email                string `json:"email"`
	Name                 string `json:"name"`
	Role                 Role   `json:"role"`
	Phone                string `json:"phone"`
	Document             string `json:"document"`
	Rank                 string `json:"rank"`
	WarName              string `json:"war_name"`
	MilitaryOrganization string `json:"military_organization"`
	FunctionName         string `json:"function_name"`
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

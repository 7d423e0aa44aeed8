package model

import (
	"errors"
	"strings"
	"time"
)

// Customer is a person who receives equipment on a loan.
type Customer struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone"`
	Rank                 string    `json:"rank"`
	WarName              string    `json:"war_name"`
	MilitaryOrganization string    `json:"military_organization"`
	Document             string    `json:"document"`
	CreatedAt            time.Time `json:"created_at"`
}

// Validate checks the customer fields.
func (c *Customer) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return errors.New("name required")
	case !strings.Contains(c.Email, "@"):
		return errors.New("invalid email")
	case len(c.Phone) < 10 || !isDigits(c.Phone):
		return errors.New("phone must have at least 10 digits")
	case len(c.Rank) < 2:
		return errors.New("rank required")
	case len(c.WarName) < 2:
		return errors.New("war name required")
	case len(c.MilitaryOrganization) < 4:
		return errors.New("military organization required")
	case len(c.Document) != 11 || !isDigits(c.Document):
		return errors.New("document must have 11 digits")
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

package model

import "time"

// Alteration records a change or relocation of equipment for a customer.
// It is informational and never touches stock.
type Alteration struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	LoanID        *int64    `json:"loan_id,omitempty"`
	Description   string    `json:"description"`
	Mission       string    `json:"mission"`
	Location      string    `json:"location"`
	Date          time.Time `json:"date"`
	Equipment     string    `json:"equipment"`
	SerialNumbers []string  `json:"serial_numbers"`
	Amount        int       `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	Customer *Customer `json:"customer,omitempty"`
}

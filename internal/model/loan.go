package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the state of a loan.
type LoanStatus string

// Loan statuses.
const (
	LoanOpen   LoanStatus = "OPEN"
	LoanClosed LoanStatus = "CLOSED"
)

// Valid reports whether s is a known loan status.
func (s LoanStatus) Valid() bool {
	return s == LoanOpen || s == LoanClosed
}

// LoanType distinguishes a custody loan from a short temporary one.
type LoanType string

// Loan types.
const (
	LoanCustody   LoanType = "CUSTODY"
	LoanTemporary LoanType = "TEMPORARY_LOAN"
)

// Valid reports whether t is a known loan type.
func (t LoanType) Valid() bool {
	return t == LoanCustody || t == LoanTemporary
}

// Loan is a custody record ("cautela") of equipment handed to a customer.
type Loan struct {
	ID             int64      `json:"id"`
	OrderNumber    int64      `json:"order_number"`
	LenderID       int64      `json:"lender_id"`
	CustomerID     *int64     `json:"customer_id,omitempty"`
	Status         LoanStatus `json:"status"`
	Type           LoanType   `json:"type"`
	IssuedAt       time.Time  `json:"issued_at"`
	DevolutionDate *time.Time `json:"devolution_date,omitempty"`
	Mission        string     `json:"mission,omitempty"`
	Urgency        string     `json:"urgency,omitempty"`
	Observation    string     `json:"observation,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Joined fields (not always populated).
	LenderName   string `json:"lender_name,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

// LoanEquipment is one equipment line of a loan. TotalPrice is fixed when
// the loan is created.
type LoanEquipment struct {
	ID          int64           `json:"id"`
	LoanID      int64           `json:"loan_id"`
	EquipmentID int64           `json:"equipment_id"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`

	// Joined fields (not always populated).
	EquipmentName        string    `json:"equipment_name,omitempty"`
	EquipmentDescription string    `json:"equipment_description,omitempty"`
	EquipmentCondition   Condition `json:"equipment_condition,omitempty"`
}

// LoanSerial attaches one serial-numbered unit to a loan.
type LoanSerial struct {
	ID             int64 `json:"id"`
	LoanID         int64 `json:"loan_id"`
	SerialNumberID int64 `json:"serial_number_id"`

	// Joined fields (not always populated).
	Number      string `json:"number,omitempty"`
	EquipmentID int64  `json:"equipment_id,omitempty"`
}

// LoanDetail is a loan with its relations resolved.
type LoanDetail struct {
	Loan
	Lender     *User           `json:"lender"`
	Customer   *Customer       `json:"customer,omitempty"`
	Equipments []LoanEquipment `json:"equipments"`
	Serials    []LoanSerial    `json:"serial_numbers"`
}

// TotalPrice sums the line totals.
func (d *LoanDetail) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, le := range d.Equipments {
		total = total.Add(le.TotalPrice)
	}
	return total
}

// LoanLine requests a quantity of one equipment type, optionally naming the
// exact serial numbers handed out.
type LoanLine struct {
	EquipmentID   int64   `json:"equipment_id"`
	Quantity      int     `json:"quantity"`
	SerialNumbers []int64 `json:"serial_numbers,omitempty"`
}

// LoanInput is everything needed to create a loan.
type LoanInput struct {
	CustomerID     *int64     `json:"customer_id"`
	Equipments     []LoanLine `json:"equipments"`
	DevolutionDate *time.Time `json:"devolution_date"`
	Mission        string     `json:"mission"`
	Urgency        string     `json:"urgency"`
	Observation    string     `json:"observation"`
	Type           LoanType   `json:"type"`
}

// LoanFilter narrows a loan listing.
type LoanFilter struct {
	LenderID int64
	Status   LoanStatus
	Page     int
	Limit    int
}

// Pagination describes a page of results.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

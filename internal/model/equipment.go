package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Condition describes the physical state of equipment.
type Condition string

// Conditions.
const (
	ConditionNew  Condition = "NEW"
	ConditionGood Condition = "GOOD"
	ConditionFair Condition = "FAIR"
	ConditionPoor Condition = "POOR"
)

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// conditionLabels are the printed forms used on documents.
var conditionLabels = map[Condition]string{
	ConditionNew:  "NOVO",
	ConditionGood: "BOM",
	ConditionFair: "REGULAR",
	ConditionPoor: "RUIM",
}

// Label returns the printed form of c.
func (c Condition) Label() string {
	if l, ok := conditionLabels[c]; ok {
		return l
	}
	return string(c)
}

// SerialStatus is the lifecycle state of a serial-numbered unit.
type SerialStatus string

// Serial statuses.
const (
	SerialInStock        SerialStatus = "IN_STOCK"
	SerialOnLoan         SerialStatus = "ON_LOAN"
	SerialMaintenance    SerialStatus = "MAINTENANCE"
	SerialDecommissioned SerialStatus = "DECOMMISSIONED"
)

// Valid reports whether s is a known serial status.
func (s SerialStatus) Valid() bool {
	switch s {
	case SerialInStock, SerialOnLoan, SerialMaintenance, SerialDecommissioned:
		return true
	}
	return false
}

// Category groups equipment types.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Joined fields (not always populated).
	EquipmentCount int `json:"equipment_count"`
}

// CategoryDeletion reports what a category delete removed.
type CategoryDeletion struct {
	DeletedEquipments int `json:"deleted_equipments"`
	DeletedSerials    int `json:"deleted_serials"`
}

// Equipment is an equipment type with an aggregate stock amount.
type Equipment struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CategoryID  int64           `json:"category_id"`
	Amount      int             `json:"amount"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Condition   Condition       `json:"condition"`
	Observation string          `json:"observation,omitempty"`
	PhotoMime   string          `json:"photo_mime,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Joined fields (not always populated).
	CategoryName  string         `json:"category_name,omitempty"`
	SerialNumbers []SerialNumber `json:"serial_numbers,omitempty"`
	InStockCount  int            `json:"in_stock_count"`
}

// EquipmentInput holds the writable equipment fields.
type EquipmentInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  int64           `json:"category_id"`
	Amount      int             `json:"amount"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Condition   Condition       `json:"condition"`
	Observation string          `json:"observation"`
}

// SerialNumber is one individually tracked unit of an equipment type.
type SerialNumber struct {
	ID          int64        `json:"id"`
	EquipmentID int64        `json:"equipment_id"`
	Number      string       `json:"number"`
	Status      SerialStatus `json:"status"`
	Condition   Condition    `json:"condition"`
	Observation string       `json:"observation,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Joined fields (not always populated).
	EquipmentName string `json:"equipment_name,omitempty"`
}

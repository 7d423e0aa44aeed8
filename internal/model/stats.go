package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stats is the dashboard summary, computed from current rows.
type Stats struct {
	TotalEquipments  int             `json:"total_equipments"`
	EquipmentsInLoan int             `json:"equipments_in_loan"`
	TotalValue       decimal.Decimal `json:"total_value"`
	PendingLoans     int             `json:"pending_loans"`
}

// StockOnLoan is one serial currently out on an open loan.
type StockOnLoan struct {
	Equipment    string
	SerialNumber string
	Customer     string
	WarName      string
	Mission      string
	IssuedAt     *time.Time
}

// StockLine is one equipment type in a stock snapshot.
type StockLine struct {
	Equipment     string
	Category      string
	SerialNumbers []string
	Condition     Condition
	Amount        int
	UnitPrice     decimal.Decimal
}

// StockSnapshot is the full stock situation at a point in time.
type StockSnapshot struct {
	OnLoan     []StockOnLoan
	Equipments []StockLine
	TotalValue decimal.Decimal
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/cautelas/internal/db"
	"github.com/erazemk/cautelas/internal/model"
)

type loanFixture struct {
	db       *sql.DB
	lender   *model.User
	customer *model.Customer
	radio    *model.Equipment
	sn1      *model.SerialNumber
}

// newLoanFixture sets up "Radio X" with amount 5 and one in-stock serial SN-1.
func newLoanFixture(t *testing.T) *loanFixture {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	lender, err := CreateUser(ctx, database, testProfile("lender@example.com", model.RoleAdmin), "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	customer, err := CreateCustomer(ctx, database, validCustomer())
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	c := createTestCategory(t, ctx, database, "Radios")
	radio := createTestEquipment(t, ctx, database, c.ID, "Radio X", 5, "150.25")
	sn1 := createTestSerial(t, ctx, database, radio.ID, "SN-1")

	return &loanFixture{db: database, lender: lender, customer: customer, radio: radio, sn1: sn1}
}

func (f *loanFixture) input(lines ...model.LoanLine) model.LoanInput {
	return model.LoanInput{
		CustomerID: &f.customer.ID,
		Equipments: lines,
		Mission:    "Exercício",
		Type:       model.LoanCustody,
	}
}

func (f *loanFixture) assertStock(t *testing.T, amount int, status model.SerialStatus) {
	t.Helper()
	ctx := context.Background()
	e, err := GetEquipment(ctx, f.db, f.radio.ID)
	if err != nil {
		t.Fatalf("GetEquipment: %v", err)
	}
	if e.Amount != amount {
		t.Errorf("expected amount %d, got %d", amount, e.Amount)
	}
	s, err := GetSerialNumber(ctx, f.db, f.sn1.ID)
	if err != nil {
		t.Fatalf("GetSerialNumber: %v", err)
	}
	if s.Status != status {
		t.Errorf("expected SN-1 %s, got %s", status, s.Status)
	}
}

func TestLoanCreateAndClose(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	loan, err := CreateLoan(ctx, f.db, f.lender.ID, f.input(model.LoanLine{
		EquipmentID:   f.radio.ID,
		Quantity:      1,
		SerialNumbers: []int64{f.sn1.ID},
	}))
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	if loan.Status != model.LoanOpen {
		t.Errorf("expected OPEN, got %s", loan.Status)
	}
	if loan.LenderID != f.lender.ID {
		t.Errorf("expected lender %d, got %d", f.lender.ID, loan.LenderID)
	}
	if loan.OrderNumber != 1 {
		t.Errorf("expected order number 1, got %d", loan.OrderNumber)
	}
	f.assertStock(t, 4, model.SerialOnLoan)

	detail, err := GetLoanDetail(ctx, f.db, loan.ID)
	if err != nil {
		t.Fatalf("GetLoanDetail: %v", err)
	}
	if len(detail.Equipments) != 1 || len(detail.Serials) != 1 {
		t.Fatalf("expected 1 line and 1 serial, got %d/%d", len(detail.Equipments), len(detail.Serials))
	}
	if !detail.Equipments[0].TotalPrice.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("expected total price 150.25, got %s", detail.Equipments[0].TotalPrice)
	}
	if detail.Serials[0].Number != "SN-1" {
		t.Errorf("expected serial SN-1, got %q", detail.Serials[0].Number)
	}
	if detail.Customer == nil || detail.Customer.WarName != "Silva" {
		t.Errorf("expected customer Silva, got %+v", detail.Customer)
	}
	if detail.Lender == nil || detail.Lender.Email != "lender@example.com" {
		t.Errorf("expected lender resolved, got %+v", detail.Lender)
	}

	closed, changed, err := UpdateLoanStatus(ctx, f.db, loan.ID, model.LoanClosed)
	if err != nil {
		t.Fatalf("UpdateLoanStatus: %v", err)
	}
	if !changed || closed.Status != model.LoanClosed {
		t.Errorf("expected loan to be closed, got %s (changed=%v)", closed.Status, changed)
	}
	f.assertStock(t, 5, model.SerialInStock)
}

func TestLoanTotalPriceIsQuantityTimesUnitPrice(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	loan, err := CreateLoan(ctx, f.db, f.lender.ID, f.input(model.LoanLine{EquipmentID: f.radio.ID, Quantity: 2}))
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	f.assertStock(t, 3, model.SerialInStock)

	// A later price change does not touch the recorded line total.
	if _, err := UpdateEquipment(ctx, f.db, f.radio.ID, model.EquipmentInput{
		Name: "Radio X", CategoryID: f.radio.CategoryID, Amount: 3,
		UnitPrice: decimal.NewFromInt(999), Condition: model.ConditionGood,
	}); err != nil {
		t.Fatalf("UpdateEquipment: %v", err)
	}

	detail, _ := GetLoanDetail(ctx, f.db, loan.ID)
	if !detail.Equipments[0].TotalPrice.Equal(decimal.RequireFromString("300.50")) {
		t.Errorf("expected total price 300.50, got %s", detail.Equipments[0].TotalPrice)
	}
	if !detail.TotalPrice().Equal(decimal.RequireFromString("300.50")) {
		t.Errorf("expected loan total 300.50, got %s", detail.TotalPrice())
	}
}

func TestLoanInsufficientStockChangesNothing(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	c := createTestCategory(t, ctx, f.db, "Other")
	other := createTestEquipment(t, ctx, f.db, c.ID, "Antenna", 10, "5")

	// The first line is fine; the second asks for too much.
	_, err := CreateLoan(ctx, f.db, f.lender.ID, f.input(
		model.LoanLine{EquipmentID: other.ID, Quantity: 1},
		model.LoanLine{EquipmentID: f.radio.ID, Quantity: 6, SerialNumbers: []int64{f.sn1.ID}},
	))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	f.assertStock(t, 5, model.SerialInStock)

	e, _ := GetEquipment(ctx, f.db, other.ID)
	if e.Amount != 10 {
		t.Errorf("expected antenna amount unchanged at 10, got %d", e.Amount)
	}

	loans, page, _ := ListLoans(ctx, f.db, model.LoanFilter{})
	if len(loans) != 0 || page.Total != 0 {
		t.Errorf("expected no loans, got %d", page.Total)
	}
}

func TestLoanDemandAcrossLinesIsSummed(t *testing.T) {
	f := newLoanFixture(t)

	_, err := CreateLoan(context.Background(), f.db, f.lender.ID, f.input(
		model.LoanLine{EquipmentID: f.radio.ID, Quantity: 3},
		model.LoanLine{EquipmentID: f.radio.ID, Quantity: 3},
	))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	f.assertStock(t, 5, model.SerialInStock)
}

func TestLoanUnavailableSerialChangesNothing(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	maint, err := CreateSerialNumber(ctx, f.db, f.radio.ID, "SN-2", model.SerialMaintenance, model.ConditionPoor, "")
	if err != nil {
		t.Fatalf("CreateSerialNumber: %v", err)
	}

	_, err = CreateLoan(ctx, f.db, f.lender.ID, f.input(model.LoanLine{
		EquipmentID:   f.radio.ID,
		Quantity:      2,
		SerialNumbers: []int64{f.sn1.ID, maint.ID},
	}))
	if !errors.Is(err, ErrSerialsUnavailable) {
		t.Fatalf("expected ErrSerialsUnavailable, got %v", err)
	}
	f.assertStock(t, 5, model.SerialInStock)
}

func TestLoanSerialFromOtherEquipmentRejected(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	c := createTestCategory(t, ctx, f.db, "Other")
	other := createTestEquipment(t, ctx, f.db, c.ID, "Antenna", 10, "5")

	_, err := CreateLoan(ctx, f.db, f.lender.ID, f.input(model.LoanLine{
		EquipmentID:   other.ID,
		Quantity:      1,
		SerialNumbers: []int64{f.sn1.ID},
	}))
	if !errors.Is(err, ErrSerialsUnavailable) {
		t.Fatalf("expected ErrSerialsUnavailable, got %v", err)
	}
	f.assertStock(t, 5, model.SerialInStock)
}

func TestLoanDuplicateSerialRejected(t *testing.T) {
	f := newLoanFixture(t)

	_, err := CreateLoan(context.Background(), f.db, f.lender.ID, f.input(model.LoanLine{
		EquipmentID:   f.radio.ID,
		Quantity:      2,
		SerialNumbers: []int64{f.sn1.ID, f.sn1.ID},
	}))
	if !errors.Is(err, ErrSerialsUnavailable) {
		t.Fatalf("expected ErrSerialsUnavailable, got %v", err)
	}
	f.assertStock(t, 5, model.SerialInStock)
}

func TestLoanSerialAlreadyOnLoan(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	line := model.LoanLine{EquipmentID: f.radio.ID, Quantity: 1, SerialNumbers: []int64{f.sn1.ID}}
	if _, err := CreateLoan(ctx, f.db, f.lender.ID, f.input(line)); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	if _, err := CreateLoan(ctx, f.db, f.lender.ID, f.input(line)); !errors.Is(err, ErrSerialsUnavailable) {
		t.Fatalf("expected ErrSerialsUnavailable, got %v", err)
	}
	f.assertStock(t, 4, model.SerialOnLoan)
}

func TestLoanValidation(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input model.LoanInput
		want  error
	}{
		{"no lines", f.input(), ErrInvalidInput},
		{"zero quantity", f.input(model.LoanLine{EquipmentID: f.radio.ID, Quantity: 0}), ErrInvalidInput},
		{"missing equipment", f.input(model.LoanLine{EquipmentID: 999, Quantity: 1}), ErrNotFound},
		{"bad type", model.LoanInput{Type: "FOREVER", Equipments: []model.LoanLine{{EquipmentID: f.radio.ID, Quantity: 1}}}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CreateLoan(ctx, f.db, f.lender.ID, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	missing := int64(999)
	in := f.input(model.LoanLine{EquipmentID: f.radio.ID, Quantity: 1})
	in.CustomerID = &missing
	if _, err := CreateLoan(ctx, f.db, f.lender.ID, in); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing customer, got %v", err)
	}
	f.assertStock(t, 5, model.SerialInStock)
}

func TestLoanWithoutCustomer(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	in := f.input(model.LoanLine{EquipmentID: f.radio.ID, Quantity: 1})
	in.CustomerID = nil
	in.Type = ""
	loan, err := CreateLoan(ctx, f.db, f.lender.ID, in)
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	if loan.CustomerID != nil {
		t.Errorf("expected no customer, got %d", *loan.CustomerID)
	}
	if loan.Type != model.LoanCustody {
		t.Errorf("expected default type CUSTODY, got %s", loan.Type)
	}
}

func TestLoanCloseTwiceIsNoop(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	loan, err := CreateLoan(ctx, f.db, f.lender.ID, f.input(model.LoanLine{
		EquipmentID: f.radio.ID, Quantity: 2, SerialNumbers: []int64{f.sn1.ID},
	}))
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	if _, _, err := UpdateLoanStatus(ctx, f.db, loan.ID, model.LoanClosed); err != nil {
		t.Fatalf("first close: %v", err)
	}
	_, changed, err := UpdateLoanStatus(ctx, f.db, loan.ID, model.LoanClosed)
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if changed {
		t.Error("expected second close to change nothing")
	}
	f.assertStock(t, 5, model.SerialInStock)
}

func TestLoanReopenRejected(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	loan, _ := CreateLoan(ctx, f.db, f.lender.ID, f.input(model.LoanLine{EquipmentID: f.radio.ID, Quantity: 1}))

	// OPEN on an open loan changes nothing.
	if _, changed, err := UpdateLoanStatus(ctx, f.db, loan.ID, model.LoanOpen); err != nil || changed {
		t.Fatalf("expected no-op, got changed=%v err=%v", changed, err)
	}

	UpdateLoanStatus(ctx, f.db, loan.ID, model.LoanClosed)

	_, _, err := UpdateLoanStatus(ctx, f.db, loan.ID, model.LoanOpen)
	if !errors.Is(err, ErrLoanClosed) {
		t.Fatalf("expected ErrLoanClosed, got %v", err)
	}

	// Closing again after the rejected reopen must not credit stock twice.
	UpdateLoanStatus(ctx, f.db, loan.ID, model.LoanClosed)
	f.assertStock(t, 5, model.SerialInStock)

	if _, _, err := UpdateLoanStatus(ctx, f.db, loan.ID, "LOST"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := UpdateLoanStatus(ctx, f.db, 999, model.LoanClosed); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListLoansPaginationAndScope(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	other, _ := CreateUser(ctx, f.db, testProfile("other@example.com", model.RoleCommon), "hash")
	line := model.LoanLine{EquipmentID: f.radio.ID, Quantity: 1}
	for i := 0; i < 3; i++ {
		if _, err := CreateLoan(ctx, f.db, f.lender.ID, f.input(line)); err != nil {
			t.Fatalf("CreateLoan: %v", err)
		}
	}
	if _, err := CreateLoan(ctx, f.db, other.ID, f.input(line)); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	loans, page, err := ListLoans(ctx, f.db, model.LoanFilter{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListLoans: %v", err)
	}
	if len(loans) != 2 || page.Total != 4 || page.Pages != 2 {
		t.Errorf("expected 2 of 4 loans over 2 pages, got %d of %d over %d", len(loans), page.Total, page.Pages)
	}
	if loans[0].OrderNumber != 4 {
		t.Errorf("expected newest loan first, got order %d", loans[0].OrderNumber)
	}

	mine, page, _ := ListLoans(ctx, f.db, model.LoanFilter{LenderID: other.ID})
	if len(mine) != 1 || page.Total != 1 {
		t.Errorf("expected 1 loan for other lender, got %d", page.Total)
	}

	open, _, _ := ListLoans(ctx, f.db, model.LoanFilter{Status: model.LoanClosed})
	if len(open) != 0 {
		t.Errorf("expected no closed loans, got %d", len(open))
	}
}

func TestCategoryDeleteRefusedWhenLoaned(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	if _, err := CreateLoan(ctx, f.db, f.lender.ID, f.input(model.LoanLine{EquipmentID: f.radio.ID, Quantity: 1})); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	if _, err := DeleteCategory(ctx, f.db, f.radio.CategoryID); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if err := DeleteEquipment(ctx, f.db, f.radio.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestLoanMissingEquipmentMessage(t *testing.T) {
	f := newLoanFixture(t)

	_, err := CreateLoan(context.Background(), f.db, f.lender.ID, f.input(model.LoanLine{EquipmentID: 999, Quantity: 1}))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got, want := err.Error(), "creating loan: equipment 999: not found"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// Two connections race for the last unit. The write lock taken at BEGIN
// lets only one of them pass the stock check.
func TestConcurrentLoansCannotOversell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cautelas.db")
	ctx := context.Background()

	handles := make([]*sql.DB, 2)
	for i := range handles {
		h, err := db.Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		t.Cleanup(func() { h.Close() })
		handles[i] = h
	}
	if err := db.Migrate(ctx, handles[0]); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	lender, err := CreateUser(ctx, handles[0], testProfile("lender@example.com", model.RoleAdmin), "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	c := createTestCategory(t, ctx, handles[0], "Radios")
	radio := createTestEquipment(t, ctx, handles[0], c.ID, "Radio X", 1, "10")

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(h *sql.DB) {
			defer wg.Done()
			_, err := CreateLoan(ctx, h, lender.ID, model.LoanInput{
				Equipments: []model.LoanLine{{EquipmentID: radio.ID, Quantity: 1}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case !errors.Is(err, ErrInsufficientStock):
				failures = append(failures, err)
			}
		}(handles[i%2])
	}
	wg.Wait()

	for _, err := range failures {
		t.Errorf("unexpected error: %v", err)
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 loan, got %d", successes)
	}

	e, err := GetEquipment(ctx, handles[1], radio.ID)
	if err != nil {
		t.Fatalf("GetEquipment: %v", err)
	}
	if e.Amount != 0 {
		t.Errorf("expected amount 0, got %d", e.Amount)
	}
}

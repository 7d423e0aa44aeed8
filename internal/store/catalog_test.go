package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/cautelas/internal/db"
	"github.com/erazemk/cautelas/internal/model"
)

func createTestCategory(t *testing.T, ctx context.Context, database *sql.DB, name string) *model.Category {
	t.Helper()
	c, err := CreateCategory(ctx, database, name, "")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return c
}

func createTestEquipment(t *testing.T, ctx context.Context, database *sql.DB, categoryID int64, name string, amount int, price string) *model.Equipment {
	t.Helper()
	e, err := CreateEquipment(ctx, database, model.EquipmentInput{
		Name:       name,
		CategoryID: categoryID,
		Amount:     amount,
		UnitPrice:  decimal.RequireFromString(price),
		Condition:  model.ConditionGood,
	})
	if err != nil {
		t.Fatalf("CreateEquipment: %v", err)
	}
	return e
}

func createTestSerial(t *testing.T, ctx context.Context, database *sql.DB, equipmentID int64, number string) *model.SerialNumber {
	t.Helper()
	s, err := CreateSerialNumber(ctx, database, equipmentID, number, model.SerialInStock, model.ConditionGood, "")
	if err != nil {
		t.Fatalf("CreateSerialNumber: %v", err)
	}
	return s
}

func TestCreateCategoryDuplicate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	createTestCategory(t, ctx, database, "Radios")
	if _, err := CreateCategory(ctx, database, "Radios", ""); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if _, err := CreateCategory(ctx, database, "  ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateCategory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := createTestCategory(t, ctx, database, "Radios")
	createTestCategory(t, ctx, database, "Armas")

	got, err := UpdateCategory(ctx, database, c.ID, "Comunicações", "rádios e antenas")
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if got.Name != "Comunicações" || got.Description != "rádios e antenas" {
		t.Errorf("unexpected category: %+v", got)
	}

	if _, err := UpdateCategory(ctx, database, c.ID, "Armas", ""); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if _, err := UpdateCategory(ctx, database, 999, "X", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListCategoriesCountsEquipment(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := createTestCategory(t, ctx, database, "Radios")
	createTestCategory(t, ctx, database, "Empty")
	createTestEquipment(t, ctx, database, c.ID, "Radio X", 1, "10")
	createTestEquipment(t, ctx, database, c.ID, "Radio Y", 1, "10")

	categories, err := ListCategories(ctx, database)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	counts := map[string]int{}
	for _, c := range categories {
		counts[c.Name] = c.EquipmentCount
	}
	if counts["Radios"] != 2 || counts["Empty"] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestDeleteCategoryCascade(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := createTestCategory(t, ctx, database, "Radios")
	e1 := createTestEquipment(t, ctx, database, c.ID, "Radio X", 2, "10")
	e2 := createTestEquipment(t, ctx, database, c.ID, "Radio Y", 1, "10")
	createTestSerial(t, ctx, database, e1.ID, "SN-1")
	createTestSerial(t, ctx, database, e1.ID, "SN-2")
	createTestSerial(t, ctx, database, e2.ID, "SN-3")

	other := createTestCategory(t, ctx, database, "Other")
	keep := createTestEquipment(t, ctx, database, other.ID, "Keep", 1, "1")
	createTestSerial(t, ctx, database, keep.ID, "SN-KEEP")

	del, err := DeleteCategory(ctx, database, c.ID)
	if err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if del.DeletedEquipments != 2 || del.DeletedSerials != 3 {
		t.Errorf("expected 2 equipment and 3 serials deleted, got %+v", del)
	}

	equipments, _ := ListEquipments(ctx, database)
	if len(equipments) != 1 || equipments[0].Name != "Keep" {
		t.Errorf("expected only 'Keep' to remain, got %+v", equipments)
	}
	serials, _ := ListSerialNumbers(ctx, database, 0)
	if len(serials) != 1 {
		t.Errorf("expected 1 serial to remain, got %d", len(serials))
	}

	if _, err := DeleteCategory(ctx, database, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEquipmentCRUD(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := createTestCategory(t, ctx, database, "Radios")
	e := createTestEquipment(t, ctx, database, c.ID, "Radio X", 5, "1234.56")
	createTestSerial(t, ctx, database, e.ID, "SN-1")

	got, err := GetEquipment(ctx, database, e.ID)
	if err != nil {
		t.Fatalf("GetEquipment: %v", err)
	}
	if got.CategoryName != "Radios" {
		t.Errorf("expected category 'Radios', got %q", got.CategoryName)
	}
	if !got.UnitPrice.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("expected unit price 1234.56, got %s", got.UnitPrice)
	}
	if len(got.SerialNumbers) != 1 || got.InStockCount != 1 {
		t.Errorf("expected 1 in-stock serial, got %d/%d", len(got.SerialNumbers), got.InStockCount)
	}

	updated, err := UpdateEquipment(ctx, database, e.ID, model.EquipmentInput{
		Name:       "Radio X2",
		CategoryID: c.ID,
		Amount:     7,
		UnitPrice:  decimal.NewFromInt(100),
		Condition:  model.ConditionFair,
	})
	if err != nil {
		t.Fatalf("UpdateEquipment: %v", err)
	}
	if updated.Name != "Radio X2" || updated.Amount != 7 || updated.Condition != model.ConditionFair {
		t.Errorf("unexpected equipment after update: %+v", updated)
	}

	_, err = CreateEquipment(ctx, database, model.EquipmentInput{
		Name: "Radio X2", CategoryID: c.ID, Condition: model.ConditionGood,
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate name, got %v", err)
	}

	_, err = CreateEquipment(ctx, database, model.EquipmentInput{
		Name: "Bad", CategoryID: c.ID, Amount: -1, Condition: model.ConditionGood,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative amount, got %v", err)
	}

	_, err = CreateEquipment(ctx, database, model.EquipmentInput{
		Name: "Orphan", CategoryID: 999, Condition: model.ConditionGood,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing category, got %v", err)
	}

	if err := DeleteEquipment(ctx, database, e.ID); err != nil {
		t.Fatalf("DeleteEquipment: %v", err)
	}
	if gone, _ := GetEquipment(ctx, database, e.ID); gone != nil {
		t.Error("expected equipment to be deleted")
	}
	if serials, _ := ListSerialNumbers(ctx, database, 0); len(serials) != 0 {
		t.Errorf("expected serials deleted with equipment, got %d", len(serials))
	}
}

func TestEquipmentPhoto(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := createTestCategory(t, ctx, database, "Radios")
	e := createTestEquipment(t, ctx, database, c.ID, "Radio X", 1, "1")

	data, mime, err := GetEquipmentPhoto(ctx, database, e.ID)
	if err != nil {
		t.Fatalf("GetEquipmentPhoto: %v", err)
	}
	if data != nil || mime != "" {
		t.Error("expected no photo initially")
	}

	if err := SetEquipmentPhoto(ctx, database, e.ID, []byte{1, 2, 3}, "image/jpeg"); err != nil {
		t.Fatalf("SetEquipmentPhoto: %v", err)
	}
	data, mime, _ = GetEquipmentPhoto(ctx, database, e.ID)
	if len(data) != 3 || mime != "image/jpeg" {
		t.Errorf("unexpected photo: %v %q", data, mime)
	}

	if err := SetEquipmentPhoto(ctx, database, 999, []byte{1}, "image/jpeg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateSerialNumberDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := createTestCategory(t, ctx, database, "Radios")
	e := createTestEquipment(t, ctx, database, c.ID, "Radio X", 1, "1")

	s, err := CreateSerialNumber(ctx, database, e.ID, "SN-1", "BROKEN", "SHINY", "")
	if err != nil {
		t.Fatalf("CreateSerialNumber: %v", err)
	}
	if s.Status != model.SerialInStock || s.Condition != model.ConditionGood {
		t.Errorf("expected defaults IN_STOCK/GOOD, got %s/%s", s.Status, s.Condition)
	}
	if s.EquipmentName != "Radio X" {
		t.Errorf("expected equipment name 'Radio X', got %q", s.EquipmentName)
	}

	if _, err := CreateSerialNumber(ctx, database, e.ID, "SN-1", "", "", ""); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if _, err := CreateSerialNumber(ctx, database, 999, "SN-2", "", "", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

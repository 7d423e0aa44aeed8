package document

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/erazemk/cautelas/internal/model"
)

// Sheet names of the stock workbook.
const (
	SheetOnLoan = "Em cautela"
	SheetStock  = "Estoque"
)

// StockWorkbook renders a stock snapshot as a spreadsheet with one sheet of
// serial numbers on loan and one of all equipment.
func StockWorkbook(s *model.StockSnapshot, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetOnLoan); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetStock); err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("creating style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(`"R$" #,##0.00`)})
	if err != nil {
		return nil, fmt.Errorf("creating style: %w", err)
	}

	onLoan := [][]any{{"Material", "Nº de série", "Cliente", "Nome de guerra", "Destino", "Data"}}
	for _, r := range s.OnLoan {
		onLoan = append(onLoan, []any{
			r.Equipment, r.SerialNumber, orDash(r.Customer), orDash(r.WarName),
			orDash(r.Mission), model.FormatDate(r.IssuedAt),
		})
	}
	if err := writeRows(f, SheetOnLoan, onLoan, bold); err != nil {
		return nil, err
	}

	stock := [][]any{{"Material", "Categoria", "Nº de série", "Condição", "Quantidade", "Preço unitário", "Valor"}}
	for _, e := range s.Equipments {
		stock = append(stock, []any{
			e.Equipment, e.Category, joinOrDash(e.SerialNumbers), e.Condition.Label(), e.Amount,
			e.UnitPrice.InexactFloat64(),
			e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Amount))).InexactFloat64(),
		})
	}
	stock = append(stock, []any{"Total", "", "", "", "", "", s.TotalValue.InexactFloat64()})
	if err := writeRows(f, SheetStock, stock, bold); err != nil {
		return nil, err
	}

	last, err := excelize.CoordinatesToCellName(7, len(stock))
	if err != nil {
		return nil, fmt.Errorf("computing cell name: %w", err)
	}
	if err := f.SetCellStyle(SheetStock, "F2", last, money); err != nil {
		return nil, fmt.Errorf("styling prices: %w", err)
	}
	totalCell, _ := excelize.CoordinatesToCellName(1, len(stock))
	if err := f.SetCellStyle(SheetStock, totalCell, totalCell, bold); err != nil {
		return nil, fmt.Errorf("styling total: %w", err)
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Estoque " + model.FormatDate(&now),
		Created: now.Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("setting document properties: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeRows writes rows from A1 down and bolds the first one.
func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("computing cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}

	end, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return fmt.Errorf("computing cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", end, headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

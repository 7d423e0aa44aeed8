package document

import (
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/cautelas/internal/model"
)

const noValue = "-"

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return noValue
	}
	return s
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return noValue
	}
	return strings.Join(items, ", ")
}

// LoanReceiptData shapes a loan into the fields of the loan template.
func LoanReceiptData(d *model.LoanDetail) map[string]any {
	serials := make(map[int64][]string)
	for _, s := range d.Serials {
		serials[s.EquipmentID] = append(serials[s.EquipmentID], s.Number)
	}

	equipments := make([]map[string]any, 0, len(d.Equipments))
	for _, le := range d.Equipments {
		equipments = append(equipments, map[string]any{
			"material":   le.EquipmentName,
			"numero_de":  joinOrDash(serials[le.EquipmentID]),
			"tipo":       orDash(le.EquipmentDescription),
			"condicao":   le.EquipmentCondition.Label(),
			"quantidade": strconv.Itoa(le.Quantity),
			"preco":      model.FormatMoney(le.TotalPrice),
		})
	}

	issued := d.IssuedAt
	data := map[string]any{
		"nrcautela":            d.OrderNumber,
		"date":                 model.FormatDate(&issued),
		"devolutionDate":       model.FormatDate(d.DevolutionDate),
		"mission":              orDash(d.Mission),
		"urgency":              orDash(d.Urgency),
		"observation":          d.Observation,
		"equipments":           equipments,
		"totalPrice":           model.FormatMoney(d.TotalPrice()),
		"receiver":             noValue,
		"rank":                 noValue,
		"warName":              noValue,
		"militaryOrganization": noValue,
		"lender":               noValue,
		"lenderRank":           noValue,
		"function":             noValue,
	}
	if d.Observation == "" {
		data["observation"] = "Sem observação"
	}
	if c := d.Customer; c != nil {
		data["receiver"] = model.FormatName(c.Name)
		data["rank"] = orDash(model.RankAbbreviation(c.Rank))
		data["warName"] = model.FormatName(c.WarName)
		data["militaryOrganization"] = orDash(c.MilitaryOrganization)
	}
	if l := d.Lender; l != nil {
		data["lender"] = model.FormatName(l.Name)
		data["lenderRank"] = orDash(model.RankAbbreviation(l.Rank))
		data["function"] = orDash(l.FunctionName)
	}
	return data
}

// AlterationData shapes an alteration into the fields of the alteration
// template. The alteration must carry its customer.
func AlterationData(a *model.Alteration) map[string]any {
	data := map[string]any{
		"mission":       a.Mission,
		"location":      a.Location,
		"date":          model.FormatDate(&a.Date),
		"equipmentName": a.Equipment,
		"amount":        a.Amount,
		"serialNumber":  joinOrDash(a.SerialNumbers),
		"desc":          a.Description,
	}
	c := a.Customer
	if c == nil {
		c = &model.Customer{}
	}
	data["name"] = model.FormatName(c.Name)
	data["warName"] = model.FormatName(c.WarName)
	data["document"] = model.FormatCPF(c.Document)
	data["militaryOrganization"] = orDash(c.MilitaryOrganization)
	data["rank"] = model.RankAbbreviation(c.Rank)
	return data
}

// stockRows builds the two tables shared by the stock reports. useWarName
// picks the customer's war name instead of the full name.
func stockRows(s *model.StockSnapshot, useWarName bool) (onLoan, equipments []map[string]any) {
	for _, r := range s.OnLoan {
		customer := r.Customer
		if useWarName {
			customer = r.WarName
		}
		onLoan = append(onLoan, map[string]any{
			"material":   r.Equipment,
			"numero_de":  r.SerialNumber,
			"cliente":    orDash(customer),
			"destino":    orDash(r.Mission),
			"quantidade": "1",
			"data":       model.FormatDate(r.IssuedAt),
		})
	}
	if len(onLoan) == 0 {
		onLoan = []map[string]any{{
			"material": noValue, "numero_de": noValue, "cliente": noValue,
			"destino": noValue, "quantidade": noValue, "data": noValue,
		}}
	}

	for _, e := range s.Equipments {
		equipments = append(equipments, map[string]any{
			"material":   e.Equipment,
			"numero_de":  joinOrDash(e.SerialNumbers),
			"categoria":  e.Category,
			"condicao":   e.Condition.Label(),
			"quantidade": strconv.Itoa(e.Amount),
			"preco":      model.FormatMoney(e.UnitPrice),
		})
	}
	if len(equipments) == 0 {
		equipments = []map[string]any{{
			"material": noValue, "numero_de": noValue, "categoria": noValue,
			"condicao": noValue, "quantidade": noValue, "preco": noValue,
		}}
	}
	return onLoan, equipments
}

// ReadyReportData shapes a stock snapshot into the ready-state report,
// signed by the user who requested it.
func ReadyReportData(s *model.StockSnapshot, user *model.User, now time.Time) map[string]any {
	onLoan, equipments := stockRows(s, true)
	data := map[string]any{
		"date":        model.FormatDate(&now),
		"Requipments": onLoan,
		"Equipments":  equipments,
		"dataProco":   model.FormatMoney(s.TotalValue),
		"rank":        "P/G não identificado",
		"warName":     noValue,
	}
	if user != nil {
		data["rank"] = model.RankAbbreviation(user.Rank)
		data["warName"] = orDash(user.WarName)
	}
	return data
}

// DailyReportData shapes a stock snapshot into the daily report.
func DailyReportData(s *model.StockSnapshot, now time.Time) map[string]any {
	onLoan, equipments := stockRows(s, false)
	return map[string]any{
		"date":        model.FormatDate(&now),
		"Requipments": onLoan,
		"Equipments":  equipments,
		"dataProco":   model.FormatMoney(s.TotalValue),
	}
}

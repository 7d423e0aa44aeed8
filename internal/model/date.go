package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// inputDateLayouts are the accepted forms for dates sent by clients. Form
// date pickers send a bare day.
var inputDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseInputDate parses a client-supplied date in any of the accepted layouts.
// Dates without an offset are taken as UTC.
func ParseInputDate(s string) (time.Time, error) {
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// inputDate decodes a JSON string through ParseInputDate. A null leaves it
// unset.
type inputDate struct {
	time.Time
	Set bool
}

func (d *inputDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := ParseInputDate(s)
	if err != nil {
		return err
	}
	d.Time, d.Set = t, true
	return nil
}

// UnmarshalJSON accepts devolution_date as RFC 3339 or a plain day.
func (in *LoanInput) UnmarshalJSON(data []byte) error {
	type plain LoanInput
	aux := struct {
		*plain
		DevolutionDate inputDate `json:"devolution_date"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	in.DevolutionDate = nil
	if aux.DevolutionDate.Set {
		t := aux.DevolutionDate.Time
		in.DevolutionDate = &t
	}
	return nil
}

// UnmarshalJSON accepts date as RFC 3339 or a plain day.
func (a *Alteration) UnmarshalJSON(data []byte) error {
	type plain Alteration
	aux := struct {
		*plain
		Date inputDate `json:"date"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Date.Set {
		a.Date = aux.Date.Time
	}
	return nil
}

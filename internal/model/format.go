package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// lowercaseParticles stay lowercase inside formatted names.
var lowercaseParticles = map[string]bool{
	"de": true, "da": true, "do": true, "das": true, "dos": true, "e": true,
}

// FormatName title-cases a person's name, keeping connecting particles
// lowercase. Empty names print as "-".
func FormatName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "-"
	}
	words := strings.Split(strings.ToLower(name), " ")
	for i, w := range words {
		if w == "" || lowercaseParticles[w] {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// FormatCPF formats an 11-digit document as 000.000.000-00. Anything else is
// returned as given.
func FormatCPF(document string) string {
	if document == "" {
		return "-"
	}
	var digits strings.Builder
	for _, r := range document {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) != 11 {
		return document
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// FormatMoney prints an amount in Brazilian reais, e.g. "R$ 1.234,56".
func FormatMoney(v decimal.Decimal) string {
	s := v.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	out := "R$ " + grouped.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

// FormatDate prints a date as dd/mm/yyyy, or "-" when absent.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "-"},
		{"JOÃO DA SILVA", "João da Silva"},
		{"maria dos santos e souza", "Maria dos Santos e Souza"},
		{"ana", "Ana"},
	}
	for _, tt := range tests {
		if got := FormatName(tt.in); got != tt.want {
			t.Errorf("FormatName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCPF(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "-"},
		{"12345678901", "123.456.789-01"},
		{"123.456.789-01", "123.456.789-01"},
		{"1234", "1234"},
	}
	for _, tt := range tests {
		if got := FormatCPF(tt.in); got != tt.want {
			t.Errorf("FormatCPF(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0", "R$ 0,00"},
		{"12.5", "R$ 12,50"},
		{"1234.56", "R$ 1.234,56"},
		{"1234567.891", "R$ 1.234.567,89"},
		{"-10", "-R$ 10,00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(nil); got != "-" {
		t.Errorf("FormatDate(nil) = %q, want -", got)
	}
	d := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	if got := FormatDate(&d); got != "07/03/2025" {
		t.Errorf("FormatDate = %q, want 07/03/2025", got)
	}
}

func TestRankAbbreviation(t *testing.T) {
	if got := RankAbbreviation("TEN_CEL"); got != "Ten Cel" {
		t.Errorf("RankAbbreviation(TEN_CEL) = %q", got)
	}
	if got := RankAbbreviation("GEN"); got != "GEN" {
		t.Errorf("unknown rank should pass through, got %q", got)
	}
}

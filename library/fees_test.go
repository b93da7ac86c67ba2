package library

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOverdueFee(t *testing.T) {
	tests := []struct {
		name     string
		returned string
		days     int
		amount   string
	}{
		{"same day", "2024-01-01", 0, "0"},
		{"on due date", "2024-01-15", 0, "0"},
		{"one day late", "2024-01-16", 1, "0.1"},
		{"five days late", "2024-01-20", 5, "0.5"},
		{"across a leap day", "2024-03-01", 46, "4.6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := OverdueFee(day("2024-01-01"), day(tt.returned))
			assert.Equal(t, day("2024-01-15"), fee.Due)
			assert.Equal(t, tt.days, fee.OverdueDays)
			assert.True(t, fee.Amount.Equal(decimal.RequireFromString(tt.amount)), "got %s", fee.Amount)
		})
	}
}

func TestFormatMoney(t *testing.T) {
	half := decimal.RequireFromString("0.5")
	assert.Equal(t, "€0.50", FormatMoney(half, "EUR"))
	assert.Equal(t, "$0.50", FormatMoney(half, "USD"))
	assert.Equal(t, "0.50 XYZ", FormatMoney(half, "XYZ"))
}

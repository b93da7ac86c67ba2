package library

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"library-lending/date"
)

// FeePerDay is the charge for each day a book is returned after its due date.
var FeePerDay = decimal.RequireFromString("0.10")

// DefaultCurrency is used to display fees when none is configured.
const DefaultCurrency = money.EUR

// Fee is the overdue charge of one loan.
type Fee struct {
	Due         date.Date
	OverdueDays int
	Amount      decimal.Decimal
}

// OverdueFee computes the fee for a book borrowed and returned on the given
// days. Returning on or before the due date costs nothing.
func OverdueFee(borrowed, returned date.Date) Fee {
	due := borrowed.Add(LoanPeriodDays)
	fee := Fee{Due: due, Amount: decimal.Zero}
	if returned.After(due) {
		fee.OverdueDays = returned.DaysSince(due)
		fee.Amount = FeePerDay.Mul(decimal.NewFromInt(int64(fee.OverdueDays)))
	}
	return fee
}

// FormatMoney displays amount in the given ISO currency ("€0.50").
// Unknown currencies fall back to "0.50 XYZ".
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

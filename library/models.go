package library

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"library-lending/date"
)

const (
	// BorrowLimit is the maximum number of simultaneous active loans per borrower.
	BorrowLimit = 3

	// LoanPeriodDays is the number of days a book may be kept free of charge.
	LoanPeriodDays = 14
)

// Book is a catalog entry. The title is the catalog key.
type Book struct {
	Title  string `json:"-" validate:"required"`
	Author string `json:"Auteur"`
	Year   int    `json:"Année" validate:"gte=0,notfuture"`
	Genre  string `json:"Genre"`
	Copies int    `json:"Exemplaires" validate:"gte=0"`
}

// Name identifies a borrower. Two borrowers with the same name are the same borrower.
type Name struct {
	Last  string `validate:"required"`
	First string `validate:"required"`
}

// NewName trims and capitalizes both parts ("dOE" becomes "Doe").
func NewName(last, first string) Name {
	return Name{Last: normalizeName(last), First: normalizeName(first)}
}

func normalizeName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Title(language.Und).String(s)
}

// Matches reports whether n and o designate the same borrower, ignoring case.
func (n Name) Matches(o Name) bool {
	return fold(n.Last) == fold(o.Last) && fold(n.First) == fold(o.First)
}

func (n Name) String() string { return n.First + " " + n.Last }

// fold returns the case-folded form of s used for case-insensitive matching.
func fold(s string) string { return cases.Fold().String(s) }

// Loan is one borrowing of a single copy. A zero Returned date means the
// loan is still active.
type Loan struct {
	ID       string
	Title    string
	Borrowed date.Date
	Returned date.Date
}

// Active reports whether the book has not been returned yet.
func (l Loan) Active() bool { return l.Returned.IsZero() }

// Due returns the last day the book can be returned without a fee.
func (l Loan) Due() date.Date { return l.Borrowed.Add(LoanPeriodDays) }

// LoanEntry is an active loan as presented for selection, numbered from 1.
type LoanEntry struct {
	Position int
	Loan
}

// State is the whole in-memory library: the catalog and the ledger.
type State struct {
	Catalog *Catalog
	Ledger  *Ledger
}

// NewState returns an empty library.
func NewState() *State {
	return &State{Catalog: NewCatalog(), Ledger: NewLedger()}
}

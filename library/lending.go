package library

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"library-lending/date"
)

// ErrSkipped marks the titles of a borrow request left unprocessed because an
// earlier title of the same request failed.
var ErrSkipped = errors.New("not processed: an earlier title failed")

// BorrowedBook is a loan created by Borrow.
type BorrowedBook struct {
	LoanID   string
	Title    string
	Borrowed date.Date
	Due      date.Date
}

// Rejection is a requested title that was not lent.
type Rejection struct {
	Title string
	Err   error
}

// BorrowResult reports a borrow request.
type BorrowResult struct {
	Borrower         Name
	NewBorrower      bool
	PreviouslyActive []LoanEntry
	Accepted         []BorrowedBook
	Rejected         []Rejection
	Due              date.Date
	FeePerDay        decimal.Decimal
}

// Borrow lends the requested titles to who.
//
// The whole request is refused when the borrower would exceed BorrowLimit
// active loans. Otherwise titles are processed in order and processing stops
// at the first title that is unknown or has no copy left: the titles lent
// before it stay lent and the remaining ones are reported as ErrSkipped.
// When no title could be lent, the first rejection is returned as the error
// and the state is left untouched.
func Borrow(s *State, who Name, titles []string, today date.Date) (*BorrowResult, error) {
	if err := validateStruct(who); err != nil {
		return nil, err
	}
	var requested []string
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			requested = append(requested, t)
		}
	}
	if len(requested) == 0 {
		return nil, Validation("no title requested")
	}

	b, found := s.Ledger.Find(who)
	if !found {
		b = NewBorrower(who)
	}
	active := b.ActiveLoans()
	res := &BorrowResult{
		Borrower:         b.Name,
		NewBorrower:      !found,
		PreviouslyActive: active,
		Due:              today.Add(LoanPeriodDays),
		FeePerDay:        FeePerDay,
	}

	if len(active) >= BorrowLimit || len(active)+len(requested) > BorrowLimit {
		err := LimitExceeded(len(requested), active)
		for _, t := range requested {
			res.Rejected = append(res.Rejected, Rejection{Title: t, Err: err})
		}
		return res, err
	}

	for i, title := range requested {
		book, err := s.Catalog.lookup(title)
		if err == nil && book.Copies <= 0 {
			err = Unavailable(book.Title)
		}
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Title: title, Err: err})
			for _, rest := range requested[i+1:] {
				res.Rejected = append(res.Rejected, Rejection{Title: rest, Err: ErrSkipped})
			}
			break
		}

		loan := Loan{ID: b.NextLoanID(), Title: book.Title, Borrowed: today}
		if err := b.addLoan(loan); err != nil {
			return res, err
		}
		book.Copies--
		res.Accepted = append(res.Accepted, BorrowedBook{
			LoanID:   loan.ID,
			Title:    loan.Title,
			Borrowed: loan.Borrowed,
			Due:      loan.Due(),
		})
	}

	if len(res.Accepted) == 0 {
		return res, res.Rejected[0].Err
	}
	if !found {
		if err := s.Ledger.Add(b); err != nil {
			return res, err
		}
	}
	return res, nil
}

// ActiveLoans returns the borrower matching who and their active loans,
// numbered from 1 for Return's selection.
func ActiveLoans(l *Ledger, who Name) (*Borrower, []LoanEntry, error) {
	b, ok := l.Find(who)
	if !ok {
		return nil, nil, NotFound("borrower %s not found", who)
	}
	active := b.ActiveLoans()
	if len(active) == 0 {
		return b, nil, &Error{Code: CodeNothingToReturn, Message: fmt.Sprintf("%s has no book to return", b.Name)}
	}
	return b, active, nil
}

// ReturnedLoan reports one returned loan.
type ReturnedLoan struct {
	Loan
	Fee         Fee
	BookMissing bool // the title is no longer in the catalog
}

// ReturnResult reports a return.
type ReturnResult struct {
	Borrower Name
	Returned []ReturnedLoan
	Total    decimal.Decimal
}

// Return marks the selected loans of who as returned today. selection holds
// 1-based positions into the list given by ActiveLoans; it is checked as a
// whole before anything changes.
func Return(s *State, who Name, selection []int, today date.Date) (*ReturnResult, error) {
	b, active, err := ActiveLoans(s.Ledger, who)
	if err != nil {
		return nil, err
	}
	if len(selection) == 0 {
		return nil, Validation("no loan selected")
	}
	seen := make(map[int]bool, len(selection))
	for _, pos := range selection {
		if pos < 1 || pos > len(active) {
			return nil, Validation("invalid selection %d: enter a number between 1 and %d", pos, len(active))
		}
		if seen[pos] {
			return nil, Validation("loan number %d selected twice", pos)
		}
		seen[pos] = true
		if today.Before(active[pos-1].Borrowed) {
			return nil, Validation("loan %q cannot be returned before %s", active[pos-1].Title, active[pos-1].Borrowed)
		}
	}

	res := &ReturnResult{Borrower: b.Name, Total: decimal.Zero}
	for _, pos := range selection {
		loan := b.loans[active[pos-1].ID]
		loan.Returned = today

		returned := ReturnedLoan{Loan: *loan, Fee: OverdueFee(loan.Borrowed, today)}
		if book, err := s.Catalog.lookup(loan.Title); err == nil {
			book.Copies++
		} else {
			returned.BookMissing = true
		}
		res.Total = res.Total.Add(returned.Fee.Amount)
		res.Returned = append(res.Returned, returned)
	}
	return res, nil
}

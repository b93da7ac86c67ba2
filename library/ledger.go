package library

import (
	"slices"
	"strconv"
)

// Borrower is a person with their loan history. Loans are kept in the order
// they were created.
type Borrower struct {
	Name    Name
	PhotoID string

	order []string
	loans map[string]*Loan
}

// NewBorrower returns a borrower without loans.
func NewBorrower(name Name) *Borrower {
	return &Borrower{Name: name, loans: make(map[string]*Loan)}
}

// Loans returns a copy of every loan in creation order.
func (b *Borrower) Loans() []Loan {
	loans := make([]Loan, 0, len(b.order))
	for _, id := range b.order {
		loans = append(loans, *b.loans[id])
	}
	return loans
}

// Loan returns the loan with the given id.
func (b *Borrower) Loan(id string) (Loan, bool) {
	l, ok := b.loans[id]
	if !ok {
		return Loan{}, false
	}
	return *l, true
}

// ActiveLoans returns the loans not yet returned, numbered from 1.
func (b *Borrower) ActiveLoans() []LoanEntry {
	var active []LoanEntry
	for _, id := range b.order {
		if l := b.loans[id]; l.Active() {
			active = append(active, LoanEntry{Position: len(active) + 1, Loan: *l})
		}
	}
	return active
}

// ActiveCount returns the number of loans not yet returned. It is always
// computed from the loans.
func (b *Borrower) ActiveCount() int {
	n := 0
	for _, l := range b.loans {
		if l.Active() {
			n++
		}
	}
	return n
}

// NextLoanID returns max(existing numeric ids)+1, or "1".
func (b *Borrower) NextLoanID() string {
	highest := 0
	for _, id := range b.order {
		if n, err := strconv.Atoi(id); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

// addLoan appends l, rejecting duplicate or malformed ids and return dates
// before the borrow date.
func (b *Borrower) addLoan(l Loan) error {
	if n, err := strconv.Atoi(l.ID); err != nil || n <= 0 {
		return Validation("loan id %q is not a positive integer", l.ID)
	}
	if _, dup := b.Loan(l.ID); dup {
		return Validation("duplicate loan id %q for %s", l.ID, b.Name)
	}
	if !l.Returned.IsZero() && l.Returned.Before(l.Borrowed) {
		return Validation("loan %q returned on %s before being borrowed on %s", l.ID, l.Returned, l.Borrowed)
	}
	b.order = append(b.order, l.ID)
	b.loans[l.ID] = &l
	return nil
}

// Ledger is the ordered list of borrowers.
type Ledger struct {
	borrowers []*Borrower
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger { return &Ledger{} }

// Len returns the number of borrowers.
func (l *Ledger) Len() int { return len(l.borrowers) }

// List returns the borrowers in ledger order.
func (l *Ledger) List() []*Borrower { return slices.Clone(l.borrowers) }

// Find returns the borrower matching name, ignoring case.
func (l *Ledger) Find(name Name) (*Borrower, bool) {
	for _, b := range l.borrowers {
		if b.Name.Matches(name) {
			return b, true
		}
	}
	return nil, false
}

// FindOrCreate returns the borrower matching name, appending a new one if absent.
func (l *Ledger) FindOrCreate(name Name) (b *Borrower, created bool) {
	if b, ok := l.Find(name); ok {
		return b, false
	}
	b = NewBorrower(name)
	l.borrowers = append(l.borrowers, b)
	return b, true
}

// Add appends b. A borrower with the same name must not already exist.
func (l *Ledger) Add(b *Borrower) error {
	if _, ok := l.Find(b.Name); ok {
		return AlreadyExists("borrower %s already exists", b.Name)
	}
	l.borrowers = append(l.borrowers, b)
	return nil
}

// Rename changes the name of the borrower matching from.
func (l *Ledger) Rename(from, to Name) error {
	if err := validateStruct(to); err != nil {
		return err
	}
	b, ok := l.Find(from)
	if !ok {
		return NotFound("borrower %s not found", from)
	}
	if other, ok := l.Find(to); ok && other != b {
		return AlreadyExists("borrower %s already exists", to)
	}
	b.Name = to
	return nil
}

// SetPhoto records the photo file name of the borrower matching name.
func (l *Ledger) SetPhoto(name Name, photoID string) error {
	b, ok := l.Find(name)
	if !ok {
		return NotFound("borrower %s not found", name)
	}
	b.PhotoID = photoID
	return nil
}

package library

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorrowLastCopy(t *testing.T) {
	st := newState(t, dune(1))

	res, err := Borrow(st, jane, []string{"Dune"}, day("2024-03-01"))
	require.NoError(t, err)
	assert.True(t, res.NewBorrower)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, BorrowedBook{LoanID: "1", Title: "Dune", Borrowed: day("2024-03-01"), Due: day("2024-03-15")}, res.Accepted[0])
	assert.True(t, res.FeePerDay.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, 0, copiesOf(t, st, "Dune"))

	res, err = Borrow(st, Name{Last: "Roe", First: "Rick"}, []string{"dune"}, day("2024-03-02"))
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "no copies available")
	assert.Empty(t, res.Accepted)
	assert.Equal(t, 0, copiesOf(t, st, "Dune"))
	_, found := st.Ledger.Find(Name{Last: "Roe", First: "Rick"})
	assert.False(t, found, "a borrower who got nothing is not recorded")
}

func TestBorrowLimit(t *testing.T) {
	st := newState(t, book("A", 1), book("B", 1), book("C", 1), book("D", 1))
	_, err := Borrow(st, jane, []string{"A", "B", "C"}, day("2024-03-01"))
	require.NoError(t, err)

	res, err := Borrow(st, jane, []string{"D"}, day("2024-03-02"))
	require.ErrorIs(t, err, ErrLimitExceeded)
	active := ActiveLoansOf(err)
	require.Len(t, active, 3)
	for i, title := range []string{"A", "B", "C"} {
		assert.Equal(t, title, active[i].Title)
		assert.Equal(t, day("2024-03-01"), active[i].Borrowed)
	}
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 1, copiesOf(t, st, "D"))
}

func TestBorrowLimitRejectsWholeBatch(t *testing.T) {
	st := newState(t, book("A", 5), book("B", 5))
	_, err := Borrow(st, jane, []string{"A", "A"}, day("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 3, copiesOf(t, st, "A"), "the same title twice makes two loans")

	_, err = Borrow(st, jane, []string{"B", "B"}, day("2024-03-02"))
	require.ErrorIs(t, err, ErrLimitExceeded)
	assert.Equal(t, 5, copiesOf(t, st, "B"))

	b, _ := st.Ledger.Find(jane)
	assert.Equal(t, 2, b.ActiveCount())
}

func TestBorrowLimitAppliesRegardlessOfTitles(t *testing.T) {
	st := newState(t, book("A", 5))
	_, err := Borrow(st, jane, []string{"A", "A", "A"}, day("2024-03-01"))
	require.NoError(t, err)

	_, err = Borrow(st, jane, []string{"No Such Book"}, day("2024-03-02"))
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestBorrowStopsAtFirstFailure(t *testing.T) {
	st := newState(t, book("A", 1), book("Gone", 0), book("C", 1))

	res, err := Borrow(st, jane, []string{"A", "Gone", "C"}, day("2024-03-01"))
	require.NoError(t, err, "the accepted title is kept")
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "A", res.Accepted[0].Title)
	require.Len(t, res.Rejected, 2)
	assert.ErrorIs(t, res.Rejected[0].Err, ErrUnavailable)
	assert.True(t, errors.Is(res.Rejected[1].Err, ErrSkipped))
	assert.Equal(t, 0, copiesOf(t, st, "A"))
	assert.Equal(t, 1, copiesOf(t, st, "C"))

	b, ok := st.Ledger.Find(jane)
	require.True(t, ok)
	assert.Equal(t, 1, b.ActiveCount())
}

func TestBorrowValidation(t *testing.T) {
	st := newState(t, dune(1))

	_, err := Borrow(st, Name{Last: "Doe"}, []string{"Dune"}, day("2024-03-01"))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, FieldErrors(err), "first")

	_, err = Borrow(st, jane, []string{" ", ""}, day("2024-03-01"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Borrow(st, jane, []string{"Unknown"}, day("2024-03-01"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, st.Ledger.Len())
}

func TestBorrowContinuesLoanIDs(t *testing.T) {
	st := newState(t, book("A", 5))
	b := NewBorrower(jane)
	require.NoError(t, b.addLoan(Loan{ID: "4", Title: "A", Borrowed: day("2024-01-01"), Returned: day("2024-01-02")}))
	require.NoError(t, st.Ledger.Add(b))

	res, err := Borrow(st, NewName("doe", "jane"), []string{"A", "A"}, day("2024-03-01"))
	require.NoError(t, err)
	assert.False(t, res.NewBorrower)
	assert.Equal(t, "5", res.Accepted[0].LoanID)
	assert.Equal(t, "6", res.Accepted[1].LoanID)
}

func TestActiveLoans(t *testing.T) {
	st := newState(t, book("A", 1))
	_, _, err := ActiveLoans(st.Ledger, jane)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Borrow(st, jane, []string{"A"}, day("2024-03-01"))
	require.NoError(t, err)
	_, err = Return(st, jane, []int{1}, day("2024-03-02"))
	require.NoError(t, err)

	_, _, err = ActiveLoans(st.Ledger, jane)
	assert.ErrorIs(t, err, ErrNothingToReturn)
}

func TestReturnOverdue(t *testing.T) {
	st := newState(t, dune(1))
	_, err := Borrow(st, jane, []string{"Dune"}, day("2024-01-01"))
	require.NoError(t, err)

	res, err := Return(st, jane, []int{1}, day("2024-01-20"))
	require.NoError(t, err)
	require.Len(t, res.Returned, 1)

	r := res.Returned[0]
	assert.Equal(t, day("2024-01-15"), r.Fee.Due)
	assert.Equal(t, 5, r.Fee.OverdueDays)
	assert.Equal(t, "0.50", r.Fee.Amount.StringFixed(2))
	assert.True(t, res.Total.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, day("2024-01-20"), r.Returned)
	assert.Equal(t, 1, copiesOf(t, st, "Dune"))

	b, _ := st.Ledger.Find(jane)
	assert.Equal(t, 0, b.ActiveCount())
}

func TestReturnSelection(t *testing.T) {
	st := newState(t, book("A", 1), book("B", 1), book("C", 1))
	_, err := Borrow(st, jane, []string{"A", "B", "C"}, day("2024-03-01"))
	require.NoError(t, err)

	for _, sel := range [][]int{nil, {0}, {4}, {1, 1}} {
		_, err := Return(st, jane, sel, day("2024-03-05"))
		assert.ErrorIs(t, err, ErrValidation, "selection %v", sel)
	}
	_, err = Return(st, jane, []int{1}, day("2024-02-28"))
	assert.ErrorIs(t, err, ErrValidation, "return before borrow")

	b, _ := st.Ledger.Find(jane)
	assert.Equal(t, 3, b.ActiveCount(), "rejected selections change nothing")

	res, err := Return(st, jane, []int{3, 1}, day("2024-03-05"))
	require.NoError(t, err)
	assert.Equal(t, "C", res.Returned[0].Title)
	assert.Equal(t, "A", res.Returned[1].Title)
	assert.True(t, res.Total.IsZero())

	active := b.ActiveLoans()
	require.Len(t, active, 1)
	assert.Equal(t, "B", active[0].Title)
	assert.Equal(t, 1, active[0].Position)
}

func TestReturnDeletedBook(t *testing.T) {
	st := newState(t, dune(1))
	_, err := Borrow(st, jane, []string{"Dune"}, day("2024-03-01"))
	require.NoError(t, err)
	_, err = st.Catalog.Delete("Dune")
	require.NoError(t, err)

	res, err := Return(st, jane, []int{1}, day("2024-03-02"))
	require.NoError(t, err)
	assert.True(t, res.Returned[0].BookMissing)
}

// TestCopiesInvariant checks that copies equal initial - borrowed + returned
// and that active counts match open loans after a mixed sequence.
func TestCopiesInvariant(t *testing.T) {
	st := newState(t, book("A", 3))
	people := []Name{jane, {Last: "Roe", First: "Rick"}, {Last: "Poe", First: "Ed"}}
	borrowed, returned := 0, 0

	for round := 0; round < 4; round++ {
		for _, who := range people {
			if _, err := Borrow(st, who, []string{"A"}, day("2024-03-01").Add(round)); err == nil {
				borrowed++
			}
			assert.GreaterOrEqual(t, copiesOf(t, st, "A"), 0)
		}
		if res, err := Return(st, people[round%len(people)], []int{1}, day("2024-03-01").Add(round)); err == nil {
			returned += len(res.Returned)
		}
		assert.Equal(t, 3-borrowed+returned, copiesOf(t, st, "A"))
	}

	for _, b := range st.Ledger.List() {
		open := 0
		for _, l := range b.Loans() {
			if l.Returned.IsZero() {
				open++
			}
		}
		assert.Equal(t, open, b.ActiveCount())
	}
}

func TestBorrowCaseVariantTitles(t *testing.T) {
	st := newState(t, book("Dune", 1), book("DUNE", 7))

	res, err := Borrow(st, jane, []string{"DUNE"}, day("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, "DUNE", res.Accepted[0].Title)
	assert.Equal(t, 6, copiesOf(t, st, "DUNE"))
	assert.Equal(t, 1, copiesOf(t, st, "Dune"))

	_, err = Borrow(st, jane, []string{"dune"}, day("2024-03-01"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Return(st, jane, []int{1}, day("2024-03-02"))
	require.NoError(t, err)
	assert.Equal(t, 7, copiesOf(t, st, "DUNE"), "the loan's exact title gets the copy back")
	assert.Equal(t, 1, copiesOf(t, st, "Dune"))
}

package library

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"library-lending/date"
)

// Ledger file columns. Identity columns are only filled on the first row of
// each borrower; the following rows carry one loan each.
const (
	colLastName    = "nom"
	colFirstName   = "prenom"
	colActiveCount = "nbr_livres_empruntes"
	colPhotoID     = "photo_id"
	colLoanID      = "emprunt_id"
	colTitle       = "titre"
	colBorrowed    = "date_emprunt"
	colReturned    = "date_retour"
)

// LedgerHeader is the header row of the ledger file.
var LedgerHeader = []string{
	colLastName, colFirstName, colActiveCount, colPhotoID,
	colLoanID, colTitle, colBorrowed, colReturned,
}

// ReadLedger parses the flattened ledger table. A row with blank names belongs
// to the most recent row carrying names; rows before any named row are
// ignored. The stored active count is ignored.
func ReadLedger(r io.Reader) (*Ledger, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range LedgerHeader {
		if _, ok := cols[name]; !ok && name != colPhotoID {
			return nil, fmt.Errorf("ledger header misses column %q", name)
		}
	}

	ledger := NewLedger()
	var current *Borrower
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		field := func(name string) string {
			if i, ok := cols[name]; ok && i < len(record) {
				return record[i]
			}
			return ""
		}

		if last, first := field(colLastName), field(colFirstName); last != "" && first != "" {
			b, _ := ledger.FindOrCreate(Name{Last: last, First: first})
			if photo := field(colPhotoID); photo != "" {
				b.PhotoID = photo
			}
			current = b
		}
		if current == nil || field(colLoanID) == "" {
			continue
		}

		loan, err := parseLoanRow(field)
		if err != nil {
			return nil, fmt.Errorf("ledger line %d: %w", line, err)
		}
		if err := current.addLoan(loan); err != nil {
			return nil, fmt.Errorf("ledger line %d: %w", line, err)
		}
	}
	return ledger, nil
}

func parseLoanRow(field func(string) string) (Loan, error) {
	borrowed, err := date.Parse(field(colBorrowed))
	if err != nil {
		return Loan{}, err
	}
	if borrowed.IsZero() {
		return Loan{}, Validation("loan %q has no borrow date", field(colLoanID))
	}
	returned, err := date.Parse(field(colReturned))
	if err != nil {
		return Loan{}, err
	}
	return Loan{
		ID:       field(colLoanID),
		Title:    field(colTitle),
		Borrowed: borrowed,
		Returned: returned,
	}, nil
}

// WriteLedger writes the flattened ledger table. The active count column is
// computed from the loans. A borrower without loans gets a single identity row.
func WriteLedger(w io.Writer, l *Ledger) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(LedgerHeader); err != nil {
		return err
	}
	for _, b := range l.borrowers {
		identity := []string{b.Name.Last, b.Name.First, strconv.Itoa(b.ActiveCount()), b.PhotoID}
		loans := b.Loans()
		if len(loans) == 0 {
			if err := writer.Write(append(identity, "", "", "", "")); err != nil {
				return err
			}
			continue
		}
		for i, loan := range loans {
			row := []string{"", "", "", ""}
			if i == 0 {
				row = identity
			}
			row = append(row, loan.ID, loan.Title, loan.Borrowed.String(), loan.Returned.String())
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

package library

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var march1 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)

func newManager(t *testing.T, opts ...Option) (*LibraryManager, Store) {
	t.Helper()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "bibliotheque.json"), filepath.Join(dir, "emprunt.csv"), nil)
	opts = append([]Option{
		WithClock(func() time.Time { return march1 }),
		WithPhotosDir(filepath.Join(dir, "photos")),
	}, opts...)
	mgr, err := NewLibraryManager(store, opts...)
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr, store
}

// reload reads back what the manager persisted.
func reload(t *testing.T, store Store) *State {
	t.Helper()
	st, err := store.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	return st
}

func TestManagerBooks(t *testing.T) {
	mgr, store := newManager(t)

	replaced, err := mgr.AddBook(dune(1))
	if err != nil || replaced {
		t.Fatalf("add: replaced=%v err=%v", replaced, err)
	}
	if replaced, err = mgr.AddBook(dune(4)); err != nil || !replaced {
		t.Fatalf("replace: replaced=%v err=%v", replaced, err)
	}
	if _, err := mgr.AddBook(Book{Title: ""}); !errors.Is(err, ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}

	copies := 2
	if _, _, err := mgr.EditBook("dune", BookPatch{Copies: &copies}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if b := reload(t, store).Catalog.List(); len(b) != 1 || b[0].Copies != 2 {
		t.Fatalf("edit not persisted: %+v", b)
	}

	found, err := mgr.SearchBooks(FieldAuthor, "herb", Match{})
	if err != nil || len(found) != 1 {
		t.Fatalf("search: %v %v", found, err)
	}

	if _, err := mgr.DeleteBook("Dune"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := mgr.GetBook("Dune"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
	if n := reload(t, store).Catalog.Len(); n != 0 {
		t.Fatalf("delete not persisted: %d books", n)
	}
}

func TestManagerBorrowAndReturn(t *testing.T) {
	mgr, store := newManager(t)
	if _, err := mgr.AddBook(dune(1)); err != nil {
		t.Fatalf("add: %v", err)
	}

	res, err := mgr.Borrow(Name{Last: "  doe", First: "JANE "}, []string{"Dune"})
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if res.Borrower != jane {
		t.Fatalf("want normalized name %v, got %v", jane, res.Borrower)
	}
	if res.Accepted[0].Due != day("2024-03-15") {
		t.Fatalf("want due 2024-03-15, got %s", res.Accepted[0].Due)
	}

	st := reload(t, store)
	if b, _ := st.Catalog.Get("Dune"); b.Copies != 0 {
		t.Fatalf("want 0 copies stored, got %d", b.Copies)
	}
	if b, ok := st.Ledger.Find(jane); !ok || b.ActiveCount() != 1 {
		t.Fatalf("loan not persisted")
	}

	loans, err := mgr.ActiveLoans(jane)
	if err != nil || len(loans) != 1 {
		t.Fatalf("active loans: %v %v", loans, err)
	}
	ret, err := mgr.Return(jane, []int{1})
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if !ret.Total.IsZero() {
		t.Fatalf("returned on time, got fee %s", ret.Total)
	}
	if b, _ := reload(t, store).Catalog.Get("Dune"); b.Copies != 1 {
		t.Fatalf("want 1 copy stored after return, got %d", b.Copies)
	}
}

func TestManagerRefusedBorrowIsNotPersisted(t *testing.T) {
	mgr, store := newManager(t)
	if _, err := mgr.AddBook(dune(0)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := mgr.Borrow(jane, []string{"Dune"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
	if n := reload(t, store).Ledger.Len(); n != 0 {
		t.Fatalf("want empty ledger, got %d borrowers", n)
	}
	if len(mgr.Borrowers()) != 0 {
		t.Fatalf("refused borrower recorded")
	}
}

func TestManagerUpdateBorrower(t *testing.T) {
	mgr, store := newManager(t)
	if _, err := mgr.AddBook(dune(2)); err != nil {
		t.Fatalf("add: %v", err)
	}
	for _, who := range []Name{jane, {Last: "Roe", First: "Rick"}} {
		if _, err := mgr.Borrow(who, []string{"Dune"}); err != nil {
			t.Fatalf("borrow: %v", err)
		}
	}

	src := filepath.Join(t.TempDir(), "portrait.PNG")
	if err := os.WriteFile(src, []byte("png"), 0o644); err != nil {
		t.Fatalf("write photo: %v", err)
	}
	p, err := mgr.UpdateBorrower(jane, BorrowerPatch{Last: "smith", PhotoPath: src})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	smith := Name{Last: "Smith", First: "Jane"}
	if p.Name != smith || p.PhotoID != "smith_jane_20240301_100000.png" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if _, err := mgr.GetBorrower(jane); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old name still found: %v", err)
	}
	if b, ok := reload(t, store).Ledger.Find(smith); !ok || b.PhotoID != p.PhotoID || len(b.Loans()) != 1 {
		t.Fatalf("update not persisted")
	}

	if _, err := mgr.UpdateBorrower(smith, BorrowerPatch{Last: "roe", First: "rick"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("want already exists, got %v", err)
	}
	if _, err := mgr.UpdateBorrower(smith, BorrowerPatch{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	if _, err := mgr.UpdateBorrower(Name{Last: "No", First: "One"}, BorrowerPatch{Last: "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

// failingStore loads an empty library and refuses to save.
type failingStore struct{}

func (failingStore) Load() (*State, error) { return NewState(), nil }
func (failingStore) Save(*State) error     { return errors.New("disk full") }
func (failingStore) Close() error          { return nil }
func (failingStore) Name() string          { return "failing" }

func TestManagerReportsSaveFailure(t *testing.T) {
	var logs bytes.Buffer
	mgr, err := NewLibraryManager(failingStore{}, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	_, err = mgr.AddBook(dune(1))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("want save error, got %v", err)
	}
	if !strings.Contains(logs.String(), "level=ERROR") {
		t.Fatalf("save failure not logged: %s", logs.String())
	}
}

func TestManagerRejectsFutureYearByClock(t *testing.T) {
	mgr, _ := newManager(t)

	b := dune(1)
	b.Year = 2025
	_, err := mgr.AddBook(b)
	if !errors.Is(err, ErrValidation) || !strings.Contains(err.Error(), "year must not be after 2024") {
		t.Fatalf("want future year rejected, got %v", err)
	}

	b.Year = 2024
	if _, err := mgr.AddBook(b); err != nil {
		t.Fatalf("current year: %v", err)
	}
	next := 2025
	if _, _, err := mgr.EditBook("Dune", BookPatch{Year: &next}); !errors.Is(err, ErrValidation) {
		t.Fatalf("want edit to future year rejected, got %v", err)
	}
	if got, _ := mgr.GetBook("Dune"); got.Year != 2024 {
		t.Fatalf("want year 2024 kept, got %d", got.Year)
	}
}

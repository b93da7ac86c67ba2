package library

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"library-lending/date"
	"library-lending/logger"
)

// LibraryManager is a thin façade over the in-memory library and its Store,
// keeping CLI code simple. Every successful mutation is saved before the
// method returns.
type LibraryManager struct {
	store     Store
	state     *State
	log       *slog.Logger
	now       func() time.Time
	photosDir string
}

// Option configures a LibraryManager.
type Option func(*LibraryManager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(lm *LibraryManager) { lm.log = l }
}

// WithClock sets the source of "today" for loans and returns.
func WithClock(now func() time.Time) Option {
	return func(lm *LibraryManager) { lm.now = now }
}

// WithPhotosDir sets the directory borrower photos are copied into.
func WithPhotosDir(dir string) Option {
	return func(lm *LibraryManager) { lm.photosDir = dir }
}

// NewLibraryManager loads the library from store.
func NewLibraryManager(store Store, opts ...Option) (*LibraryManager, error) {
	lm := &LibraryManager{
		store:     store,
		log:       logger.Discard(),
		now:       time.Now,
		photosDir: "photos",
	}
	for _, opt := range opts {
		opt(lm)
	}
	st, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load library from %s store: %w", store.Name(), err)
	}
	st.Catalog.now = lm.now
	lm.state = st
	lm.log.Debug("library loaded", "backend", store.Name(), "books", st.Catalog.Len(), "borrowers", st.Ledger.Len())
	return lm, nil
}

// Close closes the underlying store.
func (lm *LibraryManager) Close() error { return lm.store.Close() }

// Today returns the current day according to the manager's clock.
func (lm *LibraryManager) Today() date.Date { return date.New(lm.now().Date()) }

func (lm *LibraryManager) persist(op string) error {
	if err := lm.store.Save(lm.state); err != nil {
		lm.log.Error("failed to save library", "op", op, "backend", lm.store.Name(), "error", err)
		return fmt.Errorf("save library: %w", err)
	}
	lm.log.Debug("library saved", "op", op, "backend", lm.store.Name())
	return nil
}

// ------------------ Book helpers ------------------

// AddBook adds b, or replaces the book with exactly the same title. It
// reports whether a book was replaced.
func (lm *LibraryManager) AddBook(b Book) (replaced bool, err error) {
	_, replaced = lm.state.Catalog.books[strings.TrimSpace(b.Title)]
	if err := lm.state.Catalog.Put(b); err != nil {
		return false, err
	}
	lm.log.Info("book saved", "title", strings.TrimSpace(b.Title), "replaced", replaced)
	return replaced, lm.persist("add book")
}

// EditBook applies p to the book matching title and returns it before and after.
func (lm *LibraryManager) EditBook(title string, p BookPatch) (old, updated Book, err error) {
	old, updated, err = lm.state.Catalog.Edit(title, p)
	if err != nil {
		return old, updated, err
	}
	lm.log.Info("book edited", "title", old.Title, "new_title", updated.Title)
	return old, updated, lm.persist("edit book")
}

// DeleteBook removes the book matching title. Loans of that title are kept.
func (lm *LibraryManager) DeleteBook(title string) (Book, error) {
	b, err := lm.state.Catalog.Delete(title)
	if err != nil {
		return Book{}, err
	}
	lm.log.Info("book deleted", "title", b.Title)
	return b, lm.persist("delete book")
}

func (lm *LibraryManager) GetBook(title string) (Book, error) {
	b, err := lm.state.Catalog.lookup(title)
	if err != nil {
		return Book{}, err
	}
	return *b, nil
}

func (lm *LibraryManager) Books() []Book { return lm.state.Catalog.List() }

func (lm *LibraryManager) SearchBooks(f Field, query string, m Match) ([]Book, error) {
	return lm.state.Catalog.Search(f, query, m)
}

// ------------------ Circulation ------------------

// Borrow lends titles to who as of today; see Borrow.
func (lm *LibraryManager) Borrow(who Name, titles []string) (*BorrowResult, error) {
	who = NewName(who.Last, who.First)
	res, err := Borrow(lm.state, who, titles, lm.Today())
	if res == nil || len(res.Accepted) == 0 {
		if err != nil {
			lm.log.Info("borrow refused", "borrower", who.String(), "error", err)
		}
		return res, err
	}
	lm.log.Info("books borrowed", "borrower", res.Borrower.String(), "accepted", len(res.Accepted), "rejected", len(res.Rejected))
	if err := lm.persist("borrow"); err != nil {
		return res, err
	}
	return res, nil
}

// ActiveLoans returns the active loans of who, numbered for Return.
func (lm *LibraryManager) ActiveLoans(who Name) ([]LoanEntry, error) {
	_, active, err := ActiveLoans(lm.state.Ledger, who)
	return active, err
}

// Return marks the selected loans of who as returned today.
func (lm *LibraryManager) Return(who Name, selection []int) (*ReturnResult, error) {
	res, err := Return(lm.state, who, selection, lm.Today())
	if err != nil {
		return nil, err
	}
	lm.log.Info("books returned", "borrower", res.Borrower.String(), "count", len(res.Returned), "fees", res.Total.StringFixed(2))
	return res, lm.persist("return")
}

// ------------------ Borrower helpers ------------------

// BorrowerProfile is a read-only view of a borrower.
type BorrowerProfile struct {
	Name        Name
	PhotoID     string
	ActiveCount int
	Loans       []Loan
}

func profileOf(b *Borrower) BorrowerProfile {
	return BorrowerProfile{Name: b.Name, PhotoID: b.PhotoID, ActiveCount: b.ActiveCount(), Loans: b.Loans()}
}

func (lm *LibraryManager) Borrowers() []BorrowerProfile {
	var out []BorrowerProfile
	for _, b := range lm.state.Ledger.List() {
		out = append(out, profileOf(b))
	}
	return out
}

func (lm *LibraryManager) GetBorrower(who Name) (BorrowerProfile, error) {
	b, ok := lm.state.Ledger.Find(who)
	if !ok {
		return BorrowerProfile{}, NotFound("borrower %s not found", who)
	}
	return profileOf(b), nil
}

// BorrowerPatch lists the changes to a borrower. Blank fields are kept.
type BorrowerPatch struct {
	Last      string
	First     string
	PhotoPath string // image file to copy into the photos directory
}

// UpdateBorrower renames the borrower matching who and/or sets their photo.
func (lm *LibraryManager) UpdateBorrower(who Name, p BorrowerPatch) (BorrowerProfile, error) {
	b, ok := lm.state.Ledger.Find(who)
	if !ok {
		return BorrowerProfile{}, NotFound("borrower %s not found", who)
	}
	last, first := strings.TrimSpace(p.Last), strings.TrimSpace(p.First)
	photo := strings.TrimSpace(p.PhotoPath)
	if last == "" && first == "" && photo == "" {
		return profileOf(b), Validation("nothing to update")
	}

	name := b.Name
	if last != "" || first != "" {
		if last == "" {
			last = b.Name.Last
		}
		if first == "" {
			first = b.Name.First
		}
		name = NewName(last, first)
		if other, ok := lm.state.Ledger.Find(name); ok && other != b {
			return profileOf(b), AlreadyExists("borrower %s already exists", name)
		}
	}

	var photoID string
	if photo != "" {
		id, err := CopyPhoto(lm.photosDir, name, photo, lm.now())
		if err != nil {
			return profileOf(b), err
		}
		photoID = id
	}

	old := b.Name
	if err := lm.state.Ledger.Rename(old, name); err != nil {
		return profileOf(b), err
	}
	if photoID != "" {
		if err := lm.state.Ledger.SetPhoto(name, photoID); err != nil {
			return profileOf(b), err
		}
	}
	lm.log.Info("borrower updated", "borrower", old.String(), "name", name.String(), "photo", photoID)
	return profileOf(b), lm.persist("update borrower")
}

package library

import (
	"path/filepath"
	"testing"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabaseEmpty(t *testing.T) {
	db := tempDB(t)
	st, err := db.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Catalog.Len() != 0 || st.Ledger.Len() != 0 {
		t.Fatalf("want empty library, got %d books and %d borrowers", st.Catalog.Len(), st.Ledger.Len())
	}
}

func TestDatabaseRoundTrip(t *testing.T) {
	db := tempDB(t)
	want := sampleLibrary(t)
	if err := db.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := db.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameState(t, want, got)
}

// TestDatabaseSaveReplaces checks that deleted books and renamed borrowers
// do not survive a second save.
func TestDatabaseSaveReplaces(t *testing.T) {
	db := tempDB(t)
	st := sampleLibrary(t)
	if err := db.Save(st); err != nil {
		t.Fatalf("first save: %v", err)
	}

	if _, err := st.Catalog.Delete("Le Petit Prince"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.Ledger.Rename(Name{Last: "Roe", First: "Rick"}, Name{Last: "Roe", First: "Richard"}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := db.Save(st); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := db.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := got.Catalog.Get("Le Petit Prince"); ok {
		t.Fatalf("deleted book still stored")
	}
	if _, ok := got.Ledger.Find(Name{Last: "Roe", First: "Rick"}); ok {
		t.Fatalf("old borrower name still stored")
	}
	assertSameState(t, st, got)
}

func TestDatabaseReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "lib.db")
	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	if err := db.Save(sampleLibrary(t)); err != nil {
		t.Fatalf("save: %v", err)
	}
	db.Close()

	// Migrations are skipped on an up-to-date schema.
	db, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	st, err := db.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Catalog.Len() != 3 {
		t.Fatalf("want 3 books, got %d", st.Catalog.Len())
	}
}

package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"library-lending/date"
)

// Database stores the library state in SQLite, with books, borrowers and
// loans in separate tables.
type Database struct {
	db *sql.DB
}

// NewDatabase opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db}, nil
}

func (d *Database) Name() string { return BackendSQLite }

// Close closes the DB.
func (d *Database) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            title TEXT PRIMARY KEY,
            position INTEGER NOT NULL,
            author TEXT NOT NULL,
            year INTEGER NOT NULL,
            genre TEXT NOT NULL,
            copies INTEGER NOT NULL CHECK (copies >= 0)
        );`,
		`CREATE TABLE IF NOT EXISTS borrowers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            position INTEGER NOT NULL,
            last_name TEXT NOT NULL COLLATE NOCASE,
            first_name TEXT NOT NULL COLLATE NOCASE,
            photo_id TEXT NOT NULL DEFAULT '',
            UNIQUE(last_name, first_name)
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            borrower_id INTEGER NOT NULL REFERENCES borrowers(id) ON DELETE CASCADE,
            loan_id TEXT NOT NULL,
            position INTEGER NOT NULL,
            title TEXT NOT NULL,
            borrowed TEXT NOT NULL,
            returned TEXT NOT NULL DEFAULT '',
            PRIMARY KEY (borrower_id, loan_id)
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

// Load reads the whole library.
func (d *Database) Load() (*State, error) {
	st := NewState()

	rows, err := d.db.Query(`SELECT title, author, year, genre, copies FROM books ORDER BY position`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.Title, &b.Author, &b.Year, &b.Genre, &b.Copies); err != nil {
			rows.Close()
			return nil, err
		}
		if err := st.Catalog.Put(b); err != nil {
			rows.Close()
			return nil, fmt.Errorf("book %q: %w", b.Title, err)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byID := make(map[int64]*Borrower)
	rows, err = d.db.Query(`SELECT id, last_name, first_name, photo_id FROM borrowers ORDER BY position`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		b := NewBorrower(Name{})
		if err := rows.Scan(&id, &b.Name.Last, &b.Name.First, &b.PhotoID); err != nil {
			rows.Close()
			return nil, err
		}
		byID[id] = b
		st.Ledger.borrowers = append(st.Ledger.borrowers, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = d.db.Query(`SELECT borrower_id, loan_id, title, borrowed, returned FROM loans ORDER BY borrower_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			borrowerID         int64
			loan               Loan
			borrowed, returned string
		)
		if err := rows.Scan(&borrowerID, &loan.ID, &loan.Title, &borrowed, &returned); err != nil {
			return nil, err
		}
		if loan.Borrowed, err = date.Parse(borrowed); err != nil {
			return nil, err
		}
		if loan.Returned, err = date.Parse(returned); err != nil {
			return nil, err
		}
		b, ok := byID[borrowerID]
		if !ok {
			return nil, fmt.Errorf("loan %q references unknown borrower %d", loan.ID, borrowerID)
		}
		if err := b.addLoan(loan); err != nil {
			return nil, err
		}
	}
	return st, rows.Err()
}

// Save replaces the stored library with st in a single transaction.
func (d *Database) Save(st *State) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM loans`, `DELETE FROM borrowers`, `DELETE FROM books`} {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	addBook, err := tx.Prepare(`INSERT INTO books(title,position,author,year,genre,copies) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer addBook.Close()
	for i, b := range st.Catalog.List() {
		if _, err := addBook.Exec(b.Title, i, b.Author, b.Year, b.Genre, b.Copies); err != nil {
			return fmt.Errorf("save book %q: %w", b.Title, err)
		}
	}

	addBorrower, err := tx.Prepare(`INSERT INTO borrowers(position,last_name,first_name,photo_id) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer addBorrower.Close()
	addLoan, err := tx.Prepare(`INSERT INTO loans(borrower_id,loan_id,position,title,borrowed,returned) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer addLoan.Close()

	for i, b := range st.Ledger.List() {
		res, err := addBorrower.Exec(i, b.Name.Last, b.Name.First, b.PhotoID)
		if err != nil {
			return fmt.Errorf("save borrower %s: %w", b.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for j, l := range b.Loans() {
			if _, err := addLoan.Exec(id, l.ID, j, l.Title, l.Borrowed.String(), l.Returned.String()); err != nil {
				return fmt.Errorf("save loan %q of %s: %w", l.ID, b.Name, err)
			}
		}
	}

	return tx.Commit()
}

package library

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"library-lending/logger"
)

// Store persists the library state.
type Store interface {
	Load() (*State, error)
	Save(*State) error
	Close() error
	Name() string
}

// Backend names accepted by OpenStore.
const (
	BackendFiles  = "files"
	BackendSQLite = "sqlite"
)

// StoreConfig locates the files of every backend.
type StoreConfig struct {
	Backend      string
	CatalogPath  string
	LedgerPath   string
	DatabasePath string
}

// OpenStore opens the backend named by cfg.Backend.
func OpenStore(cfg StoreConfig, log *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendFiles, "":
		return NewFileStore(cfg.CatalogPath, cfg.LedgerPath, log), nil
	case BackendSQLite:
		return NewDatabase(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want %q or %q)", cfg.Backend, BackendFiles, BackendSQLite)
	}
}

// FileStore keeps the catalog in a JSON document and the ledger in a
// semicolon-separated table.
//
// Each file is replaced atomically, but the two files are written one after
// the other: a crash in between leaves a catalog that does not match the ledger.
type FileStore struct {
	CatalogPath string
	LedgerPath  string
	log         *slog.Logger
}

// NewFileStore returns a store over the two files. They are created on first save.
func NewFileStore(catalogPath, ledgerPath string, log *slog.Logger) *FileStore {
	if log == nil {
		log = logger.Discard()
	}
	return &FileStore{CatalogPath: catalogPath, LedgerPath: ledgerPath, log: log}
}

func (s *FileStore) Name() string { return BackendFiles }

func (s *FileStore) Close() error { return nil }

// Load reads both files. Missing files yield an empty catalog or ledger; a
// missing ledger file is created with its header row.
func (s *FileStore) Load() (*State, error) {
	catalog, err := s.loadCatalog()
	if err != nil {
		return nil, err
	}
	ledger, err := s.loadLedger()
	if err != nil {
		return nil, err
	}
	return &State{Catalog: catalog, Ledger: ledger}, nil
}

func (s *FileStore) loadCatalog() (*Catalog, error) {
	f, err := os.Open(s.CatalogPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("catalog file not found, starting with an empty catalog", "path", s.CatalogPath)
		return NewCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	c, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.CatalogPath, err)
	}
	s.log.Debug("catalog loaded", "path", s.CatalogPath, "books", c.Len())
	return c, nil
}

func (s *FileStore) loadLedger() (*Ledger, error) {
	f, err := os.Open(s.LedgerPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("ledger file not found, creating it", "path", s.LedgerPath)
		if err := writeFileAtomic(s.LedgerPath, func(w io.Writer) error { return WriteLedger(w, NewLedger()) }); err != nil {
			s.log.Warn("could not create ledger file", "path", s.LedgerPath, "error", err)
		}
		return NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()
	l, err := ReadLedger(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.LedgerPath, err)
	}
	s.log.Debug("ledger loaded", "path", s.LedgerPath, "borrowers", l.Len())
	return l, nil
}

// Save overwrites the catalog file, then the ledger file.
func (s *FileStore) Save(st *State) error {
	if err := writeFileAtomic(s.CatalogPath, func(w io.Writer) error { return WriteCatalog(w, st.Catalog) }); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	if err := writeFileAtomic(s.LedgerPath, func(w io.Writer) error { return WriteLedger(w, st.Ledger) }); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// writeFileAtomic writes path through a temporary file in the same directory.
// The file keeps the permissions of the file it replaces, or gets 0644.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// MigrateStats counts what Migrate copied.
type MigrateStats struct {
	Books     int
	Borrowers int
}

// Migrate copies the whole library from src to dst, replacing what dst held.
func Migrate(src, dst Store) (MigrateStats, error) {
	st, err := src.Load()
	if err != nil {
		return MigrateStats{}, fmt.Errorf("load from %s: %w", src.Name(), err)
	}
	if err := dst.Save(st); err != nil {
		return MigrateStats{}, fmt.Errorf("save to %s: %w", dst.Name(), err)
	}
	return MigrateStats{Books: st.Catalog.Len(), Borrowers: st.Ledger.Len()}, nil
}

package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"library-lending/config"
	"library-lending/library"
	"library-lending/logger"
)

func main() {
	var flags config.Flags
	cmd := &cobra.Command{
		Use:           "import_books FILE",
		Short:         "Add the books of a title;author;year;genre;copies listing to the library",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return importFile(flags, args[0], os.Stdout)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.DataDir, "data-dir", "", "directory holding the library files")
	f.StringVar(&flags.Backend, "backend", "", "storage backend: files or sqlite")
	f.StringVar(&flags.EnvFile, "env-file", "", "path to .env file")
	f.StringVar(&flags.LogLevel, "log-level", "", "log level")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func importFile(flags config.Flags, path string, out io.Writer) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Format: cfg.Logger.Format, Level: logger.ParseLevel(cfg.Logger.Level)})

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	books, errs := readBooks(f)

	store, err := library.OpenStore(cfg.Storage.StoreConfig(cfg.Storage.Backend), log)
	if err != nil {
		return err
	}
	manager, err := library.NewLibraryManager(store, library.WithLogger(log))
	if err != nil {
		store.Close()
		return err
	}
	defer manager.Close()

	fmt.Fprintf(out, "Importing books from %s into the %s store...\n", path, store.Name())
	for _, err := range errs {
		fmt.Fprintf(out, "Skipped: %v\n", err)
	}

	successCount := 0
	errorCount := len(errs)
	for _, b := range books {
		fmt.Fprintf(out, "Importing: %s by %s... ", truncateString(b.Title, 50), b.Author)
		replaced, err := manager.AddBook(b)
		if err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			errorCount++
			continue
		}
		if replaced {
			fmt.Fprintln(out, "REPLACED")
		} else {
			fmt.Fprintln(out, "SUCCESS")
		}
		successCount++
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d books\n", successCount)
	fmt.Fprintf(out, "Errors: %d\n", errorCount)
	return nil
}

// readBooks parses title;author;year;genre;copies lines. Blank lines and
// lines starting with # are ignored. Bad lines are reported and skipped.
func readBooks(r io.Reader) ([]library.Book, []error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		books []library.Book
		errs  []error
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				errs = append(errs, err)
				continue
			}
			return books, append(errs, err)
		}
		line, _ := reader.FieldPos(0)
		b, err := parseBook(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		books = append(books, b)
	}
	return books, errs
}

func parseBook(record []string) (library.Book, error) {
	if len(record) != 5 {
		return library.Book{}, fmt.Errorf("want 5 fields (title;author;year;genre;copies), got %d", len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	year, err := strconv.Atoi(record[2])
	if err != nil {
		return library.Book{}, fmt.Errorf("invalid year %q", record[2])
	}
	copies, err := strconv.Atoi(record[4])
	if err != nil {
		return library.Book{}, fmt.Errorf("invalid number of copies %q", record[4])
	}
	return library.Book{Title: record[0], Author: record[1], Year: year, Genre: record[3], Copies: copies}, nil
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"library-lending/library"
)

const menuText = `
1. Add a book
2. Edit a book
3. Delete a book
4. Search books
5. List books
6. Borrow books
7. Return books
8. Edit a borrower
9. Quit`

func (a *app) runMenu() error {
	mgr, err := a.manager()
	if err != nil {
		return err
	}
	sc := bufio.NewScanner(a.in)
	w := a.stdout

	fmt.Fprintln(w, "Welcome to the library lending system!")
	for {
		fmt.Fprintln(w, menuText)
		fmt.Fprint(w, "\n> ")
		if !sc.Scan() {
			return sc.Err()
		}

		switch strings.TrimSpace(sc.Text()) {
		case "1":
			handleAddBook(sc, a.p, mgr)
		case "2":
			handleEditBook(sc, a.p, mgr)
		case "3":
			handleDeleteBook(sc, a.p, mgr)
		case "4":
			handleSearchBooks(sc, a.p, mgr)
		case "5":
			a.p.printMarkdown(booksMarkdown(mgr.Books()))
		case "6":
			handleBorrow(sc, a.p, mgr)
		case "7":
			handleReturn(sc, a.p, mgr)
		case "8":
			handleEditBorrower(sc, a.p, mgr)
		case "9", "q", "quit", "exit":
			fmt.Fprintln(w, "Goodbye!")
			return nil
		case "":
		default:
			fmt.Fprintln(w, "Unknown choice. Enter a number between 1 and 9.")
		}
	}
}

// prompt prints label and reads one trimmed line. It reports false at end of input.
func prompt(sc *bufio.Scanner, w io.Writer, label string) (string, bool) {
	fmt.Fprint(w, label)
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

func promptName(sc *bufio.Scanner, w io.Writer) (library.Name, bool) {
	last, ok := prompt(sc, w, "Last name: ")
	if !ok {
		return library.Name{}, false
	}
	first, ok := prompt(sc, w, "First name: ")
	if !ok {
		return library.Name{}, false
	}
	return library.NewName(last, first), true
}

// promptInt reads an optional number. Blank input returns nil.
func promptInt(sc *bufio.Scanner, w io.Writer, label string) (*int, bool, error) {
	s, ok := prompt(sc, w, label)
	if !ok || s == "" {
		return nil, ok, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, true, library.Validation("%q is not a number", s)
	}
	return &n, true, nil
}

func yes(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes", "o", "oui":
		return true
	}
	return false
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
}

func handleAddBook(sc *bufio.Scanner, p *printer, mgr *library.LibraryManager) {
	var b library.Book
	var ok bool
	if b.Title, ok = prompt(sc, p.w, "Title: "); !ok {
		return
	}
	if b.Author, ok = prompt(sc, p.w, "Author: "); !ok {
		return
	}
	year, ok, err := promptInt(sc, p.w, "Year: ")
	if err != nil {
		printError(p.w, err)
		return
	}
	if !ok {
		return
	}
	if year != nil {
		b.Year = *year
	}
	if b.Genre, ok = prompt(sc, p.w, "Genre: "); !ok {
		return
	}
	copies, ok, err := promptInt(sc, p.w, "Copies [1]: ")
	if err != nil {
		printError(p.w, err)
		return
	}
	if !ok {
		return
	}
	b.Copies = 1
	if copies != nil {
		b.Copies = *copies
	}

	replaced, err := mgr.AddBook(b)
	switch {
	case err != nil:
		printError(p.w, err)
	case replaced:
		fmt.Fprintf(p.w, "Book %q replaced.\n", b.Title)
	default:
		fmt.Fprintf(p.w, "Book %q added.\n", b.Title)
	}
}

func handleEditBook(sc *bufio.Scanner, p *printer, mgr *library.LibraryManager) {
	title, ok := prompt(sc, p.w, "Title of the book to edit: ")
	if !ok {
		return
	}
	current, err := mgr.GetBook(title)
	if err != nil {
		printError(p.w, err)
		return
	}
	p.printMarkdown(bookMarkdown(current))
	fmt.Fprintln(p.w, "Press Enter to keep a value.")

	var patch library.BookPatch
	for _, f := range []struct {
		label string
		dst   **string
	}{
		{"New title: ", &patch.Title},
		{"New author: ", &patch.Author},
		{"New genre: ", &patch.Genre},
	} {
		s, ok := prompt(sc, p.w, f.label)
		if !ok {
			return
		}
		if s != "" {
			*f.dst = &s
		}
	}
	if patch.Year, ok, err = promptInt(sc, p.w, "New year: "); err != nil || !ok {
		if err != nil {
			printError(p.w, err)
		}
		return
	}
	if patch.Copies, ok, err = promptInt(sc, p.w, "New number of copies: "); err != nil || !ok {
		if err != nil {
			printError(p.w, err)
		}
		return
	}

	old, updated, err := mgr.EditBook(current.Title, patch)
	if err != nil {
		printError(p.w, err)
		return
	}
	fmt.Fprintf(p.w, "Book %q updated.\n", old.Title)
	p.printMarkdown(bookMarkdown(updated))
}

func handleDeleteBook(sc *bufio.Scanner, p *printer, mgr *library.LibraryManager) {
	title, ok := prompt(sc, p.w, "Title of the book to delete: ")
	if !ok {
		return
	}
	b, err := mgr.GetBook(title)
	if err != nil {
		printError(p.w, err)
		return
	}
	answer, ok := prompt(sc, p.w, fmt.Sprintf("Delete %q by %s? (y/N): ", b.Title, b.Author))
	if !ok || !yes(answer) {
		fmt.Fprintln(p.w, "Nothing deleted.")
		return
	}
	if _, err := mgr.DeleteBook(b.Title); err != nil {
		printError(p.w, err)
		return
	}
	fmt.Fprintf(p.w, "Book %q deleted.\n", b.Title)
}

func handleSearchBooks(sc *bufio.Scanner, p *printer, mgr *library.LibraryManager) {
	by, ok := prompt(sc, p.w, "Search by title, author or genre [title]: ")
	if !ok {
		return
	}
	if by == "" {
		by = "title"
	}
	field, err := library.ParseField(by)
	if err != nil {
		printError(p.w, err)
		return
	}
	query, ok := prompt(sc, p.w, "Search for: ")
	if !ok {
		return
	}

	var m library.Match
	if field == library.FieldTitle {
		answer, ok := prompt(sc, p.w, "Whole title only? (y/N): ")
		if !ok {
			return
		}
		m.Exact = yes(answer)
	}
	answer, ok := prompt(sc, p.w, "Case sensitive? (y/N): ")
	if !ok {
		return
	}
	m.CaseSensitive = yes(answer)

	books, err := mgr.SearchBooks(field, query, m)
	if err != nil {
		printError(p.w, err)
		return
	}
	if len(books) == 0 {
		fmt.Fprintf(p.w, "No books found matching %q.\n", query)
		return
	}
	fmt.Fprintf(p.w, "Found %d book(s):\n", len(books))
	p.printMarkdown(booksMarkdown(books))
}

func handleBorrow(sc *bufio.Scanner, p *printer, mgr *library.LibraryManager) {
	who, ok := promptName(sc, p.w)
	if !ok {
		return
	}
	fmt.Fprintf(p.w, "Titles to borrow, one per line (at most %d active loans, empty line to finish):\n", library.BorrowLimit)
	var titles []string
	for {
		t, ok := prompt(sc, p.w, "  title: ")
		if !ok || t == "" {
			break
		}
		titles = append(titles, t)
	}

	res, err := mgr.Borrow(who, titles)
	if res != nil {
		p.printMarkdown(p.borrowReceipt(res))
	}
	if err != nil {
		printError(p.w, err)
	}
}

func handleReturn(sc *bufio.Scanner, p *printer, mgr *library.LibraryManager) {
	who, ok := promptName(sc, p.w)
	if !ok {
		return
	}
	loans, err := mgr.ActiveLoans(who)
	if err != nil {
		printError(p.w, err)
		return
	}
	p.printMarkdown(loansMarkdown(who, loans))

	s, ok := prompt(sc, p.w, "Numbers of the loans to return (e.g. 1 3): ")
	if !ok {
		return
	}
	selection, err := parseSelection(s)
	if err != nil {
		printError(p.w, err)
		return
	}
	answer, ok := prompt(sc, p.w, "Confirm return? (y/N): ")
	if !ok || !yes(answer) {
		fmt.Fprintln(p.w, "Nothing returned.")
		return
	}

	res, err := mgr.Return(who, selection)
	if res != nil {
		p.printMarkdown(p.returnReceipt(res))
	}
	if err != nil {
		printError(p.w, err)
	}
}

func handleEditBorrower(sc *bufio.Scanner, p *printer, mgr *library.LibraryManager) {
	who, ok := promptName(sc, p.w)
	if !ok {
		return
	}
	current, err := mgr.GetBorrower(who)
	if err != nil {
		printError(p.w, err)
		return
	}
	p.printMarkdown(borrowerMarkdown(current, mgr.Today()))
	fmt.Fprintln(p.w, "Press Enter to keep a value.")

	var patch library.BorrowerPatch
	if patch.Last, ok = prompt(sc, p.w, "New last name: "); !ok {
		return
	}
	if patch.First, ok = prompt(sc, p.w, "New first name: "); !ok {
		return
	}
	if patch.PhotoPath, ok = prompt(sc, p.w, "Photo file (.jpg, .jpeg, .png): "); !ok {
		return
	}

	updated, err := mgr.UpdateBorrower(current.Name, patch)
	if err != nil {
		printError(p.w, err)
		return
	}
	fmt.Fprintf(p.w, "Borrower %s updated.\n", updated.Name)
}

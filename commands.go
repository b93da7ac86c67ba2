package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"library-lending/library"
)

func newMenuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Start the interactive menu (default)",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.runMenu()
		},
	}
}

// nameFlags registers the required --last and --first flags.
func nameFlags(cmd *cobra.Command, name *library.Name) {
	cmd.Flags().StringVar(&name.Last, "last", "", "borrower last name")
	cmd.Flags().StringVar(&name.First, "first", "", "borrower first name")
	_ = cmd.MarkFlagRequired("last")
	_ = cmd.MarkFlagRequired("first")
}

// ------------------ Books ------------------

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Add, edit, delete, list and search books",
	}
	cmd.AddCommand(newBookAddCmd(a), newBookEditCmd(a), newBookDeleteCmd(a), newBookListCmd(a), newBookSearchCmd(a))
	return cmd
}

func newBookAddCmd(a *app) *cobra.Command {
	var b library.Book
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book, or replace the book with the same title",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			replaced, err := mgr.AddBook(b)
			if err != nil {
				return err
			}
			if replaced {
				fmt.Fprintf(a.stdout, "Book %q replaced.\n", strings.TrimSpace(b.Title))
			} else {
				fmt.Fprintf(a.stdout, "Book %q added.\n", strings.TrimSpace(b.Title))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&b.Title, "title", "", "book title")
	f.StringVar(&b.Author, "author", "", "author")
	f.IntVar(&b.Year, "year", 0, "publication year")
	f.StringVar(&b.Genre, "genre", "", "genre")
	f.IntVar(&b.Copies, "copies", 1, "number of copies")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newBookEditCmd(a *app) *cobra.Command {
	var (
		title, author, genre string
		year, copies         int
	)
	cmd := &cobra.Command{
		Use:   "edit TITLE",
		Short: "Change the fields of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p library.BookPatch
			f := cmd.Flags()
			if f.Changed("title") {
				p.Title = &title
			}
			if f.Changed("author") {
				p.Author = &author
			}
			if f.Changed("year") {
				p.Year = &year
			}
			if f.Changed("genre") {
				p.Genre = &genre
			}
			if f.Changed("copies") {
				p.Copies = &copies
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			_, updated, err := mgr.EditBook(args[0], p)
			if err != nil {
				return err
			}
			a.p.printMarkdown(bookMarkdown(updated))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVar(&author, "author", "", "new author")
	f.IntVar(&year, "year", 0, "new publication year")
	f.StringVar(&genre, "genre", "", "new genre")
	f.IntVar(&copies, "copies", 0, "new number of copies")
	return cmd
}

func newBookDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TITLE",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			b, err := mgr.DeleteBook(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Book %q deleted.\n", b.Title)
			return nil
		},
	}
}

func newBookListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every book",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			a.p.printMarkdown(booksMarkdown(mgr.Books()))
			return nil
		},
	}
}

func newBookSearchCmd(a *app) *cobra.Command {
	var (
		by string
		m  library.Match
	)
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search books by title, author or genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			field, err := library.ParseField(by)
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			books, err := mgr.SearchBooks(field, args[0], m)
			if err != nil {
				return err
			}
			if len(books) == 0 {
				fmt.Fprintf(a.stdout, "No books found matching %q.\n", args[0])
				return nil
			}
			a.p.printMarkdown(booksMarkdown(books))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&by, "by", "title", "field to search: title, author or genre")
	f.BoolVar(&m.Exact, "exact", false, "match the whole title instead of a part of it")
	f.BoolVar(&m.CaseSensitive, "case-sensitive", false, "respect upper and lower case")
	return cmd
}

// ------------------ Circulation ------------------

func newBorrowCmd(a *app) *cobra.Command {
	var who library.Name
	cmd := &cobra.Command{
		Use:   "borrow TITLE...",
		Short: "Lend one or more books (at most 3 active loans per borrower)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			res, err := mgr.Borrow(who, args)
			if res != nil {
				a.p.printMarkdown(a.p.borrowReceipt(res))
			}
			return err
		},
	}
	nameFlags(cmd, &who)
	return cmd
}

func newLoansCmd(a *app) *cobra.Command {
	var who library.Name
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "Show the active loans of a borrower, numbered for return",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			loans, err := mgr.ActiveLoans(who)
			if errors.Is(err, library.ErrNothingToReturn) {
				fmt.Fprintln(a.stdout, err)
				return nil
			}
			if err != nil {
				return err
			}
			a.p.printMarkdown(loansMarkdown(who, loans))
			return nil
		},
	}
	nameFlags(cmd, &who)
	return cmd
}

func newReturnCmd(a *app) *cobra.Command {
	var who library.Name
	cmd := &cobra.Command{
		Use:   "return NUMBER...",
		Short: "Return loans by their number in the 'loans' list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			selection, err := parseSelection(strings.Join(args, " "))
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			res, err := mgr.Return(who, selection)
			if res != nil {
				a.p.printMarkdown(a.p.returnReceipt(res))
			}
			return err
		},
	}
	nameFlags(cmd, &who)
	return cmd
}

// parseSelection reads loan numbers separated by spaces or commas.
func parseSelection(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	selection := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, library.Validation("invalid loan number %q", f)
		}
		selection = append(selection, n)
	}
	return selection, nil
}

// ------------------ Borrowers ------------------

func newBorrowerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "borrower",
		Short: "List, show and edit borrowers",
	}
	cmd.AddCommand(newBorrowerListCmd(a), newBorrowerShowCmd(a), newBorrowerEditCmd(a))
	return cmd
}

func newBorrowerListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every borrower",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			a.p.printMarkdown(borrowersMarkdown(mgr.Borrowers()))
			return nil
		},
	}
}

func newBorrowerShowCmd(a *app) *cobra.Command {
	var who library.Name
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a borrower and their loan history",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			p, err := mgr.GetBorrower(who)
			if err != nil {
				return err
			}
			a.p.printMarkdown(borrowerMarkdown(p, mgr.Today()))
			return nil
		},
	}
	nameFlags(cmd, &who)
	return cmd
}

func newBorrowerEditCmd(a *app) *cobra.Command {
	var (
		who   library.Name
		patch library.BorrowerPatch
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Rename a borrower or set their photo",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			p, err := mgr.UpdateBorrower(who, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Borrower %s updated.\n", p.Name)
			return nil
		},
	}
	nameFlags(cmd, &who)
	f := cmd.Flags()
	f.StringVar(&patch.Last, "new-last", "", "new last name")
	f.StringVar(&patch.First, "new-first", "", "new first name")
	f.StringVar(&patch.PhotoPath, "photo", "", "image (.jpg, .jpeg, .png) to use as photo")
	return cmd
}

// ------------------ Storage ------------------

func newMigrateCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the library from one storage backend to the other",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if from == to {
				return fmt.Errorf("--from and --to are both %q", from)
			}
			src, err := a.openStore(from)
			if err != nil {
				return err
			}
			defer src.Close()
			dst, err := a.openStore(to)
			if err != nil {
				return err
			}
			defer dst.Close()

			n, err := library.Migrate(src, dst)
			if err != nil {
				return err
			}
			a.log.Info("library migrated", "from", src.Name(), "to", dst.Name(), "books", n.Books, "borrowers", n.Borrowers)
			fmt.Fprintf(a.stdout, "Copied %d books and %d borrowers from %s to %s.\n", n.Books, n.Borrowers, src.Name(), dst.Name())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&from, "from", library.BackendFiles, "source backend")
	f.StringVar(&to, "to", library.BackendSQLite, "destination backend")
	return cmd
}

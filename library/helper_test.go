package library

import (
	"testing"

	"library-lending/date"
)

// newState returns a library holding the given books.
func newState(t *testing.T, books ...Book) *State {
	t.Helper()
	st := NewState()
	for _, b := range books {
		if err := st.Catalog.Put(b); err != nil {
			t.Fatalf("put %q: %v", b.Title, err)
		}
	}
	return st
}

func dune(copies int) Book {
	return Book{Title: "Dune", Author: "Herbert", Year: 1965, Genre: "SF", Copies: copies}
}

func book(title string, copies int) Book {
	return Book{Title: title, Author: "Anon", Year: 2000, Genre: "Roman", Copies: copies}
}

func copiesOf(t *testing.T, st *State, title string) int {
	t.Helper()
	b, ok := st.Catalog.Get(title)
	if !ok {
		t.Fatalf("book %q missing", title)
	}
	return b.Copies
}

var jane = Name{Last: "Doe", First: "Jane"}

func day(s string) date.Date { return date.MustParse(s) }

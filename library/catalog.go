package library

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Catalog maps book titles to books and remembers insertion order.
type Catalog struct {
	order []string
	books map[string]*Book
	now   func() time.Time // publication years after now's year are rejected
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{books: make(map[string]*Book), now: time.Now}
}

func (c *Catalog) validate(b Book) error {
	return validateBook(b, c.now().Year())
}

// Len returns the number of titles.
func (c *Catalog) Len() int { return len(c.order) }

// List returns a copy of every book in insertion order.
func (c *Catalog) List() []Book {
	books := make([]Book, 0, len(c.order))
	for _, title := range c.order {
		books = append(books, *c.books[title])
	}
	return books
}

// Get returns the book stored under title. An exact match wins, otherwise
// the only title equal ignoring case is used.
func (c *Catalog) Get(title string) (Book, bool) {
	b, err := c.lookup(title)
	if err != nil {
		return Book{}, false
	}
	return *b, true
}

func (c *Catalog) lookup(title string) (*Book, error) {
	key, err := c.key(title)
	if err != nil {
		return nil, err
	}
	return c.books[key], nil
}

// key finds the stored title for title: the exact title, else the only
// stored title equal to it ignoring case. Several case variants without an
// exact match are reported as not found, with the candidates as details.
func (c *Catalog) key(title string) (string, error) {
	title = strings.TrimSpace(title)
	if _, ok := c.books[title]; ok {
		return title, nil
	}
	want := fold(title)
	var matches []string
	for _, t := range c.order {
		if fold(t) == want {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return "", NotFound("book %q not found", title)
	case 1:
		return matches[0], nil
	default:
		return "", NotFound("book %q not found: %d titles differ only by case, give the exact one", title, len(matches)).
			WithDetails(matches)
	}
}

// Put adds b, or replaces the book with exactly the same title in place.
func (c *Catalog) Put(b Book) error {
	b.Title = strings.TrimSpace(b.Title)
	if err := c.validate(b); err != nil {
		return err
	}
	if _, ok := c.books[b.Title]; !ok {
		c.order = append(c.order, b.Title)
	}
	c.books[b.Title] = &b
	return nil
}

// BookPatch lists the fields to change on a book. Nil fields are kept.
type BookPatch struct {
	Title  *string
	Author *string
	Year   *int
	Genre  *string
	Copies *int
}

// Edit applies p to the book matching title (see Get). A new title
// keeps the book's position in the catalog. It returns the book before and
// after the change.
func (c *Catalog) Edit(title string, p BookPatch) (old, updated Book, err error) {
	key, err := c.key(title)
	if err != nil {
		return Book{}, Book{}, err
	}
	old = *c.books[key]
	updated = old
	if p.Title != nil && strings.TrimSpace(*p.Title) != "" {
		updated.Title = strings.TrimSpace(*p.Title)
	}
	if p.Author != nil && strings.TrimSpace(*p.Author) != "" {
		updated.Author = strings.TrimSpace(*p.Author)
	}
	if p.Year != nil {
		updated.Year = *p.Year
	}
	if p.Genre != nil && strings.TrimSpace(*p.Genre) != "" {
		updated.Genre = strings.TrimSpace(*p.Genre)
	}
	if p.Copies != nil {
		updated.Copies = *p.Copies
	}
	if err := c.validate(updated); err != nil {
		return old, old, err
	}

	if updated.Title != key {
		if _, taken := c.books[updated.Title]; taken {
			return old, old, AlreadyExists("book %q already exists", updated.Title)
		}
		i := slices.Index(c.order, key)
		c.order[i] = updated.Title
		delete(c.books, key)
	}
	c.books[updated.Title] = &updated
	return old, updated, nil
}

// Delete removes the book matching title (see Get).
func (c *Catalog) Delete(title string) (Book, error) {
	key, err := c.key(title)
	if err != nil {
		return Book{}, err
	}
	b := *c.books[key]
	delete(c.books, key)
	c.order = slices.DeleteFunc(c.order, func(t string) bool { return t == key })
	return b, nil
}

// Field is a searchable book attribute.
type Field string

const (
	FieldTitle  Field = "title"
	FieldAuthor Field = "author"
	FieldGenre  Field = "genre"
)

// ParseField converts user input into a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldTitle, FieldAuthor, FieldGenre:
		return f, nil
	default:
		return "", Validation("search is done by %q, %q or %q, not %q", FieldTitle, FieldAuthor, FieldGenre, s)
	}
}

// Match controls how a query is compared to a value.
type Match struct {
	Exact         bool // whole value instead of substring
	CaseSensitive bool
}

func (m Match) matches(value, query string) bool {
	if !m.CaseSensitive {
		value, query = fold(value), fold(query)
	}
	if m.Exact {
		return value == query
	}
	return strings.Contains(value, query)
}

// FindByTitle returns the books whose title matches query.
func (c *Catalog) FindByTitle(query string, m Match) []Book {
	return c.filter(func(b *Book) bool { return m.matches(b.Title, query) })
}

// FindByField returns the books whose author or genre contains query.
func (c *Catalog) FindByField(f Field, query string, caseSensitive bool) ([]Book, error) {
	m := Match{CaseSensitive: caseSensitive}
	switch f {
	case FieldAuthor:
		return c.filter(func(b *Book) bool { return m.matches(b.Author, query) }), nil
	case FieldGenre:
		return c.filter(func(b *Book) bool { return m.matches(b.Genre, query) }), nil
	default:
		return nil, fmt.Errorf("field %q is not searchable by substring", f)
	}
}

// Search dispatches to FindByTitle or FindByField.
func (c *Catalog) Search(f Field, query string, m Match) ([]Book, error) {
	if f == FieldTitle {
		return c.FindByTitle(query, m), nil
	}
	return c.FindByField(f, query, m.CaseSensitive)
}

func (c *Catalog) filter(keep func(*Book) bool) []Book {
	var found []Book
	for _, title := range c.order {
		if b := c.books[title]; keep(b) {
			found = append(found, *b)
		}
	}
	return found
}

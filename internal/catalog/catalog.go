// Package catalog holds the list-screen logic: client-side filtering, the
// public catalog ordering and item selection.
package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/erazemk/doacoes/internal/donation"
	"github.com/erazemk/doacoes/internal/model"
)

// Selection errors.
var (
	ErrSoldOut     = donation.ErrSoldOut
	ErrUnknownBook = errors.New("book not in catalog")
)

func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func normalize(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// FilterBooks keeps books whose title or author contains q, ignoring case.
// Order is preserved.
func FilterBooks(books []model.Book, q string) []model.Book {
	q = normalize(q)
	if q == "" {
		return books
	}
	out := make([]model.Book, 0, len(books))
	for _, b := range books {
		if matches(q, b.Title, b.Author) {
			out = append(out, b)
		}
	}
	return out
}

// FilterDonations keeps records whose donor name, email or item contains q.
func FilterDonations(records []model.DonationRecord, q string) []model.DonationRecord {
	q = normalize(q)
	if q == "" {
		return records
	}
	out := make([]model.DonationRecord, 0, len(records))
	for _, r := range records {
		if matches(q, r.DonorName, r.DonorEmail, r.Item) {
			out = append(out, r)
		}
	}
	return out
}

// SortCatalog returns a copy ordered for the public catalog: available books
// first, sold-out after, each partition by title.
func SortCatalog(books []model.Book) []model.Book {
	out := make([]model.Book, len(books))
	copy(out, books)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SoldOut() != b.SoldOut() {
			return !a.SoldOut()
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
	return out
}

// Lister loads the book collection.
type Lister interface {
	ListBooks(ctx context.Context) ([]model.Book, error)
}

// Stats summarizes a loaded catalog.
type Stats struct {
	Total     int
	Available int
	SoldOut   int
}

// Catalog is one visitor's view of the public book list.
type Catalog struct {
	api Lister

	mu    sync.Mutex
	books []model.Book
	err   error
}

// New creates an empty catalog backed by api.
func New(api Lister) *Catalog {
	return &Catalog{api: api}
}

// Load fetches the collection. On failure the previous collection is
// discarded so the screen shows an empty list.
func (c *Catalog) Load(ctx context.Context) error {
	books, err := c.api.ListBooks(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	if err != nil {
		c.books = nil
		return err
	}
	c.books = books
	return nil
}

// Refetch reloads the collection. It has the shape of a donation.Callback.
func (c *Catalog) Refetch(ctx context.Context) {
	_ = c.Load(ctx)
}

// Err returns the error of the last load, if any.
func (c *Catalog) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// View returns the loaded books filtered by q in catalog order.
func (c *Catalog) View(q string) []model.Book {
	c.mu.Lock()
	books := c.books
	c.mu.Unlock()
	return SortCatalog(FilterBooks(books, q))
}

// Select returns the loaded book with id. Sold-out books are rejected.
func (c *Catalog) Select(id int64) (model.Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.books {
		if b.ID != id {
			continue
		}
		if b.SoldOut() {
			return model.Book{}, ErrSoldOut
		}
		return b, nil
	}
	return model.Book{}, ErrUnknownBook
}

// Stats counts the loaded books.
func (c *Catalog) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Total: len(c.books)}
	for _, b := range c.books {
		if b.SoldOut() {
			s.SoldOut++
		} else {
			s.Available++
		}
	}
	return s
}

// GameSuggestions returns the games shown on the games screen.
func GameSuggestions() []model.GameSuggestion {
	out := make([]model.GameSuggestion, len(model.GameSuggestions))
	copy(out, model.GameSuggestions)
	return out
}

// FindGame looks up a suggestion by name, ignoring case. An unknown name still
// yields a suggestion so visitors can pledge any game.
func FindGame(name string) model.GameSuggestion {
	name = strings.TrimSpace(name)
	for _, g := range model.GameSuggestions {
		if strings.EqualFold(g.Name, name) {
			return g
		}
	}
	return model.GameSuggestion{Name: name}
}

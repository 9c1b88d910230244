package library

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Borrower is what ReturnCopy needs to know about the person handing a copy back.
type Borrower interface {
	UserID() string
	DueDate(isbn string) (time.Time, bool)
}

// Catalog owns every book record, keyed by ISBN, and the reservation queues
// for those records. A Catalog is not safe for concurrent use.
type Catalog struct {
	books map[string]*Book
	order []string // ISBNs in insertion order
	queue *ReservationQueue

	ledger   Ledger
	digital  bool
	now      func() time.Time
	logger   Logger
	audit    AuditSink
	notifier Notifier
	seed     []SeedEntry
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithDigital lets the catalog hold digital books.
func WithDigital() CatalogOption {
	return func(c *Catalog) { c.digital = true }
}

func WithLedger(l Ledger) CatalogOption {
	return func(c *Catalog) { c.ledger = l }
}

// WithClock replaces time.Now for due-date computation and audit timestamps.
func WithClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) { c.now = now }
}

func WithLogger(l Logger) CatalogOption {
	return func(c *Catalog) { c.logger = l }
}

// WithAuditSink sends audit entries to s instead of the logger.
func WithAuditSink(s AuditSink) CatalogOption {
	return func(c *Catalog) { c.audit = s }
}

func WithNotifier(n Notifier) CatalogOption {
	return func(c *Catalog) { c.notifier = n }
}

// WithSeed adds the given entries when the catalog is built.
func WithSeed(entries []SeedEntry) CatalogOption {
	return func(c *Catalog) { c.seed = entries }
}

// NewCatalog builds an empty catalog and applies the seed list, if any.
func NewCatalog(opts ...CatalogOption) (*Catalog, error) {
	c := &Catalog{
		books:  make(map[string]*Book),
		queue:  NewReservationQueue(),
		ledger: DefaultLedger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = discardLogger()
	}
	if c.audit == nil {
		c.audit = NewLogSink(c.logger)
	}
	if c.notifier == nil {
		c.notifier = NotifierFunc(func(n Notification) {
			c.logger.Info("reserved book available", "user", n.UserID, "isbn", n.ISBN)
		})
	}

	for _, e := range c.seed {
		var err error
		if e.Digital {
			err = c.AddEBook(e.Book())
		} else {
			err = c.Add(e.Book(), e.copies())
		}
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", e.ISBN, err)
		}
	}
	return c, nil
}

// Add puts count copies of b on the shelf. An existing ISBN gains count copies;
// a new one is inserted with count copies. Digital books are routed to AddEBook.
func (c *Catalog) Add(b Book, count int) error {
	if b.IsDigital() {
		return c.AddEBook(b)
	}
	if count < 1 {
		return fmt.Errorf("add %s: %w", b.ISBN, ErrInvalidCount)
	}
	if existing, ok := c.books[b.ISBN]; ok && existing.IsDigital() {
		return fmt.Errorf("add %s: %w", b.ISBN, ErrKindMismatch)
	}
	c.put(b, count)
	c.record(ActionAddBook, b.ISBN, "", map[string]string{"title": b.Title, "count": strconv.Itoa(count)})
	return nil
}

// AddEBook adds a single-instance digital book. Adding an ebook that is already
// present changes nothing.
func (c *Catalog) AddEBook(b Book) error {
	if !c.digital {
		return fmt.Errorf("add %s: %w", b.ISBN, ErrDigitalUnsupported)
	}
	if existing, ok := c.books[b.ISBN]; ok {
		if !existing.IsDigital() {
			return fmt.Errorf("add %s: %w", b.ISBN, ErrKindMismatch)
		}
		return nil
	}
	b.Kind = Digital
	c.put(b, 1)
	c.record(ActionAddEBook, b.ISBN, "", map[string]string{"title": b.Title})
	return nil
}

func (c *Catalog) put(b Book, count int) {
	if existing, ok := c.books[b.ISBN]; ok {
		existing.TotalCopies += count
		existing.AvailableCopies += count
		return
	}
	b.TotalCopies = count
	b.AvailableCopies = count
	b.loans = 0
	c.books[b.ISBN] = &b
	c.order = append(c.order, b.ISBN)
}

// Remove takes count copies out of circulation. Lent copies cannot be removed.
// The record and its reservation queue disappear once no copies are left.
func (c *Catalog) Remove(isbn string, count int) error {
	b, ok := c.books[isbn]
	if !ok {
		return fmt.Errorf("remove %s: %w", isbn, ErrNotFound)
	}
	if count < 1 {
		return fmt.Errorf("remove %s: %w", isbn, ErrInvalidCount)
	}
	if b.IsDigital() && b.loans > 0 {
		return fmt.Errorf("cannot remove ebook %s while %d loans are out: %w", isbn, b.loans, ErrUnavailable)
	}
	if count > b.AvailableCopies {
		return fmt.Errorf("cannot remove %d copies of %s, only %d on the shelf: %w", count, isbn, b.AvailableCopies, ErrUnavailable)
	}

	b.TotalCopies -= count
	b.AvailableCopies -= count
	if b.TotalCopies <= 0 {
		delete(c.books, isbn)
		c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == isbn })
		c.queue.Drop(isbn)
	}
	c.record(ActionRemoveBook, isbn, "", map[string]string{"count": strconv.Itoa(count)})
	return nil
}

// Lend takes one copy off the shelf for userID and returns the due date.
// Recording the loan on the user's account is the caller's job.
func (c *Catalog) Lend(isbn, userID string) (time.Time, error) {
	b, ok := c.books[isbn]
	if !ok {
		return time.Time{}, fmt.Errorf("lend %s: %w", isbn, ErrNotFound)
	}
	if b.AvailableCopies <= 0 {
		return time.Time{}, fmt.Errorf("lend %s: %w", isbn, ErrUnavailable)
	}
	if b.IsDigital() {
		b.loans++
	} else {
		b.AvailableCopies--
	}

	due := c.ledger.DueDate(c.now())
	c.record(ActionLendBook, isbn, userID, map[string]string{"due": due.Format(time.DateOnly)})
	return due, nil
}

// ReturnCopy puts one copy back on the shelf. A borrower with a recorded due
// date before returnedAt is charged a late fee, which is only reported. If
// users are waiting for the title, the earliest one is dequeued and notified.
func (c *Catalog) ReturnCopy(isbn string, borrower Borrower, returnedAt time.Time) (Return, error) {
	b, ok := c.books[isbn]
	if !ok {
		return Return{}, fmt.Errorf("return %s: %w", isbn, ErrNotFound)
	}
	switch {
	case b.IsDigital():
		b.loans = max(b.loans-1, 0)
	case b.AvailableCopies >= b.TotalCopies:
		return Return{}, fmt.Errorf("return %s: %w", isbn, ErrNotLent)
	default:
		b.AvailableCopies++
	}

	ret := Return{ISBN: isbn, Title: b.Title}
	var userID string
	if borrower != nil {
		userID = borrower.UserID()
		if due, ok := borrower.DueDate(isbn); ok {
			ret.DueDate = due
			ret.DaysLate, ret.Fine = c.ledger.LateFee(due, returnedAt)
		}
	}
	c.record(ActionReturnBook, isbn, userID, map[string]string{
		"days_late": strconv.Itoa(ret.DaysLate),
		"fine":      strconv.Itoa(ret.Fine),
	})

	if next, ok := c.queue.Dequeue(isbn); ok {
		n := Notification{ID: uuid.New(), UserID: next, ISBN: isbn, Title: b.Title, At: returnedAt}
		c.notifier.Notify(n)
		c.record(ActionReservationNotify, isbn, next, nil)
		ret.Notified = &n
	}
	return ret, nil
}

// Reserve queues userID for a title that has no copies on the shelf.
func (c *Catalog) Reserve(isbn, userID string) error {
	b, ok := c.books[isbn]
	if !ok {
		return fmt.Errorf("reserve %s: %w", isbn, ErrNotFound)
	}
	if b.AvailableCopies > 0 {
		return fmt.Errorf("%w: book is available, no need to reserve", ErrReservation)
	}
	if c.queue.Contains(isbn, userID) {
		return fmt.Errorf("%w: you already have a reservation for this book", ErrReservation)
	}
	c.queue.Enqueue(isbn, userID)
	c.record(ActionReserveBook, isbn, userID, map[string]string{"position": strconv.Itoa(c.queue.Len(isbn))})
	return nil
}

// CancelReservation drops userID from the isbn queue.
func (c *Catalog) CancelReservation(isbn, userID string) error {
	if _, ok := c.books[isbn]; !ok {
		return fmt.Errorf("cancel reservation %s: %w", isbn, ErrNotFound)
	}
	if !c.queue.Cancel(isbn, userID) {
		return fmt.Errorf("%w: no active reservation found for %s on %s", ErrReservation, userID, isbn)
	}
	c.record(ActionCancelReservation, isbn, userID, nil)
	return nil
}

// Reservations lists the users waiting for isbn, earliest first.
func (c *Catalog) Reservations(isbn string) []string {
	return c.queue.Waiting(isbn)
}

// SearchByTitle matches titles containing term, ignoring case. When nothing
// matches it falls back to the closest titles by similarity.
func (c *Catalog) SearchByTitle(term string) []Book {
	needle := strings.ToLower(term)
	var out []Book
	for b := range c.Books() {
		if strings.Contains(strings.ToLower(b.Title), needle) {
			out = append(out, b)
		}
	}
	if len(out) > 0 {
		return out
	}

	titles := make([]string, 0, len(c.order))
	for b := range c.Books() {
		titles = append(titles, b.Title)
	}
	seen := make(map[string]bool)
	for _, title := range closeMatches(term, titles) {
		if seen[title] {
			continue
		}
		seen[title] = true
		for b := range c.Books() {
			if b.Title == title {
				out = append(out, b)
			}
		}
	}
	return out
}

// SearchByAuthor matches authors containing term, ignoring case.
func (c *Catalog) SearchByAuthor(term string) []Book {
	needle := strings.ToLower(term)
	var out []Book
	for b := range c.Books() {
		if strings.Contains(strings.ToLower(b.Author), needle) {
			out = append(out, b)
		}
	}
	return out
}

func (c *Catalog) SearchByISBN(isbn string) (Book, bool) {
	b, ok := c.books[isbn]
	if !ok {
		return Book{}, false
	}
	return *b, true
}

// SearchField names the attribute Search matches against.
type SearchField string

const (
	ByTitle  SearchField = "title"
	ByAuthor SearchField = "author"
	ByISBN   SearchField = "isbn"
)

// Search dispatches to the title, author or ISBN search.
func (c *Catalog) Search(by SearchField, term string) ([]Book, error) {
	switch SearchField(strings.ToLower(string(by))) {
	case ByTitle:
		return c.SearchByTitle(term), nil
	case ByAuthor:
		return c.SearchByAuthor(term), nil
	case ByISBN:
		if b, ok := c.SearchByISBN(term); ok {
			return []Book{b}, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("search by %q: %w", by, ErrUnknownSearchField)
}

// GroupByGenre buckets books with copies on the shelf by genre. Genres appear
// in the order their first book was added.
func (c *Catalog) GroupByGenre() []GenreGroup {
	var groups []GenreGroup
	index := make(map[string]int)
	for b := range c.Available() {
		i, ok := index[b.Genre]
		if !ok {
			i = len(groups)
			index[b.Genre] = i
			groups = append(groups, GenreGroup{Genre: b.Genre})
		}
		groups[i].Books = append(groups[i].Books, b)
	}
	return groups
}

// Available yields every book with at least one copy on the shelf, in
// insertion order. Each range over the sequence starts from the beginning.
func (c *Catalog) Available() iter.Seq[Book] {
	return func(yield func(Book) bool) {
		for b := range c.Books() {
			if b.AvailableCopies > 0 && !yield(b) {
				return
			}
		}
	}
}

// Books yields every record in insertion order.
func (c *Catalog) Books() iter.Seq[Book] {
	return func(yield func(Book) bool) {
		for _, isbn := range slices.Clone(c.order) {
			b, ok := c.books[isbn]
			if !ok {
				continue
			}
			if !yield(*b) {
				return
			}
		}
	}
}

// Len returns the number of distinct ISBNs in the catalog.
func (c *Catalog) Len() int { return len(c.books) }

// Now is the catalog clock.
func (c *Catalog) Now() time.Time { return c.now() }

func (c *Catalog) record(action, isbn, userID string, detail map[string]string) {
	e := Entry{ID: uuid.New(), Action: action, ISBN: isbn, UserID: userID, Detail: detail, At: c.now()}
	if err := c.audit.Record(e); err != nil {
		c.logger.Warn("audit record failed", "action", action, "isbn", isbn, "err", err)
	}
}

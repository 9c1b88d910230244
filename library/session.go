package library

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Session is a thin facade over the Catalog and Directory that acts on behalf
// of the logged-in user, keeping shell code simple. At most one user is active.
type Session struct {
	catalog   *Catalog
	directory *Directory
	logger    Logger

	current string // user id, empty when logged out
}

// NewSession wires a session to its catalog and directory. A nil logger discards output.
func NewSession(catalog *Catalog, directory *Directory, logger Logger) *Session {
	if logger == nil {
		logger = discardLogger()
	}
	return &Session{catalog: catalog, directory: directory, logger: logger}
}

func (s *Session) Register(id, name, secret string) error {
	return s.directory.Register(id, name, secret)
}

// Login makes id the active user when the secret matches.
func (s *Session) Login(id, secret string) (*Account, error) {
	a, err := s.directory.Authenticate(id, secret)
	if err != nil {
		return nil, err
	}
	s.current = a.ID
	s.logger.Info("login", "user", a.ID)
	return a, nil
}

func (s *Session) Logout() {
	if s.current != "" {
		s.logger.Info("logout", "user", s.current)
	}
	s.current = ""
}

// Current returns the active account.
func (s *Session) Current() (*Account, bool) {
	if s.current == "" {
		return nil, false
	}
	return s.directory.Lookup(s.current)
}

func (s *Session) active() (*Account, error) {
	a, ok := s.Current()
	if !ok {
		return nil, ErrNoSession
	}
	return a, nil
}

// ListAvailable returns every book with a copy on the shelf.
func (s *Session) ListAvailable() []Book {
	return slices.Collect(s.catalog.Available())
}

func (s *Session) AddBook(b Book, count int) error { return s.catalog.Add(b, count) }
func (s *Session) AddEBook(b Book) error           { return s.catalog.AddEBook(b) }

func (s *Session) RemoveBook(isbn string, count int) error {
	return s.catalog.Remove(isbn, count)
}

func (s *Session) Search(by SearchField, term string) ([]Book, error) {
	return s.catalog.Search(by, term)
}

func (s *Session) GroupByGenre() []GenreGroup { return s.catalog.GroupByGenre() }

// Reservations lists the users waiting for isbn.
func (s *Session) Reservations(isbn string) ([]string, error) {
	if _, ok := s.catalog.SearchByISBN(isbn); !ok {
		return nil, fmt.Errorf("reservations %s: %w", isbn, ErrNotFound)
	}
	return s.catalog.Reservations(isbn), nil
}

// Lend checks a copy out to the active user and records the due date on their account.
func (s *Session) Lend(isbn string) (time.Time, error) {
	a, err := s.active()
	if err != nil {
		return time.Time{}, err
	}
	if a.HasBorrowed(isbn) {
		return time.Time{}, fmt.Errorf("lend %s: %w", isbn, ErrAlreadyBorrowed)
	}

	due, err := s.catalog.Lend(isbn, a.ID)
	if err != nil {
		return time.Time{}, err
	}
	a.borrow(isbn, due)
	if s.catalog.queue.Contains(isbn, a.ID) {
		if err := s.catalog.CancelReservation(isbn, a.ID); err != nil {
			s.logger.Warn("drop reservation after lend", "user", a.ID, "isbn", isbn, "err", err)
		}
	}
	a.unreserve(isbn)
	return due, nil
}

// Return hands the active user's copy back. If the copy goes to someone in the
// reservation queue, that user's reservation is cleared.
func (s *Session) Return(isbn string) (Return, error) {
	a, err := s.active()
	if err != nil {
		return Return{}, err
	}
	if !a.HasBorrowed(isbn) {
		return Return{}, fmt.Errorf("return %s: %w", isbn, ErrNotBorrowed)
	}

	ret, err := s.catalog.ReturnCopy(isbn, a, s.catalog.Now())
	if err != nil {
		return Return{}, err
	}
	a.giveBack(isbn)
	if ret.Notified != nil {
		if waiting, ok := s.directory.Lookup(ret.Notified.UserID); ok {
			waiting.unreserve(isbn)
		}
	}
	if ret.Fine > 0 {
		s.logger.Info("late return", "user", a.ID, "isbn", isbn, "days_late", ret.DaysLate, "fine", ret.Fine)
	}
	return ret, nil
}

// Reserve queues the active user for a title with no copies on the shelf.
func (s *Session) Reserve(isbn string) error {
	a, err := s.active()
	if err != nil {
		return err
	}
	if a.HasBorrowed(isbn) {
		return fmt.Errorf("%w: you can't reserve this book because you have already checked it out", ErrReservation)
	}
	if err := s.catalog.Reserve(isbn, a.ID); err != nil {
		return err
	}
	a.reserve(isbn)
	return nil
}

func (s *Session) CancelReservation(isbn string) error {
	a, err := s.active()
	if err != nil {
		return err
	}
	if err := s.catalog.CancelReservation(isbn, a.ID); err != nil {
		return err
	}
	a.unreserve(isbn)
	return nil
}

// Loans lists the active user's loans, soonest due first.
func (s *Session) Loans() ([]Loan, error) {
	a, err := s.active()
	if err != nil {
		return nil, err
	}
	loans := make([]Loan, 0, len(a.borrowed))
	for isbn, due := range a.borrowed {
		l := Loan{ISBN: isbn, DueDate: due}
		if b, ok := s.catalog.SearchByISBN(isbn); ok {
			l.Title = b.Title
		}
		loans = append(loans, l)
	}
	slices.SortFunc(loans, func(x, y Loan) int {
		if c := x.DueDate.Compare(y.DueDate); c != 0 {
			return c
		}
		return cmp.Compare(x.ISBN, y.ISBN)
	})
	return loans, nil
}

// MyReservations lists the ISBNs the active user is waiting for.
func (s *Session) MyReservations() ([]string, error) {
	a, err := s.active()
	if err != nil {
		return nil, err
	}
	return a.Reserved(), nil
}

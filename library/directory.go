package library

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Account is a registered user with their current loans and reservations.
type Account struct {
	ID   string
	Name string

	passwordHash []byte
	borrowed     map[string]time.Time
	reserved     map[string]struct{}
}

func (a *Account) UserID() string { return a.ID }

// DueDate returns the due date of the user's loan for isbn.
func (a *Account) DueDate(isbn string) (time.Time, bool) {
	due, ok := a.borrowed[isbn]
	return due, ok
}

// Borrowed returns a copy of the ISBN → due date map.
func (a *Account) Borrowed() map[string]time.Time {
	return maps.Clone(a.borrowed)
}

// Reserved returns the reserved ISBNs in sorted order.
func (a *Account) Reserved() []string {
	return slices.Sorted(maps.Keys(a.reserved))
}

func (a *Account) HasBorrowed(isbn string) bool {
	_, ok := a.borrowed[isbn]
	return ok
}

func (a *Account) HasReserved(isbn string) bool {
	_, ok := a.reserved[isbn]
	return ok
}

func (a *Account) borrow(isbn string, due time.Time) { a.borrowed[isbn] = due }
func (a *Account) giveBack(isbn string)              { delete(a.borrowed, isbn) }
func (a *Account) reserve(isbn string)               { a.reserved[isbn] = struct{}{} }
func (a *Account) unreserve(isbn string)             { delete(a.reserved, isbn) }

// Directory maps user ids to accounts. Secrets are kept as bcrypt hashes.
type Directory struct {
	accounts map[string]*Account
	cost     int
	logger   Logger
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithHashCost sets the bcrypt cost; values outside bcrypt's range fall back to the default.
func WithHashCost(cost int) DirectoryOption {
	return func(d *Directory) { d.cost = cost }
}

func WithDirectoryLogger(l Logger) DirectoryOption {
	return func(d *Directory) { d.logger = l }
}

func NewDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{
		accounts: make(map[string]*Account),
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.cost < bcrypt.MinCost || d.cost > bcrypt.MaxCost {
		d.cost = bcrypt.DefaultCost
	}
	if d.logger == nil {
		d.logger = discardLogger()
	}
	return d
}

// Register creates an account. An existing id is reported with ErrDuplicateUser
// and leaves that account untouched.
func (d *Directory) Register(id, name, secret string) error {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(name) == "" || secret == "" {
		return ErrIncompleteRegistration
	}
	if _, exists := d.accounts[id]; exists {
		d.logger.Warn("duplicate registration", "user", id)
		return fmt.Errorf("register %s: %w", id, ErrDuplicateUser)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), d.cost)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}
	d.accounts[id] = &Account{
		ID:           id,
		Name:         name,
		passwordHash: hash,
		borrowed:     make(map[string]time.Time),
		reserved:     make(map[string]struct{}),
	}
	d.logger.Info("user registered", "user", id)
	return nil
}

// Authenticate returns the account when id exists and secret matches.
func (d *Directory) Authenticate(id, secret string) (*Account, error) {
	a, ok := d.accounts[id]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(secret)); err != nil {
		d.logger.Warn("failed login", "user", id)
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

func (d *Directory) Lookup(id string) (*Account, bool) {
	a, ok := d.accounts[id]
	return a, ok
}

// Len returns the number of registered accounts.
func (d *Directory) Len() int { return len(d.accounts) }

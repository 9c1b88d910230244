package library

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind tells physical copies apart from single-instance digital assets.
type Kind int

const (
	Physical Kind = iota
	Digital
)

func (k Kind) String() string {
	if k == Digital {
		return "digital"
	}
	return "physical"
}

// Book is a catalog record for one ISBN together with its copy counts.
// DownloadSizeMB is only meaningful for Digital books.
type Book struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	ISBN            string  `json:"isbn"`
	Genre           string  `json:"genre"`
	Kind            Kind    `json:"kind"`
	DownloadSizeMB  float64 `json:"download_size_mb,omitempty"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies int     `json:"available_copies"`

	// digital loans still out; digital copy counts never move
	loans int
}

// NewBook describes a physical title. Copy counts are set when it is added to a catalog.
func NewBook(title, author, isbn, genre string) Book {
	return Book{Title: title, Author: author, ISBN: isbn, Genre: genre, Kind: Physical}
}

// NewEBook describes a digital title.
func NewEBook(title, author, isbn, genre string, downloadSizeMB float64) Book {
	return Book{Title: title, Author: author, ISBN: isbn, Genre: genre, Kind: Digital, DownloadSizeMB: downloadSizeMB}
}

// IsDigital reports whether the record is a digital asset.
func (b Book) IsDigital() bool { return b.Kind == Digital }

func (b Book) String() string {
	s := fmt.Sprintf("%s by %s (ISBN: %s) - %d/%d available", b.Title, b.Author, b.ISBN, b.AvailableCopies, b.TotalCopies)
	if b.IsDigital() {
		s += fmt.Sprintf(" [ebook, %.1f MB]", b.DownloadSizeMB)
	}
	return s
}

// GenreGroup is one genre bucket produced by Catalog.GroupByGenre.
type GenreGroup struct {
	Genre string
	Books []Book
}

// Return describes the outcome of handing a copy back.
type Return struct {
	ISBN     string
	Title    string
	DueDate  time.Time // zero when the borrower had no recorded loan
	DaysLate int
	Fine     int

	// Notified is the reservation holder the copy was announced to, if any.
	Notified *Notification
}

// Notification tells a waiting user that a reserved title has a copy again.
type Notification struct {
	ID     uuid.UUID
	UserID string
	ISBN   string
	Title  string
	At     time.Time
}

func (n Notification) String() string {
	return fmt.Sprintf("Notification: %s, your reserved book '%s' is now available.", n.UserID, n.Title)
}

// Loan is a borrowed ISBN and its due date, as listed for an account.
type Loan struct {
	ISBN    string
	Title   string
	DueDate time.Time
}

package library

import "errors"

var (
	// ErrNotFound is returned when the referenced ISBN is not in the catalog.
	ErrNotFound = errors.New("book not found in library")
	// ErrUnavailable is returned when there are not enough copies on the shelf for a loan or removal.
	ErrUnavailable = errors.New("book currently not available")
	// ErrReservation is returned when a reservation cannot be placed or cancelled.
	ErrReservation = errors.New("reservation not possible")
	// ErrNotLent is returned when a copy is handed back for a title with no copies out.
	ErrNotLent = errors.New("no copies of this book are lent out")

	ErrInvalidCount       = errors.New("copy count must be at least 1")
	ErrDigitalUnsupported = errors.New("catalog does not accept digital books")
	ErrUnknownSearchField = errors.New("unknown search field")
	// ErrKindMismatch is returned when an ISBN is added as a physical book while
	// catalogued as digital, or the other way round.
	ErrKindMismatch = errors.New("ISBN is catalogued as a different kind of book")

	// ErrDuplicateUser is returned when registering an id that already exists.
	ErrDuplicateUser = errors.New("user ID already exists")
	// ErrIncompleteRegistration is returned when id, name or secret is blank.
	ErrIncompleteRegistration = errors.New("all fields are required")
	// ErrInvalidCredentials is returned when the id/secret combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrNoSession       = errors.New("no user is logged in")
	ErrNotBorrowed     = errors.New("you have not borrowed this book")
	ErrAlreadyBorrowed = errors.New("you already have this book checked out")
)

package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, opts ...CatalogOption) *Session {
	t.Helper()
	s := NewSession(seededCatalog(t, opts...), newTestDirectory(), nil)
	for _, u := range []string{"u1", "u2", "u3"} {
		require.NoError(t, s.Register(u, "User "+u, "pw-"+u))
	}
	return s
}

func loginAs(t *testing.T, s *Session, id string) {
	t.Helper()
	_, err := s.Login(id, "pw-"+id)
	require.NoError(t, err)
}

const isbn1984 = "9780451524935"

func TestSessionRequiresLogin(t *testing.T) {
	s := newTestSession(t)

	_, err := s.Lend(isbn1984)
	require.ErrorIs(t, err, ErrNoSession)
	_, err = s.Return(isbn1984)
	require.ErrorIs(t, err, ErrNoSession)
	require.ErrorIs(t, s.Reserve(isbn1984), ErrNoSession)
	require.ErrorIs(t, s.CancelReservation(isbn1984), ErrNoSession)
	_, err = s.Loans()
	require.ErrorIs(t, err, ErrNoSession)
	_, err = s.MyReservations()
	require.ErrorIs(t, err, ErrNoSession)

	assert.Len(t, s.ListAvailable(), 10, "browsing needs no login")
}

func TestSessionLoginLogout(t *testing.T) {
	s := newTestSession(t)

	_, err := s.Login("u1", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, ok := s.Current()
	assert.False(t, ok)

	loginAs(t, s, "u1")
	a, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "u1", a.ID)

	loginAs(t, s, "u2")
	a, _ = s.Current()
	assert.Equal(t, "u2", a.ID, "second login replaces the first")

	s.Logout()
	_, ok = s.Current()
	assert.False(t, ok)

	require.ErrorIs(t, s.Register("u1", "Again", "pw"), ErrDuplicateUser)
}

func TestSessionLendReturn(t *testing.T) {
	s := newTestSession(t)
	loginAs(t, s, "u1")

	due, err := s.Lend(isbn1984)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(DefaultLoanPeriod), due)
	assert.Len(t, s.ListAvailable(), 9)

	_, err = s.Lend(isbn1984)
	require.ErrorIs(t, err, ErrAlreadyBorrowed)

	loans, err := s.Loans()
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, Loan{ISBN: isbn1984, Title: "1984", DueDate: due}, loans[0])

	ret, err := s.Return(isbn1984)
	require.NoError(t, err)
	assert.Zero(t, ret.Fine)
	assert.Len(t, s.ListAvailable(), 10)

	_, err = s.Return(isbn1984)
	require.ErrorIs(t, err, ErrNotBorrowed)
	loans, _ = s.Loans()
	assert.Empty(t, loans)
}

func TestSessionReservationFlow(t *testing.T) {
	var notified []Notification
	s := newTestSession(t, WithNotifier(NotifierFunc(func(n Notification) { notified = append(notified, n) })))

	loginAs(t, s, "u1")
	_, err := s.Lend(isbn1984)
	require.NoError(t, err)
	require.ErrorIs(t, s.Reserve(isbn1984), ErrReservation, "borrower cannot reserve their own loan")

	loginAs(t, s, "u2")
	_, err = s.Lend(isbn1984)
	require.ErrorIs(t, err, ErrUnavailable)
	require.NoError(t, s.Reserve(isbn1984))
	mine, err := s.MyReservations()
	require.NoError(t, err)
	assert.Equal(t, []string{isbn1984}, mine)

	loginAs(t, s, "u3")
	require.NoError(t, s.Reserve(isbn1984))
	waiting, err := s.Reservations(isbn1984)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3"}, waiting)

	loginAs(t, s, "u1")
	ret, err := s.Return(isbn1984)
	require.NoError(t, err)
	require.NotNil(t, ret.Notified)
	assert.Equal(t, "u2", ret.Notified.UserID)
	require.Len(t, notified, 1)

	u2, _ := s.directory.Lookup("u2")
	assert.False(t, u2.HasReserved(isbn1984), "notified user's reservation is cleared")

	loginAs(t, s, "u3")
	_, err = s.Lend(isbn1984)
	require.NoError(t, err, "a copy is on the shelf again")
	waiting, _ = s.Reservations(isbn1984)
	assert.Empty(t, waiting, "lending drops the borrower's own place in the queue")
	mine, _ = s.MyReservations()
	assert.Empty(t, mine)
}

func TestSessionCancelReservation(t *testing.T) {
	s := newTestSession(t)
	loginAs(t, s, "u1")
	_, err := s.Lend(isbn1984)
	require.NoError(t, err)

	loginAs(t, s, "u2")
	require.NoError(t, s.Reserve(isbn1984))
	require.NoError(t, s.CancelReservation(isbn1984))
	require.ErrorIs(t, s.CancelReservation(isbn1984), ErrReservation)

	mine, _ := s.MyReservations()
	assert.Empty(t, mine)
	_, err = s.Reservations("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionCatalogPassThrough(t *testing.T) {
	s := newTestSession(t, WithDigital())

	require.NoError(t, s.AddBook(NewBook("Dune", "Frank Herbert", "isbn-dune", "Science Fiction"), 2))
	require.NoError(t, s.AddEBook(NewEBook("Neuromancer", "William Gibson", "isbn-neuro", "Cyberpunk", 2.5)))
	require.NoError(t, s.RemoveBook("isbn-dune", 1))
	require.ErrorIs(t, s.RemoveBook("isbn-dune", 5), ErrUnavailable)

	got, err := s.Search(ByAuthor, "herbert")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].TotalCopies)

	groups := s.GroupByGenre()
	assert.Equal(t, "Cyberpunk", groups[len(groups)-1].Genre)
}

func TestSessionEBookLoanBlocksRemoval(t *testing.T) {
	s := newTestSession(t, WithDigital())
	require.NoError(t, s.AddEBook(NewEBook("Neuromancer", "William Gibson", "isbn-neuro", "Cyberpunk", 2.5)))
	loginAs(t, s, "u1")
	_, err := s.Lend("isbn-neuro")
	require.NoError(t, err)

	require.ErrorIs(t, s.RemoveBook("isbn-neuro", 1), ErrUnavailable)

	_, err = s.Return("isbn-neuro")
	require.NoError(t, err)
	u1, _ := s.Current()
	assert.False(t, u1.HasBorrowed("isbn-neuro"))
	require.NoError(t, s.RemoveBook("isbn-neuro", 1))
}

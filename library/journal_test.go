package library

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempJournal(t *testing.T) *Journal {
	t.Helper()
	dir := t.TempDir()
	j, err := OpenJournal(filepath.Join(dir, "audit", "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRecordAndEntries(t *testing.T) {
	j := tempJournal(t)
	id := uuid.New()
	require.NoError(t, j.Record(Entry{
		ID:     id,
		Action: ActionLendBook,
		ISBN:   "isbn-dune",
		UserID: "u1",
		Detail: map[string]string{"due": "2024-03-15"},
		At:     testNow,
	}))
	require.NoError(t, j.Record(Entry{Action: ActionAddBook, ISBN: "isbn-neuro"}))

	entries, err := j.Entries(JournalFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, id, first.ID)
	assert.Equal(t, ActionLendBook, first.Action)
	assert.Equal(t, "u1", first.UserID)
	assert.Equal(t, map[string]string{"due": "2024-03-15"}, first.Detail)
	assert.True(t, first.At.Equal(testNow))

	second := entries[1]
	assert.NotEqual(t, uuid.Nil, second.ID, "missing id is filled in")
	assert.False(t, second.At.IsZero())
	assert.Nil(t, second.Detail)
}

func TestJournalFilters(t *testing.T) {
	j := tempJournal(t)
	for i, e := range []Entry{
		{Action: ActionAddBook, ISBN: "isbn-a"},
		{Action: ActionLendBook, ISBN: "isbn-a", UserID: "u1"},
		{Action: ActionLendBook, ISBN: "isbn-b", UserID: "u2"},
		{Action: ActionReturnBook, ISBN: "isbn-a", UserID: "u1"},
	} {
		e.At = testNow.Add(time.Duration(i) * time.Minute)
		require.NoError(t, j.Record(e))
	}

	tests := []struct {
		name   string
		filter JournalFilter
		want   []string
	}{
		{name: "by action", filter: JournalFilter{Action: ActionLendBook}, want: []string{"isbn-a", "isbn-b"}},
		{name: "by isbn", filter: JournalFilter{ISBN: "isbn-a"}, want: []string{"isbn-a", "isbn-a", "isbn-a"}},
		{name: "by user and action", filter: JournalFilter{UserID: "u1", Action: ActionReturnBook}, want: []string{"isbn-a"}},
		{name: "limit", filter: JournalFilter{Limit: 2}, want: []string{"isbn-a", "isbn-a"}},
		{name: "no match", filter: JournalFilter{UserID: "u9"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := j.Entries(tt.filter)
			require.NoError(t, err)
			got := make([]string, len(entries))
			for i, e := range entries {
				got[i] = e.ISBN
			}
			assert.Equal(t, tt.want, got)
		})
	}

	counts, err := j.CountByAction()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{ActionAddBook: 1, ActionLendBook: 2, ActionReturnBook: 1}, counts)
}

func TestJournalReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(Entry{Action: ActionAddBook, ISBN: "isbn-a"}))
	require.NoError(t, j.Close())

	j, err = OpenJournal(path)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	entries, err := j.Entries(JournalFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInMemoryJournalAsCatalogSink(t *testing.T) {
	j, err := OpenJournal("")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	c := seededCatalog(t, WithAuditSink(TeeSink(NewLogSink(discardLogger()), j)))
	_, err = c.Lend(isbn1984, "u1")
	require.NoError(t, err)
	require.NoError(t, c.Reserve(isbn1984, "u2"))

	counts, err := j.CountByAction()
	require.NoError(t, err)
	assert.Equal(t, 10, counts[ActionAddBook])
	assert.Equal(t, 1, counts[ActionLendBook])
	assert.Equal(t, 1, counts[ActionReserveBook])

	lends, err := j.Entries(JournalFilter{Action: ActionLendBook})
	require.NoError(t, err)
	require.Len(t, lends, 1)
	assert.Equal(t, "u1", lends[0].UserID)
	assert.True(t, lends[0].At.Equal(testNow))
}

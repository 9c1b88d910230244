package library

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSinkWritesSortedDetail(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))

	err := NewLogSink(logger).Record(Entry{
		Action: ActionReturnBook,
		ISBN:   "isbn-a",
		UserID: "u1",
		Detail: map[string]string{"fine": "3", "days_late": "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "level=INFO msg=RETURN_BOOK isbn=isbn-a user=u1 days_late=3 fine=3\n", buf.String())
}

func TestTeeSinkReachesEverySink(t *testing.T) {
	failing := &recordingSink{err: errors.New("boom")}
	ok := &recordingSink{}

	err := TeeSink(failing, ok).Record(Entry{Action: ActionAddBook})
	require.EqualError(t, err, "boom")
	assert.Len(t, failing.entries, 1)
	assert.Len(t, ok.entries, 1)
}

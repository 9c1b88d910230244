package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationQueueOrder(t *testing.T) {
	q := NewReservationQueue()
	q.Enqueue("isbn-a", "u1")
	q.Enqueue("isbn-a", "u2")
	q.Enqueue("isbn-b", "u3")
	q.Enqueue("isbn-a", "u4")

	assert.Equal(t, 3, q.Len("isbn-a"))
	assert.True(t, q.Contains("isbn-a", "u2"))
	assert.False(t, q.Contains("isbn-b", "u2"))

	for _, want := range []string{"u1", "u2", "u4"} {
		got, ok := q.Dequeue("isbn-a")
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := q.Dequeue("isbn-a")
	assert.False(t, ok)
	assert.Equal(t, []string{"u3"}, q.Waiting("isbn-b"))
}

func TestReservationQueueCancel(t *testing.T) {
	q := NewReservationQueue()
	for _, u := range []string{"u1", "u2", "u3"} {
		q.Enqueue("isbn-a", u)
	}
	waiting := q.Waiting("isbn-a")

	assert.True(t, q.Cancel("isbn-a", "u2"))
	assert.False(t, q.Cancel("isbn-a", "u2"))
	assert.False(t, q.Cancel("isbn-z", "u1"))
	assert.Equal(t, []string{"u1", "u3"}, q.Waiting("isbn-a"))
	assert.Equal(t, []string{"u1", "u2", "u3"}, waiting, "earlier snapshot is unaffected")

	q.Drop("isbn-a")
	assert.Zero(t, q.Len("isbn-a"))
	assert.Empty(t, q.Waiting("isbn-a"))
}

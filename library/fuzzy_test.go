package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloseMatches(t *testing.T) {
	candidates := []string{"The Hobbit", "The Habit", "Hobbies", "Moby-Dick"}

	assert.Equal(t, []string{"The Hobbit", "The Habit"}, closeMatches("the hobit", candidates))
	assert.Equal(t, []string{"Moby-Dick"}, closeMatches("MOBY DICK", candidates))
	assert.Empty(t, closeMatches("xyz", candidates))
	assert.Empty(t, closeMatches("hobbit", nil))
}

func TestCloseMatchesLimit(t *testing.T) {
	got := closeMatches("book", []string{"book", "books", "booka", "bookb", "boo"})
	assert.Equal(t, []string{"book", "books", "booka"}, got)
}

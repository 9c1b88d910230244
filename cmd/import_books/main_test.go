package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-catalog/library"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestImportBooks(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "books.csv", `title,author,isbn,genre,copies,download_size_mb
Dune,Frank Herbert,isbn-dune,Science Fiction,2,
Dune,Frank Herbert,isbn-dune,Science Fiction,,
Neuromancer,William Gibson,isbn-neuro,Cyberpunk,,2.5
Neuromancer,William Gibson,isbn-neuro,Cyberpunk,,2.5
`)
	output := filepath.Join(dir, "out", "seed.json")

	var out bytes.Buffer
	require.NoError(t, importBooks(&out, csvPath, output, false))
	assert.Contains(t, out.String(), "Rows read: 4")
	assert.Contains(t, out.String(), "Skipped: 1")
	assert.Contains(t, out.String(), "Warning: duplicate ebook isbn-neuro")

	entries, err := library.LoadSeedFile(output)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Copies)
	assert.True(t, entries[1].Digital)
}

func TestImportBooksMerge(t *testing.T) {
	dir := t.TempDir()
	output := writeFile(t, dir, "seed.json", `[{"title":"Dune","author":"Frank Herbert","isbn":"isbn-dune","genre":"SF","copies":1}]`)
	csvPath := writeFile(t, dir, "books.csv", "title,author,isbn,genre\nDune,Frank Herbert,isbn-dune,SF\nEmma,Jane Austen,isbn-emma,Romance\n")

	cmd := newImportCmd()
	cmd.SetArgs([]string{csvPath, "--output", output, "--merge"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	entries, err := library.LoadSeedFile(output)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Copies)
	assert.Equal(t, "Emma", entries[1].Title)
}

func TestImportBooksBadCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "books.csv", "title,author\nDune,Frank Herbert\n")
	err := importBooks(&bytes.Buffer{}, csvPath, filepath.Join(dir, "seed.json"), false)
	require.ErrorContains(t, err, `missing "isbn"`)
}

func TestTruncateStringKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "Les Misérables", truncateString("Les Misérables", 14))
	assert.Equal(t, "Crime and Puni...", truncateString("Crime and Punishment", 17))
	assert.Equal(t, "Чудо...", truncateString("Чудовище", 7))
	assert.Equal(t, "Чу", truncateString("Чудовище", 2))
}

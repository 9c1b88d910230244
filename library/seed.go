package library

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed seed.json
var defaultSeed []byte

// SeedEntry is one book in a seed list.
type SeedEntry struct {
	Title          string  `json:"title"`
	Author         string  `json:"author"`
	ISBN           string  `json:"isbn"`
	Genre          string  `json:"genre"`
	Copies         int     `json:"copies,omitempty"`
	Digital        bool    `json:"digital,omitempty"`
	DownloadSizeMB float64 `json:"download_size_mb,omitempty"`
}

// Book converts the entry into a catalog record description.
func (e SeedEntry) Book() Book {
	if e.Digital {
		return NewEBook(e.Title, e.Author, e.ISBN, e.Genre, e.DownloadSizeMB)
	}
	return NewBook(e.Title, e.Author, e.ISBN, e.Genre)
}

// copies defaults to a single copy when the entry leaves it out.
func (e SeedEntry) copies() int {
	if e.Copies < 1 {
		return 1
	}
	return e.Copies
}

// DefaultSeed returns the ten books the catalog ships with.
func DefaultSeed() ([]SeedEntry, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// LoadSeed decodes a JSON array of seed entries.
func LoadSeed(r io.Reader) ([]SeedEntry, error) {
	var entries []SeedEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for i, e := range entries {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i+1, err)
		}
	}
	return entries, nil
}

// LoadSeedFile reads a seed list from path.
func LoadSeedFile(path string) ([]SeedEntry, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSeed(f)
}

// WriteSeed encodes entries as indented JSON.
func WriteSeed(w io.Writer, entries []SeedEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// ReadSeedCSV reads book metadata with a header row naming at least title,
// author, isbn and genre. Optional columns are copies and download_size_mb; a
// non-empty download size marks the row as a digital book.
func ReadSeedCSV(r io.Reader) ([]SeedEntry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"title", "author", "isbn", "genre"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header is missing %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var entries []SeedEntry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		e := SeedEntry{
			Title:  field(rec, "title"),
			Author: field(rec, "author"),
			ISBN:   field(rec, "isbn"),
			Genre:  field(rec, "genre"),
		}
		if v := field(rec, "copies"); v != "" {
			if e.Copies, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("csv line %d: copies %q: %w", line, v, err)
			}
		}
		if v := field(rec, "download_size_mb"); v != "" {
			if e.DownloadSizeMB, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("csv line %d: download_size_mb %q: %w", line, v, err)
			}
			e.Digital = true
		}
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (e SeedEntry) validate() error {
	switch {
	case e.ISBN == "":
		return errors.New("isbn is required")
	case e.Title == "":
		return errors.New("title is required")
	case e.Copies < 0:
		return ErrInvalidCount
	}
	return nil
}

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

func main() {
	if err := newImportCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	var (
		output string
		merge  bool
	)
	cmd := &cobra.Command{
		Use:           "import_books BOOKS.csv",
		Short:         "Convert a CSV book list into a catalog seed file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return importBooks(cmd.OutOrStdout(), args[0], output, merge)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "seed.json", "seed file to write")
	cmd.Flags().BoolVar(&merge, "merge", false, "append to the entries already in the output file")
	return cmd
}

func importBooks(out io.Writer, input, output string, merge bool) error {
	fmt.Fprintf(out, "Importing books from %s...\n", input)

	f, err := os.Open(filepath.Clean(input))
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	imported, err := library.ReadSeedCSV(f)
	if err != nil {
		return err
	}

	var entries []library.SeedEntry
	if merge {
		existing, err := library.LoadSeedFile(output)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", output, err)
		}
		entries = existing
	}

	// Later rows for an ISBN already listed add copies instead of duplicating it.
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.ISBN] = i
	}
	skipped := 0
	for _, e := range imported {
		i, exists := index[e.ISBN]
		if !exists {
			index[e.ISBN] = len(entries)
			entries = append(entries, e)
			continue
		}
		if entries[i].Digital || e.Digital {
			fmt.Fprintf(out, "Warning: duplicate ebook %s (%s), skipping\n", e.ISBN, e.Title)
			skipped++
			continue
		}
		entries[i].Copies = max(entries[i].Copies, 1) + max(e.Copies, 1)
	}

	// Make sure the merged list still builds a catalog before writing it.
	if _, err := library.NewCatalog(library.WithSeed(entries), library.WithDigital()); err != nil {
		return fmt.Errorf("check seed: %w", err)
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	w, err := os.Create(filepath.Clean(output))
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := library.WriteSeed(w, entries); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", output, err)
	}
	if err := w.Close(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Rows read: %d\n", len(imported))
	fmt.Fprintf(out, "Skipped: %d\n", skipped)
	fmt.Fprintf(out, "Entries in %s: %d\n", output, len(entries))

	fmt.Fprintln(out, "\nSeed books:")
	fmt.Fprintf(out, "%-15s %-40s %-25s %s\n", "ISBN", "Title", "Author", "Copies")
	fmt.Fprintln(out, strings.Repeat("-", 90))
	for _, e := range entries {
		copies := fmt.Sprint(max(e.Copies, 1))
		if e.Digital {
			copies = "ebook"
		}
		fmt.Fprintf(out, "%-15s %-40s %-25s %s\n", e.ISBN, truncateString(e.Title, 40), truncateString(e.Author, 25), copies)
	}
	return nil
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

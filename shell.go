package main

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"library-catalog/library"
)

var shellCommands = []struct{ name, help string }{
	{"register", "create an account"},
	{"login", "log in as an existing user"},
	{"logout", "log out"},
	{"list books", "list books with copies on the shelf"},
	{"add book", "add copies of a physical book"},
	{"add ebook", "add a digital book"},
	{"remove book", "take copies out of circulation"},
	{"lend", "borrow a book"},
	{"return", "return a borrowed book"},
	{"reserve", "join the waiting list for a book"},
	{"cancel reservation", "leave a waiting list"},
	{"list reservations", "show a waiting list, or your own reservations"},
	{"search", "search by title, author or ISBN"},
	{"genres", "show available books by genre"},
	{"my loans", "show your loans and due dates"},
	{"help", "show this list"},
	{"exit", "quit"},
}

// shell is the interactive command loop over a Session.
type shell struct {
	sc      *bufio.Scanner
	out     io.Writer
	session *library.Session

	readSecret func(prompt string) (string, error)
}

func newShell(in io.Reader, out io.Writer, session *library.Session) *shell {
	sh := &shell{sc: bufio.NewScanner(in), out: out, session: session}
	sh.readSecret = func(prompt string) (string, error) {
		line, ok := sh.prompt(prompt)
		if !ok {
			return "", io.ErrUnexpectedEOF
		}
		return line, nil
	}
	return sh
}

// terminalSecretReader masks secret input when f is a terminal and otherwise
// returns fallback.
func terminalSecretReader(f *os.File, out io.Writer, fallback func(string) (string, error)) func(string) (string, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return fallback
	}
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
}

func (sh *shell) printf(format string, args ...any) { fmt.Fprintf(sh.out, format, args...) }

func (sh *shell) prompt(label string) (string, bool) {
	sh.printf("%s", label)
	if !sh.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.sc.Text()), true
}

func (sh *shell) promptInt(label string, fallback int) (int, bool) {
	v, ok := sh.prompt(label)
	if !ok {
		return 0, false
	}
	if v == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		sh.printf("Invalid number: %s\n", v)
		return 0, false
	}
	return n, true
}

func (sh *shell) fail(err error) { sh.printf("Error: %v\n", err) }

func (sh *shell) run() {
	sh.printf("Welcome to the Library Catalog!\n")
	sh.printf("Type 'help' to see the available commands.\n")

	for {
		sh.printf("\n> ")
		if !sh.sc.Scan() {
			break
		}
		cmd := strings.ToLower(strings.Join(strings.Fields(sh.sc.Text()), " "))

		switch cmd {
		case "":
		case "register":
			sh.handleRegister()
		case "login":
			sh.handleLogin()
		case "logout":
			sh.handleLogout()
		case "list books":
			sh.handleListBooks()
		case "add book":
			sh.handleAddBook()
		case "add ebook":
			sh.handleAddEBook()
		case "remove book":
			sh.handleRemoveBook()
		case "lend":
			sh.handleLend()
		case "return":
			sh.handleReturn()
		case "reserve":
			sh.handleReserve()
		case "cancel reservation":
			sh.handleCancelReservation()
		case "list reservations":
			sh.handleListReservations()
		case "search":
			sh.handleSearch()
		case "genres":
			printGenres(sh.out, sh.session.GroupByGenre())
		case "my loans":
			sh.handleMyLoans()
		case "help":
			sh.handleHelp()
		case "exit", "quit":
			sh.printf("Goodbye!\n")
			return
		default:
			sh.printf("Unknown command. Type 'help' to see the available commands.\n")
		}
	}
}

func (sh *shell) handleHelp() {
	sh.printf("Available commands:\n")
	for _, c := range shellCommands {
		sh.printf("  %-20s %s\n", c.name, c.help)
	}
}

func (sh *shell) handleRegister() {
	id, ok := sh.prompt("User ID: ")
	if !ok {
		return
	}
	name, ok := sh.prompt("Name: ")
	if !ok {
		return
	}
	secret, err := sh.readSecret(fmt.Sprintf("Password for %s: ", id))
	if err != nil {
		sh.printf("Error reading password: %v\n", err)
		return
	}
	if err := sh.session.Register(id, name, secret); err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Registered %s (%s). You can now log in.\n", name, id)
}

func (sh *shell) handleLogin() {
	id, ok := sh.prompt("User ID: ")
	if !ok {
		return
	}
	secret, err := sh.readSecret("Password: ")
	if err != nil {
		sh.printf("Error reading password: %v\n", err)
		return
	}
	a, err := sh.session.Login(id, secret)
	if err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Welcome, %s!\n", a.Name)
}

func (sh *shell) handleLogout() {
	a, ok := sh.session.Current()
	if !ok {
		sh.fail(library.ErrNoSession)
		return
	}
	sh.session.Logout()
	sh.printf("Goodbye, %s.\n", a.Name)
}

func (sh *shell) handleListBooks() {
	books := sh.session.ListAvailable()
	if len(books) == 0 {
		sh.printf("No books available.\n")
		return
	}
	printBooks(sh.out, books)
}

func (sh *shell) readBookFields() (title, author, isbn, genre string, ok bool) {
	if title, ok = sh.prompt("Title: "); !ok {
		return
	}
	if author, ok = sh.prompt("Author: "); !ok {
		return
	}
	if isbn, ok = sh.prompt("ISBN: "); !ok {
		return
	}
	genre, ok = sh.prompt("Genre: ")
	return
}

func (sh *shell) handleAddBook() {
	title, author, isbn, genre, ok := sh.readBookFields()
	if !ok {
		return
	}
	count, ok := sh.promptInt("Copies [1]: ", 1)
	if !ok {
		return
	}
	if err := sh.session.AddBook(library.NewBook(title, author, isbn, genre), count); err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Added %d %s of '%s'.\n", count, plural(count, "copy", "copies"), title)
}

func (sh *shell) handleAddEBook() {
	title, author, isbn, genre, ok := sh.readBookFields()
	if !ok {
		return
	}
	v, ok := sh.prompt("Download size (MB): ")
	if !ok {
		return
	}
	size, err := strconv.ParseFloat(v, 64)
	if err != nil {
		sh.printf("Invalid size: %s\n", v)
		return
	}
	if err := sh.session.AddEBook(library.NewEBook(title, author, isbn, genre, size)); err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Added ebook '%s'.\n", title)
}

func (sh *shell) handleRemoveBook() {
	isbn, ok := sh.prompt("ISBN: ")
	if !ok {
		return
	}
	count, ok := sh.promptInt("Copies [1]: ", 1)
	if !ok {
		return
	}
	if err := sh.session.RemoveBook(isbn, count); err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Removed %d %s of %s.\n", count, plural(count, "copy", "copies"), isbn)
}

func (sh *shell) handleLend() {
	isbn, ok := sh.prompt("ISBN: ")
	if !ok {
		return
	}
	due, err := sh.session.Lend(isbn)
	if err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Book %s lent. Due back on %s.\n", isbn, due.Format(time.DateOnly))
}

func (sh *shell) handleReturn() {
	isbn, ok := sh.prompt("ISBN: ")
	if !ok {
		return
	}
	ret, err := sh.session.Return(isbn)
	if err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Book '%s' returned.\n", ret.Title)
	if ret.Fine > 0 {
		sh.printf("Returned %d %s late. Late fee: %d\n", ret.DaysLate, plural(ret.DaysLate, "day", "days"), ret.Fine)
	}
}

func (sh *shell) handleReserve() {
	isbn, ok := sh.prompt("ISBN: ")
	if !ok {
		return
	}
	if err := sh.session.Reserve(isbn); err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Book %s reserved.\n", isbn)
	if waiting, err := sh.session.Reservations(isbn); err == nil {
		sh.printf("Position in queue: %d\n", len(waiting))
	}
}

func (sh *shell) handleCancelReservation() {
	isbn, ok := sh.prompt("ISBN: ")
	if !ok {
		return
	}
	if err := sh.session.CancelReservation(isbn); err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Reservation for %s cancelled.\n", isbn)
}

func (sh *shell) handleListReservations() {
	isbn, ok := sh.prompt("ISBN (or press Enter for your own reservations): ")
	if !ok {
		return
	}

	if isbn == "" {
		mine, err := sh.session.MyReservations()
		if err != nil {
			sh.fail(err)
			return
		}
		if len(mine) == 0 {
			sh.printf("You have no reservations.\n")
			return
		}
		sh.printf("Your reservations:\n")
		for _, r := range mine {
			sh.printf("  %s\n", r)
		}
		return
	}

	waiting, err := sh.session.Reservations(isbn)
	if err != nil {
		sh.fail(err)
		return
	}
	if len(waiting) == 0 {
		sh.printf("No reservations for this book.\n")
		return
	}
	sh.printf("%-10s %s\n", "Position", "User ID")
	sh.printf("%s\n", strings.Repeat("-", 30))
	for i, u := range waiting {
		sh.printf("%-10d %s\n", i+1, u)
	}
}

func (sh *shell) handleSearch() {
	by, ok := sh.prompt("Search by (title/author/isbn) [title]: ")
	if !ok {
		return
	}
	if by == "" {
		by = string(library.ByTitle)
	}
	query, ok := sh.prompt("Query: ")
	if !ok {
		return
	}
	books, err := sh.session.Search(library.SearchField(by), query)
	if err != nil {
		sh.fail(err)
		return
	}
	if len(books) == 0 {
		sh.printf("No books found matching '%s'.\n", query)
		return
	}
	sh.printf("Found %d book(s) matching '%s':\n", len(books), query)
	printBooks(sh.out, books)
}

func (sh *shell) handleMyLoans() {
	loans, err := sh.session.Loans()
	if err != nil {
		sh.fail(err)
		return
	}
	if len(loans) == 0 {
		sh.printf("You have no books checked out.\n")
		return
	}
	sh.printf("%-15s %-35s %s\n", "ISBN", "Title", "Due")
	sh.printf("%s\n", strings.Repeat("-", 62))
	for _, l := range loans {
		sh.printf("%-15s %-35s %s\n", l.ISBN, truncateString(l.Title, 35), l.DueDate.Format(time.DateOnly))
	}
}

func printBooks(w io.Writer, books []library.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	fmt.Fprintf(w, "%-15s %-30s %-22s %-20s %s\n", "ISBN", "Title", "Author", "Genre", "Available")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, b := range books {
		avail := fmt.Sprintf("%d/%d", b.AvailableCopies, b.TotalCopies)
		if b.IsDigital() {
			avail = fmt.Sprintf("ebook (%.1f MB)", b.DownloadSizeMB)
		}
		fmt.Fprintf(w, "%-15s %-30s %-22s %-20s %s\n",
			b.ISBN,
			truncateString(b.Title, 30),
			truncateString(b.Author, 22),
			truncateString(b.Genre, 20),
			avail)
	}
}

func printGenres(w io.Writer, groups []library.GenreGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No books available.")
		return
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%s:\n", g.Genre)
		for _, b := range g.Books {
			fmt.Fprintf(w, "  %s\n", b)
		}
	}
}

func printEntries(w io.Writer, entries []library.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No journal entries.")
		return
	}
	fmt.Fprintf(w, "%-20s %-20s %-15s %-10s %s\n", "Time", "Action", "ISBN", "User", "Detail")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, e := range entries {
		var detail []string
		for _, k := range slices.Sorted(maps.Keys(e.Detail)) {
			detail = append(detail, k+"="+e.Detail[k])
		}
		fmt.Fprintf(w, "%-20s %-20s %-15s %-10s %s\n",
			e.At.Format(time.DateTime), e.Action, e.ISBN, e.UserID, strings.Join(detail, " "))
	}
}

func printCounts(w io.Writer, counts map[string]int) {
	if len(counts) == 0 {
		fmt.Fprintln(w, "No journal entries.")
		return
	}
	for _, action := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(w, "%-20s %d\n", action, counts[action])
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
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

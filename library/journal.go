package library

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Journal is an AuditSink that keeps every entry in a SQLite database. An empty
// path or ":memory:" keeps the journal in memory for the life of the process.
type Journal struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper

	recordStmt *sqlx.Stmt
}

// OpenJournal opens (or creates) the journal database at path, applies schema
// migrations, and prepares the insert statement.
func OpenJournal(path string) (*Journal, error) {
	inMemory := path == "" || path == ":memory:"

	dsn := "file::memory:?_busy_timeout=5000"
	if !inMemory {
		// Ensure directory exists so first-run succeeds.
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create journal dir: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	j := &Journal{db: db, dialect: goqu.Dialect("sqlite3")}
	if err := j.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Close releases the prepared statement and closes the DB.
func (j *Journal) Close() error {
	if j.recordStmt != nil {
		j.recordStmt.Close()
	}
	return j.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS journal (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            action TEXT NOT NULL,
            isbn TEXT NOT NULL DEFAULT '',
            user_id TEXT NOT NULL DEFAULT '',
            detail TEXT NOT NULL DEFAULT '{}',
            recorded_at INTEGER NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_journal_isbn ON journal(isbn);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_user ON journal(user_id);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

func (j *Journal) prepareStatements() error {
	var err error
	j.recordStmt, err = j.db.Preparex(`INSERT INTO journal(id,action,isbn,user_id,detail,recorded_at) VALUES(?,?,?,?,?,?)`)
	return err
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// Record stores e. A missing ID or timestamp is filled in.
func (j *Journal) Record(e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	detail := []byte("{}")
	if len(e.Detail) > 0 {
		var err error
		if detail, err = json.Marshal(e.Detail); err != nil {
			return fmt.Errorf("encode detail: %w", err)
		}
	}
	if _, err := j.recordStmt.Exec(e.ID.String(), e.Action, e.ISBN, e.UserID, string(detail), e.At.UnixNano()); err != nil {
		return fmt.Errorf("record %s: %w", e.Action, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// JournalFilter narrows Entries. Empty fields match everything; a zero Limit
// returns all rows.
type JournalFilter struct {
	Action string
	ISBN   string
	UserID string
	Limit  uint
}

type journalRow struct {
	ID         string `db:"id"`
	Action     string `db:"action"`
	ISBN       string `db:"isbn"`
	UserID     string `db:"user_id"`
	Detail     string `db:"detail"`
	RecordedAt int64  `db:"recorded_at"`
}

// Entries returns matching entries, oldest first.
func (j *Journal) Entries(f JournalFilter) ([]Entry, error) {
	ds := j.dialect.From("journal").
		Select("id", "action", "isbn", "user_id", "detail", "recorded_at").
		Order(goqu.C("seq").Asc())
	if f.Action != "" {
		ds = ds.Where(goqu.C("action").Eq(f.Action))
	}
	if f.ISBN != "" {
		ds = ds.Where(goqu.C("isbn").Eq(f.ISBN))
	}
	if f.UserID != "" {
		ds = ds.Where(goqu.C("user_id").Eq(f.UserID))
	}
	if f.Limit > 0 {
		ds = ds.Limit(f.Limit)
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build journal query: %w", err)
	}

	var rows []journalRow
	if err := j.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("journal entry id %q: %w", r.ID, err)
		}
		var detail map[string]string
		if err := json.Unmarshal([]byte(r.Detail), &detail); err != nil {
			return nil, fmt.Errorf("journal entry %s detail: %w", r.ID, err)
		}
		if len(detail) == 0 {
			detail = nil
		}
		entries = append(entries, Entry{
			ID:     id,
			Action: r.Action,
			ISBN:   r.ISBN,
			UserID: r.UserID,
			Detail: detail,
			At:     time.Unix(0, r.RecordedAt),
		})
	}
	return entries, nil
}

// CountByAction returns how many entries were recorded for each action.
func (j *Journal) CountByAction() (map[string]int, error) {
	query, args, err := j.dialect.From("journal").
		Select(goqu.C("action"), goqu.COUNT(goqu.Star()).As("n")).
		GroupBy(goqu.C("action")).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	var rows []struct {
		Action string `db:"action"`
		N      int    `db:"n"`
	}
	if err := j.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Action] = r.N
	}
	return counts, nil
}

var _ AuditSink = (*Journal)(nil)

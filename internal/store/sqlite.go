package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/jules/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serializes all DB access through Go's connection pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// RecordLaunch inserts a launch row, assigning a ULID and timestamp when the
// caller left them empty.
func (s *SQLiteStore) RecordLaunch(ctx context.Context, l *models.Launch) error {
	if l.ID == "" {
		l.ID = newULID()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO launches
		(id, session_name, session_id, title, source, branch, prompt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.SessionName, l.SessionID, l.Title, l.Source, l.Branch, l.Prompt, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("record launch: %w", err)
	}
	return nil
}

// GetLaunchBySession returns the launch row for a fully qualified session name.
func (s *SQLiteStore) GetLaunchBySession(ctx context.Context, sessionName string) (*models.Launch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, session_name, session_id, title, source, branch, prompt, created_at
		FROM launches WHERE session_name = ?`, sessionName)

	l, err := scanLaunch(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("launch not found: %s", sessionName)
	}
	return l, err
}

// ListLaunches returns launches, most recent first. limit <= 0 means all.
func (s *SQLiteStore) ListLaunches(ctx context.Context, limit int) ([]*models.Launch, error) {
	query := `SELECT id, session_name, session_id, title, source, branch, prompt, created_at
		FROM launches ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list launches: %w", err)
	}
	defer rows.Close()

	var launches []*models.Launch
	for rows.Next() {
		l, err := scanLaunch(rows)
		if err != nil {
			return nil, err
		}
		launches = append(launches, l)
	}
	return launches, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLaunch(row scanner) (*models.Launch, error) {
	var l models.Launch
	err := row.Scan(&l.ID, &l.SessionName, &l.SessionID, &l.Title, &l.Source, &l.Branch, &l.Prompt, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"leetcode-dash/internal/store/migrations"

	"github.com/oklog/ulid/v2"
	_ "github.com/tursodatabase/go-libsql"
)

const (
	identityLastUsername = "last_username"

	// snapshotsPerUser bounds the history kept for each username.
	snapshotsPerUser = 5
)

type SQLStore struct {
	db *sql.DB
}

// Local sqlite: "file:./data/leetdash.db" or ":memory:"
// TursoDB: "libsql://[db-name]-[org].turso.io?authToken=..."
func NewSQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLStore{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// returns the database connection for tests
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Migrate applies the embedded schema files that have not been applied yet.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		version, err := parseVersion(name)
		if err != nil {
			slog.Warn("skipping non-migration file", "name", name, "error", err)
			continue
		}
		if version <= current {
			continue
		}

		data, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := s.apply(ctx, version, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		slog.Info("applied migration", "name", name, "version", version)
	}
	return nil
}

func (s *SQLStore) apply(ctx context.Context, version int, script string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// one statement per Exec; remote libsql does not take batches
	for _, stmt := range strings.Split(script, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		version, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Snapshot operations ---

func (s *SQLStore) SaveSnapshot(ctx context.Context, username string, payload []byte, fetchedAt time.Time) error {
	username = normalizeUsername(username)
	id := ulid.MustNew(ulid.Timestamp(fetchedAt), ulid.DefaultEntropy()).String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO snapshots (id, username, payload, fetched_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		id,
		username,
		string(payload),
		fetchedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	prune := `
		DELETE FROM snapshots
		WHERE username = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE username = ? ORDER BY id DESC LIMIT ?
		)
	`
	if _, err := tx.ExecContext(ctx, prune, username, username, snapshotsPerUser); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) LatestSnapshot(ctx context.Context, username string) (*Snapshot, error) {
	query := `
		SELECT id, username, payload, fetched_at
		FROM snapshots WHERE username = ?
		ORDER BY id DESC LIMIT 1
	`
	var snap Snapshot
	var payload, fetchedAt string
	err := s.db.QueryRowContext(ctx, query, normalizeUsername(username)).Scan(
		&snap.ID,
		&snap.Username,
		&payload,
		&fetchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	snap.Payload = []byte(payload)
	snap.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetchedAt)
	return &snap, nil
}

// --- Identity operations ---

func (s *SQLStore) SetLastUsername(ctx context.Context, username string) error {
	query := `
		INSERT INTO identity (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		identityLastUsername,
		username,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert last username: %w", err)
	}
	return nil
}

func (s *SQLStore) LastUsername(ctx context.Context) (string, error) {
	var username string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM identity WHERE key = ?`, identityLastUsername).Scan(&username)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("scan last username: %w", err)
	}
	return username, nil
}

func (s *SQLStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM identity`); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return tx.Commit()
}

// snapshots of "Alice" and "alice" are the same user upstream
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// parseVersion extracts the version number from a migration filename like "001_initial.sql".
func parseVersion(name string) (int, error) {
	parts := strings.SplitN(name, "_", 2)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid migration filename: %s", name)
	}
	var version int
	if _, err := fmt.Sscanf(parts[0], "%d", &version); err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return version, nil
}

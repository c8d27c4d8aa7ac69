package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

type Store interface {
	SaveSnapshot(ctx context.Context, username string, payload []byte, fetchedAt time.Time) error
	LatestSnapshot(ctx context.Context, username string) (*Snapshot, error)

	SetLastUsername(ctx context.Context, username string) error
	LastUsername(ctx context.Context) (string, error)

	// Reset forgets every snapshot and the last username.
	Reset(ctx context.Context) error

	Close() error
}

// supported DSN formats:
//
//	Local sqlite: "file:./data/leetdash.db" or ":memory:"
//	TursoDB: "libsql://[db-name]-[org].turso.io?authToken=..."
//
// NOTE: all formats are handled by the libsql driver which supports both local and remote.
func NewStore(dsn string) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "file:"), strings.HasPrefix(dsn, ":memory:"), strings.HasPrefix(dsn, "libsql://"):
		return NewSQLStore(dsn)
	default:
		return nil, fmt.Errorf("unsupported database DSN: %s (expected file:, :memory:, or libsql://)", dsn)
	}
}

// Package postgres persists shell environment variables in PostgreSQL so
// that a visitor's exports survive server restarts.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/termfolio/termfolio/internal/env"
	"github.com/termfolio/termfolio/internal/logging"
	"github.com/termfolio/termfolio/internal/metrics"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// Store is a PostgreSQL env store shared by all sessions.
type Store struct {
	db *sql.DB
}

// New opens the database and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate runs the embedded migration files in name order.
func (s *Store) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		logging.Info("running migration", zap.String("file", f))
		content, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
	}
	return nil
}

// Session returns the env.Store of one session.
func (s *Store) Session(sessionID string) env.Store {
	return &sessionStore{db: s.db, session: sessionID}
}

// DeleteSession removes every variable of a session.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete_session", time.Since(start)) }()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM env_vars WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session vars: %w", err)
	}
	return nil
}

// PurgeOlderThan removes variables not updated since cutoff and returns
// how many rows were deleted.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("purge_env", time.Since(start)) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM env_vars WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge env vars: %w", err)
	}
	return res.RowsAffected()
}

type sessionStore struct {
	db      *sql.DB
	session string
}

func (s *sessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("get_env", time.Since(start)) }()

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM env_vars WHERE session_id = $1 AND key = $2`,
		s.session, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", env.ErrUnavailable, key, err)
	}
	return value, true, nil
}

func (s *sessionStore) Set(ctx context.Context, key, value string) error {
	if err := env.Validate(key); err != nil {
		return err
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("set_env", time.Since(start)) }()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO env_vars (session_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		s.session, key, value,
	)
	if err != nil {
		return fmt.Errorf("%w: set %s: %v", env.ErrUnavailable, key, err)
	}
	return nil
}

func (s *sessionStore) Unset(ctx context.Context, key string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("unset_env", time.Since(start)) }()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM env_vars WHERE session_id = $1 AND key = $2`, s.session, key); err != nil {
		return fmt.Errorf("%w: unset %s: %v", env.ErrUnavailable, key, err)
	}
	return nil
}

func (s *sessionStore) List(ctx context.Context) ([]env.Var, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("list_env", time.Since(start)) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM env_vars WHERE session_id = $1 ORDER BY key`, s.session)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", env.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []env.Var
	for rows.Next() {
		var v env.Var
		if err := rows.Scan(&v.Key, &v.Value); err != nil {
			return nil, fmt.Errorf("scan env var: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list: %v", env.ErrUnavailable, err)
	}
	// ORDER BY uses the database collation; keep byte order like Memory.
	env.SortVars(out)
	return out, nil
}

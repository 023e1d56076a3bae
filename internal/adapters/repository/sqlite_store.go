package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/okian/hangman/internal/domain/model"
	"github.com/okian/hangman/pkg/logger"
	"github.com/okian/hangman/pkg/metrics"
)

//go:embed migrations
var migrationFS embed.FS

const recordColumns = `id, user_id, display_name, avatar_url, score, total_rounds, correct_count, best_streak, created_at`

// SQLiteStore persists records in a SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	opts options

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSQLiteStore opens (creating if missing) the database at dsn and applies
// pending migrations. ":memory:" is accepted for tests.
func NewSQLiteStore(ctx context.Context, dsn string, opts ...Option) (*SQLiteStore, error) {
	o := applyOptions(opts)
	db, err := openSQLite(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrSubmission, err)
	}
	if err := migrate(ctx, db, "migrations/sqlite", o.log); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, opts: o, stopChan: make(chan struct{})}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runMetricsUpdater(ctx, s.stopChan, o.metricsUpdateInterval, s.Count)
	}()
	return s, nil
}

const sqliteParams = "_busy_timeout=5000&_journal_mode=WAL"

// sqliteDSN appends the connection parameters, keeping any the caller
// already set.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteParams
	}
	return dsn + "?" + sqliteParams
}

// sqlitePath is the file behind dsn, without a file: prefix or query.
func sqlitePath(dsn string) string {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	return path
}

func openSQLite(dsn string) (*sql.DB, error) {
	if path := sqlitePath(dsn); path != ":memory:" && path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}
	db, err := sql.Open("sqlite3", sqliteDSN(dsn))
	if err != nil {
		return nil, err
	}
	// One writer keeps ":memory:" databases on a single connection and avoids
	// SQLITE_BUSY under the worker pool.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrate applies embedded *.sql files under dir in lexical order, recording
// each in _migrations so reruns are no-ops.
func migrate(ctx context.Context, db *sql.DB, dir string, log logger.Logger) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	files, err := fs.Glob(migrationFS, dir+"/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name = ?`, f).Scan(&done)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := migrationFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info(ctx, "migration applied", logger.String("migration", f))
	}
	return nil
}

// Close stops background work and closes the database.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.db.Close()
}

func (s *SQLiteStore) Insert(ctx context.Context, rec model.ScoreRecord) error {
	defer observe("insert", time.Now())
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO scores (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.DisplayName, rec.AvatarURL, rec.Score,
		rec.TotalRounds, rec.CorrectCount, rec.BestStreak, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			metrics.RecordErrorByComponent("repository", "duplicate_id")
			return ErrDuplicateID
		}
		return fmt.Errorf("%w: insert: %w", ErrSubmission, err)
	}
	return nil
}

func (s *SQLiteStore) TopScores(ctx context.Context, n int) ([]model.ScoreRecord, error) {
	defer observe("top_scores", time.Now())
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	return s.query(ctx, `SELECT `+recordColumns+` FROM scores
		ORDER BY score DESC, created_at DESC, id ASC LIMIT ?`, n)
}

func (s *SQLiteStore) UserBest(ctx context.Context, userID string) (model.ScoreRecord, error) {
	defer observe("user_best", time.Now())
	recs, err := s.query(ctx, `SELECT `+recordColumns+` FROM scores WHERE user_id = ?
		ORDER BY score DESC, created_at DESC, id ASC LIMIT 1`, userID)
	if err != nil {
		return model.ScoreRecord{}, err
	}
	if len(recs) == 0 {
		return model.ScoreRecord{}, ErrNotFound
	}
	return recs[0], nil
}

func (s *SQLiteStore) UserRecent(ctx context.Context, userID string, n int) ([]model.ScoreRecord, error) {
	defer observe("user_recent", time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	return s.query(ctx, `SELECT `+recordColumns+` FROM scores WHERE user_id = ?
		ORDER BY created_at DESC, id ASC LIMIT ?`, userID, n)
}

func (s *SQLiteStore) UserRank(ctx context.Context, userID string) (int, error) {
	defer observe("user_rank", time.Now())
	var best sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(score) FROM scores WHERE user_id = ?`, userID).Scan(&best); err != nil {
		return 0, fmt.Errorf("user best: %w", err)
	}
	if !best.Valid {
		return 0, ErrNotFound
	}
	var above int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores WHERE score > ?`, best.Int64).Scan(&above); err != nil {
		return 0, fmt.Errorf("count above: %w", err)
	}
	return above + 1, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) Users(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT user_id) FROM scores`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]model.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ScoreRecord, 0)
	for rows.Next() {
		var r model.ScoreRecord
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.DisplayName, &r.AvatarURL, &r.Score,
			&r.TotalRounds, &r.CorrectCount, &r.BestStreak, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/hangman/internal/domain/model"
	"github.com/okian/hangman/pkg/logger"
	"github.com/okian/hangman/pkg/metrics"
)

const pgUniqueViolation = "23505"

// PostgresStore persists records through a pgx connection pool.
type PostgresStore struct {
	db   *pgxpool.Pool
	opts options

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewPostgresStore connects to dsn and applies pending migrations.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	o := applyOptions(opts)

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	db, err := pgxpool.New(connectCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %w", ErrSubmission, err)
	}
	if err := db.Ping(connectCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", ErrSubmission, err)
	}
	if err := migratePostgres(ctx, db, o.log); err != nil {
		db.Close()
		return nil, err
	}

	s := &PostgresStore{db: db, opts: o, stopChan: make(chan struct{})}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runMetricsUpdater(ctx, s.stopChan, o.metricsUpdateInterval, s.Count)
	}()
	return s, nil
}

func migratePostgres(ctx context.Context, db *pgxpool.Pool, log logger.Logger) error {
	if _, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	files, err := fs.Glob(migrationFS, "migrations/postgres/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		body, err := migrationFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		err = pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, `INSERT INTO _migrations(name) VALUES ($1) ON CONFLICT DO NOTHING`, f)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return nil
			}
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return err
			}
			log.Info(ctx, "migration applied", logger.String("migration", f))
			return nil
		})
		if err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
	}
	return nil
}

// Close stops background work and closes the pool.
func (s *PostgresStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	s.db.Close()
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec model.ScoreRecord) error {
	defer observe("insert", time.Now())
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `INSERT INTO scores (`+recordColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.UserID, rec.DisplayName, rec.AvatarURL, rec.Score,
		rec.TotalRounds, rec.CorrectCount, rec.BestStreak, rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			metrics.RecordErrorByComponent("repository", "duplicate_id")
			return ErrDuplicateID
		}
		return fmt.Errorf("%w: insert: %w", ErrSubmission, err)
	}
	return nil
}

func (s *PostgresStore) TopScores(ctx context.Context, n int) ([]model.ScoreRecord, error) {
	defer observe("top_scores", time.Now())
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	return s.query(ctx, `SELECT `+recordColumns+` FROM scores
		ORDER BY score DESC, created_at DESC, id ASC LIMIT $1`, n)
}

func (s *PostgresStore) UserBest(ctx context.Context, userID string) (model.ScoreRecord, error) {
	defer observe("user_best", time.Now())
	recs, err := s.query(ctx, `SELECT `+recordColumns+` FROM scores WHERE user_id = $1
		ORDER BY score DESC, created_at DESC, id ASC LIMIT 1`, userID)
	if err != nil {
		return model.ScoreRecord{}, err
	}
	if len(recs) == 0 {
		return model.ScoreRecord{}, ErrNotFound
	}
	return recs[0], nil
}

func (s *PostgresStore) UserRecent(ctx context.Context, userID string, n int) ([]model.ScoreRecord, error) {
	defer observe("user_recent", time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	return s.query(ctx, `SELECT `+recordColumns+` FROM scores WHERE user_id = $1
		ORDER BY created_at DESC, id ASC LIMIT $2`, userID, n)
}

func (s *PostgresStore) UserRank(ctx context.Context, userID string) (int, error) {
	defer observe("user_rank", time.Now())
	var rank *int
	err := s.db.QueryRow(ctx, `
		SELECT 1 + (SELECT COUNT(*) FROM scores WHERE score > b.best)
		FROM (SELECT MAX(score) AS best FROM scores WHERE user_id = $1) b
		WHERE b.best IS NOT NULL`, userID).Scan(&rank)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && rank == nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("user rank: %w", err)
	}
	return *rank, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM scores`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PostgresStore) Users(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(DISTINCT user_id) FROM scores`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]model.ScoreRecord, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ScoreRecord, 0)
	for rows.Next() {
		var r model.ScoreRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.DisplayName, &r.AvatarURL, &r.Score,
			&r.TotalRounds, &r.CorrectCount, &r.BestStreak, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.CreatedAt = r.CreatedAt.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

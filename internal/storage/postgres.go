package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"agentaudit/internal/config"
	"agentaudit/pkg/types"
)

// SQLStore persists jobs and analyses in a relational database. Structured
// fields (progress, errors, the full analysis document) are stored as
// JSONB so schema churn in the check set never needs a migration.
type SQLStore struct {
	db          *sql.DB
	autoMigrate bool
}

// NewSQLStore opens the database from configuration and optionally applies
// the schema.
func NewSQLStore(cfg config.SQLConfig) (*SQLStore, error) {
	if cfg.Driver == "" || cfg.DSN == "" {
		return nil, errors.New("sql config missing driver or dsn")
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sql connection: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sql connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime.Duration > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration)
	}
	store := &SQLStore{db: db, autoMigrate: cfg.AutoMigrate}
	if cfg.AutoMigrate {
		if err := store.ensureSchema(context.Background()); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// InsertJob writes a new job row.
func (s *SQLStore) InsertJob(ctx context.Context, job *types.Job) error {
	return s.withSchemaRetry(ctx, func(ctx context.Context) error {
		progress, err := json.Marshal(job.Progress)
		if err != nil {
			return fmt.Errorf("marshal progress: %w", err)
		}
		_, err = s.db.ExecContext(ctx, `
        INSERT INTO jobs (id, url, status, progress, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)`,
			job.ID, job.URL, string(job.Status), progress, job.CreatedAt, job.UpdatedAt)
		return err
	}, "insert job")
}

// UpdateJob rewrites the mutable columns of a job row.
func (s *SQLStore) UpdateJob(ctx context.Context, job *types.Job) error {
	return s.withSchemaRetry(ctx, func(ctx context.Context) error {
		progress, err := json.Marshal(job.Progress)
		if err != nil {
			return fmt.Errorf("marshal progress: %w", err)
		}
		var jobErr []byte
		if job.Error != nil {
			jobErr, err = json.Marshal(job.Error)
			if err != nil {
				return fmt.Errorf("marshal job error: %w", err)
			}
		}
		result, err := s.db.ExecContext(ctx, `
        UPDATE jobs SET
            status = $2,
            progress = $3,
            analysis_id = NULLIF($4, ''),
            error = $5,
            updated_at = $6,
            finished_at = $7
        WHERE id = $1`,
			job.ID, string(job.Status), progress, job.AnalysisID, jobErr, job.UpdatedAt, job.FinishedAt)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	}, "update job")
}

// GetJob loads one job by id.
func (s *SQLStore) GetJob(ctx context.Context, id string) (*types.Job, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, url, status, progress, COALESCE(analysis_id, ''), error, created_at, updated_at, finished_at
        FROM jobs WHERE id = $1`, id)

	var (
		job      types.Job
		status   string
		progress []byte
		jobErr   []byte
		finished sql.NullTime
	)
	err := row.Scan(&job.ID, &job.URL, &status, &progress, &job.AnalysisID, &jobErr, &job.CreatedAt, &job.UpdatedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", err)
	}
	job.Status = types.JobStatus(status)
	if len(progress) > 0 {
		if err := json.Unmarshal(progress, &job.Progress); err != nil {
			return nil, fmt.Errorf("unmarshal progress: %w", err)
		}
	}
	if len(jobErr) > 0 {
		job.Error = &types.JobError{}
		if err := json.Unmarshal(jobErr, job.Error); err != nil {
			return nil, fmt.Errorf("unmarshal job error: %w", err)
		}
	}
	if finished.Valid {
		job.FinishedAt = &finished.Time
	}
	return &job, nil
}

// InsertAnalysis writes the full analysis document.
func (s *SQLStore) InsertAnalysis(ctx context.Context, analysis *types.Analysis) error {
	return s.withSchemaRetry(ctx, func(ctx context.Context) error {
		payload, err := json.Marshal(analysis)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}
		_, err = s.db.ExecContext(ctx, `
        INSERT INTO analyses (id, url, domain, payload, created_at)
        VALUES ($1,$2,$3,$4,$5)`,
			analysis.ID, analysis.URL, analysis.Domain, payload, analysis.CreatedAt)
		return err
	}, "insert analysis")
}

// GetAnalysis loads one analysis by id.
func (s *SQLStore) GetAnalysis(ctx context.Context, id string) (*types.Analysis, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM analyses WHERE id = $1`, id)
	return scanAnalysis(row)
}

// LatestAnalysisByDomain returns the newest analysis for domain created
// after since, or nil when none exists.
func (s *SQLStore) LatestAnalysisByDomain(ctx context.Context, domain string, since time.Time) (*types.Analysis, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT payload FROM analyses
        WHERE domain = $1 AND created_at >= $2
        ORDER BY created_at DESC
        LIMIT 1`, domain, since)
	analysis, err := scanAnalysis(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return analysis, err
}

func scanAnalysis(row *sql.Row) (*types.Analysis, error) {
	var payload []byte
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select analysis: %w", err)
	}
	var analysis types.Analysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}
	return &analysis, nil
}

// Close closes the underlying DB connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// withSchemaRetry runs op and, when auto-migrate is on and the failure is
// a missing table, applies the schema and retries once.
func (s *SQLStore) withSchemaRetry(ctx context.Context, op func(context.Context) error, label string) error {
	if err := op(ctx); err != nil {
		if s.autoMigrate && isUndefinedTableErr(err) {
			if schemaErr := s.ensureSchema(ctx); schemaErr != nil {
				return fmt.Errorf("ensure schema: %w", schemaErr)
			}
			if retryErr := op(ctx); retryErr != nil {
				return fmt.Errorf("%s: %w", label, retryErr)
			}
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil || !s.autoMigrate {
		return nil
	}
	schemaCtx := ctx
	if schemaCtx == nil || schemaCtx.Err() != nil {
		schemaCtx = context.Background()
	}
	schemaCtx, cancel := context.WithTimeout(schemaCtx, 10*time.Second)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
		    id TEXT PRIMARY KEY,
		    url TEXT NOT NULL,
		    status TEXT NOT NULL,
		    progress JSONB,
		    analysis_id TEXT,
		    error JSONB,
		    created_at TIMESTAMPTZ NOT NULL,
		    updated_at TIMESTAMPTZ NOT NULL,
		    finished_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
		    id TEXT PRIMARY KEY,
		    url TEXT NOT NULL,
		    domain TEXT NOT NULL,
		    payload JSONB NOT NULL,
		    created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_domain_created ON analyses (domain, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_updated_at ON jobs (updated_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(schemaCtx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func isUndefinedTableErr(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "relation") && strings.Contains(lower, "does not exist")
}

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
)

// Connection pool defaults.
const (
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
	DefaultPingTimeout     = 5 * time.Second
)

const createRecordsTable = `CREATE TABLE IF NOT EXISTS crawl_records (
	id          BIGSERIAL PRIMARY KEY,
	run_id      TEXT        NOT NULL,
	kind        TEXT        NOT NULL,
	source_url  TEXT        NOT NULL,
	payload     JSONB       NOT NULL,
	emitted_at  TIMESTAMPTZ NOT NULL
)`

const insertRecord = `INSERT INTO crawl_records (run_id, kind, source_url, payload, emitted_at)
VALUES (:run_id, :kind, :source_url, :payload, :emitted_at)`

// PostgresConfig holds the connection settings for the Postgres sink.
type PostgresConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type recordRow struct {
	RunID     string    `db:"run_id"`
	Kind      string    `db:"kind"`
	SourceURL string    `db:"source_url"`
	Payload   []byte    `db:"payload"`
	EmittedAt time.Time `db:"emitted_at"`
}

// Postgres stores one row per record in crawl_records.
type Postgres struct {
	db    *sqlx.DB
	runID string
	now   func() time.Time
}

// ConnectPostgres opens and verifies a connection pool.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdleConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}
	return db, nil
}

// NewPostgres creates the sink and makes sure its table exists.
func NewPostgres(ctx context.Context, db *sqlx.DB, runID string) (*Postgres, error) {
	if _, err := db.ExecContext(ctx, createRecordsTable); err != nil {
		return nil, fmt.Errorf("create crawl_records: %w", err)
	}
	return &Postgres{db: db, runID: runID, now: time.Now}, nil
}

// Emit implements Sink.
func (p *Postgres) Emit(ctx context.Context, rec domain.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", rec.RecordKind(), err)
	}

	row := recordRow{
		RunID:     p.runID,
		Kind:      rec.RecordKind().String(),
		SourceURL: rec.Source(),
		Payload:   payload,
		EmittedAt: p.now().UTC(),
	}
	if _, err := p.db.NamedExecContext(ctx, insertRecord, row); err != nil {
		return fmt.Errorf("insert %s record: %w", rec.RecordKind(), err)
	}
	return nil
}

// Close implements Sink.
func (p *Postgres) Close() error {
	return p.db.Close()
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"market-opportunity-scanner/internal/confirmation"
)

const recordSchema = `
CREATE TABLE IF NOT EXISTS confirmation_records (
	id                  TEXT PRIMARY KEY,
	symbol              TEXT NOT NULL,
	direction           TEXT NOT NULL,
	price               DOUBLE PRECISION NOT NULL,
	score               DOUBLE PRECISION NOT NULL,
	classification      TEXT NOT NULL,
	status              TEXT NOT NULL,
	combined_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	signal_time         TIMESTAMPTZ NOT NULL,
	completed_at        TIMESTAMPTZ,
	detail              JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_confirmation_records_symbol ON confirmation_records (symbol);
CREATE INDEX IF NOT EXISTS idx_confirmation_records_status ON confirmation_records (status);
`

// SignalRepository persists confirmation records in PostgreSQL. The
// full record is stored as JSONB alongside the queryable columns.
type SignalRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSignalRepository connects to PostgreSQL and ensures the schema
// exists.
func NewSignalRepository(ctx context.Context, dsn string, logger zerolog.Logger) (*SignalRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.HealthCheckPeriod = time.Minute

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	repo := &SignalRepository{pool: pool, logger: logger}
	if err := repo.initSchema(connCtx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info().Msg("Signal repository connected")
	return repo, nil
}

func (r *SignalRepository) initSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, recordSchema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveRecord inserts a freshly opened confirmation record.
func (r *SignalRepository) SaveRecord(ctx context.Context, record *confirmation.Record) error {
	detail, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO confirmation_records
			(id, symbol, direction, price, score, classification, status, combined_confidence, signal_time, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		record.ID,
		record.Signal.Symbol,
		record.Signal.Direction,
		record.Signal.Price,
		record.Signal.Score,
		record.Signal.Classification,
		string(record.Status),
		record.CombinedConfidence,
		record.Signal.Time,
		detail,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// UpdateRecord rewrites the mutable columns after a stage evaluation
// or settlement.
func (r *SignalRepository) UpdateRecord(ctx context.Context, record *confirmation.Record) error {
	detail, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE confirmation_records
		SET status = $2, combined_confidence = $3, completed_at = $4, detail = $5
		WHERE id = $1`,
		record.ID,
		string(record.Status),
		record.CombinedConfidence,
		record.CompletedAt,
		detail,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// RecentRecords returns the newest records, optionally filtered by
// status. An empty status returns every record.
func (r *SignalRepository) RecentRecords(ctx context.Context, status string, limit int) ([]*confirmation.Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT detail FROM confirmation_records`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY signal_time DESC LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []*confirmation.Record
	for rows.Next() {
		var detail []byte
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var record confirmation.Record
		if err := json.Unmarshal(detail, &record); err != nil {
			r.logger.Warn().Err(err).Msg("Skipping unreadable record row")
			continue
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// Close releases the connection pool.
func (r *SignalRepository) Close() {
	r.pool.Close()
}

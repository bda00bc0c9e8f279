package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecoworks/transcribed/internal/config"
	"github.com/ecoworks/transcribed/pkg/models"
)

// Connect opens a pgx pool against the configured database and verifies it.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// PostgresStore implements Store using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Create(ctx context.Context, t *models.Transcript) error {
	var metrics []byte
	if t.CostMetrics != nil {
		var err error
		metrics, err = json.Marshal(t.CostMetrics)
		if err != nil {
			return fmt.Errorf("encode cost metrics: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcripts
		 (id, user_id, file_name, file_size_bytes, audio_duration_seconds,
		  text, language, confidence, provider, cost_metrics, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.UserID, t.FileName, t.FileSizeBytes, t.AudioDuration,
		t.Text, t.Language, t.Confidence, t.Provider, metrics, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID string, page, pageSize int) ([]*models.Transcript, int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transcripts WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transcripts: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, file_name, file_size_bytes, audio_duration_seconds,
		        text, language, confidence, provider, cost_metrics, created_at
		 FROM transcripts
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, userID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()

	var transcripts []*models.Transcript
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, 0, err
		}
		transcripts = append(transcripts, t)
	}
	return transcripts, total, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID, userID string) (*models.Transcript, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, file_name, file_size_bytes, audio_duration_seconds,
		        text, language, confidence, provider, cost_metrics, created_at
		 FROM transcripts WHERE id = $1 AND user_id = $2`, id, userID)

	t, err := scanTranscript(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM transcripts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTranscript(row rowScanner) (*models.Transcript, error) {
	var t models.Transcript
	var metrics []byte
	err := row.Scan(&t.ID, &t.UserID, &t.FileName, &t.FileSizeBytes, &t.AudioDuration,
		&t.Text, &t.Language, &t.Confidence, &t.Provider, &metrics, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	if len(metrics) > 0 {
		t.CostMetrics = &models.CostMetrics{}
		if err := json.Unmarshal(metrics, t.CostMetrics); err != nil {
			return nil, fmt.Errorf("decode cost metrics: %w", err)
		}
	}
	return &t, nil
}

var _ Store = (*PostgresStore)(nil)

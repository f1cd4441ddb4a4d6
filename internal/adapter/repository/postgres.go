package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ospreysec/iocharvest/internal/core/domain"
)

// PostgresArchive keeps one row per extracted IOC value so the harvested
// data stays queryable outside the master sheet.
type PostgresArchive struct {
	db *pgxpool.Pool
}

func NewPostgresArchive(db *pgxpool.Pool) *PostgresArchive {
	return &PostgresArchive{db: db}
}

func (r *PostgresArchive) SaveBatch(ctx context.Context, iocs []domain.ExtractedIOC) error {
	if len(iocs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO extracted_iocs (value, category, subject, message_date, date_ingested)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (value, category, subject, message_date) DO NOTHING
	`

	for _, ioc := range iocs {
		batch.Queue(query,
			ioc.Value,
			ioc.Category,
			ioc.Subject,
			ioc.MessageDate,
			ioc.DateIngested,
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	if _, err := br.Exec(); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	return nil
}

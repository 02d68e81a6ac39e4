package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ddlSegments returns the segments DDL with the embedding dimension
// substituted. The vector dimension is baked into the column type at
// schema creation time.
func ddlSegments(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS segments (
    split         TEXT             NOT NULL,
    recording_id  TEXT             NOT NULL,
    start_s       DOUBLE PRECISION NOT NULL,
    end_s         DOUBLE PRECISION NOT NULL,
    embedding     vector(%d)       NOT NULL,
    PRIMARY KEY (split, recording_id, start_s, end_s)
);

CREATE INDEX IF NOT EXISTS idx_segments_split_recording
    ON segments (split, recording_id);
`, embeddingDimensions)
}

// Migrate creates or ensures the segments table and the pgvector
// extension exist. It is idempotent and safe to call on every start.
//
// embeddingDimensions must match the extractor configured for your
// deployment (e.g. 192 for ECAPA-TDNN, 512 for x-vectors). Changing it
// after the first migration requires a manual schema update.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	if _, err := pool.Exec(ctx, ddlSegments(embeddingDimensions)); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

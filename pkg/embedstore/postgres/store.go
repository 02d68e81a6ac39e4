// Package postgres implements an [embedstore.Store] backed by a
// pgvector-enabled PostgreSQL database.
//
// The pgvector extension must be available in the target database;
// [Migrate] installs it via CREATE EXTENSION IF NOT EXISTS. The same
// segments table serves both the extraction pipeline (writes) and the
// clustering runner (reads).
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn, 192)
//	if err != nil { … }
//	defer store.Close()
//
//	recs, _ := store.Recordings(ctx, "dev")
//	segs, _ := store.Load(ctx, "dev", recs[0])
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/MrWong99/voxturn/pkg/embedstore"
	"github.com/MrWong99/voxturn/pkg/types"
)

// Compile-time interface check.
var _ embedstore.Store = (*Store)(nil)

// Store serves embedded segments from PostgreSQL. It holds a single
// [pgxpool.Pool]; all operations are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore establishes a connection pool to the database at dsn,
// registers pgvector types on every connection, and runs [Migrate].
//
// embeddingDimensions must match the output dimension of the external
// embedding extractor (e.g. 192 for ECAPA-TDNN). Changing it after the
// first migration requires a manual schema change.
func NewStore(ctx context.Context, dsn string, embeddingDimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	// Register pgvector types on every new connection so the embedding
	// column can be scanned into and inserted from pgvector.Vector values.
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool, embeddingDimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Recordings implements [embedstore.Store].
func (s *Store) Recordings(ctx context.Context, split string) ([]string, error) {
	const q = `
		SELECT DISTINCT recording_id
		FROM   segments
		WHERE  split = $1
		ORDER  BY recording_id`

	rows, err := s.pool.Query(ctx, q, split)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list recordings: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres store: collect recordings: %w", err)
	}
	return ids, nil
}

// Load implements [embedstore.Store].
func (s *Store) Load(ctx context.Context, split, recordingID string) ([]types.Segment, error) {
	const q = `
		SELECT recording_id, start_s, end_s, embedding
		FROM   segments
		WHERE  split = $1 AND recording_id = $2
		ORDER  BY start_s`

	rows, err := s.pool.Query(ctx, q, split, recordingID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: load %s/%s: %w", split, recordingID, err)
	}

	segments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.Segment, error) {
		var (
			seg types.Segment
			vec pgvector.Vector
		)
		if err := row.Scan(&seg.RecordingID, &seg.Start, &seg.End, &vec); err != nil {
			return types.Segment{}, err
		}
		seg.Embedding = vec.Slice()
		return seg, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: collect %s/%s: %w", split, recordingID, err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("postgres store: %s/%s: %w", split, recordingID, embedstore.ErrRecordingNotFound)
	}
	return segments, nil
}

// IndexSegment upserts one embedded segment. The extraction pipeline
// calls this; the clustering runner only reads. A segment is keyed by
// (split, recording, onset, offset), so re-running extraction replaces
// embeddings in place.
func (s *Store) IndexSegment(ctx context.Context, split string, seg types.Segment) error {
	const q = `
		INSERT INTO segments (split, recording_id, start_s, end_s, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (split, recording_id, start_s, end_s) DO UPDATE SET
		    embedding = EXCLUDED.embedding`

	_, err := s.pool.Exec(ctx, q, split, seg.RecordingID, seg.Start, seg.End, pgvector.NewVector(seg.Embedding))
	if err != nil {
		return fmt.Errorf("postgres store: index segment %s: %w", seg.ID(), err)
	}
	return nil
}

// Close releases all connections held by the underlying pool. Call it
// when the Store is no longer needed, typically via defer.
func (s *Store) Close() {
	s.pool.Close()
}

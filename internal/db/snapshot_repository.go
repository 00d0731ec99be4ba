package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotRepository stores actor snapshots as jsonb, one row per actor.
type SnapshotRepository struct {
	db *pgxpool.Pool
}

// NewSnapshotRepository creates a SnapshotRepository over pool.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: pool}
}

// Save upserts the snapshot for actorID.
func (r *SnapshotRepository) Save(ctx context.Context, actorID string, snapshot map[string]any) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot for actor %q: %w", actorID, err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO actor_snapshots (actor_id, snapshot, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (actor_id) DO UPDATE
		 SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at`,
		actorID, raw, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot for actor %q: %w", actorID, err)
	}
	return nil
}

// Load retrieves the snapshot for actorID. Returns nil, nil when no
// snapshot exists.
func (r *SnapshotRepository) Load(ctx context.Context, actorID string) (map[string]any, error) {
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT snapshot FROM actor_snapshots WHERE actor_id = $1`, actorID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying snapshot for actor %q: %w", actorID, err)
	}
	var snapshot map[string]any
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot for actor %q: %w", actorID, err)
	}
	return snapshot, nil
}

// Delete removes the snapshot for actorID. Missing rows are not an error.
func (r *SnapshotRepository) Delete(ctx context.Context, actorID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM actor_snapshots WHERE actor_id = $1`, actorID)
	if err != nil {
		return fmt.Errorf("deleting snapshot for actor %q: %w", actorID, err)
	}
	return nil
}

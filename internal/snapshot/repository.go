package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested snapshot was not found.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is a stored daily overview summary of one user.
type Snapshot struct {
	ID           int             `json:"id"`
	Owner        string          `json:"owner"`
	SnapshotDate time.Time       `json:"snapshot_date"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Repository defines persistent storage for snapshots.
type Repository interface {
	Save(ctx context.Context, owner string, date time.Time, data json.RawMessage) error
	GetLatest(ctx context.Context, owner string) (*Snapshot, error)
	GetByDate(ctx context.Context, owner string, date time.Time) (*Snapshot, error)
	List(ctx context.Context, owner string, limit int) ([]Snapshot, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const selectSnapshot = `SELECT id, owner, snapshot_date, data, created_at FROM overview_snapshots`

func (r *PgRepository) Save(ctx context.Context, owner string, date time.Time, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO overview_snapshots (owner, snapshot_date, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (owner, snapshot_date)
		 DO UPDATE SET data = $3::jsonb, created_at = NOW()`,
		owner, date, data)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (r *PgRepository) GetLatest(ctx context.Context, owner string) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx,
		selectSnapshot+` WHERE owner = $1 ORDER BY snapshot_date DESC LIMIT 1`, owner)
	s, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("getting latest snapshot: %w", err)
	}
	return s, nil
}

func (r *PgRepository) GetByDate(ctx context.Context, owner string, date time.Time) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx,
		selectSnapshot+` WHERE owner = $1 AND snapshot_date = $2`, owner, date)
	s, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("getting snapshot by date: %w", err)
	}
	return s, nil
}

func (r *PgRepository) List(ctx context.Context, owner string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx,
		selectSnapshot+` WHERE owner = $1 ORDER BY snapshot_date DESC LIMIT $2`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Owner, &s.SnapshotDate, &s.Data, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	if err := row.Scan(&s.ID, &s.Owner, &s.SnapshotDate, &s.Data, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Stat is a named running total.
type Stat struct {
	Key       string    `json:"key"`
	Value     int64     `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatsRepository stores running totals keyed by category.
type StatsRepository struct {
	db *sql.DB
}

// Stats returns the statistics repository for this store.
func (s *Store) Stats() *StatsRepository {
	return &StatsRepository{db: s.db}
}

// Increment adds one to key, creating it at 1, and returns the new total.
func (r *StatsRepository) Increment(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, fmt.Errorf("increment stat: empty key")
	}

	var value int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO stats (key, value, updated_at) VALUES (?, 1, ?)
		 ON CONFLICT(key) DO UPDATE SET value = value + 1, updated_at = excluded.updated_at
		 RETURNING value`,
		key, time.Now(),
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment stat %q: %w", key, err)
	}

	return value, nil
}

// Get returns the total for key, or ErrNotFound if it was never incremented.
func (r *StatsRepository) Get(ctx context.Context, key string) (*Stat, error) {
	st := &Stat{}
	err := r.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM stats WHERE key = ?`,
		key,
	).Scan(&st.Key, &st.Value, &st.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return st, nil
}

// List returns every statistic ordered by key.
func (r *StatsRepository) List(ctx context.Context) ([]*Stat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM stats ORDER BY key`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*Stat
	for rows.Next() {
		st := &Stat{}
		if err := rows.Scan(&st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/shared"
)

// CounterRepository implements [models.CounterStore] over the counters table.
//
// Increments are a single upsert statement, so SQLite's write lock serializes concurrent callers
// and no two of them can read the same pre-increment value.
type CounterRepository struct {
	conn
}

// NewCounterRepository creates a new [CounterRepository] with the given database connection
func NewCounterRepository(db *sql.DB) *CounterRepository {
	return &CounterRepository{conn{db: db}}
}

// FetchAndIncrement increments the named counter and returns the new value.
//
// A missing counter is created with value 1.
func (r *CounterRepository) FetchAndIncrement(ctx context.Context, name string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("%w: counter name is required", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO counters (id, name, sequence_value) VALUES (?, ?, 1)
		ON CONFLICT(name) DO UPDATE SET sequence_value = sequence_value + 1
		RETURNING sequence_value
	`

	var value int
	if err := r.q().QueryRowContext(ctx, query, shared.GenerateID(), name).Scan(&value); err != nil {
		return 0, classify(fmt.Errorf("failed to increment counter %s: %w", name, err))
	}

	return value, nil
}

// Get returns the named counter.
func (r *CounterRepository) Get(ctx context.Context, name string) (*models.Counter, error) {
	var c models.Counter
	err := r.q().QueryRowContext(ctx, "SELECT id, name, sequence_value FROM counters WHERE name = ?", name).
		Scan(&c.ID, &c.Name, &c.SequenceValue)
	if err != nil {
		return nil, notFound(err, "counter", name)
	}
	return &c, nil
}

// Set stores value as the counter's current value, creating the counter when absent.
//
// The next FetchAndIncrement returns value+1.
func (r *CounterRepository) Set(ctx context.Context, name string, value int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: counter name is required", shared.ErrInvalidInput)
	}
	if value < 0 {
		return fmt.Errorf("%w: counter value must be non-negative", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO counters (id, name, sequence_value) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET sequence_value = excluded.sequence_value
	`

	if _, err := r.q().ExecContext(ctx, query, shared.GenerateID(), name, value); err != nil {
		return classify(fmt.Errorf("failed to set counter %s: %w", name, err))
	}
	return nil
}

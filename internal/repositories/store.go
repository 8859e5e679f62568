package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/ccm/internal/models"
)

var _ models.Transactor = (*Store)(nil)

// Store bundles the repositories that share one database.
type Store struct {
	db       *sql.DB
	Clients  *ClientRepository
	Contacts *ContactRepository
	Counters *CounterRepository
}

// NewStore creates a [Store] over db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		Clients:  NewClientRepository(db),
		Contacts: NewContactRepository(db),
		Counters: NewCounterRepository(db),
	}
}

// InTx runs fn with client and contact repositories bound to one transaction.
func (s *Store) InTx(ctx context.Context, fn func(clients models.ClientStore, contacts models.ContactStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	bound := conn{db: s.db, tx: tx}
	if err := fn(&ClientRepository{bound}, &ContactRepository{bound}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(fmt.Errorf("failed to ping database: %w", err))
	}
	return nil
}

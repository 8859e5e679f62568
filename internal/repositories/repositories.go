// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations and translating driver errors into the shared error taxonomy.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ccm/internal/shared"
	"github.com/mattn/go-sqlite3"
)

// querier is the subset of [sql.DB] and [sql.Tx] the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn is either a database handle or a transaction already in progress.
type conn struct {
	db *sql.DB
	tx *sql.Tx
}

func (c conn) q() querier {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

// atomic runs fn in the surrounding transaction, or in a new one when there is none.
func (c conn) atomic(ctx context.Context, fn func(q querier) error) error {
	if c.tx != nil {
		return fn(c.tx)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// classify tags err with [shared.ErrConflict], [shared.ErrTimeout] or [shared.ErrConnectivity].
//
// Errors already carrying a taxonomy sentinel pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	for _, known := range []error{shared.ErrNotFound, shared.ErrConflict, shared.ErrInvalidInput, shared.ErrConnectivity, shared.ErrTimeout} {
		if errors.Is(err, known) {
			return err
		}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%w: %v", shared.ErrConflict, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", shared.ErrConnectivity, err)
}

// notFound converts [sql.ErrNoRows] into [shared.ErrNotFound] for the given kind and id.
func notFound(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, kind, id)
	}
	return classify(fmt.Errorf("failed to query %s: %w", kind, err))
}

// insertRefs writes the initial set for a newly created owner inside q.
func insertRefs(ctx context.Context, q querier, table, ownerCol, refCol, owner string, refs []string) error {
	stmt := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s, %s) VALUES (?, ?)", table, ownerCol, refCol)
	for _, ref := range refs {
		if _, err := q.ExecContext(ctx, stmt, owner, ref); err != nil {
			return classify(fmt.Errorf("failed to write %s: %w", table, err))
		}
	}
	return nil
}

// refEdit names one side of the link: the owning table, its reference table and their columns.
type refEdit struct {
	kind     string // client or contact, for error messages
	owners   string
	table    string
	ownerCol string
	refCol   string
}

var (
	clientRefs  = refEdit{kind: "client", owners: "clients", table: "client_contacts", ownerCol: "client_id", refCol: "contact_id"}
	contactRefs = refEdit{kind: "contact", owners: "contacts", table: "contact_clients", ownerCol: "contact_id", refCol: "client_id"}
)

// apply adds or removes the single row (owner, ref) and touches the owner's updated_at.
//
// The owner row is updated first so a missing owner fails with [shared.ErrNotFound]
// and the write lock is held before the reference row changes.
func (e refEdit) apply(ctx context.Context, c conn, owner, ref string, add bool) error {
	return c.atomic(ctx, func(q querier) error {
		result, err := q.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET updated_at = ? WHERE id = ?", e.owners), time.Now().UTC(), owner)
		if err != nil {
			return classify(fmt.Errorf("failed to update %s: %w", e.kind, err))
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return classify(fmt.Errorf("failed to get affected rows: %w", err))
		}
		if rows == 0 {
			return fmt.Errorf("%w: %s %s", shared.ErrNotFound, e.kind, owner)
		}

		stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ?", e.table, e.ownerCol, e.refCol)
		if add {
			stmt = fmt.Sprintf("INSERT OR IGNORE INTO %s (%s, %s) VALUES (?, ?)", e.table, e.ownerCol, e.refCol)
		}
		if _, err := q.ExecContext(ctx, stmt, owner, ref); err != nil {
			return classify(fmt.Errorf("failed to write %s: %w", e.table, err))
		}
		return nil
	})
}

// loadRefs reads one side of the link for owner.
func loadRefs(ctx context.Context, q querier, table, ownerCol, refCol, owner string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", refCol, table, ownerCol), owner)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query %s: %w", table, err))
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, classify(fmt.Errorf("failed to scan %s: %w", table, err))
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("row iteration error: %w", err))
	}
	return refs, nil
}

package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/shared"
)

var _ models.ClientStore = (*ClientRepository)(nil)

// ClientRepository implements [models.Repository] for [models.Client] persistence.
//
// The client's side of the link lives in client_contacts. Create writes the initial set;
// after that it changes one row at a time through AddContact and RemoveContact.
type ClientRepository struct {
	conn
}

// NewClientRepository creates a new [ClientRepository] with the given database connection
func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{conn{db: db}}
}

// Create inserts a new client with a generated ID.
//
// A duplicate client code fails with [shared.ErrConflict].
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	if err := client.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()

	err := r.atomic(ctx, func(q querier) error {
		query := `
			INSERT INTO clients (id, name, client_code, is_saved, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		`
		if _, err := q.ExecContext(ctx, query, id, client.Name(), client.Code(), client.IsSaved(), client.CreatedAt(), client.UpdatedAt()); err != nil {
			return classify(fmt.Errorf("failed to insert client: %w", err))
		}
		return insertRefs(ctx, q, "client_contacts", "client_id", "contact_id", id, client.Contacts())
	})
	if err != nil {
		return err
	}

	client.SetID(id)
	return nil
}

// Get retrieves a client by ID with its contact references.
func (r *ClientRepository) Get(ctx context.Context, id string) (*models.Client, error) {
	query := `
		SELECT id, name, client_code, is_saved, created_at, updated_at
		FROM clients
		WHERE id = ?
	`

	client, err := r.scan(ctx, r.q().QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "client", id)
	}
	return client, nil
}

// GetByCode retrieves a client by its client code.
func (r *ClientRepository) GetByCode(ctx context.Context, code string) (*models.Client, error) {
	query := `
		SELECT id, name, client_code, is_saved, created_at, updated_at
		FROM clients
		WHERE client_code = ?
	`

	client, err := r.scan(ctx, r.q().QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, notFound(err, "client", code)
	}
	return client, nil
}

// Update writes the client's name and saved flag.
//
// The client code and the contact references are never rewritten here.
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	if err := client.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE clients
		SET name = ?, is_saved = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.q().ExecContext(ctx, query, client.Name(), client.IsSaved(), now, client.ID())
	if err != nil {
		return classify(fmt.Errorf("failed to update client: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return classify(fmt.Errorf("failed to get affected rows: %w", err))
	}
	if rows == 0 {
		return fmt.Errorf("%w: client %s", shared.ErrNotFound, client.ID())
	}

	client.SetUpdatedAt(now)
	return nil
}

// AddContact records contactID in the client's reference set.
func (r *ClientRepository) AddContact(ctx context.Context, clientID, contactID string) error {
	return clientRefs.apply(ctx, r.conn, clientID, contactID, true)
}

// RemoveContact drops contactID from the client's reference set.
func (r *ClientRepository) RemoveContact(ctx context.Context, clientID, contactID string) error {
	return clientRefs.apply(ctx, r.conn, clientID, contactID, false)
}

// List retrieves clients ordered by name.
//
// Supported criteria: "saved" (bool), "contact_id" (string, clients whose reference set holds it).
func (r *ClientRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Client, error) {
	query := `
		SELECT id, name, client_code, is_saved, created_at, updated_at
		FROM clients
		WHERE 1 = 1
	`

	args := []any{}

	if saved, ok := criteria["saved"].(bool); ok {
		query += " AND is_saved = ?"
		args = append(args, saved)
	}

	if contactID, ok := criteria["contact_id"].(string); ok && contactID != "" {
		query += " AND id IN (SELECT client_id FROM client_contacts WHERE contact_id = ?)"
		args = append(args, contactID)
	}

	query += " ORDER BY name ASC, client_code ASC"

	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query clients: %w", err))
	}

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			rows.Close()
			return nil, classify(err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, classify(fmt.Errorf("row iteration error: %w", err))
	}
	rows.Close()

	// References are loaded after the cursor closes; an in-memory database has a single connection.
	for i, c := range clients {
		refs, err := loadRefs(ctx, r.q(), "client_contacts", "client_id", "contact_id", c.ID())
		if err != nil {
			return nil, err
		}
		clients[i] = models.RestoreClient(c.ID(), c.Name(), c.Code(), c.IsSaved(), refs, c.CreatedAt(), c.UpdatedAt())
	}

	return clients, nil
}

// scan reads one client row and its references.
func (r *ClientRepository) scan(ctx context.Context, row *sql.Row) (*models.Client, error) {
	c, err := scanClient(row)
	if err != nil {
		return nil, err
	}

	refs, err := loadRefs(ctx, r.q(), "client_contacts", "client_id", "contact_id", c.ID())
	if err != nil {
		return nil, err
	}

	return models.RestoreClient(c.ID(), c.Name(), c.Code(), c.IsSaved(), refs, c.CreatedAt(), c.UpdatedAt()), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(s scanner) (*models.Client, error) {
	var (
		id        string
		name      string
		code      string
		saved     bool
		createdAt time.Time
		updatedAt time.Time
	)

	if err := s.Scan(&id, &name, &code, &saved, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	return models.RestoreClient(id, name, code, saved, nil, createdAt, updatedAt), nil
}

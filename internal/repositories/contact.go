package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/shared"
)

var _ models.ContactStore = (*ContactRepository)(nil)

// ContactRepository implements [models.Repository] for [models.Contact] persistence.
//
// The contact's side of the link lives in contact_clients, independent of client_contacts.
type ContactRepository struct {
	conn
}

// NewContactRepository creates a new [ContactRepository] with the given database connection
func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{conn{db: db}}
}

// Create inserts a new contact with a generated ID.
func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	if err := contact.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()

	err := r.atomic(ctx, func(q querier) error {
		query := `
			INSERT INTO contacts (id, name, surname, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		`
		if _, err := q.ExecContext(ctx, query, id, contact.Name(), contact.Surname(), contact.Email(), contact.CreatedAt(), contact.UpdatedAt()); err != nil {
			return classify(fmt.Errorf("failed to insert contact: %w", err))
		}
		return insertRefs(ctx, q, "contact_clients", "contact_id", "client_id", id, contact.Clients())
	})
	if err != nil {
		return err
	}

	contact.SetID(id)
	return nil
}

// Get retrieves a contact by ID with its client references.
func (r *ContactRepository) Get(ctx context.Context, id string) (*models.Contact, error) {
	query := `
		SELECT id, name, surname, email, created_at, updated_at
		FROM contacts
		WHERE id = ?
	`

	c, err := scanContact(r.q().QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "contact", id)
	}

	refs, err := loadRefs(ctx, r.q(), "contact_clients", "contact_id", "client_id", c.ID())
	if err != nil {
		return nil, err
	}

	return models.RestoreContact(c.ID(), c.Name(), c.Surname(), c.Email(), refs, c.CreatedAt(), c.UpdatedAt()), nil
}

// Update writes the contact's fields. The client references are left to AddClient and RemoveClient.
func (r *ContactRepository) Update(ctx context.Context, contact *models.Contact) error {
	if err := contact.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE contacts
		SET name = ?, surname = ?, email = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.q().ExecContext(ctx, query, contact.Name(), contact.Surname(), contact.Email(), now, contact.ID())
	if err != nil {
		return classify(fmt.Errorf("failed to update contact: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return classify(fmt.Errorf("failed to get affected rows: %w", err))
	}
	if rows == 0 {
		return fmt.Errorf("%w: contact %s", shared.ErrNotFound, contact.ID())
	}

	contact.SetUpdatedAt(now)
	return nil
}

// AddClient records clientID in the contact's reference set.
func (r *ContactRepository) AddClient(ctx context.Context, contactID, clientID string) error {
	return contactRefs.apply(ctx, r.conn, contactID, clientID, true)
}

// RemoveClient drops clientID from the contact's reference set.
func (r *ContactRepository) RemoveClient(ctx context.Context, contactID, clientID string) error {
	return contactRefs.apply(ctx, r.conn, contactID, clientID, false)
}

// List retrieves contacts ordered by surname then name.
//
// Supported criteria: "email" (string), "client_id" (string, contacts whose reference set holds it).
func (r *ContactRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Contact, error) {
	query := `
		SELECT id, name, surname, email, created_at, updated_at
		FROM contacts
		WHERE 1 = 1
	`

	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, email)
	}

	if clientID, ok := criteria["client_id"].(string); ok && clientID != "" {
		query += " AND id IN (SELECT contact_id FROM contact_clients WHERE client_id = ?)"
		args = append(args, clientID)
	}

	query += " ORDER BY surname ASC, name ASC"

	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query contacts: %w", err))
	}

	var contacts []*models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			rows.Close()
			return nil, classify(err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, classify(fmt.Errorf("row iteration error: %w", err))
	}
	rows.Close()

	for i, c := range contacts {
		refs, err := loadRefs(ctx, r.q(), "contact_clients", "contact_id", "client_id", c.ID())
		if err != nil {
			return nil, err
		}
		contacts[i] = models.RestoreContact(c.ID(), c.Name(), c.Surname(), c.Email(), refs, c.CreatedAt(), c.UpdatedAt())
	}

	return contacts, nil
}

func scanContact(s scanner) (*models.Contact, error) {
	var (
		id        string
		name      string
		surname   string
		email     string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := s.Scan(&id, &name, &surname, &email, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	return models.RestoreContact(id, name, surname, email, nil, createdAt, updatedAt), nil
}

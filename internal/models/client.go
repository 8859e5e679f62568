package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ccm/internal/shared"
)

// Client is a business entity with a generated short code and a set of linked contact IDs.
type Client struct {
	id        string
	name      string
	code      string
	saved     bool
	contacts  refSet
	createdAt time.Time
	updatedAt time.Time
}

// NewClient creates an unsaved [Client] with no contacts.
func NewClient(name, code string) *Client {
	now := time.Now().UTC()
	return &Client{
		name:      strings.TrimSpace(name),
		code:      code,
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreClient rebuilds a [Client] from stored values.
func RestoreClient(id, name, code string, saved bool, contacts []string, createdAt, updatedAt time.Time) *Client {
	return &Client{
		id:        id,
		name:      name,
		code:      code,
		saved:     saved,
		contacts:  newRefSet(contacts),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (c *Client) ID() string           { return c.id }
func (c *Client) Name() string         { return c.name }
func (c *Client) Code() string         { return c.code }
func (c *Client) IsSaved() bool        { return c.saved }
func (c *Client) CreatedAt() time.Time { return c.createdAt }
func (c *Client) UpdatedAt() time.Time { return c.updatedAt }

// Contacts returns the linked contact IDs in sorted order.
func (c *Client) Contacts() []string { return c.contacts.sorted() }

// HasContact reports whether contactID is in the client's reference set.
func (c *Client) HasContact(contactID string) bool { return c.contacts.has(contactID) }

func (c *Client) SetID(id string)          { c.id = id }
func (c *Client) SetUpdatedAt(t time.Time) { c.updatedAt = t }

// MarkSaved flips the saved flag. It reports false when the client was already saved.
func (c *Client) MarkSaved() bool {
	if c.saved {
		return false
	}
	c.saved = true
	return true
}

// AttachContact adds contactID to the in-memory reference set. Stores persist the set on Create only.
func (c *Client) AttachContact(contactID string) bool { return c.contacts.add(contactID) }

// DetachContact removes contactID from the in-memory reference set.
func (c *Client) DetachContact(contactID string) bool { return c.contacts.remove(contactID) }

// Validate checks required fields.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.name) == "" {
		return fmt.Errorf("%w: client name is required", shared.ErrInvalidInput)
	}
	if c.code == "" {
		return fmt.Errorf("%w: client code is required", shared.ErrInvalidInput)
	}
	return nil
}

type clientJSON struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ClientCode string   `json:"clientCode"`
	IsSaved    bool     `json:"isSaved"`
	Contacts   []string `json:"contacts"`
}

// MarshalJSON renders the API shape {id, name, clientCode, isSaved, contacts}.
func (c *Client) MarshalJSON() ([]byte, error) {
	return json.Marshal(clientJSON{
		ID:         c.id,
		Name:       c.name,
		ClientCode: c.code,
		IsSaved:    c.saved,
		Contacts:   c.Contacts(),
	})
}

// UnmarshalJSON accepts the API shape, used by the CLI when reading server responses.
func (c *Client) UnmarshalJSON(data []byte) error {
	var v clientJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Client{id: v.ID, name: v.Name, code: v.ClientCode, saved: v.IsSaved, contacts: newRefSet(v.Contacts)}
	return nil
}

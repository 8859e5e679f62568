package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/desertthunder/ccm/internal/shared"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Contact is a person record with a set of linked client IDs.
type Contact struct {
	id        string
	name      string
	surname   string
	email     string
	clients   refSet
	createdAt time.Time
	updatedAt time.Time
}

// NewContact creates a [Contact] with no clients.
func NewContact(name, surname, email string) *Contact {
	now := time.Now().UTC()
	return &Contact{
		name:      strings.TrimSpace(name),
		surname:   strings.TrimSpace(surname),
		email:     strings.TrimSpace(email),
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreContact rebuilds a [Contact] from stored values.
func RestoreContact(id, name, surname, email string, clients []string, createdAt, updatedAt time.Time) *Contact {
	return &Contact{
		id:        id,
		name:      name,
		surname:   surname,
		email:     email,
		clients:   newRefSet(clients),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (c *Contact) ID() string           { return c.id }
func (c *Contact) Name() string         { return c.name }
func (c *Contact) Surname() string      { return c.surname }
func (c *Contact) Email() string        { return c.email }
func (c *Contact) CreatedAt() time.Time { return c.createdAt }
func (c *Contact) UpdatedAt() time.Time { return c.updatedAt }

// FullName joins name and surname.
func (c *Contact) FullName() string { return strings.TrimSpace(c.name + " " + c.surname) }

// Clients returns the linked client IDs in sorted order.
func (c *Contact) Clients() []string { return c.clients.sorted() }

// HasClient reports whether clientID is in the contact's reference set.
func (c *Contact) HasClient(clientID string) bool { return c.clients.has(clientID) }

func (c *Contact) SetID(id string)          { c.id = id }
func (c *Contact) SetUpdatedAt(t time.Time) { c.updatedAt = t }

// AttachClient adds clientID to the in-memory reference set. Stores persist the set on Create only.
func (c *Contact) AttachClient(clientID string) bool { return c.clients.add(clientID) }

// DetachClient removes clientID from the in-memory reference set.
func (c *Contact) DetachClient(clientID string) bool { return c.clients.remove(clientID) }

// Validate checks required fields and the email format.
func (c *Contact) Validate() error {
	var missing []string
	if c.name == "" {
		missing = append(missing, "name")
	}
	if c.surname == "" {
		missing = append(missing, "surname")
	}
	if c.email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", shared.ErrInvalidInput, strings.Join(missing, ", "))
	}
	if !ValidEmail(c.email) {
		return fmt.Errorf("%w: invalid email %q", shared.ErrInvalidInput, c.email)
	}
	return nil
}

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

type contactJSON struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Surname string   `json:"surname"`
	Email   string   `json:"email"`
	Clients []string `json:"clients"`
}

func (c *Contact) MarshalJSON() ([]byte, error) {
	return json.Marshal(contactJSON{
		ID:      c.id,
		Name:    c.name,
		Surname: c.surname,
		Email:   c.email,
		Clients: c.Clients(),
	})
}

func (c *Contact) UnmarshalJSON(data []byte) error {
	var v contactJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Contact{id: v.ID, name: v.Name, surname: v.Surname, email: v.Email, clients: newRefSet(v.Clients)}
	return nil
}

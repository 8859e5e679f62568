// package models defines the data model for the client/contact manager
package models

import (
	"context"
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations include Client and Contact.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
//
// Records are never deleted, so there is no Delete.
type Repository[T Model] interface {
	Create(ctx context.Context, model T) error                      // Create inserts a new model into the database
	Get(ctx context.Context, id string) (T, error)                  // Get retrieves a model by its ID
	Update(ctx context.Context, model T) error                      // Update modifies an existing model in the database
	List(ctx context.Context, criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// ClientStore is a client [Repository] that can also add or remove a single contact reference.
//
// Update never writes the reference set; only AddContact and RemoveContact do, one pair row at a time,
// so concurrent links to the same client cannot overwrite each other.
type ClientStore interface {
	Repository[*Client]
	// AddContact records contactID in the client's set. Adding a present ID succeeds.
	AddContact(ctx context.Context, clientID, contactID string) error
	// RemoveContact drops contactID from the client's set. Removing an absent ID succeeds.
	RemoveContact(ctx context.Context, clientID, contactID string) error
}

// ContactStore is the contact counterpart of [ClientStore].
type ContactStore interface {
	Repository[*Contact]
	AddClient(ctx context.Context, contactID, clientID string) error
	RemoveClient(ctx context.Context, contactID, clientID string) error
}

// CounterStore hands out values from named monotonic sequences.
type CounterStore interface {
	// FetchAndIncrement atomically increments the named counter, creating it at 1 when absent, and returns the new value.
	FetchAndIncrement(ctx context.Context, name string) (int, error)
	// Get returns the counter's current value.
	Get(ctx context.Context, name string) (*Counter, error)
}

// Transactor runs fn against client and contact stores bound to a single transaction.
//
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(clients ClientStore, contacts ContactStore) error) error
}

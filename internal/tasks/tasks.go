// package tasks coordinates operations that touch more than one record.
//
// The core abstraction is LinkCoordinator, which keeps the two sides of a client/contact link in step.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/shared"
)

// PartialLinkError reports a link or unlink whose client side was persisted but whose contact side was not.
//
// It matches both [shared.ErrPartialLink] and the underlying cause under [errors.Is].
type PartialLinkError struct {
	Op        Op
	ClientID  string
	ContactID string
	Err       error
}

func (e *PartialLinkError) Error() string {
	return fmt.Sprintf("%s client %s / contact %s: client side saved, contact side failed: %v", e.Op, e.ClientID, e.ContactID, e.Err)
}

func (e *PartialLinkError) Unwrap() []error {
	return []error{shared.ErrPartialLink, e.Err}
}

// Side names which reference set holds an unmatched entry.
type Side string

const (
	ClientOnly  Side = "client"  // the client lists the contact, the contact does not list the client
	ContactOnly Side = "contact" // the contact lists the client, the client does not list the contact
)

// Asymmetry is one half-linked client/contact pair.
type Asymmetry struct {
	ClientID  string `json:"clientId"`
	ContactID string `json:"contactId"`
	Side      Side   `json:"side"`
}

func (a Asymmetry) String() string {
	return fmt.Sprintf("client %s / contact %s (%s side only)", a.ClientID, a.ContactID, a.Side)
}

// RepairFailure is an asymmetry that could not be repaired.
type RepairFailure struct {
	Asymmetry Asymmetry
	Err       error
}

// RepairResult summarizes a [LinkCoordinator.Repair] run.
type RepairResult struct {
	Found    int             // Asymmetries found by the audit
	Repaired []Asymmetry     // Pairs brought back into symmetry
	Failed   []RepairFailure // Pairs left as they were
}

// Linker defines the link operations exposed to the HTTP and CLI layers.
type Linker interface {
	// Link records the pair on both sides. Linking an already linked pair succeeds.
	Link(ctx context.Context, clientID, contactID string) error
	// Unlink removes the pair from both sides. Unlinking an unlinked pair succeeds.
	Unlink(ctx context.Context, clientID, contactID string) error
}

// LinkCoordinator implements [Linker] over the client and contact repositories.
//
// The client side is always persisted before the contact side. Both sides are written on every call,
// so repeating a call that previously failed halfway restores symmetry. Each write adds or removes
// a single pair row, so concurrent calls touching the same client or contact never overwrite each other.
type LinkCoordinator struct {
	clients  models.ClientStore
	contacts models.ContactStore
	tx       models.Transactor
	logger   *log.Logger
}

// NewLinkCoordinator creates a new [LinkCoordinator].
//
// A non-nil tx runs both persists of each call in one transaction; nil persists them independently.
func NewLinkCoordinator(clients models.ClientStore, contacts models.ContactStore, tx models.Transactor, logger *log.Logger) *LinkCoordinator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LinkCoordinator{
		clients:  clients,
		contacts: contacts,
		tx:       tx,
		logger:   logger,
	}
}

// Transactional reports whether link writes share a transaction.
func (c *LinkCoordinator) Transactional() bool {
	return c.tx != nil
}

// Link adds contactID to the client's contacts and clientID to the contact's clients.
func (c *LinkCoordinator) Link(ctx context.Context, clientID, contactID string) error {
	return c.apply(ctx, OpLink, clientID, contactID)
}

// Unlink removes contactID from the client's contacts and clientID from the contact's clients.
func (c *LinkCoordinator) Unlink(ctx context.Context, clientID, contactID string) error {
	return c.apply(ctx, OpUnlink, clientID, contactID)
}

func (c *LinkCoordinator) apply(ctx context.Context, op Op, clientID, contactID string) error {
	clientID, contactID = strings.TrimSpace(clientID), strings.TrimSpace(contactID)
	if clientID == "" || contactID == "" {
		return fmt.Errorf("%w: client and contact IDs are required", shared.ErrInvalidInput)
	}

	logger := c.logger.With("op", op, "client", clientID, "contact", contactID)

	if c.tx == nil {
		if err := persistPair(ctx, op, c.clients, c.contacts, clientID, contactID); err != nil {
			var partial *PartialLinkError
			if errors.As(err, &partial) {
				logger.Error("contact side failed after client side was saved", "error", partial.Err)
			}
			return err
		}
		logger.Debug("link pair persisted")
		return nil
	}

	err := c.tx.InTx(ctx, func(clients models.ClientStore, contacts models.ContactStore) error {
		return persistPair(ctx, op, clients, contacts, clientID, contactID)
	})
	if err != nil {
		var partial *PartialLinkError
		if errors.As(err, &partial) {
			logger.Warn("contact side failed, transaction rolled back", "error", partial.Err)
			return fmt.Errorf("%s rolled back: %w", op, partial.Err)
		}
		return err
	}

	logger.Debug("link pair committed")
	return nil
}

// persistPair checks both records exist, then writes the client side first.
func persistPair(ctx context.Context, op Op, clients models.ClientStore, contacts models.ContactStore, clientID, contactID string) error {
	if _, err := clients.Get(ctx, clientID); err != nil {
		return fmt.Errorf("failed to load client: %w", err)
	}

	if _, err := contacts.Get(ctx, contactID); err != nil {
		return fmt.Errorf("failed to load contact: %w", err)
	}

	writeClient, writeContact := clients.AddContact, contacts.AddClient
	if op == OpUnlink {
		writeClient, writeContact = clients.RemoveContact, contacts.RemoveClient
	}

	if err := writeClient(ctx, clientID, contactID); err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}

	if err := writeContact(ctx, contactID, clientID); err != nil {
		return &PartialLinkError{Op: op, ClientID: clientID, ContactID: contactID, Err: err}
	}

	return nil
}

// Audit scans both reference sets and returns every pair present on one side only.
//
// Results are ordered by client ID, then contact ID.
func (c *LinkCoordinator) Audit(ctx context.Context, progress chan<- ProgressUpdate) ([]Asymmetry, error) {
	clients, err := c.clients.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	sendProgress(progress, scanClientsUpdate(len(clients)))

	contacts, err := c.contacts.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	sendProgress(progress, scanContactsUpdate(len(contacts)))

	clientByID := make(map[string]*models.Client, len(clients))
	for _, client := range clients {
		clientByID[client.ID()] = client
	}

	contactByID := make(map[string]*models.Contact, len(contacts))
	for _, contact := range contacts {
		contactByID[contact.ID()] = contact
	}

	var found []Asymmetry
	for _, client := range clients {
		for _, contactID := range client.Contacts() {
			if contact, ok := contactByID[contactID]; !ok || !contact.HasClient(client.ID()) {
				found = append(found, Asymmetry{ClientID: client.ID(), ContactID: contactID, Side: ClientOnly})
			}
		}
	}

	for _, contact := range contacts {
		for _, clientID := range contact.Clients() {
			if client, ok := clientByID[clientID]; !ok || !client.HasContact(contact.ID()) {
				found = append(found, Asymmetry{ClientID: clientID, ContactID: contact.ID(), Side: ContactOnly})
			}
		}
	}

	sortAsymmetries(found)
	return found, nil
}

// Repair restores symmetry for every pair [LinkCoordinator.Audit] reports, treating the client side as authoritative.
//
// A client-only entry is added to the contact, or dropped from the client when the contact does not exist.
// A contact-only entry is removed from the contact.
func (c *LinkCoordinator) Repair(ctx context.Context, progress chan<- ProgressUpdate) (*RepairResult, error) {
	found, err := c.Audit(ctx, progress)
	if err != nil {
		return nil, err
	}

	result := &RepairResult{Found: len(found)}

	for i, a := range found {
		sendProgress(progress, repairPairUpdate(i+1, len(found), a))

		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := c.repairPair(ctx, a); err != nil {
			c.logger.Error("repair failed", "client", a.ClientID, "contact", a.ContactID, "side", a.Side, "error", err)
			result.Failed = append(result.Failed, RepairFailure{Asymmetry: a, Err: err})
			continue
		}

		c.logger.Info("repaired link", "client", a.ClientID, "contact", a.ContactID, "side", a.Side)
		result.Repaired = append(result.Repaired, a)
	}

	return result, nil
}

func (c *LinkCoordinator) repairPair(ctx context.Context, a Asymmetry) error {
	switch a.Side {
	case ClientOnly:
		_, err := c.contacts.Get(ctx, a.ContactID)
		if errors.Is(err, shared.ErrNotFound) {
			return c.clients.RemoveContact(ctx, a.ClientID, a.ContactID)
		}
		if err != nil {
			return err
		}
		return c.contacts.AddClient(ctx, a.ContactID, a.ClientID)
	case ContactOnly:
		return c.contacts.RemoveClient(ctx, a.ContactID, a.ClientID)
	default:
		return fmt.Errorf("%w: unknown side %q", shared.ErrInvalidArgument, a.Side)
	}
}

func sortAsymmetries(as []Asymmetry) {
	sort.Slice(as, func(i, j int) bool {
		if as[i].ClientID != as[j].ClientID {
			return as[i].ClientID < as[j].ClientID
		}
		if as[i].ContactID != as[j].ContactID {
			return as[i].ContactID < as[j].ContactID
		}
		return as[i].Side < as[j].Side
	})
}

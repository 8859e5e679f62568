// package services implements the client and contact operations behind the HTTP and CLI surfaces,
// plus a raw HTTP client for the ccm API.
package services

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

// CodeGenerator produces a unique client code for a name.
type CodeGenerator interface {
	Generate(ctx context.Context, name string) (string, error)
}

// ClientService creates, reads and saves clients.
type ClientService struct {
	clients  models.Repository[*models.Client]
	contacts models.Repository[*models.Contact]
	codes    CodeGenerator
	logger   *log.Logger
}

// NewClientService creates a new [ClientService].
func NewClientService(clients models.Repository[*models.Client], contacts models.Repository[*models.Contact], codes CodeGenerator, logger *log.Logger) *ClientService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ClientService{clients: clients, contacts: contacts, codes: codes, logger: logger}
}

// Create validates name, assigns a fresh client code and persists the new client.
//
// The name is checked before a code is generated, so a rejected name never consumes a sequence value.
func (s *ClientService) Create(ctx context.Context, name string) (*models.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: client name is required", shared.ErrInvalidInput)
	}

	code, err := s.codes.Generate(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate client code: %w", err)
	}

	client := models.NewClient(name, code)
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("client created", "id", client.ID(), "code", code)
	return client, nil
}

// Get returns the client with id.
func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	return s.clients.Get(ctx, id)
}

// List returns all clients ordered by name.
func (s *ClientService) List(ctx context.Context) ([]*models.Client, error) {
	clients, err := s.clients.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// Save marks the client as saved. Saving a saved client returns it unchanged.
func (s *ClientService) Save(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.clients.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !client.MarkSaved() {
		return client, nil
	}

	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	s.logger.Info("client saved", "id", id)
	return client, nil
}

// Contacts returns the contacts in the client's contact set, ordered by surname then name.
//
// IDs whose contact no longer resolves are skipped.
func (s *ClientService) Contacts(ctx context.Context, id string) ([]*models.Contact, error) {
	client, err := s.clients.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	contacts := make([]*models.Contact, 0, len(client.Contacts()))
	for _, contactID := range client.Contacts() {
		contact, err := s.contacts.Get(ctx, contactID)
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("client references a missing contact", "client", id, "contact", contactID)
			continue
		}
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}

	sortContacts(contacts)
	return contacts, nil
}

// ContactService creates and reads contacts.
type ContactService struct {
	contacts models.Repository[*models.Contact]
	clients  models.Repository[*models.Client]
	logger   *log.Logger
}

// NewContactService creates a new [ContactService].
func NewContactService(contacts models.Repository[*models.Contact], clients models.Repository[*models.Client], logger *log.Logger) *ContactService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ContactService{contacts: contacts, clients: clients, logger: logger}
}

// Create validates and persists a new contact with an empty client set.
func (s *ContactService) Create(ctx context.Context, name, surname, email string) (*models.Contact, error) {
	contact := models.NewContact(strings.TrimSpace(name), strings.TrimSpace(surname), strings.TrimSpace(email))
	if err := contact.Validate(); err != nil {
		return nil, err
	}

	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	s.logger.Info("contact created", "id", contact.ID())
	return contact, nil
}

// Get returns the contact with id.
func (s *ContactService) Get(ctx context.Context, id string) (*models.Contact, error) {
	return s.contacts.Get(ctx, id)
}

// List returns all contacts ordered by surname then name.
func (s *ContactService) List(ctx context.Context) ([]*models.Contact, error) {
	contacts, err := s.contacts.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// Clients returns the clients in the contact's client set, ordered by name.
//
// IDs whose client no longer resolves are skipped.
func (s *ContactService) Clients(ctx context.Context, id string) ([]*models.Client, error) {
	contact, err := s.contacts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	clients := make([]*models.Client, 0, len(contact.Clients()))
	for _, clientID := range contact.Clients() {
		client, err := s.clients.Get(ctx, clientID)
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("contact references a missing client", "contact", id, "client", clientID)
			continue
		}
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	sortClients(clients)
	return clients, nil
}

func sortClients(clients []*models.Client) {
	sort.SliceStable(clients, func(i, j int) bool {
		if clients[i].Name() != clients[j].Name() {
			return clients[i].Name() < clients[j].Name()
		}
		return clients[i].Code() < clients[j].Code()
	})
}

func sortContacts(contacts []*models.Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		if contacts[i].Surname() != contacts[j].Surname() {
			return contacts[i].Surname() < contacts[j].Surname()
		}
		return contacts[i].Name() < contacts[j].Name()
	})
}

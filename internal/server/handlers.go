package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/shared"
	"github.com/desertthunder/ccm/internal/tasks"
)

const maxBodyBytes = 1 << 20

// ClientService is the set of client operations the API exposes.
type ClientService interface {
	Create(ctx context.Context, name string) (*models.Client, error)
	Get(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
	Save(ctx context.Context, id string) (*models.Client, error)
	Contacts(ctx context.Context, id string) ([]*models.Contact, error)
}

// ContactService is the set of contact operations the API exposes.
type ContactService interface {
	Create(ctx context.Context, name, surname, email string) (*models.Contact, error)
	Get(ctx context.Context, id string) (*models.Contact, error)
	List(ctx context.Context) ([]*models.Contact, error)
	Clients(ctx context.Context, id string) ([]*models.Client, error)
}

type messageBody struct {
	Message string `json:"message"`
	Partial bool   `json:"partial,omitempty"`
}

type createClientRequest struct {
	Name string `json:"name"`
}

type createContactRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// API serves the client and contact REST endpoints.
type API struct {
	clients         ClientService
	contacts        ContactService
	links           tasks.Linker
	emptyListStatus int
	logger          *log.Logger
}

// NewAPI creates an [API]. emptyListStatus is the status for an empty collection, 200 or 404.
func NewAPI(clients ClientService, contacts ContactService, links tasks.Linker, emptyListStatus int, logger *log.Logger) *API {
	if emptyListStatus != http.StatusNotFound {
		emptyListStatus = http.StatusOK
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &API{
		clients:         clients,
		contacts:        contacts,
		links:           links,
		emptyListStatus: emptyListStatus,
		logger:          logger,
	}
}

// Register adds every endpoint to r.
func (a *API) Register(r *BasicRouter) {
	r.HandleFunc(http.MethodGet, "/clients", a.listClients)
	r.HandleFunc(http.MethodPost, "/clients", a.createClient)
	r.HandleFunc(http.MethodGet, "/clients/{clientId}", a.getClient)
	r.HandleFunc(http.MethodGet, "/clients/{clientId}/contacts", a.clientContacts)
	r.HandleFunc(http.MethodPut, "/clients/{clientId}/linkContact/{contactId}", a.linkContact)
	r.HandleFunc(http.MethodPut, "/clients/{clientId}/unlinkContact/{contactId}", a.unlinkContact)
	r.HandleFunc(http.MethodPut, "/clients/{clientId}/save", a.saveClient)

	r.HandleFunc(http.MethodGet, "/contacts", a.listContacts)
	r.HandleFunc(http.MethodPost, "/contacts", a.createContact)
	r.HandleFunc(http.MethodGet, "/contacts/{contactId}", a.getContact)
	r.HandleFunc(http.MethodGet, "/contacts/{contactId}/clients", a.contactClients)
	r.HandleFunc(http.MethodPut, "/contacts/{contactId}/linkClient/{clientId}", a.linkClient)
	r.HandleFunc(http.MethodPut, "/contacts/{contactId}/unlinkClient/{clientId}", a.unlinkClient)
}

func (a *API) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := a.clients.List(r.Context())
	if err != nil {
		a.writeError(w, err, "")
		return
	}
	if len(clients) == 0 {
		a.writeEmpty(w, "No client(s) found.")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (a *API) createClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err, "")
		return
	}

	client, err := a.clients.Create(r.Context(), req.Name)
	if err != nil {
		a.writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (a *API) getClient(w http.ResponseWriter, r *http.Request) {
	client, err := a.clients.Get(r.Context(), r.PathValue("clientId"))
	if err != nil {
		a.writeError(w, err, "Client not found")
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (a *API) clientContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := a.clients.Contacts(r.Context(), r.PathValue("clientId"))
	if err != nil {
		a.writeError(w, err, "Client not found")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (a *API) saveClient(w http.ResponseWriter, r *http.Request) {
	client, err := a.clients.Save(r.Context(), r.PathValue("clientId"))
	if err != nil {
		a.writeError(w, err, "Client not found")
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (a *API) linkContact(w http.ResponseWriter, r *http.Request) {
	a.link(w, r, a.links.Link, "Contact linked to client")
}

func (a *API) unlinkContact(w http.ResponseWriter, r *http.Request) {
	a.link(w, r, a.links.Unlink, "Contact unlinked from client")
}

func (a *API) linkClient(w http.ResponseWriter, r *http.Request) {
	a.link(w, r, a.links.Link, "Client linked to contact")
}

func (a *API) unlinkClient(w http.ResponseWriter, r *http.Request) {
	a.link(w, r, a.links.Unlink, "Client unlinked from contact")
}

// link runs op with the path's client and contact IDs; both endpoint families share it.
func (a *API) link(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, clientID, contactID string) error, message string) {
	if err := op(r.Context(), r.PathValue("clientId"), r.PathValue("contactId")); err != nil {
		a.writeError(w, err, "Client or Contact not found")
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: message})
}

func (a *API) listContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := a.contacts.List(r.Context())
	if err != nil {
		a.writeError(w, err, "")
		return
	}
	if len(contacts) == 0 {
		a.writeEmpty(w, "No contact(s) found.")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (a *API) createContact(w http.ResponseWriter, r *http.Request) {
	var req createContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err, "")
		return
	}

	contact, err := a.contacts.Create(r.Context(), req.Name, req.Surname, req.Email)
	if err != nil {
		a.writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

func (a *API) getContact(w http.ResponseWriter, r *http.Request) {
	contact, err := a.contacts.Get(r.Context(), r.PathValue("contactId"))
	if err != nil {
		a.writeError(w, err, "Contact not found")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (a *API) contactClients(w http.ResponseWriter, r *http.Request) {
	clients, err := a.contacts.Clients(r.Context(), r.PathValue("contactId"))
	if err != nil {
		a.writeError(w, err, "Contact not found")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (a *API) writeEmpty(w http.ResponseWriter, message string) {
	if a.emptyListStatus == http.StatusNotFound {
		writeJSON(w, http.StatusNotFound, messageBody{Message: message})
		return
	}
	writeJSON(w, http.StatusOK, []any{})
}

// writeError maps err onto a status code. notFound replaces the message of a not-found error when set.
func (a *API) writeError(w http.ResponseWriter, err error, notFound string) {
	status := StatusFor(err)
	body := messageBody{Message: err.Error()}

	switch {
	case status == http.StatusNotFound && notFound != "":
		body.Message = notFound
	case errors.Is(err, shared.ErrPartialLink):
		body.Partial = true
	case status >= 500:
		a.logger.Error("request failed", "status", status, "error", err)
	}

	writeJSON(w, status, body)
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrPartialLink):
		return http.StatusInternalServerError
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrConnectivity), errors.Is(err, shared.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(shared.ErrInvalidInput, errors.New("request body must be a JSON object"))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Pinger checks that a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the store is reachable.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a [HealthHandler] over store.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Routes returns the HTTP routes this handler serves.
func (h *HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

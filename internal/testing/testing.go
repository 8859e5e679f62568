// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/shared"
)

// MemoryClients is an in-memory [models.ClientStore].
//
// Records are copied on the way in and out. Like the SQLite store, Update keeps the stored
// contact set; only AddContact and RemoveContact change it.
type MemoryClients struct {
	mu      sync.Mutex
	records map[string]*models.Client
	seq     int

	// UpdateErr, when set, is returned by every Update, AddContact and RemoveContact without writing.
	UpdateErr error
	// Updates counts successful writes to existing records.
	Updates int
}

var _ models.ClientStore = (*MemoryClients)(nil)

// NewMemoryClients creates an empty [MemoryClients].
func NewMemoryClients() *MemoryClients {
	return &MemoryClients{records: map[string]*models.Client{}}
}

func copyClient(c *models.Client) *models.Client {
	return models.RestoreClient(c.ID(), c.Name(), c.Code(), c.IsSaved(), c.Contacts(), c.CreatedAt(), c.UpdatedAt())
}

func (m *MemoryClients) Create(ctx context.Context, c *models.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.records {
		if existing.Code() == c.Code() {
			return fmt.Errorf("%w: client code %s", shared.ErrConflict, c.Code())
		}
	}

	m.seq++
	c.SetID(fmt.Sprintf("client-%d", m.seq))
	m.records[c.ID()] = copyClient(c)
	return nil
}

func (m *MemoryClients) Get(ctx context.Context, id string) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: client %s", shared.ErrNotFound, id)
	}
	return copyClient(c), nil
}

func (m *MemoryClients) Update(ctx context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	stored, ok := m.records[c.ID()]
	if !ok {
		return fmt.Errorf("%w: client %s", shared.ErrNotFound, c.ID())
	}
	m.records[c.ID()] = models.RestoreClient(c.ID(), c.Name(), stored.Code(), c.IsSaved(), stored.Contacts(), stored.CreatedAt(), c.UpdatedAt())
	m.Updates++
	return nil
}

func (m *MemoryClients) AddContact(ctx context.Context, clientID, contactID string) error {
	return m.edit(clientID, func(c *models.Client) { c.AttachContact(contactID) })
}

func (m *MemoryClients) RemoveContact(ctx context.Context, clientID, contactID string) error {
	return m.edit(clientID, func(c *models.Client) { c.DetachContact(contactID) })
}

func (m *MemoryClients) edit(id string, fn func(*models.Client)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	c, ok := m.records[id]
	if !ok {
		return fmt.Errorf("%w: client %s", shared.ErrNotFound, id)
	}
	fn(c)
	m.Updates++
	return nil
}

func (m *MemoryClients) List(ctx context.Context, criteria map[string]any) ([]*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Client
	for _, c := range m.records {
		if saved, ok := criteria["saved"].(bool); ok && c.IsSaved() != saved {
			continue
		}
		if contactID, ok := criteria["contact_id"].(string); ok && contactID != "" && !c.HasContact(contactID) {
			continue
		}
		out = append(out, copyClient(c))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name() != out[j].Name() {
			return out[i].Name() < out[j].Name()
		}
		return out[i].Code() < out[j].Code()
	})
	return out, nil
}

// Put stores c as-is, bypassing validation. Used to seed asymmetric states.
func (m *MemoryClients) Put(c *models.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[c.ID()] = copyClient(c)
}

// MemoryContacts is an in-memory [models.ContactStore]. Update keeps the stored client set.
type MemoryContacts struct {
	mu      sync.Mutex
	records map[string]*models.Contact
	seq     int

	// UpdateErr, when set, is returned by every Update, AddClient and RemoveClient without writing.
	UpdateErr error
	// Updates counts successful writes to existing records.
	Updates int
}

var _ models.ContactStore = (*MemoryContacts)(nil)

// NewMemoryContacts creates an empty [MemoryContacts].
func NewMemoryContacts() *MemoryContacts {
	return &MemoryContacts{records: map[string]*models.Contact{}}
}

func copyContact(c *models.Contact) *models.Contact {
	return models.RestoreContact(c.ID(), c.Name(), c.Surname(), c.Email(), c.Clients(), c.CreatedAt(), c.UpdatedAt())
}

func (m *MemoryContacts) Create(ctx context.Context, c *models.Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	c.SetID(fmt.Sprintf("contact-%d", m.seq))
	m.records[c.ID()] = copyContact(c)
	return nil
}

func (m *MemoryContacts) Get(ctx context.Context, id string) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: contact %s", shared.ErrNotFound, id)
	}
	return copyContact(c), nil
}

func (m *MemoryContacts) Update(ctx context.Context, c *models.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	stored, ok := m.records[c.ID()]
	if !ok {
		return fmt.Errorf("%w: contact %s", shared.ErrNotFound, c.ID())
	}
	m.records[c.ID()] = models.RestoreContact(c.ID(), c.Name(), c.Surname(), c.Email(), stored.Clients(), stored.CreatedAt(), c.UpdatedAt())
	m.Updates++
	return nil
}

func (m *MemoryContacts) AddClient(ctx context.Context, contactID, clientID string) error {
	return m.edit(contactID, func(c *models.Contact) { c.AttachClient(clientID) })
}

func (m *MemoryContacts) RemoveClient(ctx context.Context, contactID, clientID string) error {
	return m.edit(contactID, func(c *models.Contact) { c.DetachClient(clientID) })
}

func (m *MemoryContacts) edit(id string, fn func(*models.Contact)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	c, ok := m.records[id]
	if !ok {
		return fmt.Errorf("%w: contact %s", shared.ErrNotFound, id)
	}
	fn(c)
	m.Updates++
	return nil
}

func (m *MemoryContacts) List(ctx context.Context, criteria map[string]any) ([]*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Contact
	for _, c := range m.records {
		if email, ok := criteria["email"].(string); ok && email != "" && c.Email() != email {
			continue
		}
		if clientID, ok := criteria["client_id"].(string); ok && clientID != "" && !c.HasClient(clientID) {
			continue
		}
		out = append(out, copyContact(c))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Surname() != out[j].Surname() {
			return out[i].Surname() < out[j].Surname()
		}
		return out[i].Name() < out[j].Name()
	})
	return out, nil
}

// Put stores c as-is, bypassing validation. Used to seed asymmetric states.
func (m *MemoryContacts) Put(c *models.Contact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[c.ID()] = copyContact(c)
}

// MemoryCounters is an in-memory [models.CounterStore].
type MemoryCounters struct {
	mu     sync.Mutex
	values map[string]int

	// Err, when set, is returned by FetchAndIncrement.
	Err error
}

// NewMemoryCounters creates a [MemoryCounters] seeded with values.
func NewMemoryCounters(values map[string]int) *MemoryCounters {
	seeded := map[string]int{}
	for k, v := range values {
		seeded[k] = v
	}
	return &MemoryCounters{values: seeded}
}

func (m *MemoryCounters) FetchAndIncrement(ctx context.Context, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return 0, m.Err
	}
	m.values[name]++
	return m.values[name], nil
}

func (m *MemoryCounters) Get(ctx context.Context, name string) (*models.Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: counter %s", shared.ErrNotFound, name)
	}
	return &models.Counter{ID: name, Name: name, SequenceValue: v}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

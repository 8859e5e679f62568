package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// setupFileDB creates a migrated SQLite database file under t.TempDir.
func setupFileDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(filepath.Join(t.TempDir(), "ccm.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestClientRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewClientRepository(db)
		client := models.NewClient("Acme Corp", "AMC001")

		if err := repo.Create(ctx, client); err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if client.ID() == "" {
			t.Error("client ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewClientRepository(db)
		client := models.NewClient("Acme Corp", "AMC001")

		if err := repo.Create(ctx, client); err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		retrieved, err := repo.Get(ctx, client.ID())
		if err != nil {
			t.Fatalf("failed to get client: %v", err)
		}

		if retrieved.Name() != "Acme Corp" {
			t.Errorf("expected name Acme Corp, got %s", retrieved.Name())
		}
		if retrieved.Code() != "AMC001" {
			t.Errorf("expected code AMC001, got %s", retrieved.Code())
		}
		if retrieved.IsSaved() {
			t.Error("new client should not be saved")
		}
		if len(retrieved.Contacts()) != 0 {
			t.Errorf("expected no contacts, got %v", retrieved.Contacts())
		}
	})

	t.Run("GetByCode", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewClientRepository(db)
		client := models.NewClient("Acme Corp", "AMC001")
		if err := repo.Create(ctx, client); err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		retrieved, err := repo.GetByCode(ctx, "AMC001")
		if err != nil {
			t.Fatalf("failed to get client by code: %v", err)
		}
		if retrieved.ID() != client.ID() {
			t.Errorf("expected ID %s, got %s", client.ID(), retrieved.ID())
		}
	})

	t.Run("Update persists saved flag", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewClientRepository(db)
		client := models.NewClient("Acme Corp", "AMC001")
		if err := repo.Create(ctx, client); err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		client.MarkSaved()
		if err := repo.Update(ctx, client); err != nil {
			t.Fatalf("failed to update client: %v", err)
		}

		retrieved, err := repo.Get(ctx, client.ID())
		if err != nil {
			t.Fatalf("failed to get client: %v", err)
		}
		if !retrieved.IsSaved() {
			t.Error("expected client to be saved")
		}
		if retrieved.Code() != "AMC001" {
			t.Errorf("expected code to be kept, got %s", retrieved.Code())
		}
	})

	t.Run("Update from a stale copy keeps contacts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewClientRepository(db)
		client := models.NewClient("Acme Corp", "AMC001")
		if err := repo.Create(ctx, client); err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		stale, err := repo.Get(ctx, client.ID())
		if err != nil {
			t.Fatalf("failed to get client: %v", err)
		}

		if err := repo.AddContact(ctx, client.ID(), "k1"); err != nil {
			t.Fatalf("failed to add contact: %v", err)
		}

		stale.MarkSaved()
		if err := repo.Update(ctx, stale); err != nil {
			t.Fatalf("failed to update client: %v", err)
		}

		retrieved, _ := repo.Get(ctx, client.ID())
		if !retrieved.IsSaved() || !retrieved.HasContact("k1") {
			t.Errorf("expected saved client still linked to k1, got saved=%v contacts=%v", retrieved.IsSaved(), retrieved.Contacts())
		}
	})

	t.Run("AddContact and RemoveContact", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewClientRepository(db)
		client := models.NewClient("Acme Corp", "AMC001")
		if err := repo.Create(ctx, client); err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		for _, id := range []string{"k2", "k1", "k2"} {
			if err := repo.AddContact(ctx, client.ID(), id); err != nil {
				t.Fatalf("failed to add %s: %v", id, err)
			}
		}

		retrieved, _ := repo.Get(ctx, client.ID())
		if got := retrieved.Contacts(); len(got) != 2 || got[0] != "k1" || got[1] != "k2" {
			t.Errorf("expected [k1 k2], got %v", got)
		}

		if err := repo.RemoveContact(ctx, client.ID(), "k1"); err != nil {
			t.Fatalf("failed to remove contact: %v", err)
		}
		if err := repo.RemoveContact(ctx, client.ID(), "absent"); err != nil {
			t.Fatalf("removing an absent contact should succeed: %v", err)
		}

		again, _ := repo.Get(ctx, client.ID())
		if got := again.Contacts(); len(got) != 1 || got[0] != "k2" {
			t.Errorf("expected [k2], got %v", got)
		}

		if err := repo.AddContact(ctx, "missing", "k1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for a missing client, got %v", err)
		}
	})

	t.Run("concurrent AddContact keeps every contact", func(t *testing.T) {
		db := setupFileDB(t)
		defer db.Close()

		repo := NewClientRepository(db)
		client := models.NewClient("Acme Corp", "AMC001")
		if err := repo.Create(ctx, client); err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := range n {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if err := repo.AddContact(ctx, client.ID(), fmt.Sprintf("k%02d", i)); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			t.Fatalf("add failed: %v", err)
		}

		retrieved, _ := repo.Get(ctx, client.ID())
		if got := len(retrieved.Contacts()); got != n {
			t.Errorf("expected %d contacts, got %d", n, got)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewClientRepository(db)

		clients := []*models.Client{
			models.NewClient("Umbrella", "UMB001"),
			models.NewClient("Acme", "ACM002"),
			models.NewClient("Globex", "GLO003"),
		}

		for _, c := range clients {
			if err := repo.Create(ctx, c); err != nil {
				t.Fatalf("failed to create client: %v", err)
			}
		}

		clients[2].MarkSaved()
		if err := repo.Update(ctx, clients[2]); err != nil {
			t.Fatalf("failed to update client: %v", err)
		}
		if err := repo.AddContact(ctx, clients[2].ID(), "k1"); err != nil {
			t.Fatalf("failed to add contact: %v", err)
		}

		retrieved, err := repo.List(ctx, map[string]any{})
		if err != nil {
			t.Fatalf("failed to list clients: %v", err)
		}

		if len(retrieved) != 3 {
			t.Fatalf("expected 3 clients, got %d", len(retrieved))
		}

		names := []string{retrieved[0].Name(), retrieved[1].Name(), retrieved[2].Name()}
		if !sort.StringsAreSorted(names) {
			t.Errorf("expected clients sorted by name, got %v", names)
		}

		if !retrieved[1].HasContact("k1") {
			t.Error("expected listed clients to carry their contacts")
		}

		saved, err := repo.List(ctx, map[string]any{"saved": true})
		if err != nil {
			t.Fatalf("failed to list saved clients: %v", err)
		}
		if len(saved) != 1 || saved[0].Name() != "Globex" {
			t.Errorf("expected only Globex to be saved, got %d clients", len(saved))
		}

		linked, err := repo.List(ctx, map[string]any{"contact_id": "k1"})
		if err != nil {
			t.Fatalf("failed to list linked clients: %v", err)
		}
		if len(linked) != 1 || linked[0].ID() != clients[2].ID() {
			t.Errorf("expected Globex to be linked to k1, got %d clients", len(linked))
		}
	})

	t.Run("List empty", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		retrieved, err := NewClientRepository(db).List(ctx, nil)
		if err != nil {
			t.Fatalf("failed to list clients: %v", err)
		}
		if len(retrieved) != 0 {
			t.Errorf("expected no clients, got %d", len(retrieved))
		}
	})
}

func TestContactRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewContactRepository(db)
		contact := models.NewContact("Ada", "Lovelace", "ada@example.com")

		if err := repo.Create(ctx, contact); err != nil {
			t.Fatalf("failed to create contact: %v", err)
		}

		retrieved, err := repo.Get(ctx, contact.ID())
		if err != nil {
			t.Fatalf("failed to get contact: %v", err)
		}

		if retrieved.Email() != "ada@example.com" {
			t.Errorf("expected email ada@example.com, got %s", retrieved.Email())
		}
		if retrieved.FullName() != "Ada Lovelace" {
			t.Errorf("expected Ada Lovelace, got %s", retrieved.FullName())
		}
	})

	t.Run("AddClient and RemoveClient", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewContactRepository(db)
		contact := models.NewContact("Ada", "Lovelace", "ada@example.com")
		if err := repo.Create(ctx, contact); err != nil {
			t.Fatalf("failed to create contact: %v", err)
		}

		if err := repo.AddClient(ctx, contact.ID(), "c1"); err != nil {
			t.Fatalf("failed to add client: %v", err)
		}

		retrieved, _ := repo.Get(ctx, contact.ID())
		if !retrieved.HasClient("c1") {
			t.Error("expected c1 to be linked")
		}

		if err := repo.RemoveClient(ctx, contact.ID(), "c1"); err != nil {
			t.Fatalf("failed to remove client: %v", err)
		}

		again, _ := repo.Get(ctx, contact.ID())
		if again.HasClient("c1") {
			t.Error("expected c1 to be unlinked")
		}

		if err := repo.RemoveClient(ctx, "missing", "c1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for a missing contact, got %v", err)
		}
	})

	t.Run("Update keeps clients", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewContactRepository(db)
		contact := models.NewContact("Ada", "Lovelace", "ada@example.com")
		contact.AttachClient("c1")
		if err := repo.Create(ctx, contact); err != nil {
			t.Fatalf("failed to create contact: %v", err)
		}

		stale := models.RestoreContact(contact.ID(), "Ada", "King", "ada@example.com", nil, contact.CreatedAt(), contact.UpdatedAt())
		if err := repo.Update(ctx, stale); err != nil {
			t.Fatalf("failed to update contact: %v", err)
		}

		retrieved, _ := repo.Get(ctx, contact.ID())
		if retrieved.Surname() != "King" || !retrieved.HasClient("c1") {
			t.Errorf("expected surname King still linked to c1, got %s %v", retrieved.Surname(), retrieved.Clients())
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewContactRepository(db)
		for _, c := range []*models.Contact{
			models.NewContact("Grace", "Hopper", "grace@example.com"),
			models.NewContact("Ada", "Lovelace", "ada@example.com"),
			models.NewContact("Alan", "Hopper", "alan@example.com"),
		} {
			if err := repo.Create(ctx, c); err != nil {
				t.Fatalf("failed to create contact: %v", err)
			}
		}

		retrieved, err := repo.List(ctx, map[string]any{})
		if err != nil {
			t.Fatalf("failed to list contacts: %v", err)
		}

		want := []string{"Alan Hopper", "Grace Hopper", "Ada Lovelace"}
		for i, c := range retrieved {
			if c.FullName() != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], c.FullName())
			}
		}

		filtered, err := repo.List(ctx, map[string]any{"email": "ada@example.com"})
		if err != nil {
			t.Fatalf("failed to list filtered contacts: %v", err)
		}
		if len(filtered) != 1 {
			t.Errorf("expected 1 contact, got %d", len(filtered))
		}
	})
}

func TestCounterRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("creates at one then increments", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCounterRepository(db)

		if _, err := repo.Get(ctx, models.ClientCodeCounter); err == nil {
			t.Error("expected missing counter before first use")
		}

		for want := 1; want <= 3; want++ {
			got, err := repo.FetchAndIncrement(ctx, models.ClientCodeCounter)
			if err != nil {
				t.Fatalf("failed to increment: %v", err)
			}
			if got != want {
				t.Errorf("expected %d, got %d", want, got)
			}
		}

		counter, err := repo.Get(ctx, models.ClientCodeCounter)
		if err != nil {
			t.Fatalf("failed to get counter: %v", err)
		}
		if counter.SequenceValue != 3 {
			t.Errorf("expected sequence value 3, got %d", counter.SequenceValue)
		}
	})

	t.Run("counters are independent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCounterRepository(db)
		repo.FetchAndIncrement(ctx, "a")
		repo.FetchAndIncrement(ctx, "a")

		got, err := repo.FetchAndIncrement(ctx, "b")
		if err != nil {
			t.Fatalf("failed to increment: %v", err)
		}
		if got != 1 {
			t.Errorf("expected fresh counter to start at 1, got %d", got)
		}
	})

	t.Run("Set", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCounterRepository(db)
		if err := repo.Set(ctx, models.ClientCodeCounter, 5); err != nil {
			t.Fatalf("failed to set counter: %v", err)
		}

		got, err := repo.FetchAndIncrement(ctx, models.ClientCodeCounter)
		if err != nil {
			t.Fatalf("failed to increment: %v", err)
		}
		if got != 6 {
			t.Errorf("expected 6 after seeding 5, got %d", got)
		}
	})

	t.Run("two concurrent callers from five", func(t *testing.T) {
		db := setupFileDB(t)
		defer db.Close()

		repo := NewCounterRepository(db)
		if err := repo.Set(ctx, models.ClientCodeCounter, 5); err != nil {
			t.Fatalf("failed to set counter: %v", err)
		}

		var wg sync.WaitGroup
		got := make([]int, 2)
		errs := make([]error, 2)
		for i := range got {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got[i], errs[i] = repo.FetchAndIncrement(ctx, models.ClientCodeCounter)
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				t.Fatalf("increment failed: %v", err)
			}
		}

		sort.Ints(got)
		if got[0] != 6 || got[1] != 7 {
			t.Errorf("expected 6 and 7, got %v", got)
		}
	})

	t.Run("no lost updates under 50 concurrent callers", func(t *testing.T) {
		db := setupFileDB(t)
		defer db.Close()

		repo := NewCounterRepository(db)

		const n = 50
		var wg sync.WaitGroup
		values := make(chan int, n)
		errs := make(chan error, n)

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := repo.FetchAndIncrement(ctx, models.ClientCodeCounter)
				if err != nil {
					errs <- err
					return
				}
				values <- v
			}()
		}
		wg.Wait()
		close(values)
		close(errs)

		for err := range errs {
			t.Fatalf("increment failed: %v", err)
		}

		var got []int
		for v := range values {
			got = append(got, v)
		}
		sort.Ints(got)

		if len(got) != n {
			t.Fatalf("expected %d values, got %d", n, len(got))
		}
		for i, v := range got {
			if v != i+1 {
				t.Fatalf("expected values 1..%d without gaps or repeats, got %v", n, got)
			}
		}
	})
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("InTx commits", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		client := models.NewClient("Acme", "ACM001")
		contact := models.NewContact("Ada", "Lovelace", "ada@example.com")
		store.Clients.Create(ctx, client)
		store.Contacts.Create(ctx, contact)

		err := store.InTx(ctx, func(clients models.ClientStore, contacts models.ContactStore) error {
			if err := clients.AddContact(ctx, client.ID(), contact.ID()); err != nil {
				return err
			}
			return contacts.AddClient(ctx, contact.ID(), client.ID())
		})
		if err != nil {
			t.Fatalf("transaction failed: %v", err)
		}

		c, _ := store.Clients.Get(ctx, client.ID())
		k, _ := store.Contacts.Get(ctx, contact.ID())
		if !c.HasContact(contact.ID()) || !k.HasClient(client.ID()) {
			t.Error("expected both sides to be committed")
		}
	})

	t.Run("InTx rolls back", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		client := models.NewClient("Acme", "ACM001")
		store.Clients.Create(ctx, client)

		err := store.InTx(ctx, func(clients models.ClientStore, contacts models.ContactStore) error {
			if err := clients.AddContact(ctx, client.ID(), "k1"); err != nil {
				return err
			}
			return shared.ErrConnectivity
		})
		if err == nil {
			t.Fatal("expected transaction error")
		}

		c, _ := store.Clients.Get(ctx, client.ID())
		if c.HasContact("k1") {
			t.Error("expected client update to be rolled back")
		}
	})

	t.Run("Ping", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewStore(db)

		if err := store.Ping(ctx); err != nil {
			t.Errorf("expected ping to succeed: %v", err)
		}

		db.Close()
		if err := store.Ping(ctx); err == nil {
			t.Error("expected ping to fail on a closed database")
		}
	})
}

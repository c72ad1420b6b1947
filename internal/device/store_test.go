package device

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the devices table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// shared cache so the concurrency test's goroutines see one database
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE devices (
			id           TEXT PRIMARY KEY,
			access_token TEXT,
			stop_a       TEXT,
			stop_b       TEXT,
			stop_c       TEXT,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func strptr(s string) *string { return &s }

func TestSQLiteStore_GetOrCreate(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	t.Run("creates unconfigured device on first reference", func(t *testing.T) {
		d, err := store.GetOrCreate(ctx, "u1")
		if err != nil {
			t.Fatalf("GetOrCreate() error = %v", err)
		}
		if d.ID != "u1" {
			t.Errorf("ID = %q, want %q", d.ID, "u1")
		}
		if d.AccessToken != nil {
			t.Errorf("AccessToken = %v, want nil", *d.AccessToken)
		}
		if d.StopA != nil || d.StopB != nil || d.StopC != nil {
			t.Error("new device should have no configured stops")
		}
		if d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
			t.Error("timestamps should be set")
		}
	})

	t.Run("returns existing device unchanged", func(t *testing.T) {
		if err := store.UpdateStops(ctx, "u1", StopUpdate{StopA: strptr("01234")}); err != nil {
			t.Fatalf("UpdateStops() error = %v", err)
		}

		d, err := store.GetOrCreate(ctx, "u1")
		if err != nil {
			t.Fatalf("GetOrCreate() error = %v", err)
		}
		if d.StopA == nil || *d.StopA != "01234" {
			t.Errorf("StopA = %v, want %q", d.StopA, "01234")
		}
	})

	t.Run("rejects empty id", func(t *testing.T) {
		if _, err := store.GetOrCreate(ctx, ""); !errors.Is(err, ErrEmptyID) {
			t.Errorf("GetOrCreate(\"\") error = %v, want ErrEmptyID", err)
		}
	})

	t.Run("concurrent first-time calls create exactly one row", func(t *testing.T) {
		const workers = 10

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.GetOrCreate(ctx, "u-race"); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("concurrent GetOrCreate() error = %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM devices WHERE id = 'u-race'").Scan(&count); err != nil {
			t.Fatalf("counting rows: %v", err)
		}
		if count != 1 {
			t.Errorf("row count = %d, want 1", count)
		}
	})
}

func TestSQLiteStore_Upsert(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	t.Run("creates device with token when absent", func(t *testing.T) {
		if err := store.Upsert(ctx, "u1", "tok"); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		d, err := store.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if d.AccessToken == nil || *d.AccessToken != "tok" {
			t.Errorf("AccessToken = %v, want %q", d.AccessToken, "tok")
		}
	})

	t.Run("replay converges to same state without duplicates", func(t *testing.T) {
		if err := store.Upsert(ctx, "u1", "tok"); err != nil {
			t.Fatalf("replayed Upsert() error = %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM devices WHERE id = 'u1'").Scan(&count); err != nil {
			t.Fatalf("counting rows: %v", err)
		}
		if count != 1 {
			t.Errorf("row count = %d, want 1", count)
		}

		d, err := store.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if d.AccessToken == nil || *d.AccessToken != "tok" {
			t.Errorf("AccessToken = %v, want %q", d.AccessToken, "tok")
		}
	})

	t.Run("preserves configured stops on token refresh", func(t *testing.T) {
		if err := store.UpdateStops(ctx, "u1", StopUpdate{StopB: strptr("01219")}); err != nil {
			t.Fatalf("UpdateStops() error = %v", err)
		}
		if err := store.Upsert(ctx, "u1", "tok2"); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		d, err := store.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if d.StopB == nil || *d.StopB != "01219" {
			t.Errorf("StopB = %v, want %q", d.StopB, "01219")
		}
		if d.AccessToken == nil || *d.AccessToken != "tok2" {
			t.Errorf("AccessToken = %v, want %q", d.AccessToken, "tok2")
		}
	})

	t.Run("blank token stored as unset", func(t *testing.T) {
		if err := store.Upsert(ctx, "u2", ""); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		d, err := store.Get(ctx, "u2")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if d.AccessToken != nil {
			t.Errorf("AccessToken = %q, want nil", *d.AccessToken)
		}
	})
}

func TestSQLiteStore_UpdateStops(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	if _, err := store.GetOrCreate(ctx, "u1"); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	t.Run("applies only submitted fields", func(t *testing.T) {
		if err := store.UpdateStops(ctx, "u1", StopUpdate{
			StopA: strptr("01234"),
			StopC: strptr("02151"),
		}); err != nil {
			t.Fatalf("UpdateStops() error = %v", err)
		}

		d, err := store.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if d.StopA == nil || *d.StopA != "01234" {
			t.Errorf("StopA = %v, want %q", d.StopA, "01234")
		}
		if d.StopB != nil {
			t.Errorf("StopB = %q, want untouched nil", *d.StopB)
		}
		if d.StopC == nil || *d.StopC != "02151" {
			t.Errorf("StopC = %v, want %q", d.StopC, "02151")
		}
	})

	t.Run("blank submission clears to unset", func(t *testing.T) {
		if err := store.UpdateStops(ctx, "u1", StopUpdate{StopA: strptr("")}); err != nil {
			t.Fatalf("UpdateStops() error = %v", err)
		}

		d, err := store.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if d.StopA != nil {
			t.Errorf("StopA = %q, want nil after clearing", *d.StopA)
		}

		// Cleared slot resolves to the default again
		stops := d.ResolveStops(DefaultStops{A: "01109", B: "01219", C: "02151"})
		if stops[0] != "01109" {
			t.Errorf("resolved stop A = %q, want default %q", stops[0], "01109")
		}
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		before, err := store.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}

		if err := store.UpdateStops(ctx, "u1", StopUpdate{}); err != nil {
			t.Fatalf("empty UpdateStops() error = %v", err)
		}

		after, err := store.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !after.UpdatedAt.Equal(before.UpdatedAt) {
			t.Error("empty update should not refresh updated_at")
		}
	})

	t.Run("unknown id returns ErrDeviceNotFound", func(t *testing.T) {
		err := store.UpdateStops(ctx, "ghost", StopUpdate{StopA: strptr("01234")})
		if !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("UpdateStops() error = %v, want ErrDeviceNotFound", err)
		}
	})
}

func TestSQLiteStore_Delete(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	t.Run("removes existing device", func(t *testing.T) {
		if _, err := store.GetOrCreate(ctx, "u1"); err != nil {
			t.Fatalf("GetOrCreate() error = %v", err)
		}
		if err := store.Delete(ctx, "u1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := store.Get(ctx, "u1"); !errors.Is(err, ErrDeviceNotFound) {
			t.Errorf("Get() after delete error = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("unknown id is not an error", func(t *testing.T) {
		if err := store.Delete(ctx, "never-installed"); err != nil {
			t.Errorf("Delete() error = %v, want nil", err)
		}
	})
}

func TestResolveStops(t *testing.T) {
	def := DefaultStops{A: "01109", B: "01219", C: "02151"}

	d := &Device{StopB: strptr("83139")}
	stops := d.ResolveStops(def)

	want := [3]string{"01109", "83139", "02151"}
	if stops != want {
		t.Errorf("ResolveStops() = %v, want %v", stops, want)
	}
}

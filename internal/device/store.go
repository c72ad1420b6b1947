package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock)
// and enables handler testing without a database dependency.
//
// All mutating operations must be atomic per device ID: concurrent calls
// for the same ID may interleave in any order but must never produce
// duplicate rows or lost updates.
type Store interface {
	// Get retrieves a device by its installation ID.
	// Returns ErrDeviceNotFound if the device does not exist.
	Get(ctx context.Context, id string) (*Device, error)

	// GetOrCreate retrieves a device, creating an unconfigured record
	// first if none exists. Two concurrent first-time calls for the same
	// ID yield exactly one stored row.
	GetOrCreate(ctx context.Context, id string) (*Device, error)

	// Upsert creates the device if absent, or refreshes only its access
	// token and updated_at if present. Idempotent under webhook replay.
	Upsert(ctx context.Context, id, accessToken string) error

	// UpdateStops applies the provided subset of stop fields, leaving the
	// others untouched. Blank submissions are stored as unset. An empty
	// update is a no-op. Returns ErrDeviceNotFound for an unknown ID.
	UpdateStops(ctx context.Context, id string, update StopUpdate) error

	// Delete removes the device. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}

// SQLiteStore implements Store using SQLite.
//
// Per-ID atomicity comes from two layers: the single-connection pool
// configured in the database package, and conflict-target upserts so a
// create/update race resolves inside one statement.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed store.
// The db parameter should be an open SQLite connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get retrieves a device by its installation ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Device, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, access_token, stop_a, stop_b, stop_c, created_at, updated_at
		FROM devices
		WHERE id = ?`, id)

	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// GetOrCreate retrieves a device, seeding an unconfigured record if none
// exists. The insert ignores conflicts, so concurrent first-time calls
// for the same ID cannot create divergent rows.
func (s *SQLiteStore) GetOrCreate(ctx context.Context, id string) (*Device, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (id, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		id, now, now,
	); err != nil {
		return nil, fmt.Errorf("seeding device: %w", err)
	}

	return s.Get(ctx, id)
}

// Upsert creates the device if absent, or refreshes only the access token
// and updated_at if present.
func (s *SQLiteStore) Upsert(ctx context.Context, id, accessToken string) error {
	if id == "" {
		return ErrEmptyID
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (id, access_token, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			updated_at = excluded.updated_at`,
		id, nullableString(accessToken), now, now,
	); err != nil {
		return fmt.Errorf("upserting device: %w", err)
	}
	return nil
}

// UpdateStops applies only the submitted stop fields.
func (s *SQLiteStore) UpdateStops(ctx context.Context, id string, update StopUpdate) error {
	if id == "" {
		return ErrEmptyID
	}
	if update.IsEmpty() {
		return nil
	}

	// Build the SET clause from the fields actually submitted. A blank
	// submission clears the column to NULL rather than storing "".
	var (
		sets []string
		args []any
	)
	if update.StopA != nil {
		sets = append(sets, "stop_a = ?")
		args = append(args, nullableString(*update.StopA))
	}
	if update.StopB != nil {
		sets = append(sets, "stop_b = ?")
		args = append(args, nullableString(*update.StopB))
	}
	if update.StopC != nil {
		sets = append(sets, "stop_c = ?")
		args = append(args, nullableString(*update.StopC))
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339), id)

	query := fmt.Sprintf("UPDATE devices SET %s WHERE id = ?", strings.Join(sets, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating device stops: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Delete removes the device. Unknown IDs succeed silently: uninstall
// webhooks may be replayed after the row is already gone.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}
	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device row.
func scanDevice(scanner rowScanner) (*Device, error) {
	var d Device
	var accessToken, stopA, stopB, stopC sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(&d.ID, &accessToken, &stopA, &stopB, &stopC, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if accessToken.Valid {
		d.AccessToken = &accessToken.String
	}
	if stopA.Valid {
		d.StopA = &stopA.String
	}
	if stopB.Valid {
		d.StopB = &stopB.String
	}
	if stopC.Valid {
		d.StopC = &stopC.String
	}

	var parseErr error
	d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	d.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &d, nil
}

// nullableString returns a sql.NullString that stores blank values as NULL.
func nullableString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

package device

import (
	"time"
)

// Device is one TRMNL installation of the plugin.
// The hub assigns the ID at install time; everything else is configuration
// owned by this adapter.
type Device struct {
	// ID is the opaque installation UUID assigned by the hub.
	ID string `json:"id"`

	// AccessToken is the bearer token issued by the hub's authorization
	// server. It is informational: token presence or mismatch never gates
	// rendering.
	AccessToken *string `json:"-"`

	// StopA, StopB and StopC are the configured bus stop codes.
	// nil means "not configured" - the render pipeline substitutes the
	// system-wide default for that slot. Blank strings are never stored.
	StopA *string `json:"stop_a,omitempty"`
	StopB *string `json:"stop_b,omitempty"`
	StopC *string `json:"stop_c,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultStops holds the system-wide fallback stop codes from configuration.
type DefaultStops struct {
	A string
	B string
	C string
}

// ResolveStops returns the three effective stop codes for this device,
// falling back to the defaults for any unconfigured slot.
func (d *Device) ResolveStops(def DefaultStops) [3]string {
	return [3]string{
		stopOrDefault(d.StopA, def.A),
		stopOrDefault(d.StopB, def.B),
		stopOrDefault(d.StopC, def.C),
	}
}

func stopOrDefault(stop *string, def string) string {
	if stop == nil || *stop == "" {
		return def
	}
	return *stop
}

// StopUpdate is a partial update of a device's stop configuration.
// A nil field is left untouched; a non-nil field is applied, with blank
// values normalised to "unset" (stored as NULL, falls back to default).
type StopUpdate struct {
	StopA *string
	StopB *string
	StopC *string
}

// IsEmpty reports whether the update contains no fields.
func (u StopUpdate) IsEmpty() bool {
	return u.StopA == nil && u.StopB == nil && u.StopC == nil
}

// Package device provides the durable per-installation configuration
// store for busboard.
//
// Each TRMNL installation owns one Device record keyed by the opaque UUID
// the hub assigns at install time. Records hold the hub-issued access
// token and up to three configured bus stop codes; unconfigured slots are
// stored as NULL and fall back to system-wide defaults at render time.
//
// # Lifecycle
//
// A record is created on first reference - either the install-success
// webhook or the first render request for an unseen ID, whichever arrives
// first - and removed only by the uninstall webhook.
//
// # Concurrency
//
// Webhook and render handlers run concurrently. Store mutations are
// single-statement conflict-target upserts executed over the single
// SQLite connection, so concurrent operations on the same ID never
// produce duplicate rows or lost updates.
package device

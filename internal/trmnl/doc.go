// Package trmnl talks to the TRMNL hub's authorization server.
//
// It contains only the OAuth code-for-token exchange used during plugin
// installation. The exchange is treated as an opaque call that either
// succeeds or fails; no part of the adapter gates on its outcome.
package trmnl

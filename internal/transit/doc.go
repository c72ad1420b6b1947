// Package transit fetches and formats live bus arrival data from the
// LTA DataMall API.
//
// The Client turns one stop code into a Snapshot per render cycle, and
// Summarize turns a Snapshot into the fixed-width text block the display
// shows. Upstream failures never propagate as errors: they surface as a
// "No services." digest so a flaky API produces a stale-but-rendered
// screen instead of a blank device.
package transit

package transit

import (
	"fmt"
	"strings"
	"time"
)

// timePlaceholder is rendered for a missing or unparseable arrival time.
const timePlaceholder = "--"

// emptySummary is rendered when a snapshot holds no services.
const emptySummary = "No services."

// Summarize renders a snapshot as a fixed-width plain-text digest: one
// line per service, the service number right-aligned to three columns,
// then up to two formatted arrival times.
//
//	 12: 13:45 / 13:58
//	197: 13:47 / --
//
// At most limit services are included. A snapshot with no services
// (unconfigured stop or upstream failure) yields exactly "No services.".
// Summarize is pure: identical input produces byte-identical output,
// which matters because the text is embedded verbatim as preformatted
// markup.
func Summarize(snap Snapshot, limit int) string {
	services := snap.Services
	if len(services) > limit {
		services = services[:limit]
	}

	lines := make([]string, 0, len(services))
	for _, svc := range services {
		no := svc.No
		if no == "" {
			no = "?"
		}
		lines = append(lines, fmt.Sprintf("%3s: %s / %s",
			no,
			FormatArrival(svc.Next),
			FormatArrival(svc.Next2),
		))
	}

	if len(lines) == 0 {
		return emptySummary
	}
	return strings.Join(lines, "\n")
}

// FormatArrival extracts HH:MM (24-hour, in the timestamp's own offset)
// from an ISO-8601 arrival timestamp such as "2025-09-16T13:45:00+08:00".
//
// A nil or empty timestamp renders as "--". If parsing fails, a slice at
// a fixed offset from the end of the raw string is returned instead, so
// minor upstream format drift degrades to a best-effort value rather
// than an error.
func FormatArrival(iso *string) string {
	if iso == nil || *iso == "" {
		return timePlaceholder
	}

	if t, err := time.Parse(time.RFC3339, *iso); err == nil {
		return t.Format("15:04")
	}

	s := *iso
	if len(s) >= 8 {
		return s[len(s)-8 : len(s)-3]
	}
	return timePlaceholder
}

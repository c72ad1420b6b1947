package api

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wychoong/busboard/internal/transit"
)

// markupResponse carries one HTML variant per TRMNL layout slot. The
// hub picks the variant matching the space the plugin occupies on the
// device. The shared field is reserved by the hub contract and always
// empty here.
type markupResponse struct {
	Markup             string `json:"markup"`
	MarkupHalfHorizon  string `json:"markup_half_horizontal"`
	MarkupHalfVertical string `json:"markup_half_vertical"`
	MarkupQuadrant     string `json:"markup_quadrant"`
	Shared             string `json:"shared"`
}

// handleMarkup renders the arrival board for one device.
//
// The hub posts the device's user UUID either as a form field or as a
// JSON body, depending on how the plugin is configured. A bearer token
// mismatch against the stored token is logged but not enforced; the
// render must keep working for devices installed before token storage
// existed.
func (s *Server) handleMarkup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := userUUIDFromRequest(r)
	if err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if id == "" {
		writeBadRequest(w, "missing user_uuid")
		return
	}

	// Once a render is accepted it runs to completion: the hub may drop
	// the connection and re-poll, and a half-cancelled fetch round would
	// waste the upstream calls already in flight. The per-call client
	// timeout still bounds each fetch.
	ctx := context.WithoutCancel(r.Context())

	dev, err := s.store.GetOrCreate(ctx, id)
	if err != nil {
		s.logger.Error("failed to load device for render", "user_uuid", id, "error", err)
		writeInternalError(w, "failed to load device")
		return
	}

	if token := bearerToken(r); token != "" && dev.AccessToken != nil && *dev.AccessToken != token {
		s.logger.Warn("bearer token mismatch on render",
			"user_uuid", id,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	}

	stops := dev.ResolveStops(s.defaults)
	snapshots := s.fetchArrivals(ctx, stops)

	body := renderBoard(stops, snapshots, s.maxServices)
	writeJSON(w, http.StatusOK, markupResponse{
		Markup:             wrapView("full", body),
		MarkupHalfHorizon:  wrapView("half_horizontal", body),
		MarkupHalfVertical: wrapView("half_vertical", body),
		MarkupQuadrant:     wrapView("quadrant", body),
	})

	s.telemetry.WriteRenderMetric(id, time.Since(start))
}

// fetchArrivals queries all stops concurrently. Each slot fails
// independently; a dead upstream degrades one block of the board, not
// the whole render.
func (s *Server) fetchArrivals(ctx context.Context, stops [3]string) [3]transit.Snapshot {
	var snapshots [3]transit.Snapshot
	var wg sync.WaitGroup
	for i, stop := range stops {
		wg.Add(1)
		go func(i int, stop string) {
			defer wg.Done()
			fetchStart := time.Now()
			snapshots[i] = s.arrivals.Fetch(ctx, stop)
			s.telemetry.WriteFetchMetric(stop, time.Since(fetchStart), snapshots[i].Err != "")
		}(i, stop)
	}
	wg.Wait()
	return snapshots
}

// renderBoard builds the shared inner markup from per-stop summaries
// using the hub's design-system classes.
func renderBoard(stops [3]string, snapshots [3]transit.Snapshot, maxServices int) string {
	var blocks strings.Builder
	for i, stop := range stops {
		summary := transit.Summarize(snapshots[i], maxServices)
		fmt.Fprintf(&blocks, `
        <div class="content">
          <span class="label label--underline">Stop %s</span>
          <pre class="code">%s</pre>
        </div>
`, html.EscapeString(stop), html.EscapeString(summary))
	}

	return fmt.Sprintf(`
    <div class="layout">
      <div class="columns">
        <div class="column">
          <div class="markdown gap--large">
            <span class="title">SG Bus Timings</span>
            %s
            <span class="caption">Updated via LTA DataMall</span>
          </div>
        </div>
      </div>
    </div>
`, blocks.String())
}

// wrapView wraps the shared board markup in the view container for one
// layout slot.
func wrapView(variant, body string) string {
	return fmt.Sprintf("<div class='view view--%s'>%s</div>", variant, body)
}

// userUUIDFromRequest reads the user UUID from a form field or a JSON
// body. Form encoding is tried first; a JSON body is only parsed when
// the content type says so, since the hub sends one or the other.
func userUUIDFromRequest(r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var payload struct {
			UserUUID string `json:"user_uuid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return "", err
		}
		return payload.UserUUID, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.PostFormValue("user_uuid"), nil
}

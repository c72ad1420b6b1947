package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wychoong/busboard/internal/infrastructure/config"
)

// Client fetches live bus arrivals from the LTA DataMall API.
//
// Fetch never returns a Go error: upstream failures are folded into the
// snapshot's Err field so the render pipeline always has something to
// display. A slow upstream is bounded by the configured per-request
// timeout.
//
// Thread Safety: safe for concurrent use from multiple goroutines.
type Client struct {
	baseURL    string
	accountKey string
	httpClient *http.Client
}

// NewClient creates an arrivals client from configuration.
func NewClient(cfg config.LTAConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accountKey: cfg.AccountKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Fetch returns the arrival snapshot for a single stop code.
//
// A blank code means "no stop configured" and yields an empty snapshot
// without touching the network. Any upstream failure - transport error,
// non-2xx status, malformed body - is reported via Snapshot.Err with
// empty Services. No retries are attempted; one bad poll renders as
// "No services." and the next poll tries again.
func (c *Client) Fetch(ctx context.Context, stopCode string) Snapshot {
	snap := Snapshot{StopCode: stopCode}
	if stopCode == "" {
		return snap
	}

	reqURL := fmt.Sprintf("%s/BusArrivalv2?BusStopCode=%s", c.baseURL, url.QueryEscape(stopCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		snap.Err = fmt.Sprintf("building request: %v", err)
		return snap
	}
	req.Header.Set("AccountKey", c.accountKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		snap.Err = fmt.Sprintf("fetching arrivals: %v", err)
		return snap
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snap.Err = fmt.Sprintf("fetching arrivals: http %d", resp.StatusCode)
		return snap
	}

	var payload arrivalResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		snap.Err = fmt.Sprintf("decoding arrivals: %v", err)
		return snap
	}

	for _, svc := range payload.Services {
		s := Service{No: svc.ServiceNo}
		if svc.NextBus.EstimatedArrival != "" {
			arrival := svc.NextBus.EstimatedArrival
			s.Next = &arrival
		}
		if svc.NextBus2.EstimatedArrival != "" {
			arrival := svc.NextBus2.EstimatedArrival
			s.Next2 = &arrival
		}
		snap.Services = append(snap.Services, s)
	}

	return snap
}

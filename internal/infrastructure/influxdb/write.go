package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteFetchMetric records one upstream arrivals fetch.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - stopCode: Bus stop code that was queried
//   - duration: Wall time of the outbound call
//   - failed: Whether the fetch surfaced an upstream error
func (c *Client) WriteFetchMetric(stopCode string, duration time.Duration, failed bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"arrival_fetch",
		map[string]string{
			"stop_code": stopCode,
		},
		map[string]interface{}{
			"duration_ms": float64(duration.Milliseconds()),
			"failed":      failed,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteRenderMetric records one complete markup render cycle.
//
// Parameters:
//   - deviceID: Installation UUID the render was for
//   - duration: Wall time of the full render, including all fetches
func (c *Client) WriteRenderMetric(deviceID string, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"markup_render",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"duration_ms": float64(duration.Milliseconds()),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

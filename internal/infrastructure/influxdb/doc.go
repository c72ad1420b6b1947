// Package influxdb records optional render telemetry to InfluxDB v2.
//
// When enabled, the render pipeline reports per-stop fetch durations and
// whole-render timings. Telemetry is advisory: the package is built so a
// nil or disconnected client silently drops writes, and no render ever
// fails because of it.
package influxdb

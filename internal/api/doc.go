// Package api hosts the status HTTP server that runs alongside a crawl.
// Routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/run for the current or last run summary.
package api

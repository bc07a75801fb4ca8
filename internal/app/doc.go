// Package app provides application initialization and lifecycle
// management for the sales dashboard. It handles configuration
// loading, observability setup, service wiring and graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and OpenTelemetry
//	3. Create the cache and the Google Sheets client
//	4. Wire the dashboard and health services
//	5. Set up HTTP handlers and middleware
//	6. Configure the HTTP server
//
// Start then launches the refresh loop and the listener; Run blocks
// until SIGINT or SIGTERM and unwinds everything in reverse order.
package app

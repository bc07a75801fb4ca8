// Package services holds the business layer between the HTTP transport
// and the pure analytics engines. DashboardService owns the immutable
// sales snapshot, refreshes it from the spreadsheet source, and answers
// dashboard queries through the TTL cache. HealthService reports on the
// pieces the dashboard depends on.
package services

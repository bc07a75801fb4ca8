// Package exporter renders dashboard views as downloadable reports.
//
// Report builders turn a view into a flat header-plus-rows table; the
// table can then be streamed to an HTTP response or written to the
// exports directory as CSV (UTF-8 BOM for Excel) or JSON. CSVWriter
// and StreamWriter are the low-level file plumbing shared by both
// paths.
package exporter

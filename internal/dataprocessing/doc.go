// Package dataprocessing turns raw spreadsheet rows into canonical sales
// records. It owns the ingestion half of the pipeline: column coercion,
// the Saturday-Friday retail calendar, and local workbook reading.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Normalizer: coerces raw rows into SalesRecords. Rows that fail
// coercion are reported with machine-readable reason codes instead of
// being dropped.
//
// 2. Retail calendar: Saturday-Friday week arithmetic. Week 1 of a year
// starts on the Saturday on or before January 1, so the tail of December
// can belong to the next retail year.
//
// 3. Workbook reader: loads the same year-per-worksheet layout from a
// local XLSX file for offline report runs.
//
// # Usage
//
//	normalizer := dataprocessing.NewNormalizer(dataprocessing.DefaultNormalizerConfig())
//	dataset := normalizer.Normalize(rows, time.Now())
//	week := dataprocessing.WeekOf(dataset.Records[0].Date)
//
// Normalization never fails: malformed rows land in dataset.Unrecognized
// and everything else proceeds.
package dataprocessing

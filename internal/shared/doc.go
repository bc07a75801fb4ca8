// Package shared provides common utilities and test helpers used across the
// codebase. It serves as a central location for shared functionality that
// doesn't belong to any specific domain or architectural layer.
//
// # Structure
//
// The package is organized into the following components:
//
// - testutil: Testing utilities including fixtures, log capture, and assertions
//
// # Usage Guidelines
//
// This package should only contain:
//
// 1. Test utilities used by multiple packages
// 2. Generic helper functions with no domain-specific logic
// 3. Common constants or types used across packages
//
// It should NOT contain:
//
// 1. Business logic
// 2. Circular dependencies with other internal packages
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//	- Fixture generators for sales rows, records, and targets
//	- Workbook and credentials file builders for filesystem tests
//	- A buffered slog handler with log assertions
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    svc := NewService(logger)
//
//	    svc.Do(context.Background())
//
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "done")
//	}
package shared

// Package core defines the shared language of the SiteAudit system.
//
// This package contains:
//   - Scan records (FileRecord) and findings (Violation)
//   - The expectation table (Expectations, RegionSpec, MarkerSpec, ...)
//   - Severity and Category enumerations
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core

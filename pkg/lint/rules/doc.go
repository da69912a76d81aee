// Package rules provides the file-level consistency rules.
//
//   - PH01: Regional phone mismatch - phone differs from the region's canonical number
//   - MK01: Authority reversal missing - psychology marker absent from the page
//   - NV01: Navigation missing - no canonical navigation block
//   - NV02: Navigation duplicate - more than one navigation block
package rules

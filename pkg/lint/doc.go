// Package lint evaluates extracted page facts against the expectation table.
//
// # Architecture
//
//  1. Root package (pkg/lint/): rule contract, registry, config and the file Analyzer
//  2. File rules (pkg/lint/rules/): checks run once per scanned page
//  3. Site rules (pkg/lint/site/): checks run once per site root
//
// # Rule Registration
//
// Rules register themselves from init() when their package is imported:
//
//	import _ "github.com/leapstack-labs/siteaudit/pkg/lint/rules"
//
// # Rule Categories
//
//   - PH (Phone): regional phone consistency
//   - MK (Markers): required content markers
//   - NV (Navigation): navigation block presence and uniqueness
//   - BS (Build system): deployment artifacts under the site root
package lint

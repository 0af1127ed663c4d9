// Package sanitizer provides input normalization functions for user-supplied text.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// empty strings rather than errors.
//
// Normalization includes:
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Cities and districts: Trimmed and whitespace-collapsed for filter matching
//   - Search queries: Lowercased for aggregation so "Tel Aviv" and "tel aviv" count together
package sanitizer

// Package analysis holds the pure functions that turn enriched workshop items
// into findings: expansion compatibility, missing workshop dependencies, the
// diff against a previous submission, size estimation and categorization.
//
// Nothing here performs I/O or blocks. All functions are safe to call
// concurrently on shared, read-only inputs.
package analysis

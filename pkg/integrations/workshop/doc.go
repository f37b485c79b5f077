// Package workshop scrapes Steam Workshop item pages.
//
// Item pages are unversioned HTML with no stable schema, so every field is
// extracted by an ordered chain of heuristics where the first strategy that
// produces a value wins and a miss simply falls through:
//
//   - Name: title selectors, then the synthesized "Item <id>" label.
//   - Size: the stats panel, then a table of (pattern, unit, priority) text
//     patterns, then the static known-size table, then the long-lived size
//     store. Unresolved sizes stay nil.
//   - Dependencies: linked items and expansion names in the required-items
//     section, plus expansions the page text says are required.
//   - Expansions: mentions classified by three ordered phrase families
//     (required, optional, compatible); a name lands in the first family
//     that matches it and in no other.
//
// [Client.FetchItem] returns an error for non-200 responses and transport
// failures; callers substitute a placeholder. Parsed records, including ones
// with a synthesized name, are cached; failures are not.
package workshop

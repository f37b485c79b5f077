// Package report renders analysis output for people and for machines.
//
// # Formats
//
// [WriteJSON] and [WriteYAML] encode any JSON-taggable value. YAML output is
// produced from the JSON form so that both formats share field names:
//
//	err := report.Write(os.Stdout, report.FormatYAML, result)
//
// # Listings
//
// [TopBySize] orders items largest first and keeps the first n. Long names
// are shortened to [MaxNameLen] characters with a trailing "...":
//
//	l := report.TopBySize(result.Items, 30)
//	fmt.Print(l.Text())
//
// Items without a known size sort after every sized item and print as
// "Unknown".
package report

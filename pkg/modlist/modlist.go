// Package modlist extracts workshop item ids from uploaded mod list documents.
//
// Mod lists are usually launcher HTML presets, but pasted URL lists and plain
// text work too: ids are taken from workshop links first, then from any long
// bare number in the document text. The union is always kept.
package modlist

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MinTextDigits is the shortest bare number treated as a workshop id when it
// is not part of a link. Workshop ids are long; shorter numbers in a preset
// are version strings, sizes and dates.
const MinTextDigits = 9

var (
	linkRE = regexp.MustCompile(`filedetails/?\?(?:[^#\s"']*&)?id=(\d+)`)
	textRE = regexp.MustCompile(`\b\d{9,}\b`)
)

// linkAttrs are the attributes scanned for workshop links.
var linkAttrs = []string{"href", "data-href"}

// ExtractID returns the workshop id from an item URL.
func ExtractID(url string) (string, bool) {
	m := linkRE.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Parse returns the workshop ids referenced by doc in first-seen order, without
// duplicates. Link ids come first, followed by ids found only in text. A
// document without ids yields an empty (nil) slice. Bytes that are not
// valid UTF-8 are replaced before parsing.
func Parse(doc string) []string {
	var ids orderedSet

	doc = strings.ToValidUTF8(doc, "\uFFFD")

	text := doc
	if d, err := goquery.NewDocumentFromReader(strings.NewReader(doc)); err == nil {
		for _, attr := range linkAttrs {
			d.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
				if v, ok := s.Attr(attr); ok {
					if id, ok := ExtractID(v); ok {
						ids.add(id)
					}
				}
			})
		}
		text = d.Text()
	} else {
		for _, m := range linkRE.FindAllStringSubmatch(doc, -1) {
			ids.add(m[1])
		}
	}

	for _, id := range textRE.FindAllString(text, -1) {
		ids.add(id)
	}
	return ids.list
}

type orderedSet struct {
	seen map[string]bool
	list []string
}

func (s *orderedSet) add(id string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	s.list = append(s.list, id)
}

// Dedupe removes duplicates from ids, keeping first-seen order.
func Dedupe(ids []string) []string {
	var s orderedSet
	for _, id := range ids {
		s.add(id)
	}
	return s.list
}

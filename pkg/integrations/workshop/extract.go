package workshop

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jfahler/loadmasterbot/pkg/catalog"
	"github.com/jfahler/loadmasterbot/pkg/mod"
	"github.com/jfahler/loadmasterbot/pkg/modlist"
)

const maxDescriptionLen = 2000

// page is a parsed item page with its flattened text.
type page struct {
	id   string
	doc  *goquery.Document
	text string
}

func newPage(id string, doc *goquery.Document) *page {
	return &page{id: id, doc: doc, text: collapseSpace(doc.Text())}
}

var spaceRE = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
}

// =============================================================================
// Name
// =============================================================================

var nameSelectors = []string{
	".workshopItemTitle",
	".game_area_purchase_game h1",
	"title",
}

// titlePrefixes are stripped from the <title> fallback.
var titlePrefixes = []string{"Steam Workshop::", "Steam Community :: "}

func extractName(p *page) string {
	for _, sel := range nameSelectors {
		name := collapseSpace(p.doc.Find(sel).First().Text())
		for _, prefix := range titlePrefixes {
			name = strings.TrimSpace(strings.TrimPrefix(name, prefix))
		}
		if name != "" && !isGenericTitle(name) {
			return name
		}
	}
	return mod.PlaceholderName(p.id)
}

// isGenericTitle catches error and landing pages whose <title> says nothing
// about the item.
func isGenericTitle(name string) bool {
	switch strings.ToLower(name) {
	case "", "error", "steam community", "steam workshop":
		return true
	}
	return false
}

func extractDescription(p *page) string {
	d := collapseSpace(p.doc.Find(".workshopItemDescription").First().Text())
	if len(d) > maxDescriptionLen {
		d = strings.ToValidUTF8(d[:maxDescriptionLen], "")
	}
	return d
}

// =============================================================================
// Size
// =============================================================================

type sizeUnit int

const (
	unitGB sizeUnit = iota
	unitMB
	unitKB
)

// toGB converts with base 1024.
func (u sizeUnit) toGB(v float64) float64 {
	switch u {
	case unitMB:
		return v / 1024
	case unitKB:
		return v / (1024 * 1024)
	}
	return v
}

// sizePattern is one row of the text size table. Lower priority is tried
// first; the first capture group is the number.
type sizePattern struct {
	re       *regexp.Regexp
	unit     sizeUnit
	priority int
}

const (
	numberExpr = `(\d[\d,]*(?:\.\d+)?)`
	gbExpr     = `(?:GB|gigabytes?)`
	mbExpr     = `(?:MB|megabytes?)`
	kbExpr     = `(?:KB|kilobytes?)`
	labelExpr  = `(?:file\s+size|download\s+size|total\s+size|size)\s*:?\s*`
	suffixExpr = `\s*(?:is\s+)?(?:required|download|needed|of\s+(?:disk\s+)?space|on\s+disk)`
)

func pattern(expr string, unit sizeUnit, priority int) sizePattern {
	return sizePattern{re: regexp.MustCompile(`(?i)` + expr), unit: unit, priority: priority}
}

// sizePatterns is ordered by priority at init.
var sizePatterns = func() []sizePattern {
	ps := []sizePattern{
		// Labelled: "Size: 2.3 GB", "File size: 850 MB"
		pattern(labelExpr+numberExpr+`\s*`+gbExpr+`\b`, unitGB, 10),
		pattern(labelExpr+numberExpr+`\s*`+mbExpr+`\b`, unitMB, 11),
		pattern(labelExpr+numberExpr+`\s*`+kbExpr+`\b`, unitKB, 12),

		// Trailing keyword: "4 GB required", "900 MB download"
		pattern(numberExpr+`\s*`+gbExpr+suffixExpr, unitGB, 20),
		pattern(numberExpr+`\s*`+mbExpr+suffixExpr, unitMB, 21),

		// Leading keyword: "download of 3 GB", "requires 1.2 gigabytes"
		pattern(`(?:download(?:s)?|requires?)\s+(?:of\s+|about\s+|roughly\s+|around\s+)?`+numberExpr+`\s*`+gbExpr+`\b`, unitGB, 25),
		pattern(`(?:download(?:s)?|requires?)\s+(?:of\s+|about\s+|roughly\s+|around\s+)?`+numberExpr+`\s*`+mbExpr+`\b`, unitMB, 26),

		// Bare units anywhere.
		pattern(numberExpr+`\s*`+gbExpr+`\b`, unitGB, 30),
		pattern(numberExpr+`\s*`+mbExpr+`\b`, unitMB, 31),
		pattern(numberExpr+`\s*`+kbExpr+`\b`, unitKB, 32),
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].priority < ps[j].priority })
	return ps
}()

// sizeSelectors are the stats panel regions that hold the file size.
var sizeSelectors = []string{
	".detailsStatsContainerRight .detailsStatRight",
	".detailsStatRight",
	".workshopItemFileSize",
	"#fileSize",
}

func sizeFromSelectors(p *page) (float64, bool) {
	for _, sel := range sizeSelectors {
		var gb float64
		var found bool
		p.doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			gb, found = sizeFromText(collapseSpace(s.Text()))
			return !found
		})
		if found {
			return gb, true
		}
	}
	return 0, false
}

// sizeFromText returns the first positive size matched by the pattern table.
func sizeFromText(text string) (float64, bool) {
	for _, sp := range sizePatterns {
		for _, m := range sp.re.FindAllStringSubmatch(text, -1) {
			v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
			if err != nil || v <= 0 {
				continue
			}
			return sp.unit.toGB(v), true
		}
	}
	return 0, false
}

// =============================================================================
// Dependencies
// =============================================================================

var requiredSectionSelectors = "#RequiredItems, .requiredItemsContainer"

// extractDependencies collects workshop ids linked from the required-items
// section and the expansions the item relies on: those named in that
// section, those the page calls required, and any other expansion mentioned
// anywhere on the page unless it is only listed as compatible. Ids come
// first in page order, then expansion names in catalog order.
func extractDependencies(p *page, cat *catalog.Catalog, exp mod.Expansions) []string {
	var ids []string
	names := map[string]bool{}

	section := p.doc.Find(requiredSectionSelectors)
	section.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if id, ok := modlist.ExtractID(href); ok && id != p.id {
			ids = append(ids, id)
			return
		}
		// Required DLC links point at the store, not the workshop.
		if e, ok := cat.Match(collapseSpace(s.Text())); ok {
			names[e.Name] = true
		}
	})
	for _, e := range cat.Mentions(collapseSpace(section.Text())) {
		names[e.Name] = true
	}
	compatibleOnly := map[string]bool{}
	for _, n := range exp.Compatible {
		compatibleOnly[n] = true
	}
	for _, e := range cat.Mentions(p.text) {
		if !compatibleOnly[e.Name] {
			names[e.Name] = true
		}
	}
	for _, n := range exp.Required {
		names[n] = true
	}

	deps := modlist.Dedupe(ids)
	for _, e := range cat.Expansions {
		if names[e.Name] {
			deps = append(deps, e.Name)
		}
	}
	return deps
}

// =============================================================================
// Expansion requirement phrases
// =============================================================================

// Phrase families, tried in order. "%s" is replaced by an alternation of the
// expansion's name and keywords.
var phraseFamilies = [3][]string{
	// required
	{
		`requires?\s+(?:the\s+)?(?:creator\s+)?(?:c?dlc\s+)?%s`,
		`%s\s+(?:c?dlc\s+)?(?:is\s+)?(?:required|needed|mandatory)`,
		`needs?\s+(?:the\s+)?%s`,
		`depends\s+on\s+(?:the\s+)?%s`,
		`must\s+(?:own|have)\s+(?:the\s+)?%s`,
		`required\s+(?:c?dlc|expansions?)\s*:?\s*%s`,
	},
	// optional
	{
		`optional(?:ly)?\s*(?:c?dlc|support)?\s*:?\s*(?:for\s+)?(?:the\s+)?%s`,
		`%s\s+(?:c?dlc\s+)?(?:is\s+)?(?:optional|not\s+required|recommended)`,
		`recommended\s*:?\s*(?:the\s+)?%s`,
		`(?:extra|additional)\s+content\s+(?:for|with)\s+(?:the\s+)?%s`,
	},
	// compatible
	{
		`compatible\s+with\s+(?:the\s+)?%s`,
		`%s\s+compatib(?:le|ility)`,
		`works?\s+with\s+(?:the\s+)?%s`,
		`supports?\s+(?:the\s+)?%s`,
	},
}

type expansionPhrases struct {
	name     string
	families [3]*regexp.Regexp
}

// classifier buckets expansion mentions by phrase family. Built once per
// catalog; safe for concurrent use.
type classifier struct {
	expansions []expansionPhrases
}

func newClassifier(cat *catalog.Catalog) *classifier {
	c := &classifier{}
	for _, e := range cat.Expansions {
		alts := []string{phraseExpr(e.Name)}
		for _, k := range e.Keywords {
			alts = append(alts, phraseExpr(k))
		}
		target := `(?:` + strings.Join(alts, "|") + `)`

		ep := expansionPhrases{name: e.Name}
		for i, family := range phraseFamilies {
			exprs := make([]string, len(family))
			for j, f := range family {
				exprs[j] = strings.ReplaceAll(f, "%s", target)
			}
			ep.families[i] = regexp.MustCompile(`(?i)(?:` + strings.Join(exprs, "|") + `)`)
		}
		c.expansions = append(c.expansions, ep)
	}
	return c
}

// phraseExpr quotes s and lets any run of whitespace match its spaces.
func phraseExpr(s string) string {
	words := strings.Fields(regexp.QuoteMeta(s))
	return strings.Join(words, `\s+`)
}

// classify returns expansion names bucketed by the first family whose phrases
// mention them. Names are in catalog order within each bucket.
func (c *classifier) classify(text string) mod.Expansions {
	var out mod.Expansions
	for _, ep := range c.expansions {
		switch {
		case ep.families[0].MatchString(text):
			out.Required = append(out.Required, ep.name)
		case ep.families[1].MatchString(text):
			out.Optional = append(out.Optional, ep.name)
		case ep.families[2].MatchString(text):
			out.Compatible = append(out.Compatible, ep.name)
		}
	}
	return out
}

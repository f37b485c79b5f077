package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jfahler/loadmasterbot/pkg/analysis"
	"github.com/jfahler/loadmasterbot/pkg/mod"
	"github.com/jfahler/loadmasterbot/pkg/pipeline"
	"github.com/jfahler/loadmasterbot/pkg/report"
)

// outputOpts are the flags shared by commands that print a result.
type outputOpts struct {
	format string
	output string
}

// emit writes v in a machine format to stdout or, with --output, to a file.
// It reports false for the text format so the caller renders instead.
func (o outputOpts) emit(v any) (bool, error) {
	f, err := report.ParseFormat(o.format)
	if err != nil {
		return false, err
	}
	if o.output != "" {
		if f == report.FormatText {
			f = report.FormatJSON
		}
		if err := report.Export(o.output, f, v); err != nil {
			return false, err
		}
		printSuccess("Wrote %s report", f)
		printFile(o.output)
		return true, nil
	}
	if f == report.FormatText {
		return false, nil
	}
	return true, report.Write(stdout, f, v)
}

func formatGB(v float64) string {
	return StyleNumber.Render(fmt.Sprintf("%.1f GB", v))
}

func printAnalysis(r *pipeline.Result, top int) {
	printSuccess("Analyzed %d mods", r.TotalItems)
	printStats(r.TotalItems, r.FallbackCount, r.Stats.TotalTime)

	printSection("Download size")
	printKeyValue("Total", formatGB(r.Size.TotalGB))
	if r.Size.UnknownCount > 0 {
		printDetail("%d mods of unknown size estimated at %.1f GB each", r.Size.UnknownCount, r.Size.AverageGB)
	}

	printCompatibility(r.Compatibility)
	printRequirements(r.Requirements)
	printDiff(r.Diff)
	printCategories(r.Categories)

	printSection("Largest mods")
	fmt.Fprint(stdout, report.TopBySize(r.Items, top).Text())
}

func printCompatibility(c analysis.Compatibility) {
	printSection("Expansions")
	if len(c.Detected) > 0 {
		printKeyValue("Detected", strings.Join(c.Detected, ", "))
	}
	if !c.HasIssues {
		printSuccess("No expansion content missing")
		return
	}
	for _, name := range c.StillRequired {
		printWarning("%s is required but its compatibility data is not loaded", name)
		if by := c.RequiredBy[name]; len(by) > 0 {
			printDetail("needed by %s", strings.Join(by, ", "))
		}
	}
}

func printRequirements(r analysis.Requirements) {
	printSection("Dependencies")
	if r.AllMet {
		printSuccess("All workshop dependencies are in the list")
		return
	}
	for _, m := range r.Missing {
		printWarning("%s requires %s", m.ItemName, m.MissingID)
	}
}

func printDiff(d *analysis.Diff) {
	printSection("Changes")
	if d == nil {
		printInfo("No previous mod list on record")
		return
	}
	if !d.HasChanges {
		printInfo("Same mods as last time")
		return
	}
	printKeyValue("Added", fmt.Sprint(d.AddedCount))
	printKeyValue("Removed", fmt.Sprint(d.RemovedCount))
	printKeyValue("Unchanged", fmt.Sprint(d.UnchangedCount))
	for _, id := range d.Added {
		printDetail("+ %s", id)
	}
	for _, id := range d.Removed {
		printDetail("- %s", id)
	}
}

func printCategories(cats map[string][]string) {
	printSection("Categories")
	for _, name := range analysis.Categories {
		if n := len(cats[name]); n > 0 {
			printKeyValue(name, fmt.Sprint(n))
		}
	}
}

func printItem(m *mod.Metadata) {
	printKeyValue("Name", m.Name)
	printKeyValue("ID", m.ID)
	if m.URL != "" {
		printKeyValue("URL", StyleLink.Render(m.URL))
	}
	if m.HasSize() {
		printKeyValue("Size", formatGB(*m.SizeGB))
	} else {
		printKeyValue("Size", StyleDim.Render("unknown"))
	}
	if len(m.Dependencies) > 0 {
		printKeyValue("Requires", strings.Join(m.Dependencies, ", "))
	}
	if !m.Expansions.Empty() {
		printKeyValue("Expansions", expansionSummary(m.Expansions))
	}
}

func expansionSummary(e mod.Expansions) string {
	var parts []string
	add := func(label string, names []string) {
		if len(names) > 0 {
			sorted := append([]string(nil), names...)
			sort.Strings(sorted)
			parts = append(parts, label+": "+strings.Join(sorted, ", "))
		}
	}
	add("required", e.Required)
	add("optional", e.Optional)
	add("compatible", e.Compatible)
	return strings.Join(parts, "; ")
}

func printHistory(h *pipeline.History, top int) {
	printSuccess("Last upload on %s", h.Submission.CreatedAt.Local().Format("2006-01-02 15:04"))
	printKeyValue("Mods", fmt.Sprint(h.TotalItems))
	printKeyValue("Size", formatGB(h.Submission.TotalSizeGB))
	printDetail("Submission %s", h.Submission.ID)

	items := make(map[string]mod.Item, len(h.Items))
	for _, it := range h.Items {
		items[it.ID] = it
	}
	printSection("Largest mods")
	fmt.Fprint(stdout, report.TopBySize(items, top).Text())
}

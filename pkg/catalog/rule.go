package catalog

import "fmt"

// Rule selects how an expansion is considered installed.
type Rule string

const (
	// RuleCompanion: the expansion's compatibility item is in the list.
	RuleCompanion Rule = "companion"
	// RuleBaseIDs: any of the expansion's own workshop ids is in the list.
	RuleBaseIDs Rule = "base-ids"
)

// ParseRule validates a configured rule. Empty selects RuleCompanion.
func ParseRule(s string) (Rule, error) {
	switch Rule(s) {
	case "", RuleCompanion:
		return RuleCompanion, nil
	case RuleBaseIDs:
		return RuleBaseIDs, nil
	}
	return "", fmt.Errorf("unknown detection rule %q (want %q or %q)", s, RuleCompanion, RuleBaseIDs)
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if len(c.Expansions) != 7 {
		t.Fatalf("expected 7 expansions, got %d", len(c.Expansions))
	}
	gm, ok := c.Lookup("gm")
	if !ok {
		t.Fatal("gm expansion missing")
	}
	if gm.CompanionID != "1776428269" {
		t.Errorf("gm companion = %q", gm.CompanionID)
	}
	if len(gm.BaseIDs) != 1 || gm.BaseIDs[0] != "1808728802" {
		t.Errorf("gm base ids = %v", gm.BaseIDs)
	}
	if Default() != c {
		t.Error("Default should return the same catalog")
	}
}

func TestKnownSize(t *testing.T) {
	c := Default()
	if gb, ok := c.KnownSize("234567890"); !ok || gb != 2.1 {
		t.Errorf("KnownSize(234567890) = %v, %v", gb, ok)
	}
	if _, ok := c.KnownSize("111111111"); ok {
		t.Error("unexpected known size for 111111111")
	}
}

func TestMatch(t *testing.T) {
	c := Default()
	tests := []struct {
		token string
		want  string
	}{
		{"Global Mobilization", "gm"},
		{"global mobilization - cold war germany", "gm"},
		{"Requires the Global Mobilization CDLC", "gm"},
		{"S.O.G. Prairie Fire", "sog"},
		{"prairie fire", "sog"},
		{"CSLA", "csla"},
		{"Spearhead 1944", "spe"},
		{"western sahara", "ws"},
		{"Reaction Forces", "rf"},
		{"Expeditionary Forces", "ef"},
		{"GM", ""},
		{"463939057", ""},
		{"ACE3", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			e, ok := c.Match(tt.token)
			if tt.want == "" {
				if ok {
					t.Errorf("Match(%q) = %s, want no match", tt.token, e.Key)
				}
				return
			}
			if !ok {
				t.Fatalf("Match(%q) found nothing, want %s", tt.token, tt.want)
			}
			if e.Key != tt.want {
				t.Errorf("Match(%q) = %s, want %s", tt.token, e.Key, tt.want)
			}
		})
	}
}

func TestMentions(t *testing.T) {
	c := Default()
	got := c.Mentions("Works with Western Sahara. Needs S.O.G. Prairie Fire assets.")
	if len(got) != 2 {
		t.Fatalf("Mentions found %d expansions, want 2", len(got))
	}
	// Catalog order, not text order.
	if got[0].Key != "sog" || got[1].Key != "ws" {
		t.Errorf("Mentions = %s, %s", got[0].Key, got[1].Key)
	}
	if len(c.Mentions("a plain rifle pack")) != 0 {
		t.Error("unexpected mention")
	}
}

func TestDetectedIn(t *testing.T) {
	gm, _ := Default().Lookup("gm")

	companion := map[string]bool{"1776428269": true}
	base := map[string]bool{"1808728802": true}

	if !gm.DetectedIn(companion, RuleCompanion) {
		t.Error("companion rule should detect companion id")
	}
	if gm.DetectedIn(base, RuleCompanion) {
		t.Error("companion rule should ignore base ids")
	}
	if !gm.DetectedIn(base, RuleBaseIDs) {
		t.Error("base-ids rule should detect base id")
	}
	if gm.DetectedIn(companion, RuleBaseIDs) {
		t.Error("base-ids rule should ignore companion id")
	}
}

func TestParseRule(t *testing.T) {
	for in, want := range map[string]Rule{"": RuleCompanion, "companion": RuleCompanion, "base-ids": RuleBaseIDs} {
		got, err := ParseRule(in)
		if err != nil || got != want {
			t.Errorf("ParseRule(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseRule("both"); err == nil {
		t.Error("expected error for unknown rule")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	data := `
[[expansion]]
key = "x"
name = "Example Expansion"
companion_id = "42"

[known_sizes]
"7" = 0.5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Expansions) != 1 || c.Expansions[0].Name != "Example Expansion" {
		t.Errorf("Expansions = %+v", c.Expansions)
	}
	if gb, ok := c.KnownSize("7"); !ok || gb != 0.5 {
		t.Errorf("KnownSize(7) = %v, %v", gb, ok)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	if err != nil || c != Default() {
		t.Errorf("Load(\"\") = %p, %v; want Default()", c, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":    "[[expansion]\n",
		"no name":   "[[expansion]]\nkey = \"a\"\n",
		"duplicate": "[[expansion]]\nkey = \"a\"\nname = \"A\"\n[[expansion]]\nkey = \"a\"\nname = \"B\"\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestKeys(t *testing.T) {
	c := Default()
	want := []string{"csla", "ef", "gm", "rf", "sog", "spe", "ws"}
	got := c.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys = %v, want %v", got, want)
		}
		if _, ok := c.Lookup(got[i]); !ok {
			t.Errorf("Lookup(%q) failed for a listed key", got[i])
		}
	}
	if _, ok := c.Lookup("apex"); ok {
		t.Error("Lookup should miss unknown keys")
	}
}

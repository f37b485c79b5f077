package mod

import "testing"

type staticSizes map[string]float64

func (s staticSizes) KnownSize(id string) (float64, bool) {
	v, ok := s[id]
	return v, ok
}

func TestPlaceholder(t *testing.T) {
	sizes := staticSizes{"123456789": 1.2}

	m := Placeholder("111111111", "https://example.test/?id=", sizes)
	if m.Name != "Item 111111111" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.SizeGB != nil {
		t.Errorf("SizeGB = %v, want nil", *m.SizeGB)
	}
	if m.URL != "https://example.test/?id=111111111" {
		t.Errorf("URL = %q", m.URL)
	}
	if len(m.Dependencies) != 0 || !m.Expansions.Empty() {
		t.Error("placeholder should carry no dependencies or expansions")
	}

	known := Placeholder("123456789", "", sizes)
	if known.SizeGB == nil || *known.SizeGB != 1.2 {
		t.Errorf("SizeGB = %v, want 1.2 from static table", known.SizeGB)
	}
	if known.URL != "" {
		t.Errorf("URL = %q, want empty without base", known.URL)
	}
}

func TestPlaceholderNilSizes(t *testing.T) {
	m := Placeholder("1", "", nil)
	if m.HasSize() {
		t.Error("nil lookup should leave size unknown")
	}
}

func TestItemStatus(t *testing.T) {
	ok := OK(Metadata{ID: "1", Name: "A"})
	if ok.IsFallback() || ok.Reason != "" {
		t.Errorf("OK item = %+v", ok)
	}

	fb := Fallback(Placeholder("2", "", nil), "status 503")
	if !fb.IsFallback() {
		t.Error("Fallback item should report IsFallback")
	}
	if fb.Reason != "status 503" {
		t.Errorf("Reason = %q", fb.Reason)
	}
	if fb.ID != "2" {
		t.Errorf("embedded metadata not promoted, ID = %q", fb.ID)
	}
}

package menu

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDecode_FlexibleFormat verifies the list format loads in order with
// blank values filtered out.
func TestDecode_FlexibleFormat(t *testing.T) {
	src := `
menus:
  - title: Age
    values: ["Young", "Adult", "", "Senior"]
  - title: Mood
    values: ["Calm", "Wild"]
`
	menus, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(menus) != 2 {
		t.Fatalf("expected 2 menus, got %d", len(menus))
	}
	if menus[0].Title != "Age" || len(menus[0].Values) != 3 {
		t.Errorf("menu 0: got %+v", menus[0])
	}
	if menus[0].Values[2] != "Senior" {
		t.Errorf("blank value not filtered: %v", menus[0].Values)
	}
	if menus[1].Title != "Mood" {
		t.Errorf("menu order lost: %+v", menus[1])
	}
}

// TestDecode_FlexibleRejectsBadInput covers flexible-format validation.
func TestDecode_FlexibleRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"empty list", "menus: []", "no menus"},
		{"missing title", "menus:\n  - values: [a, b]", "no title"},
		{"all blank values", "menus:\n  - title: Age\n    values: [\"\", \"\"]", "no non-blank"},
		{"unknown field", "menus:\n  - title: Age\n    values: [a]\n    extra: 1", ""},
	}
	for _, tc := range cases {
		_, err := Decode([]byte(tc.src))
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if tc.want != "" && !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

// TestDecode_LegacyFormat verifies the six-channel fixed format loads in
// channel order, blanks kept for positional knob mapping.
func TestDecode_LegacyFormat(t *testing.T) {
	var b strings.Builder
	titles := map[string]string{
		"CH0": "Subject", "CH1": "Age", "CH2": "Mood",
		"CH4": "Style", "CH5": "Light", "CH6": "Season",
	}
	for ch, title := range titles {
		b.WriteString(ch + ":\n  title: " + title + "\n  values: [a, b, c, d, e, f, g, h, i, j, k, \"\"]\n")
	}

	menus, err := Decode([]byte(b.String()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(menus) != 6 {
		t.Fatalf("expected 6 menus, got %d", len(menus))
	}
	want := []string{"Subject", "Age", "Mood", "Style", "Light", "Season"}
	for i, m := range menus {
		if m.Title != want[i] {
			t.Errorf("menu %d: expected %q, got %q", i, want[i], m.Title)
		}
		if len(m.Values) != LegacyValueCount {
			t.Errorf("menu %d: expected %d values, got %d", i, LegacyValueCount, len(m.Values))
		}
	}
}

// TestDecode_LegacyRejectsBadInput covers the fixed-format validation.
func TestDecode_LegacyRejectsBadInput(t *testing.T) {
	missing := `
CH0: {title: A, values: [a, b, c, d, e, f, g, h, i, j, k, l]}
CH1: {title: B, values: [a, b, c, d, e, f, g, h, i, j, k, l]}
`
	if _, err := Decode([]byte(missing)); err == nil || !strings.Contains(err.Error(), "missing channel") {
		t.Errorf("expected missing channel error, got %v", err)
	}

	short := `
CH0: {title: A, values: [a, b]}
CH1: {title: B, values: [a, b, c, d, e, f, g, h, i, j, k, l]}
CH2: {title: C, values: [a, b, c, d, e, f, g, h, i, j, k, l]}
CH4: {title: D, values: [a, b, c, d, e, f, g, h, i, j, k, l]}
CH5: {title: E, values: [a, b, c, d, e, f, g, h, i, j, k, l]}
CH6: {title: F, values: [a, b, c, d, e, f, g, h, i, j, k, l]}
`
	if _, err := Decode([]byte(short)); err == nil || !strings.Contains(err.Error(), "12") {
		t.Errorf("expected value count error, got %v", err)
	}
}

// TestLoadFile_RoundTrip verifies the file loader reads the flexible format
// from disk.
func TestLoadFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menus.yaml")
	src := "menus:\n  - title: Age\n    values: [Young, Adult]\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	menus, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(menus) != 1 || menus[0].Title != "Age" {
		t.Errorf("got %+v", menus)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

package persona

import (
	"strings"
	"testing"
)

func TestParseCatalogOverrideAndExtend(t *testing.T) {
	doc := `
personalities:
  - key: pirate
    name: Captain Morgan
    traits: A retired privateer who collects maps.
    humor: 9
  - key: librarian
    name: Quiet Archivist
    traits: You whisper and cite sources.
    humor: 2
tones:
  - key: deadpan
    instruction: Flat delivery, no exclamation marks.
scenes:
  - key: museum
    description: Natural history museum atrium.
`
	cat, err := ParseCatalog([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	if got := cat.Profile("pirate"); got.Name != "Captain Morgan" || got.HumorBaseline != 9 {
		t.Errorf("Profile(pirate) = %+v, want override", got)
	}
	if got := cat.Profile("librarian").HumorBaseline; got != 2 {
		t.Errorf("Profile(librarian).HumorBaseline = %d, want 2", got)
	}
	if got := cat.Profile("friendly_default").Name; got != "Friendly Host" {
		t.Errorf("Profile(friendly_default).Name = %q, want built-in", got)
	}
	if got := cat.Tone("deadpan").Instruction; !strings.HasPrefix(got, "Flat delivery") {
		t.Errorf("Tone(deadpan).Instruction = %q", got)
	}
	if got := cat.Scene("museum").Description; got != "Natural history museum atrium." {
		t.Errorf("Scene(museum).Description = %q", got)
	}
	// The built-in catalog itself stays untouched.
	if got := Builtin().Profile("pirate").Name; got != "Captain Rusty" {
		t.Errorf("Builtin().Profile(pirate).Name = %q, built-in catalog mutated", got)
	}
}

func TestParseCatalogEmptyDocument(t *testing.T) {
	cat, err := ParseCatalog(nil)
	if err != nil {
		t.Fatalf("ParseCatalog(nil): %v", err)
	}
	if got := cat.Profile("garfield").Name; got != "Garfield-inspired Host" {
		t.Errorf("Profile(garfield).Name = %q, want built-in", got)
	}
}

func TestParseCatalogRejectsUnknownFields(t *testing.T) {
	if _, err := ParseCatalog([]byte("personas: []\n")); err == nil {
		t.Error("expected error for unknown top-level field")
	}
}

func TestParseCatalogValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing key", "personalities:\n  - name: Ghost\n    humor: 5\n"},
		{"missing name", "personalities:\n  - key: ghost\n    humor: 5\n"},
		{"humor too low", "personalities:\n  - key: ghost\n    name: Ghost\n    humor: 0\n"},
		{"humor too high", "personalities:\n  - key: ghost\n    name: Ghost\n    humor: 11\n"},
		{"tone missing key", "tones:\n  - instruction: whatever\n"},
		{"scene missing key", "scenes:\n  - description: somewhere\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tt.doc)); err == nil {
				t.Errorf("ParseCatalog(%q) expected error", tt.doc)
			}
		})
	}
}

package persona

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultPackParsesAndValidates(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatalf("embedded pack failed to parse: %v", err)
	}
	if p.Name != "miss-tristin" {
		t.Errorf("unexpected pack name %q", p.Name)
	}
	if len(p.Canned) == 0 {
		t.Fatal("embedded pack has no canned responses")
	}
	if p.Prompts.Short == "" || p.Prompts.Long == "" {
		t.Error("embedded pack is missing system prompts")
	}
	if p.Replies.InvalidInput == "" || p.Replies.Throttled == "" ||
		p.Replies.DefinitionNotFound == "" || p.Replies.DefinitionSuffix == "" {
		t.Error("embedded pack is missing fixed replies")
	}
}

func TestRespond_DrawsOnlyFromVariants(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	variants := map[string]struct{}{}
	for _, v := range p.Canned["hi"] {
		variants[v] = struct{}{}
	}

	for i := 0; i < 20; i++ {
		got, ok := p.Respond("hi")
		if !ok {
			t.Fatal("Respond returned false for known key")
		}
		if _, known := variants[got]; !known {
			t.Fatalf("Respond produced %q, not a variant of key \"hi\"", got)
		}
	}
}

func TestRespond_UnknownKey(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Respond("no such key"); ok {
		t.Error("Respond should return false for unknown keys")
	}
}

func TestRespond_RendersDynamicPlaceholders(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.Date(2026, 3, 1, 15, 4, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	got, ok := p.Respond("time")
	if !ok {
		t.Fatal("time key missing from default pack")
	}
	if !strings.Contains(got, "3:04 PM") {
		t.Errorf("time reply %q should contain the rendered clock", got)
	}

	got, ok = p.Respond("date")
	if !ok {
		t.Fatal("date key missing from default pack")
	}
	if !strings.Contains(got, "March 1, 2026") {
		t.Errorf("date reply %q should contain the rendered date", got)
	}
}

func TestFallback_DrawsFromConfiguredLines(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	lines := map[string]struct{}{}
	for _, f := range p.Fallbacks {
		lines[f] = struct{}{}
	}
	for i := 0; i < 10; i++ {
		if _, known := lines[p.Fallback()]; !known {
			t.Fatal("Fallback produced a line not in the pack")
		}
	}
}

func TestParse_RejectsInvalidPacks(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing prompts",
			doc: `
name: broken
replies:
  invalid_input: "a"
  throttled: "b"
  definition_not_found: "c"
fallbacks: ["x"]
canned:
  hi: ["hey"]
`,
		},
		{
			name: "empty variant list",
			doc: `
name: broken
prompts: {short: "s", long: "l"}
replies:
  invalid_input: "a"
  throttled: "b"
  definition_not_found: "c"
fallbacks: ["x"]
canned:
  hi: []
`,
		},
		{
			name: "no fallbacks",
			doc: `
name: broken
prompts: {short: "s", long: "l"}
replies:
  invalid_input: "a"
  throttled: "b"
  definition_not_found: "c"
fallbacks: []
canned:
  hi: ["hey"]
`,
		},
		{
			name: "not yaml",
			doc:  "{{{{",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestKeys_CoversCannedTable(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	keys := p.Keys()
	if len(keys) != len(p.Canned) {
		t.Fatalf("Keys() returned %d keys for %d canned entries", len(keys), len(p.Canned))
	}
	for _, k := range keys {
		if _, ok := p.Canned[k]; !ok {
			t.Errorf("Keys() produced %q which is not in the table", k)
		}
	}
}

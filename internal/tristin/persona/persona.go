// Package persona holds every piece of authored text the gateway speaks:
// the canned-response table, the completion fallback lines, the fixed
// replies for validation/throttle/not-found outcomes, and the two system
// prompts for the completion call.
//
// A default pack ships embedded in the binary; operators may override it
// with their own YAML file. Either way the decoded document is validated
// against the embedded JSON schema before use, so a malformed pack fails
// at startup rather than mid-conversation.
package persona

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed pack.yaml
var defaultPack []byte

//go:embed schema.json
var schemaJSON string

// packSchema validates decoded persona documents.
var packSchema = jsonschema.MustCompileString("persona-pack.schema.json", schemaJSON)

// Prompts are the system prompts for the completion call, chosen by the
// classifier's routing decision.
type Prompts struct {
	// Short is the terse, small-budget instruction.
	Short string `yaml:"short"`
	// Long is the detailed, large-budget instruction.
	Long string `yaml:"long"`
}

// Replies are the fixed single-variant replies for non-completion outcomes.
type Replies struct {
	InvalidInput       string `yaml:"invalid_input"`
	Throttled          string `yaml:"throttled"`
	DefinitionNotFound string `yaml:"definition_not_found"`
	DefinitionSuffix   string `yaml:"definition_suffix"`
}

// Pack is a validated persona document.
type Pack struct {
	Name      string              `yaml:"name"`
	Prompts   Prompts             `yaml:"prompts"`
	Replies   Replies             `yaml:"replies"`
	Fallbacks []string            `yaml:"fallbacks"`
	Canned    map[string][]string `yaml:"canned"`

	now func() time.Time // injectable clock for {{time}}/{{date}} rendering
}

// Default returns the embedded persona pack.
func Default() (*Pack, error) {
	return Parse(defaultPack)
}

// Load reads and parses an operator-supplied persona pack from path.
func Load(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persona: read pack: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("persona: pack %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a persona YAML document, validates it against the pack
// schema, and returns the resulting Pack. It is the canonical entry point
// for loading persona documents.
func Parse(data []byte) (*Pack, error) {
	// Decode once into a generic document for schema validation. The
	// JSON round-trip normalizes YAML scalar types into the shapes the
	// schema validator expects.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("persona parse: %w", err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("persona parse: %w", err)
	}
	var instance any
	if err := json.Unmarshal(normalized, &instance); err != nil {
		return nil, fmt.Errorf("persona parse: %w", err)
	}
	if err := packSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("persona validate: %w", err)
	}

	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("persona parse: %w", err)
	}
	p.now = time.Now
	return &p, nil
}

// Keys returns the canned-table keys for classifier construction.
func (p *Pack) Keys() []string {
	keys := make([]string, 0, len(p.Canned))
	for k := range p.Canned {
		keys = append(keys, k)
	}
	return keys
}

// Respond picks a uniformly random variant for the given canned key and
// renders any dynamic placeholders. Returns false for an unknown key.
func (p *Pack) Respond(key string) (string, bool) {
	variants, ok := p.Canned[key]
	if !ok || len(variants) == 0 {
		return "", false
	}
	return p.render(variants[rand.IntN(len(variants))]), true
}

// Fallback returns a random completion-failure line. These keep the bot
// in character when the upstream service is unavailable.
func (p *Pack) Fallback() string {
	return p.Fallbacks[rand.IntN(len(p.Fallbacks))]
}

// render expands {{time}} and {{date}} placeholders at reply time, so
// dynamic canned replies always reflect the current clock.
func (p *Pack) render(s string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	now := p.now()
	s = strings.ReplaceAll(s, "{{time}}", now.Format("3:04 PM"))
	s = strings.ReplaceAll(s, "{{date}}", now.Format("January 2, 2006"))
	return s
}

package mind

import (
	"strings"

	"gopkg.in/yaml.v3"

	"reverie/internal/types"
)

// ExtractTraitScores pulls a structured trait analysis out of free-form
// model output. It prefers a fenced ```yaml block; when the model omits the
// fence the whole text is tried as YAML. Malformed content yields (nil,
// false), never an error: the extractor is a total function and the caller
// treats absence of a result as a recoverable condition.
//
// No schema validation happens here. Trait names, score ranges, and
// required sub-fields are a data-quality concern, not a parsing one.
func ExtractTraitScores(text string) (*types.TraitScores, bool) {
	payload := fencedPayload(text)
	if payload == "" {
		return nil, false
	}

	var traits types.TraitScores
	if err := yaml.Unmarshal([]byte(payload), &traits); err != nil {
		return nil, false
	}
	return &traits, true
}

// fencedPayload returns the contents of the first fenced code block, or the
// whole text when no complete fence is present. Handles ```yaml, ```yml,
// and bare ``` fences.
func fencedPayload(text string) string {
	for _, tag := range []string{"```yaml", "```yml", "```"} {
		start := strings.Index(text, tag)
		if start < 0 {
			continue
		}
		body := text[start+len(tag):]
		end := strings.Index(body, "```")
		if end < 0 {
			continue
		}
		return strings.TrimSpace(body[:end])
	}
	return strings.TrimSpace(text)
}

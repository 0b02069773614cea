// Package lang normalizes caption language codes and produces human labels.
//
// All language conversions are consolidated here so the orchestrator, track
// model, and CLI render codes the same way.
package lang

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalize parses value as a BCP 47 tag or bare ISO code and returns the
// canonical lowercase base code (e.g. "en-US" -> "en", "FRA" -> "fr").
func Normalize(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	return strings.ToLower(base.String()), true
}

// NormalizeAll normalizes a list of codes, dropping duplicates and anything
// unparseable while preserving first-seen order.
func NormalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		code, ok := Normalize(value)
		if !ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

// DisplayName returns the English display name for a language code, or the
// code itself when no name is known.
func DisplayName(code string) string {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return code
	}
	return name
}

// Label builds the caption track label shown to users.
func Label(code string, original bool) string {
	name := DisplayName(code)
	if original {
		return name + " (Original)"
	}
	return name
}

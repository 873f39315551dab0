// Package assistant interprets free-text CRM commands with an ordered chain of
// deterministic classifiers and renders the result for the in-app assistant UI.
package assistant

import (
	"regexp"
	"strings"
)

var (
	disallowedChars = regexp.MustCompile(`[^a-z0-9@.\s]+`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// Normalize lowercases raw and replaces everything outside [a-z0-9@.\s] with a
// space before collapsing whitespace. Emails and phone digits survive intact.
func Normalize(raw string) string {
	s := strings.ToLower(raw)
	s = disallowedChars.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// LightNormalize lowercases and collapses whitespace without stripping anything.
func LightNormalize(raw string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(raw), " "))
}

// Utterance keeps every normalization level of one prompt side by side.
// Name extraction reads Raw because it depends on capitalization.
type Utterance struct {
	Raw   string
	Light string
	Norm  string
}

func NewUtterance(raw string) Utterance {
	raw = strings.TrimSpace(raw)
	return Utterance{
		Raw:   raw,
		Light: LightNormalize(raw),
		Norm:  Normalize(raw),
	}
}

// Words returns the normalized tokens.
func (u Utterance) Words() []string {
	return strings.Fields(u.Norm)
}

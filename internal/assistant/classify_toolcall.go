package assistant

import (
	"regexp"
	"strconv"
	"strings"
)

const defaultSearchLimit = 10

var (
	toolTriggerPattern = regexp.MustCompile(`\b(search|find|look up)\s+leads\b`)

	// Tried in order against the raw prompt; the first non-empty query wins.
	// The first pattern is the quoted form, whose capture is used verbatim.
	toolQueryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:for|named|with)\s+["“']([^"”']+)["”']`),
		regexp.MustCompile(`(?i)\b(?:for|named|with)\s+(.+)$`),
		regexp.MustCompile(`(?i)\bleads\s+(.+)$`),
	}

	statusModifierPattern = regexp.MustCompile(`(?i)\bstatus\s+(?:is\s+|of\s+|=\s*)?([a-z]+)\b`)
	// Bare status words at the edges of an unquoted phrase count only in lowercase;
	// "Lost Creek Farms" is a name, "new Initech" is a filter.
	leadingStatusPattern  = regexp.MustCompile(`^(unqualified|qualified|contacted|converted|lost|new)(?:\s+|$)`)
	trailingStatusPattern = regexp.MustCompile(`(?:^|\s+)(unqualified|qualified|contacted|converted|lost|new)$`)
	topNModifierPattern   = regexp.MustCompile(`(?i)\b(?:top|last|first)\s+(\d+)\b`)
	queryConnectorPrefix  = regexp.MustCompile(`(?i)^(?:for|named|with|called|and|leads?)\b\s*`)
	queryConnectorSuffix  = regexp.MustCompile(`(?i)\s*\b(?:for|named|with|and|in|of)$`)
)

var leadStatuses = map[string]bool{
	"new": true, "contacted": true, "qualified": true, "unqualified": true, "converted": true, "lost": true,
}

func classifyToolCall(u Utterance, h Hints) (Intent, bool) {
	if !toolTriggerPattern.MatchString(u.Norm) {
		return nil, false
	}
	for i, p := range toolQueryPatterns {
		loc := p.FindStringSubmatchIndex(u.Raw)
		if loc == nil {
			continue
		}
		captured := u.Raw[loc[2]:loc[3]]
		var args ToolArgs
		if i == 0 {
			args = parseSearchModifiers(u.Raw[loc[1]:])
			args.Query = tidySearchPhrase(captured)
		} else {
			args = parseSearchModifiers(captured)
		}
		if args.Query == "" {
			continue
		}
		if args.Limit == 0 {
			args.Limit = h.TopN
		}
		return ToolCall{Tool: searchLeadsTool, Args: args}, true
	}
	return nil, false
}

// parseSearchModifiers strips status and top-N modifiers out of a search phrase.
func parseSearchModifiers(phrase string) ToolArgs {
	var args ToolArgs
	if m := topNModifierPattern.FindStringSubmatch(phrase); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			n = maxTopN
		}
		args.Limit = clamp(n, 1, maxTopN)
		phrase = topNModifierPattern.ReplaceAllString(phrase, " ")
	}
	if m := statusModifierPattern.FindStringSubmatch(phrase); m != nil && leadStatuses[strings.ToLower(m[1])] {
		args.Status = strings.ToLower(m[1])
		phrase = statusModifierPattern.ReplaceAllString(phrase, " ")
	}
	phrase = tidySearchPhrase(phrase)
	if args.Status == "" {
		for _, p := range []*regexp.Regexp{leadingStatusPattern, trailingStatusPattern} {
			if m := p.FindStringSubmatch(phrase); m != nil {
				args.Status = m[1]
				phrase = tidySearchPhrase(p.ReplaceAllString(phrase, " "))
				break
			}
		}
	}
	args.Query = phrase
	return args
}

func tidySearchPhrase(phrase string) string {
	phrase = strings.Join(strings.Fields(phrase), " ")
	for {
		trimmed := strings.Trim(phrase, ` "“”'.,;:?!`)
		trimmed = queryConnectorPrefix.ReplaceAllString(trimmed, "")
		trimmed = queryConnectorSuffix.ReplaceAllString(trimmed, "")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == phrase {
			return phrase
		}
		phrase = trimmed
	}
}

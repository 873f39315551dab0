package assistant

import "regexp"

const (
	defaultListLimit  = 5
	nameListLimit     = 10
	allNamesListLimit = 20
)

var (
	countTriggerPattern = regexp.MustCompile(`\b(how many|count of|count|number of|total)\b`)
	listTriggerPattern  = regexp.MustCompile(`\b(tell me|summarize|list|what are|give me|show list of|who are)\b`)
	namesPattern        = regexp.MustCompile(`\bnames\b|\bwho are\b`)
	allNamesPattern     = regexp.MustCompile(`\ball\b.*\bnames\b|\bnames\b.*\ball\b`)
)

func hasInfoTrigger(norm string) bool {
	return countTriggerPattern.MatchString(norm) || listTriggerPattern.MatchString(norm)
}

func classifyInformational(u Utterance, h Hints) (Intent, bool) {
	if h.RecordType == "" {
		return nil, false
	}
	// "tell me the phone of lead John Doe" is a person question, not a list.
	if phoneKeywordPattern.MatchString(u.Norm) && h.PersonName() != "" {
		return nil, false
	}
	if countTriggerPattern.MatchString(u.Norm) {
		return CountQuery{Entity: h.RecordType}, true
	}
	if listTriggerPattern.MatchString(u.Norm) {
		return ListQuery{Entity: h.RecordType, Limit: listLimit(u.Norm, h.TopN)}, true
	}
	return nil, false
}

func listLimit(norm string, topN int) int {
	switch {
	case topN > 0:
		return clamp(topN, 1, maxTopN)
	case allNamesPattern.MatchString(norm):
		return allNamesListLimit
	case namesPattern.MatchString(norm):
		return nameListLimit
	default:
		return defaultListLimit
	}
}

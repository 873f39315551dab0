package assistant

import "regexp"

const shortCommandMaxWords = 3

var (
	navVerbPattern  = regexp.MustCompile(`\b(go to|show me|take me to|navigate to|view|see)\b`)
	openVerbPattern = regexp.MustCompile(`\bopen\b`)
	// CRUD phrasing vetoes navigation. "new " and "log " need the trailing space.
	creationVerbPattern = regexp.MustCompile(`\b(create|add|schedule|update|make)\b|\bnew\s|\blog\s`)
)

func navigationClassifier(catalog *PageCatalog) func(Utterance, Hints) (Intent, bool) {
	return func(u Utterance, h Hints) (Intent, bool) {
		page, ok := catalog.Match(u.Norm)
		if !ok || creationVerbPattern.MatchString(u.Norm) {
			return nil, false
		}
		if !hasNavVerb(u.Norm) {
			if len(u.Words()) > shortCommandMaxWords || hasInfoTrigger(u.Norm) {
				return nil, false
			}
		}
		return Navigate{Page: page.Name, Query: pageQuery(page, h)}, true
	}
}

// hasNavVerb reports a navigation verb. "open" next to a count or list trigger is
// the lifecycle adjective ("list my open deals"), not a verb.
func hasNavVerb(norm string) bool {
	if navVerbPattern.MatchString(norm) {
		return true
	}
	return openVerbPattern.MatchString(norm) && !hasInfoTrigger(norm)
}

// pageQuery carries vocabulary hints for the page's own entity into the navigation.
func pageQuery(page Page, h Hints) map[string]string {
	if page.Entity == "" || page.Entity != h.RecordType {
		return nil
	}
	q := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			q[key] = value
		}
	}
	set("status", h.Status)
	set("stage", h.Stage)
	set("priority", h.Priority)
	set("type", h.ActivityType)
	set("type", h.AccountType)
	if len(q) == 0 {
		return nil
	}
	return q
}

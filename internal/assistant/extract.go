package assistant

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wolfman30/crm-assistant/internal/records"
)

const (
	nameToken  = `[A-Z][a-zA-Z.'-]+`
	nameTokens = `(` + nameToken + `(?:\s+` + nameToken + `){0,3})`

	maxTopN = 20
)

// namePattern pulls a capitalized name out of the raw prompt.
type namePattern struct {
	slot    string
	pattern *regexp.Regexp
}

// Order matters: the first matching pattern wins.
var explicitNamePatterns = []namePattern{
	{slot: "called", pattern: regexp.MustCompile(`\b(?i:called)\s+` + nameTokens)},
	{slot: "named", pattern: regexp.MustCompile(`\b(?i:named)\s+` + nameTokens)},
	{slot: "name is", pattern: regexp.MustCompile(`\b(?i:name\s+is)\s+` + nameTokens)},
	{slot: "for", pattern: regexp.MustCompile(`\b(?i:for)\s+` + nameTokens)},
}

var capitalizedToken = regexp.MustCompile(`^` + nameToken + `$`)

// Words that start commands or questions are capitalized at sentence start
// but never part of a person's name.
var nonNameWords = map[string]bool{
	"show": true, "open": true, "go": true, "view": true, "see": true, "take": true,
	"navigate": true, "find": true, "search": true, "look": true, "what": true,
	"what's": true, "whats": true, "who": true, "how": true, "is": true, "does": true,
	"do": true, "tell": true, "give": true, "list": true, "summarize": true, "count": true,
	"please": true, "can": true, "could": true, "the": true, "my": true, "me": true,
	"i": true, "hi": true, "hello": true, "hey": true, "phone": true, "mobile": true,
	"cell": true, "lead": true, "leads": true, "contact": true, "contacts": true,
}

// ExtractExplicitName returns the name introduced by "called", "named", "name is" or "for".
func ExtractExplicitName(raw string) string {
	for _, np := range explicitNamePatterns {
		if m := np.pattern.FindStringSubmatch(raw); m != nil {
			if name := cleanName(m[1]); name != "" {
				return name
			}
		}
	}
	return ""
}

// GuessPersonName returns the first pair of adjacent capitalized tokens that
// does not involve a command word.
func GuessPersonName(raw string) string {
	tokens := strings.Fields(raw)
	for i := range tokens {
		tokens[i] = cleanToken(tokens[i])
	}
	for i := 0; i+1 < len(tokens); i++ {
		first, second := tokens[i], tokens[i+1]
		if !capitalizedToken.MatchString(first) || !capitalizedToken.MatchString(second) {
			continue
		}
		if nonNameWords[strings.ToLower(first)] || nonNameWords[strings.ToLower(second)] {
			continue
		}
		return first + " " + second
	}
	return ""
}

func cleanToken(tok string) string {
	tok = strings.Trim(tok, `,;:!?"()`)
	tok = strings.TrimSuffix(tok, "'s")
	return strings.TrimRight(tok, ".")
}

func cleanName(name string) string {
	parts := strings.Fields(name)
	for i := range parts {
		parts[i] = cleanToken(parts[i])
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// keywordRule maps a pattern over normalized text to a canonical vocabulary value.
type keywordRule struct {
	pattern *regexp.Regexp
	value   string
}

func rule(pattern, value string) keywordRule {
	return keywordRule{pattern: regexp.MustCompile(pattern), value: value}
}

func firstKeyword(rules []keywordRule, norm string) string {
	for _, r := range rules {
		if r.pattern.MatchString(norm) {
			return r.value
		}
	}
	return ""
}

var (
	leadStatusRules = []keywordRule{
		rule(`\bunqualified\b`, "unqualified"),
		rule(`\bqualified\b`, "qualified"),
		rule(`\bcontacted\b`, "contacted"),
		rule(`\bconverted\b`, "converted"),
		rule(`\blost\b`, "lost"),
		rule(`\bnew\b`, "new"),
	}
	opportunityStageRules = []keywordRule{
		rule(`\bprospecting\b`, "prospecting"),
		rule(`\bqualification\b`, "qualification"),
		rule(`\bproposal\b`, "proposal"),
		rule(`\bnegotiation\b`, "negotiation"),
		rule(`\bclosed won\b|\bwon\b`, "closed_won"),
		rule(`\bclosed lost\b|\blost\b`, "closed_lost"),
	}
	activityStatusRules = []keywordRule{
		rule(`\bscheduled\b`, "scheduled"),
		rule(`\bin progress\b`, "in-progress"),
		rule(`\bcompleted\b`, "completed"),
		rule(`\bcancell?ed\b`, "cancelled"),
	}
	activityTypeRules = []keywordRule{
		rule(`\bcalls?\b`, "call"),
		rule(`\bemails?\b`, "email"),
		rule(`\bmeetings?\b`, "meeting"),
		rule(`\btasks?\b`, "task"),
	}
	activityPriorityRules = []keywordRule{
		rule(`\blow\b`, "low"),
		rule(`\bnormal\b`, "normal"),
		rule(`\bhigh\b`, "high"),
		rule(`\burgent\b`, "urgent"),
	}
	// Singular only: "customers" alone selects accounts without narrowing the type.
	accountTypeRules = []keywordRule{
		rule(`\bprospect\b`, "prospect"),
		rule(`\bcustomer\b`, "customer"),
		rule(`\bpartner\b`, "partner"),
		rule(`\bcompetitor\b`, "competitor"),
		rule(`\bvendor\b`, "vendor"),
	}
	lifecycleRules = []keywordRule{
		rule(`\bopen\b`, lifecycleOpen),
		rule(`\bclosed\b`, lifecycleClosed),
	}
)

const (
	lifecycleOpen   = "open"
	lifecycleClosed = "closed"
)

var minePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bmy\b`),
	regexp.MustCompile(`\bfor me\b`),
	regexp.MustCompile(`\bassigned to me\b`),
	regexp.MustCompile(`\bowned by me\b`),
	regexp.MustCompile(`\bmine\b`),
}

// IsMine reports whether the prompt restricts results to the caller's own records.
func IsMine(norm string) bool {
	for _, p := range minePatterns {
		if p.MatchString(norm) {
			return true
		}
	}
	return false
}

var topNPattern = regexp.MustCompile(`\b(top|last|first)\s+(\d+)\b`)

// ExtractTopN returns the requested result count clamped to 1..20, or 0 when absent.
func ExtractTopN(norm string) int {
	m := topNPattern.FindStringSubmatch(norm)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n > maxTopN {
		// Oversized digit runs overflow Atoi; treat them as the cap.
		return maxTopN
	}
	return clamp(n, 1, maxTopN)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

type entityAlias struct {
	pattern *regexp.Regexp
	entity  records.Entity
}

func alias(word string, entity records.Entity) entityAlias {
	return entityAlias{pattern: regexp.MustCompile(`\b` + word + `\b`), entity: entity}
}

// Longest alias first, so the longer word wins when two start at the same place.
var entityAliases = []entityAlias{
	alias("opportunities", records.EntityOpportunity),
	alias("opportunity", records.EntityOpportunity),
	alias("activities", records.EntityActivity),
	alias("companies", records.EntityAccount),
	alias("customers", records.EntityAccount),
	alias("prospects", records.EntityLead),
	alias("activity", records.EntityActivity),
	alias("accounts", records.EntityAccount),
	alias("contacts", records.EntityContact),
	alias("meetings", records.EntityActivity),
	alias("pipeline", records.EntityOpportunity),
	alias("account", records.EntityAccount),
	alias("company", records.EntityAccount),
	alias("contact", records.EntityContact),
	alias("events", records.EntityActivity),
	alias("people", records.EntityContact),
	alias("calls", records.EntityActivity),
	alias("deals", records.EntityOpportunity),
	alias("leads", records.EntityLead),
	alias("tasks", records.EntityActivity),
	alias("deal", records.EntityOpportunity),
	alias("lead", records.EntityLead),
}

// ExtractRecordType resolves the entity the prompt talks about, or "" when none is
// named. The alias mentioned first wins: "leads with calls" asks about leads.
func ExtractRecordType(norm string) records.Entity {
	var (
		found records.Entity
		at    = -1
	)
	for _, a := range entityAliases {
		loc := a.pattern.FindStringIndex(norm)
		if loc == nil {
			continue
		}
		if at < 0 || loc[0] < at {
			found, at = a.entity, loc[0]
		}
	}
	return found
}

// Hints are the structured slots pulled from one prompt. They are built once and
// never modified afterwards.
type Hints struct {
	ExplicitName string
	GuessedName  string
	RecordType   records.Entity
	Status       string
	Stage        string
	Priority     string
	ActivityType string
	AccountType  string
	Lifecycle    string
	IsMine       bool
	TopN         int
}

// PersonName prefers the explicit name over the guessed one.
func (h Hints) PersonName() string {
	if h.ExplicitName != "" {
		return h.ExplicitName
	}
	return h.GuessedName
}

// ExtractHints runs every slot extractor over the utterance. Vocabulary slots are
// filled only for the entity they belong to.
func ExtractHints(u Utterance) Hints {
	h := Hints{
		ExplicitName: ExtractExplicitName(u.Raw),
		GuessedName:  GuessPersonName(u.Raw),
		RecordType:   ExtractRecordType(u.Norm),
		Lifecycle:    firstKeyword(lifecycleRules, u.Norm),
		IsMine:       IsMine(u.Norm),
		TopN:         ExtractTopN(u.Norm),
	}
	switch h.RecordType {
	case records.EntityLead:
		h.Status = firstKeyword(leadStatusRules, u.Norm)
	case records.EntityOpportunity:
		h.Stage = firstKeyword(opportunityStageRules, u.Norm)
	case records.EntityActivity:
		h.Status = firstKeyword(activityStatusRules, u.Norm)
		h.ActivityType = firstKeyword(activityTypeRules, u.Norm)
		h.Priority = firstKeyword(activityPriorityRules, u.Norm)
	case records.EntityAccount:
		h.AccountType = firstKeyword(accountTypeRules, u.Norm)
	}
	return h
}

package assistant

// Classifier is one stage of the intent chain. Classify must be pure: no I/O and
// no state carried between calls.
type Classifier struct {
	Name     string
	Classify func(Utterance, Hints) (Intent, bool)
}

// Classifier names, in chain order.
const (
	StageNavigation    = "navigation"
	StageToolCall      = "tool_call"
	StageInformational = "informational"
	StageRecordLookup  = "record_lookup"
	StageHelp          = "help"
)

// DefaultClassifiers returns the chain in priority order. Navigation runs before the
// tool call so "open leads" is never read as a lead search, and help is last.
func DefaultClassifiers(catalog *PageCatalog) []Classifier {
	return []Classifier{
		{Name: StageNavigation, Classify: navigationClassifier(catalog)},
		{Name: StageToolCall, Classify: classifyToolCall},
		{Name: StageInformational, Classify: classifyInformational},
		{Name: StageRecordLookup, Classify: classifyRecordLookup},
		{Name: StageHelp, Classify: classifyHelp},
	}
}

// Classify returns the intent of the first classifier that matches and that
// classifier's name. An exhausted chain resolves to Help.
func Classify(chain []Classifier, u Utterance, h Hints) (Intent, string) {
	for _, c := range chain {
		if intent, ok := c.Classify(u, h); ok {
			return intent, c.Name
		}
	}
	return Help{Variant: HelpGeneral}, StageHelp
}

func classifyHelp(Utterance, Hints) (Intent, bool) {
	return Help{Variant: HelpGeneral}, true
}

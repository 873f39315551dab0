package assistant

import "github.com/wolfman30/crm-assistant/internal/records"

// Intent is the single decision produced for a prompt. The concrete types below
// are the only implementations.
type Intent interface {
	// Name is the wire tag from the closed intent vocabulary.
	Name() string
	isIntent()
}

// Navigate opens an application page.
type Navigate struct {
	Page  string
	Query map[string]string
}

// ToolCall is a simulated function call decided by pattern matching.
type ToolCall struct {
	Tool string
	Args ToolArgs
}

// ToolArgs are the arguments of the search_leads tool.
type ToolArgs struct {
	Query  string `json:"query"`
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// CountQuery counts tenant records of one entity.
type CountQuery struct {
	Entity records.Entity
}

// ListQuery lists the newest tenant records of one entity.
type ListQuery struct {
	Entity records.Entity
	Limit  int
}

// LookupKind selects the record lookup sub-case.
type LookupKind int

const (
	LookupNavigate LookupKind = iota
	LookupPhone
	LookupExistence
)

// RecordLookup resolves a person reference to a Lead or Contact.
type RecordLookup struct {
	Kind     LookupKind
	Subject  string
	Entities []records.Entity
}

// HelpVariant distinguishes the fallback from the tenant gate responses.
type HelpVariant int

const (
	HelpGeneral HelpVariant = iota
	HelpSelectTenant
	HelpNoTenant
)

type Help struct {
	Variant HelpVariant
}

// Error reports a failure after classification.
type Error struct {
	Err error
}

const searchLeadsTool = "search_leads"

func (Navigate) Name() string { return "navigate" }
func (ToolCall) Name() string { return "query" }
func (q CountQuery) Name() string {
	return "count_" + q.Entity.Plural()
}
func (q ListQuery) Name() string {
	return "list_" + q.Entity.Plural()
}
func (l RecordLookup) Name() string {
	switch l.Kind {
	case LookupNavigate:
		return "view_record"
	case LookupPhone:
		return "phone_lookup"
	default:
		return "record_lookup"
	}
}
func (Help) Name() string  { return "help" }
func (Error) Name() string { return "error" }

func (Navigate) isIntent()     {}
func (ToolCall) isIntent()     {}
func (CountQuery) isIntent()   {}
func (ListQuery) isIntent()    {}
func (RecordLookup) isIntent() {}
func (Help) isIntent()         {}
func (Error) isIntent()        {}

// IntentVocabulary lists every wire tag an Intent can produce.
func IntentVocabulary() []string {
	out := []string{"navigate", "query"}
	for _, e := range records.AllEntities {
		out = append(out, "count_"+e.Plural())
	}
	for _, e := range records.AllEntities {
		out = append(out, "list_"+e.Plural())
	}
	return append(out, "view_record", "phone_lookup", "record_lookup", "help", "error")
}

package assistant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wolfman30/crm-assistant/internal/records"
)

// Response is the wire contract returned to the UI. UIActions is never nil and
// SummaryMessage is never empty.
type Response struct {
	SummaryMessage string         `json:"summaryMessage"`
	Intent         string         `json:"intent"`
	Data           map[string]any `json:"data"`
	UIActions      []UIAction     `json:"uiActions"`
	Meta           Meta           `json:"meta"`
}

// UIAction is a follow-up effect for the front end.
type UIAction struct {
	Action   string            `json:"action"`
	PageName string            `json:"pageName,omitempty"`
	Query    map[string]string `json:"query,omitempty"`
	Entity   string            `json:"entity,omitempty"`
	RecordID string            `json:"recordId,omitempty"`
	Level    string            `json:"level,omitempty"`
	Message  string            `json:"message,omitempty"`
}

type Meta struct {
	DurationMS int64  `json:"duration_ms"`
	UserEmail  string `json:"userEmail"`
	TenantID   string `json:"tenantId"`
}

// RecordSummary is the record shape exposed in response data.
type RecordSummary struct {
	ID          string  `json:"id"`
	Entity      string  `json:"entity"`
	Name        string  `json:"name"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Company     string  `json:"company,omitempty"`
	AccountName string  `json:"account_name,omitempty"`
	Status      string  `json:"status,omitempty"`
	Stage       string  `json:"stage,omitempty"`
	Type        string  `json:"type,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	CloseDate   string  `json:"close_date,omitempty"`
	DueDate     string  `json:"due_date,omitempty"`
	AssignedTo  string  `json:"assigned_to,omitempty"`
}

func summarize(r records.Record) RecordSummary {
	return RecordSummary{
		ID:          r.ID,
		Entity:      string(r.Entity),
		Name:        r.DisplayName(),
		Email:       r.Email,
		Phone:       r.PhoneNumber(),
		Company:     r.Company,
		AccountName: r.AccountName,
		Status:      r.Status,
		Stage:       r.Stage,
		Type:        r.Type,
		Priority:    r.Priority,
		Amount:      r.Amount,
		CloseDate:   r.CloseDate,
		DueDate:     r.DueDate,
		AssignedTo:  r.AssignedTo,
	}
}

func summarizeAll(recs []records.Record) []RecordSummary {
	out := make([]RecordSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, summarize(r))
	}
	return out
}

const (
	maxDetailActions = 5

	helpMessage = "I can help you find your way around the CRM and answer questions about your records. Try:\n" +
		"• \"go to leads\"\n" +
		"• \"how many contacts do I have\"\n" +
		"• \"list my open opportunities\"\n" +
		"• \"search leads for John Doe\"\n" +
		"• \"what is the phone number for Jane Smith\"\n" +
		"• \"open Jane Smith\""
	selectTenantMessage = "Please select a client first. Pick a client from the client selector, then ask again."
	noTenantMessage     = "Your account is not linked to a client yet. Ask an administrator to assign one, then try again."
	errorMessage        = "Something went wrong while processing your request. Please try again."
)

// Render turns an outcome into the wire contract. Meta is filled in by the caller.
func Render(o Outcome, catalog *PageCatalog) Response {
	resp := Response{
		Intent:    o.Intent.Name(),
		Data:      map[string]any{},
		UIActions: []UIAction{},
	}

	switch in := o.Intent.(type) {
	case Navigate:
		resp.SummaryMessage = "Opening " + in.Page + "."
		resp.Data["page"] = in.Page
		if len(in.Query) > 0 {
			resp.Data["query"] = in.Query
		}
		resp.UIActions = append(resp.UIActions, UIAction{Action: "navigate", PageName: in.Page, Query: in.Query})

	case ToolCall:
		resp.Data["tool"] = in.Tool
		resp.Data["args"] = in.Args
		resp.Data["count"] = len(o.Records)
		resp.Data["records"] = summarizeAll(o.Records)
		if len(o.Records) == 0 {
			resp.SummaryMessage = fmt.Sprintf("No leads matched %q.", in.Args.Query)
		} else {
			header := fmt.Sprintf("Found %d %s matching %q:", len(o.Records), records.EntityLead.Noun(len(o.Records)), in.Args.Query)
			resp.SummaryMessage = header + "\n" + listLines(o.Records)
		}
		resp.UIActions = append(resp.UIActions, detailActions(o.Records)...)

	case CountQuery:
		resp.Data["entity"] = string(in.Entity)
		resp.Data["count"] = o.Count
		resp.SummaryMessage = fmt.Sprintf("You have %d %s.", o.Count, describe(in.Entity, o.Hints, o.Count))

	case ListQuery:
		resp.Data["entity"] = string(in.Entity)
		resp.Data["count"] = len(o.Records)
		resp.Data["limit"] = in.Limit
		resp.Data["records"] = summarizeAll(o.Records)
		if len(o.Records) == 0 {
			resp.SummaryMessage = fmt.Sprintf("You don't have any %s.", describe(in.Entity, o.Hints, 0))
		} else {
			header := fmt.Sprintf("Here are your %d most recent %s:", len(o.Records), describe(in.Entity, o.Hints, len(o.Records)))
			if len(o.Records) == 1 {
				header = fmt.Sprintf("Here is your most recent %s:", describe(in.Entity, o.Hints, 1))
			}
			resp.SummaryMessage = header + "\n" + listLines(o.Records)
		}
		resp.UIActions = append(resp.UIActions, detailActions(o.Records)...)

	case RecordLookup:
		renderLookup(&resp, in, o.Match, catalog)

	case Help:
		switch in.Variant {
		case HelpSelectTenant:
			resp.SummaryMessage = selectTenantMessage
			resp.Data["reason"] = "tenant_required"
			resp.UIActions = append(resp.UIActions, UIAction{Action: "notify", Level: "warning", Message: "Select a client before asking about CRM records."})
		case HelpNoTenant:
			resp.SummaryMessage = noTenantMessage
			resp.Data["reason"] = "tenant_unassigned"
			resp.UIActions = append(resp.UIActions, UIAction{Action: "notify", Level: "warning", Message: "No client is assigned to your account."})
		default:
			resp.SummaryMessage = helpMessage
		}

	default:
		resp.Intent = Error{}.Name()
		resp.SummaryMessage = errorMessage
	}

	if resp.SummaryMessage == "" {
		resp.SummaryMessage = helpMessage
	}
	return resp
}

// ErrorResponse is the contract for failures after classification.
func ErrorResponse() Response {
	return Render(Outcome{Intent: Error{}}, nil)
}

func renderLookup(resp *Response, l RecordLookup, match *records.Record, catalog *PageCatalog) {
	resp.Data["found"] = match != nil
	if match == nil {
		resp.SummaryMessage = notFoundMessage(l)
		return
	}

	name := match.DisplayName()
	noun := match.Entity.Singular()
	resp.Data["record"] = summarize(*match)
	view := UIAction{Action: "viewRecord", Entity: string(match.Entity), RecordID: match.ID}

	switch l.Kind {
	case LookupNavigate:
		resp.SummaryMessage = fmt.Sprintf("Opening %s %s.", noun, name)
		if catalog != nil {
			if page, ok := catalog.PageFor(match.Entity); ok {
				resp.UIActions = append(resp.UIActions, UIAction{Action: "navigate", PageName: page.Name})
			}
		}
		resp.UIActions = append(resp.UIActions, view)
	case LookupPhone:
		phone := match.PhoneNumber()
		resp.Data["phone"] = phone
		if phone == "" {
			resp.SummaryMessage = fmt.Sprintf("%s is in the CRM, but a phone number does not exist in the CRM for this %s.", name, noun)
		} else {
			resp.SummaryMessage = fmt.Sprintf("%s's phone number is %s.", name, phone)
		}
		resp.UIActions = append(resp.UIActions, view)
	default:
		resp.SummaryMessage = fmt.Sprintf("Yes, you have a %s named %s.", noun, name)
		resp.UIActions = append(resp.UIActions, view)
	}
}

func notFoundMessage(l RecordLookup) string {
	nouns := make([]string, 0, len(l.Entities))
	for _, e := range l.Entities {
		nouns = append(nouns, e.Singular())
	}
	target := strings.Join(nouns, " or ")
	if target == "" {
		target = "record"
	}
	if l.Subject == "" {
		return fmt.Sprintf("I couldn't find a matching %s.", target)
	}
	return fmt.Sprintf("I couldn't find a %s matching %q.", target, l.Subject)
}

func detailActions(recs []records.Record) []UIAction {
	n := len(recs)
	if n > maxDetailActions {
		n = maxDetailActions
	}
	out := make([]UIAction, 0, n)
	for _, r := range recs[:n] {
		out = append(out, UIAction{Action: "viewDetails", Entity: string(r.Entity), RecordID: r.ID})
	}
	return out
}

func listLines(recs []records.Record) string {
	lines := make([]string, 0, len(recs))
	for _, r := range recs {
		lines = append(lines, listLine(r))
	}
	return strings.Join(lines, "\n")
}

func listLine(r records.Record) string {
	name := r.DisplayName()
	var details []string
	switch r.Entity {
	case records.EntityLead:
		if r.Company != "" {
			name += " (" + r.Company + ")"
		}
		details = []string{r.Status}
	case records.EntityContact:
		details = []string{r.Email}
	case records.EntityAccount:
		details = []string{r.Type}
	case records.EntityOpportunity:
		details = []string{r.Stage, formatAmount(r.Amount), r.CloseDate}
	case records.EntityActivity:
		details = []string{r.Type, r.Status, r.DueDate}
	}
	details = nonEmpty(details)
	if len(details) == 0 {
		return "• " + name
	}
	return "• " + name + " — " + strings.Join(details, ", ")
}

func nonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// describe builds the qualified noun phrase, e.g. "open opportunities assigned to you".
func describe(entity records.Entity, h Hints, n int) string {
	var words []string
	if h.RecordType == entity {
		switch {
		case h.Status != "":
			words = append(words, readable(h.Status))
		case h.Stage != "":
			words = append(words, readable(h.Stage))
		case h.Lifecycle != "":
			words = append(words, h.Lifecycle)
		}
		if h.Priority != "" {
			words = append(words, h.Priority+" priority")
		}
		if h.ActivityType != "" {
			words = append(words, h.ActivityType)
		}
		if h.AccountType != "" {
			words = append(words, h.AccountType)
		}
	}
	words = append(words, entity.Noun(n))
	phrase := strings.Join(words, " ")
	if h.IsMine {
		phrase += " assigned to you"
	}
	return phrase
}

func readable(v string) string {
	return strings.ReplaceAll(v, "_", " ")
}

// formatAmount renders 12500 as "$12,500" and 99.5 as "$99.50". Zero renders empty.
func formatAmount(v float64) string {
	if v == 0 {
		return ""
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac := s[:len(s)-3], s[len(s)-2:]
	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := sign + "$" + b.String()
	if frac != "00" {
		out += "." + frac
	}
	return out
}

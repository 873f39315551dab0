package records

import (
	"fmt"
	"strings"
	"time"
)

// Entity names a CRM record type in the hosted record store.
type Entity string

const (
	EntityLead        Entity = "Lead"
	EntityContact     Entity = "Contact"
	EntityAccount     Entity = "Account"
	EntityOpportunity Entity = "Opportunity"
	EntityActivity    Entity = "Activity"
)

// AllEntities lists every entity in a stable order.
var AllEntities = []Entity{EntityLead, EntityContact, EntityAccount, EntityOpportunity, EntityActivity}

// ParseEntity accepts the canonical name in any case.
func ParseEntity(raw string) (Entity, error) {
	for _, e := range AllEntities {
		if strings.EqualFold(strings.TrimSpace(raw), string(e)) {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, raw)
}

// Singular returns the lowercase noun, e.g. "opportunity".
func (e Entity) Singular() string {
	return strings.ToLower(string(e))
}

// Plural returns the lowercase plural noun, e.g. "opportunities".
func (e Entity) Plural() string {
	switch e {
	case EntityOpportunity:
		return "opportunities"
	case EntityActivity:
		return "activities"
	default:
		return e.Singular() + "s"
	}
}

// Noun returns the singular or plural noun for n records.
func (e Entity) Noun(n int) string {
	if n == 1 {
		return e.Singular()
	}
	return e.Plural()
}

// Record is one row from the record store. Fields not used by an entity stay empty.
type Record struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Entity      Entity    `json:"entity"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Mobile      string    `json:"mobile,omitempty"`
	Company     string    `json:"company,omitempty"`
	AccountName string    `json:"account_name,omitempty"`
	Status      string    `json:"status,omitempty"`
	Stage       string    `json:"stage,omitempty"`
	Type        string    `json:"type,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	CloseDate   string    `json:"close_date,omitempty"`
	DueDate     string    `json:"due_date,omitempty"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	IsTestData  bool      `json:"is_test_data"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

// DisplayName is the human label used in replies and summaries.
func (r Record) DisplayName() string {
	switch r.Entity {
	case EntityLead, EntityContact:
		full := strings.TrimSpace(r.FirstName + " " + r.LastName)
		if full != "" {
			return full
		}
		if r.Name != "" {
			return r.Name
		}
		return r.Email
	case EntityActivity:
		if r.Subject != "" {
			return r.Subject
		}
		return r.Name
	default:
		return r.Name
	}
}

// PhoneNumber returns the first populated phone field.
func (r Record) PhoneNumber() string {
	if p := strings.TrimSpace(r.Phone); p != "" {
		return p
	}
	return strings.TrimSpace(r.Mobile)
}

// field returns the value a filter key compares against.
func (r Record) field(key string) (any, bool) {
	switch key {
	case "id":
		return r.ID, true
	case "tenant_id":
		return r.TenantID, true
	case "first_name":
		return r.FirstName, true
	case "last_name":
		return r.LastName, true
	case "name":
		return r.Name, true
	case "email":
		return r.Email, true
	case "phone":
		return r.Phone, true
	case "mobile":
		return r.Mobile, true
	case "company":
		return r.Company, true
	case "account_name":
		return r.AccountName, true
	case "status":
		return r.Status, true
	case "stage":
		return r.Stage, true
	case "type":
		return r.Type, true
	case "priority":
		return r.Priority, true
	case "subject":
		return r.Subject, true
	case "assigned_to":
		return r.AssignedTo, true
	case "is_test_data":
		return r.IsTestData, true
	default:
		return nil, false
	}
}

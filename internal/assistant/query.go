package assistant

import (
	"errors"
	"strings"

	"github.com/wolfman30/crm-assistant/internal/records"
	"github.com/wolfman30/crm-assistant/internal/tenancy"
)

// ErrTenantRequired is returned when a data query has no resolved tenant.
var ErrTenantRequired = errors.New("assistant: tenant required")

// Scope is the resolved caller context every data query is restricted to.
type Scope struct {
	TenantID        string
	UserEmail       string
	Role            tenancy.Role
	IncludeTestData bool
}

var (
	leadOpenStatuses   = []string{"new", "contacted", "qualified"}
	leadClosedStatuses = []string{"converted", "lost", "unqualified"}
	oppOpenStages      = []string{"prospecting", "qualification", "proposal", "negotiation"}
	oppClosedStages    = []string{"closed_won", "closed_lost"}
	activityOpen       = []string{"scheduled", "in-progress"}
	activityClosed     = []string{"completed", "cancelled"}
)

// BaseFilter returns the tenant and test-data clauses shared by every query.
func BaseFilter(scope Scope) (records.Filter, error) {
	tenant := strings.TrimSpace(scope.TenantID)
	if tenant == "" {
		return nil, ErrTenantRequired
	}
	f := records.Filter{"tenant_id": tenant}
	if !scope.IncludeTestData {
		f["is_test_data"] = false
	}
	return f, nil
}

// BuildFilter maps an entity and its hints onto a store filter. Explicit vocabulary
// hints win over open/closed.
func BuildFilter(entity records.Entity, h Hints, scope Scope) (records.Filter, error) {
	f, err := BaseFilter(scope)
	if err != nil {
		return nil, err
	}
	if h.IsMine {
		if email := strings.ToLower(strings.TrimSpace(scope.UserEmail)); email != "" {
			f["assigned_to"] = email
		}
	}
	if h.RecordType != entity {
		return f, nil
	}

	switch entity {
	case records.EntityLead:
		setStatus(f, "status", h.Status, h.Lifecycle, leadOpenStatuses, leadClosedStatuses)
	case records.EntityOpportunity:
		setStatus(f, "stage", h.Stage, h.Lifecycle, oppOpenStages, oppClosedStages)
	case records.EntityActivity:
		setStatus(f, "status", h.Status, h.Lifecycle, activityOpen, activityClosed)
		if h.ActivityType != "" {
			f["type"] = h.ActivityType
		}
		if h.Priority != "" {
			f["priority"] = h.Priority
		}
	case records.EntityAccount:
		if h.AccountType != "" {
			f["type"] = h.AccountType
		}
	}
	return f, nil
}

func setStatus(f records.Filter, key, explicit, lifecycle string, open, closed []string) {
	switch {
	case explicit != "":
		f[key] = explicit
	case lifecycle == lifecycleOpen:
		f[key] = append([]string(nil), open...)
	case lifecycle == lifecycleClosed:
		f[key] = append([]string(nil), closed...)
	}
}

// SortFor returns the newest-first sort for an entity.
func SortFor(entity records.Entity) string {
	if entity == records.EntityOpportunity {
		return "-updated_date"
	}
	return "-created_date"
}

package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wolfman30/crm-assistant/internal/records"
	"github.com/wolfman30/crm-assistant/internal/tenancy"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

const testTenant = "tenant-1"

var fixedNow = time.Date(2025, 6, 2, 15, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// failingStore fails every query and counts calls.
type failingStore struct {
	err   error
	calls int
}

func (s *failingStore) Filter(context.Context, records.Entity, records.Filter, string, int) ([]records.Record, error) {
	s.calls++
	return nil, s.err
}

func (s *failingStore) Count(context.Context, records.Entity, records.Filter) (int, error) {
	s.calls++
	return 0, s.err
}

func newFailingStore() *failingStore {
	return &failingStore{err: errors.New("connection refused")}
}

// seededRepo holds 7 live contacts (six generated plus Jane Smith) in the test
// tenant, plus noise that must be filtered out: a test-data contact and another
// tenant's contact.
func seededRepo(t *testing.T) *records.InMemoryRepository {
	t.Helper()
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	repo := records.NewInMemoryRepository()
	var recs []records.Record
	for i := 0; i < 6; i++ {
		recs = append(recs, records.Record{
			ID:          fmt.Sprintf("c-%d", i),
			TenantID:    testTenant,
			Entity:      records.EntityContact,
			FirstName:   fmt.Sprintf("Contact%d", i),
			LastName:    "Person",
			Email:       fmt.Sprintf("contact%d@example.com", i),
			CreatedDate: base.Add(time.Duration(i) * time.Hour),
		})
	}
	recs = append(recs,
		records.Record{ID: "c-test", TenantID: testTenant, Entity: records.EntityContact, FirstName: "Fake", LastName: "Row", IsTestData: true, CreatedDate: base},
		records.Record{ID: "c-other", TenantID: "tenant-2", Entity: records.EntityContact, FirstName: "Other", LastName: "Tenant", CreatedDate: base},
		records.Record{ID: "l-1", TenantID: testTenant, Entity: records.EntityLead, FirstName: "John", LastName: "Doe", Company: "Acme", Status: "new", Email: "john@acme.test", AssignedTo: "ana@example.com", CreatedDate: base.Add(2 * time.Hour)},
		records.Record{ID: "l-2", TenantID: testTenant, Entity: records.EntityLead, FirstName: "Mark", LastName: "Twain", Status: "contacted", CreatedDate: base.Add(time.Hour)},
		records.Record{ID: "l-3", TenantID: testTenant, Entity: records.EntityLead, FirstName: "Mary", LastName: "Major", Status: "lost", Phone: "555-0199", CreatedDate: base},
		records.Record{ID: "c-jane", TenantID: testTenant, Entity: records.EntityContact, FirstName: "Jane", LastName: "Smith", Email: "jane@smith.test", Mobile: "555-0100", CreatedDate: base.Add(-time.Hour)},
		records.Record{ID: "o-1", TenantID: testTenant, Entity: records.EntityOpportunity, Name: "Acme Renewal", Stage: "proposal", Amount: 12500, CloseDate: "2025-07-01", AssignedTo: "ana@example.com", CreatedDate: base, UpdatedDate: base.Add(48 * time.Hour)},
		records.Record{ID: "o-2", TenantID: testTenant, Entity: records.EntityOpportunity, Name: "Globex Pilot", Stage: "closed_won", Amount: 4000, AssignedTo: "ana@example.com", CreatedDate: base, UpdatedDate: base.Add(24 * time.Hour)},
		records.Record{ID: "o-3", TenantID: testTenant, Entity: records.EntityOpportunity, Name: "Initech Expansion", Stage: "negotiation", Amount: 800, AssignedTo: "bob@example.com", CreatedDate: base, UpdatedDate: base.Add(72 * time.Hour)},
		records.Record{ID: "a-1", TenantID: testTenant, Entity: records.EntityAccount, Name: "Acme", Type: "customer", CreatedDate: base},
		records.Record{ID: "act-1", TenantID: testTenant, Entity: records.EntityActivity, Subject: "Kickoff call", Type: "call", Status: "scheduled", Priority: "high", DueDate: "2025-06-10", CreatedDate: base},
	)
	if err := repo.Add(recs...); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return repo
}

func newTestInterpreter(store records.Store) *Interpreter {
	return NewInterpreter(store, logging.Default(), WithClock(fixedClock))
}

func userRequest(text string) CommandRequest {
	return CommandRequest{
		Text:        text,
		CallerEmail: "ana@example.com",
		CallerRole:  tenancy.RoleUser,
		TenantID:    testTenant,
		UserEmail:   "ana@example.com",
	}
}

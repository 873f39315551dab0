package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/crm-assistant/internal/observability/metrics"
	"github.com/wolfman30/crm-assistant/internal/perflog"
	"github.com/wolfman30/crm-assistant/internal/records"
	"github.com/wolfman30/crm-assistant/internal/respcache"
	"github.com/wolfman30/crm-assistant/internal/tenancy"
	"github.com/wolfman30/crm-assistant/internal/tenantselect"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

type countingStore struct {
	records.Store
	mu    sync.Mutex
	calls int
}

func (s *countingStore) Count(ctx context.Context, e records.Entity, f records.Filter) (int, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.Store.Count(ctx, e, f)
}

func (s *countingStore) Filter(ctx context.Context, e records.Entity, f records.Filter, sortBy string, limit int) ([]records.Record, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.Store.Filter(ctx, e, f, sortBy, limit)
}

type recordingSink struct {
	mu      sync.Mutex
	entries []perflog.Entry
	err     error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Write(ctx context.Context, e perflog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.entries = append(s.entries, e)
	return s.err
}

type staticSelections map[string]string

func (s staticSelections) Get(_ context.Context, email string) (string, error) {
	if id, ok := s[email]; ok {
		return id, nil
	}
	return "", tenantselect.ErrNotFound
}

func postCommand(t *testing.T, h *Handler, caller *tenancy.Caller, body string, header map[string]string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/assistant/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	if caller != nil {
		req = req.WithContext(tenancy.WithCaller(req.Context(), *caller))
	}
	rec := httptest.NewRecorder()
	h.Command(rec, req)

	var resp Response
	if rec.Code == http.StatusOK || rec.Code == http.StatusInternalServerError {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

var (
	anaCaller  = tenancy.Caller{Email: "ana@example.com", Role: tenancy.RoleUser, TenantID: testTenant}
	rootCaller = tenancy.Caller{Email: "root@example.com", Role: tenancy.RoleSuperadmin}
)

func TestHandler_RequiresCaller(t *testing.T) {
	h := NewHandler(newTestInterpreter(seededRepo(t)), logging.Default())
	rec, _ := postCommand(t, h, nil, `{"prompt":"go to leads"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())
}

func TestHandler_RejectsBadBodies(t *testing.T) {
	h := NewHandler(newTestInterpreter(seededRepo(t)), logging.Default())
	for _, body := range []string{`{`, `{"prompt":"   "}`, `{}`} {
		rec, _ := postCommand(t, h, &anaCaller, body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestHandler_CountForUser(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandler(newTestInterpreter(seededRepo(t)), logging.Default(), WithPerfLog(sink, time.Second))

	rec, resp := postCommand(t, h, &anaCaller, `{"prompt":"how many contacts do I have","tenantId":"tenant-2"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "count_contacts", resp.Intent)
	assert.Equal(t, "You have 7 contacts.", resp.SummaryMessage)
	assert.Equal(t, testTenant, resp.Meta.TenantID, "users cannot switch tenants")
	assert.Equal(t, "ana@example.com", resp.Meta.UserEmail)

	require.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	assert.Equal(t, "assistantCommand", entry.FunctionName)
	assert.Equal(t, perflog.StatusSuccess, entry.Status)
	assert.Equal(t, testTenant, entry.TenantID)
	assert.Contains(t, entry.Payload, "how many contacts do I have")
}

func TestHandler_AdminTenantResolution(t *testing.T) {
	interp := newTestInterpreter(seededRepo(t))
	selections := staticSelections{"root@example.com": testTenant}
	h := NewHandler(interp, logging.Default(), WithTenantSelections(selections))

	_, resp := postCommand(t, h, &rootCaller, `{"prompt":"how many contacts"}`, nil)
	assert.Equal(t, testTenant, resp.Meta.TenantID, "stored selection")
	assert.Equal(t, "You have 7 contacts.", resp.SummaryMessage)

	_, resp = postCommand(t, h, &rootCaller, `{"prompt":"how many contacts"}`, map[string]string{"X-Tenant-Id": "tenant-2"})
	assert.Equal(t, "tenant-2", resp.Meta.TenantID, "header hint wins over selection")
	assert.Equal(t, "You have 1 contact.", resp.SummaryMessage)

	_, resp = postCommand(t, h, &rootCaller, `{"prompt":"how many contacts","tenantId":"tenant-9"}`, map[string]string{"X-Tenant-Id": "tenant-2"})
	assert.Equal(t, "tenant-9", resp.Meta.TenantID, "body hint wins over header")

	noSelection := NewHandler(interp, logging.Default())
	rec, resp := postCommand(t, noSelection, &rootCaller, `{"prompt":"list my open opportunities"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "help", resp.Intent)
	require.Len(t, resp.UIActions, 1)
	assert.Equal(t, "warning", resp.UIActions[0].Level)
}

func TestHandler_UserEmailOverride(t *testing.T) {
	h := NewHandler(newTestInterpreter(seededRepo(t)), logging.Default())

	_, resp := postCommand(t, h, &rootCaller, `{"prompt":"go to leads","tenantId":"tenant-1","userEmail":"ana@example.com"}`, nil)
	assert.Equal(t, "ana@example.com", resp.Meta.UserEmail)

	_, resp = postCommand(t, h, &anaCaller, `{"prompt":"go to leads","userEmail":"root@example.com"}`, nil)
	assert.Equal(t, "ana@example.com", resp.Meta.UserEmail)
}

func TestHandler_StoreFailure(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandler(newTestInterpreter(newFailingStore()), logging.Default(), WithPerfLog(sink, time.Second))

	rec, resp := postCommand(t, h, &anaCaller, `{"prompt":"how many leads"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", resp.Intent)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	require.Len(t, sink.entries, 1)
	assert.Equal(t, perflog.StatusError, sink.entries[0].Status)
}

func TestHandler_PerfLogFailureIsCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewAssistantMetrics(reg)
	sink := &recordingSink{err: errors.New("table missing")}
	h := NewHandler(newTestInterpreter(seededRepo(t)), logging.Default(), WithPerfLog(sink, time.Second), WithHandlerMetrics(m))

	rec, resp := postCommand(t, h, &anaCaller, `{"prompt":"go to leads"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "navigate", resp.Intent)
	assert.Equal(t, 1.0, counterValue(t, reg, "crm_assistant_perf_log_failures_total", map[string]string{"sink": "recording"}))
}

func TestHandler_PerfLogOutlivesRequestContext(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandler(newTestInterpreter(seededRepo(t)), logging.Default(), WithPerfLog(sink, time.Second))

	ctx, cancel := context.WithCancel(tenancy.WithCaller(context.Background(), anaCaller))
	req := httptest.NewRequest(http.MethodPost, "/api/assistant/command", strings.NewReader(`{"prompt":"go to leads"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	cancel()
	h.Command(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sink.entries, 1)
}

func TestHandler_ResponseCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.NewAssistantMetrics(reg)
	store := &countingStore{Store: seededRepo(t)}
	interp := NewInterpreter(store, logging.Default(), WithClock(fixedClock), WithMetrics(m))
	h := NewHandler(interp, logging.Default(),
		WithResponseCache(respcache.New(client, time.Minute), respcache.Key),
		WithHandlerMetrics(m),
	)

	_, first := postCommand(t, h, &anaCaller, `{"prompt":"How many contacts?"}`, nil)
	callsAfterFirst := store.calls
	require.Positive(t, callsAfterFirst)

	_, second := postCommand(t, h, &anaCaller, `{"prompt":"  How many contacts?"}`, nil)
	assert.Equal(t, callsAfterFirst, store.calls, "second call must be served from cache")
	assert.Equal(t, first.SummaryMessage, second.SummaryMessage)
	assert.Equal(t, 1.0, counterValue(t, reg, "crm_assistant_response_cache_lookups_total", map[string]string{"result": "hit"}))

	_, _ = postCommand(t, h, &anaCaller, `{"prompt":"how many contacts","includeTestData":true}`, nil)
	assert.Greater(t, store.calls, callsAfterFirst, "test data flag is part of the key")

	calls := store.calls
	_, _ = postCommand(t, h, &anaCaller, `{"prompt":"xyzzy"}`, nil)
	_, help := postCommand(t, h, &anaCaller, `{"prompt":"xyzzy"}`, nil)
	assert.Equal(t, "help", help.Intent)
	assert.Equal(t, calls, store.calls)
	assert.Equal(t, 1.0, counterValue(t, reg, "crm_assistant_response_cache_lookups_total", map[string]string{"result": "hit"}), "help is never cached")
}

func TestHandler_ResponseCacheKeepsPromptCasing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := records.NewInMemoryRepository()
	require.NoError(t, repo.Add(records.Record{
		ID: "l-1", TenantID: testTenant, Entity: records.EntityLead,
		FirstName: "John", LastName: "Doe", Status: "new", CreatedDate: fixedNow,
	}))
	interp := newTestInterpreter(repo)

	lower := "do we have a lead named zed zee"
	cased := "do we have a lead named Zed Zee"
	wantLower, err := interp.Interpret(context.Background(), userRequest(lower))
	require.NoError(t, err)
	wantCased, err := interp.Interpret(context.Background(), userRequest(cased))
	require.NoError(t, err)
	require.NotEqual(t, wantLower.SummaryMessage, wantCased.SummaryMessage, "casing changes name extraction")

	h := NewHandler(interp, logging.Default(), WithResponseCache(respcache.New(client, time.Minute), respcache.Key))
	_, first := postCommand(t, h, &anaCaller, `{"prompt":"`+lower+`"}`, nil)
	_, second := postCommand(t, h, &anaCaller, `{"prompt":"`+cased+`"}`, nil)

	assert.Equal(t, wantLower.SummaryMessage, first.SummaryMessage)
	assert.Equal(t, wantCased.SummaryMessage, second.SummaryMessage)
}

func TestHandler_SelectionStoreIntegration(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	selections := tenantselect.NewStore(client, time.Hour)
	_, err := selections.Set(context.Background(), rootCaller.Email, testTenant)
	require.NoError(t, err)

	h := NewHandler(newTestInterpreter(seededRepo(t)), logging.Default(), WithTenantSelections(selections))
	_, resp := postCommand(t, h, &rootCaller, `{"prompt":"how many contacts"}`, nil)
	assert.Equal(t, testTenant, resp.Meta.TenantID)
}

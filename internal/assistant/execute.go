package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/crm-assistant/internal/observability/metrics"
	"github.com/wolfman30/crm-assistant/internal/records"
)

var tracer = otel.Tracer("crm/assistant")

// Outcome is an intent together with the data fetched for it.
type Outcome struct {
	Intent  Intent
	Hints   Hints
	Count   int
	Records []records.Record
	Match   *records.Record
}

// Executor runs the store queries an intent needs. Navigate and Help never reach
// the store, so they never hit the tenant gate either.
type Executor struct {
	store   records.Store
	metrics *metrics.AssistantMetrics
}

func NewExecutor(store records.Store, m *metrics.AssistantMetrics) *Executor {
	if store == nil {
		panic("assistant: record store required")
	}
	return &Executor{store: store, metrics: m}
}

// allCandidates is the store limit for name resolution and lead search: every
// record in scope is scored, however old.
const allCandidates = 0

// Execute fetches the data for intent. ErrTenantRequired is returned unwrapped
// when a data intent has no tenant in scope.
func (e *Executor) Execute(ctx context.Context, intent Intent, u Utterance, h Hints, scope Scope) (Outcome, error) {
	out := Outcome{Intent: intent, Hints: h}
	switch in := intent.(type) {
	case ToolCall:
		recs, err := e.searchLeads(ctx, in.Args, scope)
		if err != nil {
			return out, err
		}
		out.Records = recs
		out.Count = len(recs)
	case CountQuery:
		f, err := BuildFilter(in.Entity, h, scope)
		if err != nil {
			return out, err
		}
		n, err := e.count(ctx, in.Entity, f)
		if err != nil {
			return out, err
		}
		out.Count = n
	case ListQuery:
		f, err := BuildFilter(in.Entity, h, scope)
		if err != nil {
			return out, err
		}
		recs, err := e.filter(ctx, in.Entity, f, SortFor(in.Entity), in.Limit)
		if err != nil {
			return out, err
		}
		out.Records = recs
		out.Count = len(recs)
	case RecordLookup:
		match, err := e.lookup(ctx, in, u, scope)
		if err != nil {
			return out, err
		}
		out.Match = match
	}
	return out, nil
}

func (e *Executor) searchLeads(ctx context.Context, args ToolArgs, scope Scope) ([]records.Record, error) {
	f, err := BaseFilter(scope)
	if err != nil {
		return nil, err
	}
	if args.Status != "" {
		f["status"] = args.Status
	}
	candidates, err := e.filter(ctx, records.EntityLead, f, SortFor(records.EntityLead), allCandidates)
	if err != nil {
		return nil, err
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	needle := Normalize(args.Query)
	var out []records.Record
	for _, rec := range candidates {
		if !leadMatchesSearch(needle, rec) {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func leadMatchesSearch(needle string, rec records.Record) bool {
	if needle == "" {
		return false
	}
	for _, field := range []string{rec.DisplayName(), rec.Email, rec.Company, rec.PhoneNumber()} {
		if v := Normalize(field); v != "" && strings.Contains(v, needle) {
			return true
		}
	}
	return false
}

// lookup resolves a person reference. Existence questions short-circuit when the
// tenant has exactly one lead and nothing in the prompt contradicts it.
func (e *Executor) lookup(ctx context.Context, l RecordLookup, u Utterance, scope Scope) (*records.Record, error) {
	base, err := BaseFilter(scope)
	if err != nil {
		return nil, err
	}

	if l.Kind == LookupExistence && containsEntity(l.Entities, records.EntityLead) {
		n, err := e.count(ctx, records.EntityLead, base)
		if err != nil {
			return nil, err
		}
		if n == 1 {
			recs, err := e.filter(ctx, records.EntityLead, base, SortFor(records.EntityLead), 1)
			if err != nil {
				return nil, err
			}
			if len(recs) == 1 && (l.Subject == "" || Score(u.Norm, recs[0]) >= MatchThreshold) {
				return &recs[0], nil
			}
		}
	}

	for _, entity := range l.Entities {
		recs, err := e.filter(ctx, entity, base, SortFor(entity), allCandidates)
		if err != nil {
			return nil, err
		}
		if best, ok := BestMatch(u.Norm, recs); ok {
			return &best.Record, nil
		}
	}
	return nil, nil
}

func containsEntity(list []records.Entity, entity records.Entity) bool {
	for _, e := range list {
		if e == entity {
			return true
		}
	}
	return false
}

func (e *Executor) count(ctx context.Context, entity records.Entity, f records.Filter) (int, error) {
	ctx, span := tracer.Start(ctx, "assistant.store.count",
		trace.WithAttributes(attribute.String("crm.entity", string(entity))))
	defer span.End()

	n, err := e.store.Count(ctx, entity, f)
	if err != nil {
		span.RecordError(err)
		e.metrics.ObserveStoreError(string(entity))
		return 0, fmt.Errorf("assistant: count %s: %w", entity.Plural(), err)
	}
	return n, nil
}

func (e *Executor) filter(ctx context.Context, entity records.Entity, f records.Filter, sortBy string, limit int) ([]records.Record, error) {
	ctx, span := tracer.Start(ctx, "assistant.store.filter",
		trace.WithAttributes(
			attribute.String("crm.entity", string(entity)),
			attribute.Int("crm.limit", limit),
		))
	defer span.End()

	recs, err := e.store.Filter(ctx, entity, f, sortBy, limit)
	if err != nil {
		span.RecordError(err)
		e.metrics.ObserveStoreError(string(entity))
		return nil, fmt.Errorf("assistant: filter %s: %w", entity.Plural(), err)
	}
	span.SetAttributes(attribute.Int("crm.results", len(recs)))
	return recs, nil
}

package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/crm-assistant/internal/observability/metrics"
	"github.com/wolfman30/crm-assistant/internal/records"
	"github.com/wolfman30/crm-assistant/internal/tenancy"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

// CommandRequest is one inbound prompt. TenantID and UserEmail are resolved by the
// HTTP layer before interpretation.
type CommandRequest struct {
	Text            string
	TenantHint      string
	CallerEmail     string
	CallerRole      tenancy.Role
	IncludeTestData bool

	TenantID  string
	UserEmail string
}

// Interpreter runs normalization, classification, execution and rendering for a
// prompt. It holds no per-request state and is safe for concurrent use.
type Interpreter struct {
	catalog  *PageCatalog
	chain    []Classifier
	executor *Executor
	logger   *logging.Logger
	metrics  *metrics.AssistantMetrics
	now      func() time.Time
}

type InterpreterOption func(*Interpreter)

// WithPageCatalog replaces the embedded page catalog.
func WithPageCatalog(catalog *PageCatalog) InterpreterOption {
	return func(i *Interpreter) {
		if catalog != nil {
			i.catalog = catalog
		}
	}
}

func WithMetrics(m *metrics.AssistantMetrics) InterpreterOption {
	return func(i *Interpreter) {
		i.metrics = m
	}
}

// WithClock overrides time.Now, used to make meta.duration_ms reproducible in tests.
func WithClock(now func() time.Time) InterpreterOption {
	return func(i *Interpreter) {
		if now != nil {
			i.now = now
		}
	}
}

func NewInterpreter(store records.Store, logger *logging.Logger, opts ...InterpreterOption) *Interpreter {
	if logger == nil {
		logger = logging.Default()
	}
	i := &Interpreter{
		catalog: DefaultPageCatalog(),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.chain = DefaultClassifiers(i.catalog)
	i.executor = NewExecutor(store, i.metrics)
	return i
}

// Interpret answers a prompt. The returned error is non-nil only when the record
// store failed; the response is then the generic error contract.
func (i *Interpreter) Interpret(ctx context.Context, req CommandRequest) (Response, error) {
	start := i.now()
	ctx, span := tracer.Start(ctx, "assistant.interpret")
	defer span.End()

	u := NewUtterance(req.Text)
	hints := ExtractHints(u)
	intent, stage := Classify(i.chain, u, hints)
	span.SetAttributes(
		attribute.String("assistant.classifier", stage),
		attribute.String("assistant.intent", intent.Name()),
	)

	userEmail := req.UserEmail
	if userEmail == "" {
		userEmail = req.CallerEmail
	}
	scope := Scope{
		TenantID:        strings.TrimSpace(req.TenantID),
		UserEmail:       userEmail,
		Role:            req.CallerRole,
		IncludeTestData: req.IncludeTestData,
	}

	status := "ok"
	outcome, err := i.executor.Execute(ctx, intent, u, hints, scope)
	var resp Response
	switch {
	case errors.Is(err, ErrTenantRequired):
		variant := HelpNoTenant
		if req.CallerRole.AdminLike() {
			variant = HelpSelectTenant
		}
		resp = Render(Outcome{Intent: Help{Variant: variant}}, i.catalog)
		status = "tenant_required"
		err = nil
	case err != nil:
		span.RecordError(err)
		i.logger.Error("assistant command failed",
			"classifier", stage,
			"intent", intent.Name(),
			"tenant_id", scope.TenantID,
			"error", err,
		)
		resp = ErrorResponse()
		status = "error"
	default:
		resp = Render(outcome, i.catalog)
	}

	elapsed := i.now().Sub(start)
	resp.Meta = Meta{
		DurationMS: elapsed.Milliseconds(),
		UserEmail:  userEmail,
		TenantID:   scope.TenantID,
	}
	i.metrics.ObserveCommand(resp.Intent, status, elapsed.Seconds())
	i.logger.Debug("assistant command interpreted",
		"classifier", stage,
		"intent", resp.Intent,
		"status", status,
		"tenant_id", scope.TenantID,
		"duration_ms", resp.Meta.DurationMS,
	)
	return resp, err
}

package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/crm-assistant/internal/observability/metrics"
	"github.com/wolfman30/crm-assistant/internal/perflog"
	"github.com/wolfman30/crm-assistant/internal/tenancy"
	"github.com/wolfman30/crm-assistant/internal/tenantselect"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

const (
	maxCommandBodyBytes   = 64 << 10
	tenantHeader          = "X-Tenant-Id"
	perfLogFunctionName   = "assistantCommand"
	defaultPerfLogTimeout = 2 * time.Second
)

// TenantSelections returns the tenant an admin-like caller picked, or
// tenantselect.ErrNotFound.
type TenantSelections interface {
	Get(ctx context.Context, userEmail string) (string, error)
}

// ResponseCache stores encoded responses by key.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CacheKeyFunc derives a cache key from its parts.
type CacheKeyFunc func(parts ...string) string

// Handler serves POST /api/assistant/command.
type Handler struct {
	interpreter    *Interpreter
	logger         *logging.Logger
	selections     TenantSelections
	cache          ResponseCache
	cacheKey       CacheKeyFunc
	perfLog        perflog.Sink
	perfLogTimeout time.Duration
	metrics        *metrics.AssistantMetrics
	now            func() time.Time
}

type HandlerOption func(*Handler)

// WithTenantSelections resolves admin tenants from persisted selections.
func WithTenantSelections(s TenantSelections) HandlerOption {
	return func(h *Handler) {
		h.selections = s
	}
}

// WithResponseCache enables request-level caching of successful responses.
func WithResponseCache(c ResponseCache, key CacheKeyFunc) HandlerOption {
	return func(h *Handler) {
		if c != nil && key != nil {
			h.cache = c
			h.cacheKey = key
		}
	}
}

// WithPerfLog writes one entry per call with its own timeout.
func WithPerfLog(sink perflog.Sink, timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		h.perfLog = sink
		if timeout > 0 {
			h.perfLogTimeout = timeout
		}
	}
}

func WithHandlerMetrics(m *metrics.AssistantMetrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

func NewHandler(interpreter *Interpreter, logger *logging.Logger, opts ...HandlerOption) *Handler {
	if interpreter == nil {
		panic("assistant: interpreter required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		interpreter:    interpreter,
		logger:         logger,
		perfLog:        perflog.NoopSink{},
		perfLogTimeout: defaultPerfLogTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type commandBody struct {
	Prompt          string `json:"prompt"`
	TenantID        string `json:"tenantId,omitempty"`
	UserEmail       string `json:"userEmail,omitempty"`
	IncludeTestData bool   `json:"includeTestData,omitempty"`
}

// Command interprets one prompt.
// POST /api/assistant/command
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	caller, ok := tenancy.CallerFromContext(r.Context())
	if !ok {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body commandBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBodyBytes)).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	prompt := strings.TrimSpace(body.Prompt)
	if prompt == "" {
		jsonError(w, "prompt is required", http.StatusBadRequest)
		return
	}

	hint := strings.TrimSpace(body.TenantID)
	if hint == "" {
		hint = strings.TrimSpace(r.Header.Get(tenantHeader))
	}
	req := CommandRequest{
		Text:            prompt,
		TenantHint:      hint,
		CallerEmail:     caller.Email,
		CallerRole:      caller.Role,
		IncludeTestData: body.IncludeTestData,
		TenantID:        h.resolveTenant(r.Context(), caller, hint),
		UserEmail:       resolveUserEmail(caller, body.UserEmail),
	}

	var key string
	if h.cache != nil && req.TenantID != "" {
		// Casing and punctuation drive name extraction, so the raw prompt is part of the key.
		key = h.cacheKey(req.TenantID, req.UserEmail, strconv.FormatBool(req.IncludeTestData), prompt)
		if resp, hit := h.cached(r.Context(), key); hit {
			resp.Meta.DurationMS = h.now().Sub(start).Milliseconds()
			writeJSON(w, http.StatusOK, resp)
			h.writePerfLog(r.Context(), req, resp, perflog.StatusSuccess, start)
			return
		}
	}

	resp, err := h.interpreter.Interpret(r.Context(), req)
	status := http.StatusOK
	logStatus := perflog.StatusSuccess
	if err != nil {
		status = http.StatusInternalServerError
		logStatus = perflog.StatusError
	}
	writeJSON(w, status, resp)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if err == nil && key != "" && resp.Intent != (Help{}).Name() {
		h.store(r.Context(), key, resp)
	}
	h.writePerfLog(r.Context(), req, resp, logStatus, start)
}

// resolveTenant applies the tenant rules: ordinary users always get their own
// tenant; admin-like callers use the explicit hint, then their stored selection,
// then their own tenant.
func (h *Handler) resolveTenant(ctx context.Context, caller tenancy.Caller, hint string) string {
	if !caller.Role.AdminLike() {
		return caller.TenantID
	}
	if hint != "" {
		return hint
	}
	if h.selections != nil {
		tenantID, err := h.selections.Get(ctx, caller.Email)
		switch {
		case err == nil && tenantID != "":
			return tenantID
		case err != nil && !errors.Is(err, tenantselect.ErrNotFound):
			h.logger.Warn("tenant selection lookup failed", "user_email", caller.Email, "error", err)
		}
	}
	return caller.TenantID
}

// resolveUserEmail honors a body override only for superadmins acting on behalf of a user.
func resolveUserEmail(caller tenancy.Caller, override string) string {
	override = strings.TrimSpace(override)
	if override != "" && caller.Role == tenancy.RoleSuperadmin {
		return override
	}
	return caller.Email
}

func (h *Handler) cached(ctx context.Context, key string) (Response, bool) {
	data, hit, err := h.cache.Get(ctx, key)
	if err != nil {
		h.logger.Warn("response cache read failed", "error", err)
		return Response{}, false
	}
	h.metrics.ObserveCacheLookup(hit)
	if !hit {
		return Response{}, false
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		h.logger.Warn("response cache entry unreadable", "error", err)
		return Response{}, false
	}
	if resp.UIActions == nil {
		resp.UIActions = []UIAction{}
	}
	return resp, true
}

func (h *Handler) store(ctx context.Context, key string, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, key, data); err != nil {
		h.logger.Warn("response cache write failed", "error", err)
	}
}

// writePerfLog is best effort: failures are counted and otherwise dropped.
func (h *Handler) writePerfLog(ctx context.Context, req CommandRequest, resp Response, status string, start time.Time) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.perfLogTimeout)
	defer cancel()

	entry, err := perflog.NewEntry(perfLogFunctionName, h.now().Sub(start), status, req.TenantID,
		map[string]any{
			"prompt":          req.Text,
			"tenantId":        req.TenantHint,
			"userEmail":       req.UserEmail,
			"includeTestData": req.IncludeTestData,
		}, resp)
	if err == nil {
		err = h.perfLog.Write(ctx, entry)
	}
	if err != nil {
		h.metrics.ObservePerfLogFailure(h.perfLog.Name())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

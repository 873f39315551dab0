package tenantselect

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/crm-assistant/internal/tenancy"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

// Handler exposes the caller's tenant selection. Only admin-like callers may use it.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Routes mounts GET, PUT and DELETE on the handler root.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.Put("/", h.Put)
	r.Delete("/", h.Delete)
	return r
}

type selectionRequest struct {
	TenantID string `json:"tenantId"`
}

// Get returns the stored selection.
// GET /api/assistant/tenant
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.adminCaller(w, r)
	if !ok {
		return
	}
	sel, err := h.store.Selection(r.Context(), caller.Email)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "no tenant selected")
		return
	}
	if err != nil {
		h.logger.Error("failed to load tenant selection", "user_email", caller.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// Put stores a new selection.
// PUT /api/assistant/tenant
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.adminCaller(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TenantID == "" {
		writeError(w, http.StatusBadRequest, "tenantId is required")
		return
	}
	sel, err := h.store.Set(r.Context(), caller.Email, req.TenantID)
	if err != nil {
		h.logger.Error("failed to save tenant selection", "user_email", caller.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save selection")
		return
	}
	h.logger.Info("tenant selected", "user_email", caller.Email, "tenant_id", sel.TenantID)
	writeJSON(w, http.StatusOK, sel)
}

// Delete clears the selection.
// DELETE /api/assistant/tenant
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.adminCaller(w, r)
	if !ok {
		return
	}
	if err := h.store.Clear(r.Context(), caller.Email); err != nil {
		h.logger.Error("failed to clear tenant selection", "user_email", caller.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear selection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminCaller(w http.ResponseWriter, r *http.Request) (tenancy.Caller, bool) {
	caller, ok := tenancy.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return tenancy.Caller{}, false
	}
	if !caller.Role.AdminLike() {
		writeError(w, http.StatusForbidden, "tenant selection requires an admin role")
		return tenancy.Caller{}, false
	}
	return caller, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

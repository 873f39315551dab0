package bootstrap

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/crm-assistant/internal/assistant"
	appconfig "github.com/wolfman30/crm-assistant/internal/config"
	"github.com/wolfman30/crm-assistant/internal/observability/metrics"
	"github.com/wolfman30/crm-assistant/internal/perflog"
	"github.com/wolfman30/crm-assistant/internal/records"
	"github.com/wolfman30/crm-assistant/internal/respcache"
	"github.com/wolfman30/crm-assistant/internal/tenantselect"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

const tenantSelectionTTL = 30 * 24 * time.Hour

// Assistant groups the HTTP handlers of the command assistant.
type Assistant struct {
	Command         *assistant.Handler
	TenantSelection *tenantselect.Handler
}

// BuildAssistant wires the interpreter and its optional Redis collaborators.
// Without Redis, admins must send a tenant hint on every request and nothing is cached.
func BuildAssistant(cfg *appconfig.Config, store records.Store, redisClient *redis.Client, sink perflog.Sink, m *metrics.AssistantMetrics, logger *logging.Logger) (*Assistant, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("bootstrap: record store is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	interp := assistant.NewInterpreter(store, logger, assistant.WithMetrics(m))
	opts := []assistant.HandlerOption{
		assistant.WithPerfLog(sink, cfg.PerfLogTimeout),
		assistant.WithHandlerMetrics(m),
	}

	out := &Assistant{}
	if redisClient != nil {
		selections := tenantselect.NewStore(redisClient, tenantSelectionTTL)
		opts = append(opts, assistant.WithTenantSelections(selections))
		out.TenantSelection = tenantselect.NewHandler(selections, logger)
		if cfg.ResponseCacheTTL > 0 {
			opts = append(opts, assistant.WithResponseCache(respcache.New(redisClient, cfg.ResponseCacheTTL), respcache.Key))
		}
	}
	out.Command = assistant.NewHandler(interp, logger, opts...)
	return out, nil
}

package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	appconfig "github.com/wolfman30/crm-assistant/internal/config"
	"github.com/wolfman30/crm-assistant/internal/perflog"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

// Performance log backends accepted in PERF_LOG_BACKEND.
const (
	PerfLogBackendNone     = "none"
	PerfLogBackendPostgres = "postgres"
	PerfLogBackendDynamoDB = "dynamodb"
	PerfLogBackendSQS      = "sqs"
)

// PerfLogDeps are the clients a sink may need. Only the one matching the
// configured backend has to be set.
type PerfLogDeps struct {
	Pool *pgxpool.Pool
	AWS  *aws.Config
}

// BuildPerfLogSink wires the configured performance log sink.
func BuildPerfLogSink(cfg *appconfig.Config, deps PerfLogDeps, logger *logging.Logger) (perflog.Sink, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.PerfLogBackend))
	switch backend {
	case "", PerfLogBackendNone:
		return perflog.NoopSink{}, nil

	case PerfLogBackendPostgres:
		if deps.Pool == nil {
			return nil, fmt.Errorf("bootstrap: perf log backend postgres requires DATABASE_URL")
		}
		sink, err := perflog.NewSQLSink(stdlib.OpenDBFromPool(deps.Pool), cfg.PerfLogTable)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		logger.Info("performance log sink configured", "backend", backend, "table", cfg.PerfLogTable)
		return sink, nil

	case PerfLogBackendDynamoDB:
		if deps.AWS == nil {
			return nil, fmt.Errorf("bootstrap: perf log backend dynamodb requires AWS config")
		}
		if strings.TrimSpace(cfg.PerfLogTable) == "" {
			return nil, fmt.Errorf("bootstrap: PERF_LOG_TABLE is required for dynamodb")
		}
		logger.Info("performance log sink configured", "backend", backend, "table", cfg.PerfLogTable)
		return perflog.NewDynamoSink(dynamodb.NewFromConfig(*deps.AWS), cfg.PerfLogTable), nil

	case PerfLogBackendSQS:
		if deps.AWS == nil {
			return nil, fmt.Errorf("bootstrap: perf log backend sqs requires AWS config")
		}
		if strings.TrimSpace(cfg.PerfLogQueueURL) == "" {
			return nil, fmt.Errorf("bootstrap: PERF_LOG_QUEUE_URL is required for sqs")
		}
		logger.Info("performance log sink configured", "backend", backend)
		return perflog.NewSQSSink(sqs.NewFromConfig(*deps.AWS), cfg.PerfLogQueueURL), nil

	default:
		return nil, fmt.Errorf("bootstrap: unknown perf log backend %q", cfg.PerfLogBackend)
	}
}

// NeedsAWS reports whether the configured perf log backend talks to AWS.
func NeedsAWS(cfg *appconfig.Config) bool {
	if cfg == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(cfg.PerfLogBackend)) {
	case PerfLogBackendDynamoDB, PerfLogBackendSQS:
		return true
	}
	return false
}

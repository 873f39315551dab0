package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/crm-assistant/internal/config"
	"github.com/wolfman30/crm-assistant/internal/observability/metrics"
	"github.com/wolfman30/crm-assistant/internal/perflog"
	"github.com/wolfman30/crm-assistant/internal/records"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

func TestBuildRedisClient_Disabled(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true))
	assert.Nil(t, BuildRedisClient(context.Background(), nil, nil, true))
}

func TestBuildRedisClient_Verified(t *testing.T) {
	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logging.Default(), true)
	require.NotNil(t, client)
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())
}

func TestBuildRedisClient_UnreachableReturnsNil(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logging.Default(), true))
}

func TestBuildPostgresPool_EmptyURL(t *testing.T) {
	pool, err := BuildPostgresPool(context.Background(), "  ", nil)
	require.NoError(t, err)
	assert.Nil(t, pool)
}

func TestBuildRecordStore_SeedFile(t *testing.T) {
	cfg := &appconfig.Config{SeedFile: filepath.Join("..", "..", "..", "testdata", "seed.json")}
	store, err := BuildRecordStore(context.Background(), cfg, nil, logging.Default())
	require.NoError(t, err)

	n, err := store.Count(context.Background(), records.EntityLead, records.Filter{"tenant_id": "demo", "is_test_data": false})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestBuildRecordStore_NoSeedIsEmpty(t *testing.T) {
	store, err := BuildRecordStore(context.Background(), &appconfig.Config{}, nil, logging.Default())
	require.NoError(t, err)
	n, err := store.Count(context.Background(), records.EntityContact, records.Filter{"tenant_id": "demo"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBuildRecordStore_BadSeed(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id":"x","entity":"Invoice"}]`), 0o600))

	_, err := BuildRecordStore(context.Background(), &appconfig.Config{SeedFile: bad}, nil, logging.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, records.ErrUnknownEntity)

	_, err = BuildRecordStore(context.Background(), &appconfig.Config{SeedFile: filepath.Join(dir, "missing.json")}, nil, logging.Default())
	require.Error(t, err)
}

func TestBuildPerfLogSink(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}

	tests := []struct {
		name    string
		cfg     appconfig.Config
		deps    PerfLogDeps
		want    string
		wantErr bool
	}{
		{name: "default none", cfg: appconfig.Config{}, want: "none"},
		{name: "explicit none", cfg: appconfig.Config{PerfLogBackend: "none"}, want: "none"},
		{name: "postgres without pool", cfg: appconfig.Config{PerfLogBackend: "postgres", PerfLogTable: "performance_logs"}, wantErr: true},
		{name: "dynamodb", cfg: appconfig.Config{PerfLogBackend: "dynamodb", PerfLogTable: "perf"}, deps: PerfLogDeps{AWS: &awsCfg}, want: "dynamodb"},
		{name: "dynamodb without table", cfg: appconfig.Config{PerfLogBackend: "dynamodb"}, deps: PerfLogDeps{AWS: &awsCfg}, wantErr: true},
		{name: "dynamodb without aws", cfg: appconfig.Config{PerfLogBackend: "dynamodb", PerfLogTable: "perf"}, wantErr: true},
		{name: "sqs", cfg: appconfig.Config{PerfLogBackend: "SQS", PerfLogQueueURL: "https://sqs.local/q"}, deps: PerfLogDeps{AWS: &awsCfg}, want: "sqs"},
		{name: "sqs without queue", cfg: appconfig.Config{PerfLogBackend: "sqs"}, deps: PerfLogDeps{AWS: &awsCfg}, wantErr: true},
		{name: "unknown", cfg: appconfig.Config{PerfLogBackend: "kafka"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			sink, err := BuildPerfLogSink(&cfg, tt.deps, logging.Default())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, sink.Name())
		})
	}
}

func TestNeedsAWS(t *testing.T) {
	assert.True(t, NeedsAWS(&appconfig.Config{PerfLogBackend: "dynamodb"}))
	assert.True(t, NeedsAWS(&appconfig.Config{PerfLogBackend: " sqs "}))
	assert.False(t, NeedsAWS(&appconfig.Config{PerfLogBackend: "postgres"}))
	assert.False(t, NeedsAWS(nil))
}

func TestBuildAssistant(t *testing.T) {
	repo := records.NewInMemoryRepository()
	m := metrics.NewAssistantMetrics(prometheus.NewRegistry())
	cfg := &appconfig.Config{ResponseCacheTTL: 0}

	_, err := BuildAssistant(cfg, nil, nil, perflog.NoopSink{}, m, nil)
	require.Error(t, err)

	out, err := BuildAssistant(cfg, repo, nil, perflog.NoopSink{}, m, nil)
	require.NoError(t, err)
	assert.NotNil(t, out.Command)
	assert.Nil(t, out.TenantSelection, "tenant selection needs redis")

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, nil, false)
	defer client.Close()
	out, err = BuildAssistant(cfg, repo, client, perflog.NoopSink{}, m, nil)
	require.NoError(t, err)
	assert.NotNil(t, out.TenantSelection)
}


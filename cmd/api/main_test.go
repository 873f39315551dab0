package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMetricsExposesAssistantCounters(t *testing.T) {
	handler, m := setupMetrics()
	require.NotNil(t, handler)
	require.NotNil(t, m)

	m.ObserveCommand("count", "ok", 0.01)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `crm_assistant_commands_total{intent="count",status="ok"} 1`)
	assert.True(t, strings.Contains(body, "go_goroutines"), "runtime collectors registered")
}

func TestHealthChecksSkipsMissingBackends(t *testing.T) {
	assert.Empty(t, healthChecks(nil, nil))
}

func TestHealthChecksPingsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	checks := healthChecks(nil, client)
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"](context.Background()))

	mr.Close()
	assert.Error(t, checks["redis"](context.Background()))
}

func TestNewServerTimeouts(t *testing.T) {
	srv := newServer("9090", http.NotFoundHandler())
	assert.Equal(t, ":9090", srv.Addr)
	assert.NotZero(t, srv.ReadHeaderTimeout)
	assert.NotZero(t, srv.WriteTimeout)
}

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/defi-reputation/internal/config"
	"github.com/ninja0404/defi-reputation/internal/pipeline"
	"github.com/ninja0404/defi-reputation/internal/publisher"
	"github.com/ninja0404/defi-reputation/internal/scorer"
	"github.com/ninja0404/defi-reputation/internal/source"
	"github.com/ninja0404/defi-reputation/internal/stats"
)

const testConfigYaml = `
logger:
  level: error
  debug: true

kafka:
  brokers:
    - "127.0.0.1:9092"
  input_topic: "wallet-transactions"
  success_topic: "wallet-scores"
  failure_topic: "wallet-scores-failed"
  consumer:
    group_id: "test-group"
    sasl_password: "secret-consumer"
  producer:
    sasl_password: "secret-producer"

engine:
  workers: 2

server:
  host: "127.0.0.1"
  port: 18080

archive:
  enabled: false
  mysql:
    user: "root"
    password: "secret-mysql"
    host: "127.0.0.1"
    port: 3306
    database: "test"
`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfigYaml), 0o644))

	configManager := config.NewManager()
	require.NoError(t, configManager.Load(configPath))

	tracker := stats.NewTracker()
	engine := scorer.NewEngine(1, tracker)
	publisherManager := publisher.NewManager()
	sourceFactory := func() (*source.Manager, error) {
		return source.NewManager(), nil
	}

	pl := pipeline.NewPipeline(sourceFactory, engine, publisherManager, tracker)
	return New(configManager.GetServerConfig(), pl, configManager)
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(method, path, nil)
	s.httpServer.Handler.ServeHTTP(recorder, request)
	return recorder
}

func TestRootEndpoint(t *testing.T) {
	s := newTestServer(t)

	resp := doRequest(s, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, resp.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "defi-reputation", body["service"])
	assert.Equal(t, "running", body["status"])
}

func TestHealthEndpointUnhealthyBeforeStart(t *testing.T) {
	s := newTestServer(t)

	// 管道未启动，健康检查返回503
	for _, path := range []string{"/health", "/api/v1/health"} {
		resp := doRequest(s, http.MethodGet, path)
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code, path)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body["status"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/stats", "/api/v1/stats"} {
		resp := doRequest(s, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, resp.Code, path)

		var snapshot stats.Snapshot
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &snapshot))
		assert.Zero(t, snapshot.TotalProcessed)
	}
}

func TestAdminConfigMasksSecrets(t *testing.T) {
	s := newTestServer(t)

	resp := doRequest(s, http.MethodGet, "/admin/config")
	assert.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.NotContains(t, body, "secret-consumer")
	assert.NotContains(t, body, "secret-producer")
	assert.NotContains(t, body, "secret-mysql")
	assert.Contains(t, body, "******")
}

func TestAdminRestartRequiresRunningPipeline(t *testing.T) {
	s := newTestServer(t)

	resp := doRequest(s, http.MethodPost, "/admin/restart-pipeline")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestAdminRestartRejectsGet(t *testing.T) {
	s := newTestServer(t)

	resp := doRequest(s, http.MethodGet, "/admin/restart-pipeline")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

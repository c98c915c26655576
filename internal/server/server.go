package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ninja0404/defi-reputation/internal/config"
	"github.com/ninja0404/defi-reputation/internal/pipeline"
	"github.com/ninja0404/defi-reputation/internal/stats"
	"github.com/ninja0404/defi-reputation/pkg/logger"
)

const (
	serviceName    = "defi-reputation"
	serviceVersion = "1.0.0"

	readTimeout     = 10 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Server 运维HTTP服务：健康检查、统计与管理接口
type Server struct {
	httpServer    *http.Server
	pipeline      *pipeline.Pipeline
	configManager *config.Manager
	startTime     time.Time
}

// New 创建HTTP服务
func New(cfg config.ServerConfig, pl *pipeline.Pipeline, configManager *config.Manager) *Server {
	s := &Server{
		pipeline:      pl,
		configManager: configManager,
		startTime:     time.Now(),
	}

	router := mux.NewRouter()
	router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/admin/restart-pipeline", s.handleRestartPipeline).Methods(http.MethodPost)
	router.HandleFunc("/admin/config", s.handleConfig).Methods(http.MethodGet)

	// 带版本前缀的别名路由
	apiV1 := router.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	apiV1.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	host := cfg.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Port
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return s
}

// Start 启动HTTP服务，监听失败时通过返回通道报告
func (s *Server) Start() {
	go func() {
		logger.Info("🌐 HTTP服务已启动", logger.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP服务异常退出", logger.FieldErr(err))
		}
	}()
}

// Stop 优雅关闭HTTP服务
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("HTTP服务已停止")
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":        serviceName,
		"version":        serviceVersion,
		"status":         "running",
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"endpoints": []string{
			"/health",
			"/stats",
			"/api/v1/health",
			"/api/v1/stats",
			"/admin/restart-pipeline",
			"/admin/config",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	healthy := s.pipeline.Healthy()
	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	writeJSON(w, status, map[string]interface{}{
		"status":    state,
		"timestamp": time.Now().Unix(),
	})
}

type statsResponse struct {
	stats.Snapshot
	UptimeSeconds int64 `json:"uptime_seconds"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Snapshot:      s.pipeline.GetStats(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

func (s *Server) handleRestartPipeline(w http.ResponseWriter, r *http.Request) {
	logger.Info("收到管道重启请求", logger.String("remote_addr", r.RemoteAddr))

	if err := s.pipeline.RestartSources(); err != nil {
		logger.Error("管道重启失败", logger.FieldErr(err))
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "restarted",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	masked := s.configManager.MaskedConfig()
	if masked == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status": "error",
			"error":  "config not loaded",
		})
		return
	}
	writeJSON(w, http.StatusOK, masked)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("写入HTTP响应失败", logger.FieldErr(err))
	}
}

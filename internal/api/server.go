package api

import (
	"encoding/json"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/equitylens/equitylens/internal/chat"
	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/report"
	"github.com/equitylens/equitylens/internal/workflow"
)

// Server exposes the research pipeline and report corpus over HTTP.
type Server struct {
	router   chi.Router
	workflow *workflow.Manager
	reports  *report.Storage
	chat     *chat.Agent
}

// NewServer wires the HTTP surface over the workflow manager, report
// storage, and chat agent.
func NewServer(manager *workflow.Manager, reports *report.Storage, chatAgent *chat.Agent) *Server {
	srv := &Server{
		router:   chi.NewRouter(),
		workflow: manager,
		reports:  reports,
		chat:     chatAgent,
	}
	srv.routes()
	common.Logger().Info("api: server ready")
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/v1/research", s.handleResearchStart)
	s.router.Get("/v1/research/status", s.handleResearchStatus)
	s.router.Get("/v1/reports", s.handleReportList)
	s.router.Get("/v1/reports/{reportID}", s.handleReportGet)
	s.router.Delete("/v1/reports/{reportID}", s.handleReportDelete)
	s.router.Get("/v1/reports/{reportID}/chunks", s.handleReportChunks)
	s.router.Post("/v1/reports/{reportID}/chat", s.handleReportChat)
	s.router.Get("/v1/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/equitylens/equitylens/internal/common"
)

func (s *Server) handleResearchStart(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: research decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Ticker) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("ticker required"))
		return
	}
	run, err := s.workflow.StartRun(req.Ticker, req.TradeType, req.Context)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	logger.Info("api: research run started",
		"run_id", run.RunID, "ticker", run.Ticker, "trade_type", run.TradeType)
	writeJSON(w, http.StatusAccepted, run)
}

func (s *Server) handleResearchStatus(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.URL.Query().Get("run_id"))
	if runID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("run_id required"))
		return
	}
	run, ok := s.workflow.GetRun(runID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("run %s not found", runID))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

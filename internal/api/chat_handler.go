package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/store"
)

func (s *Server) handleReportChat(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	reportID := chi.URLParam(r, "reportID")
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: chat decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("question required"))
		return
	}

	if _, err := s.reports.Get(r.Context(), reportID); err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	answer, matches, err := s.chat.Answer(r.Context(), reportID, req.SessionID, req.Question, req.Section)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Info("api: chat answered", "report_id", reportID, "question_len", len(req.Question), "excerpts", len(matches))
	writeJSON(w, http.StatusOK, chatResponse{Answer: answer, SessionID: req.SessionID, Excerpts: newExcerptViews(matches)})
}

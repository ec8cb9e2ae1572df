package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/store"
)

const defaultListLimit = 10

func (s *Server) handleReportList(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(r.URL.Query().Get("ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("ticker required"))
		return
	}
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}
	reports, err := s.reports.ListByTicker(r.Context(), ticker, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if reports == nil {
		reports = []store.Report{}
	}
	writeJSON(w, http.StatusOK, reportListResponse{
		Ticker:  strings.ToUpper(ticker),
		Reports: reports,
	})
}

func (s *Server) handleReportGet(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	rep, err := s.reports.Get(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportDelete(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	if err := s.reports.Delete(r.Context(), reportID); err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	common.Logger().Info("api: report deleted", "report_id", reportID)
	writeJSON(w, http.StatusOK, map[string]string{"deleted": reportID})
}

func (s *Server) handleReportChunks(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	includeEmbeddings := r.URL.Query().Get("embeddings") == "true"

	// Chunk reads do not touch the reports table, so verify existence first
	// to distinguish an empty report from a missing one.
	if _, err := s.reports.Get(r.Context(), reportID); err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	chunks, err := s.reports.Chunks(r.Context(), reportID, includeEmbeddings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]chunkView, len(chunks))
	for i, chunk := range chunks {
		views[i] = newChunkView(chunk)
	}
	writeJSON(w, http.StatusOK, chunksResponse{ReportID: reportID, Chunks: views})
}

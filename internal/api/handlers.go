package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-ai/internal/models"
)

type handlers struct {
	name      string
	version   string
	predictor Predictor
	history   HistoryReader
	reports   ReportLookup
	logger    logrus.FieldLogger
}

type rootResponse struct {
	OK      bool   `json:"ok"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{OK: true, Name: h.name, Version: h.version})
}

func (h *handlers) predict(w http.ResponseWriter, r *http.Request) {
	report, err := h.predictor.Predict(r.Context())
	if err != nil {
		h.logger.WithField("request_id", RequestIDFromContext(r.Context())).
			WithError(err).Error("Predict request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) historySnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.history.Snapshot())
}

func (h *handlers) issuedReport(w http.ResponseWriter, r *http.Request) {
	nextSession, err := strconv.ParseInt(chi.URLParam(r, "nextSession"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, models.ErrInvalidSessionID.Error())
		return
	}
	if h.reports == nil {
		writeError(w, http.StatusNotFound, models.ErrNotFound.Error())
		return
	}

	report, ok := h.reports.Get(nextSession)
	if !ok {
		writeError(w, http.StatusNotFound, models.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

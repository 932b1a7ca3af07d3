// Package api serves the normalization pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"listing-insights-go/internal/dataset"
	"listing-insights-go/internal/logger"
	"listing-insights-go/internal/pipeline"
)

// MaxBatchBytes caps the request body of a normalize call.
const MaxBatchBytes = 32 << 20

type Handler struct {
	pipeline *pipeline.Pipeline
	log      *logger.Logger
}

func NewHandler(p *pipeline.Pipeline, log *logger.Logger) *Handler {
	return &Handler{pipeline: p, log: log.Component("api")}
}

// Routes returns the service mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("POST /listings/normalize", h.normalize)
	return mux
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

func (h *Handler) normalize(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "normalize")
	reqLog.Info("normalize request received")

	batch, err := dataset.DecodeBatch(http.MaxBytesReader(w, r.Body, MaxBatchBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		status := http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		reqLog.WithError(err).Warn("rejected batch")
		writeJSON(w, status, map[string]string{"error": err.Error()}, reqLog)
		return
	}

	start := time.Now()
	res := h.pipeline.Run(r.Context(), batch)
	reqLog.WithField("run_id", res.RunID).
		WithField("items", res.Items).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("normalize finished")

	writeJSON(w, http.StatusOK, res, reqLog)
}

func writeJSON(w http.ResponseWriter, status int, v any, log *logrus.Entry) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}

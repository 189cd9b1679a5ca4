// Package httpapi is the HTTP transport in front of the method dispatcher:
// one POST endpoint for method calls plus health and metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/scorelayer/scoring/internal/config"
	"github.com/scorelayer/scoring/internal/errors"
	"github.com/scorelayer/scoring/internal/logging"
	"github.com/scorelayer/scoring/internal/method"
	"github.com/scorelayer/scoring/internal/metrics"
)

const maxBodyBytes = 1 << 20 // 1MiB

// Pinger is the liveness probe of the key-value backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API.
type Handler struct {
	dispatcher *method.Dispatcher
	pinger     Pinger
	log        *logging.Logger
}

// NewRouter assembles the full middleware chain and routes.
func NewRouter(d *method.Dispatcher, pinger Pinger, log *logging.Logger, rl config.RateLimitConfig) http.Handler {
	h := &Handler{dispatcher: d, pinger: pinger, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/method", h.method).Methods(http.MethodPost)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeEnvelope(w, nil, errors.NotFound)
	})

	var handler http.Handler = r
	handler = newRateLimiter(rl, log).wrap(handler)
	handler = metrics.InstrumentHandler(handler)
	handler = accessLog(log)(handler)
	handler = recoverPanics(log)(handler)
	handler = requestID(handler)
	return handler
}

// method is the single JSON-RPC-style endpoint. The body is one JSON
// object; the reply is one envelope with either "response" or "error".
func (h *Handler) method(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.log.WithContext(ctx).WithError(err).Error("cannot read request body")
		writeEnvelope(w, nil, errors.BadRequest)
		return
	}

	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		h.log.WithContext(ctx).WithError(err).Error("malformed request body")
		writeEnvelope(w, nil, errors.BadRequest)
		return
	}

	dctx := method.Context{"request_id": logging.GetRequestID(ctx)}
	resp, code := h.dispatcher.Dispatch(ctx, body, dctx)
	writeEnvelope(w, resp, code)

	h.log.WithContext(ctx).WithFields(map[string]interface{}{
		"code":    code,
		"context": dctx,
	}).Info("method call handled")
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.log.WithContext(r.Context()).WithError(err).Error("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type successEnvelope struct {
	Response interface{} `json:"response"`
	Code     int         `json:"code"`
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// writeEnvelope renders the wire envelope; the HTTP status always equals
// the embedded code.
func writeEnvelope(w http.ResponseWriter, resp interface{}, code int) {
	if code == errors.OK {
		writeJSON(w, code, successEnvelope{Response: resp, Code: code})
		return
	}
	msg, _ := resp.(string)
	if msg == "" {
		msg = errors.Text(code)
	}
	writeJSON(w, code, errorEnvelope{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

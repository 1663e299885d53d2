// Package httpapi - HTTP-доступ к инструментам сервиса.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloud-ru/loan-servicing-go/internal/metrics"
	"github.com/cloud-ru/loan-servicing-go/internal/tools"
)

// максимальный размер тела запроса инструмента
const maxBodyBytes = 1 << 20

type Dependencies struct {
	Tools  *tools.Registry
	Logger *slog.Logger
}

func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	h := toolHandlers{registry: deps.Tools, logger: logger}
	r.Get("/tools", h.list)
	r.Post("/tools/{name}", h.invoke)

	return r
}

type toolHandlers struct {
	registry *tools.Registry
	logger   *slog.Logger
}

func (h toolHandlers) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": h.registry.List()})
}

func (h toolHandlers) invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	handler, ok := h.registry.Get(name)
	if !ok {
		metrics.APICalls.WithLabelValues("http", name, "not_found").Inc()
		WriteError(w, http.StatusNotFound, "UNKNOWN_TOOL", "unknown tool: "+name)
		return
	}

	params := map[string]interface{}{}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	// числа приходят как json.Number, чтобы суммы не теряли точность
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	result, err := handler(r.Context(), params)
	if err != nil {
		status, code := classify(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "tool failed", slog.String("tool", name), slog.Any("error", err))
		}
		WriteError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

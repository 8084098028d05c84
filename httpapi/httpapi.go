// Package httpapi exposes a pool.Pool's health and introspection surface
// over HTTP: /healthz, /ready, /stats, /routes, and (when a metrics
// registry is supplied) /metrics — mirroring the health-endpoint and
// middleware-chain conventions used elsewhere in this stack.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/alfred-ai/connpool/metrics"
	"github.com/alfred-ai/connpool/pool"
)

// NewRouter returns a chi Router exposing health and introspection routes
// for p. reg may be nil to omit the /metrics endpoint.
func NewRouter[R comparable, C pool.Connection](p *pool.Pool[R, C], reg *metrics.Registry, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ready"}
		if p.IsShutDown() {
			status = http.StatusServiceUnavailable
			body["status"] = "shut_down"
		}
		writeJSON(w, status, body)
	})

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, p.TotalStats())
	})

	r.Get("/routes", func(w http.ResponseWriter, req *http.Request) {
		routes := p.Routes()
		out := make([]routeSummary, 0, len(routes))
		for _, route := range routes {
			stats := p.RouteStats(route)
			out = append(out, routeSummary{
				Route:       fmt.Sprint(route),
				Leased:      stats.Leased,
				Pending:     stats.Pending,
				Available:   stats.Available,
				MaxPerRoute: stats.MaxPerRoute,
			})
		}
		writeJSON(w, http.StatusOK, out)
	})

	if reg != nil {
		r.Get("/metrics", reg.Handler())
	}

	return r
}

type routeSummary struct {
	Route       string `json:"route"`
	Leased      int    `json:"leased"`
	Pending     int    `json:"pending"`
	Available   int    `json:"available"`
	MaxPerRoute int    `json:"max_per_route"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(rw, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("req_id", chimw.GetReqID(r.Context())).
				Int("status", rw.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}

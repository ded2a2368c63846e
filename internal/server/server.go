// Package server exposes the ledger façade over a small HTTP JSON API.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tripmate/tripledger/internal/auth"
	"github.com/tripmate/tripledger/internal/ledger"
	"github.com/tripmate/tripledger/internal/middleware"
)

// Server wires the ledger façade to HTTP handlers.
type Server struct {
	ledger *ledger.Ledger
	jwt    *auth.JWTManager
}

// New creates a server. jwtManager may be nil, in which case viewer
// identity comes only from explicit request parameters.
func New(l *ledger.Ledger, jwtManager *auth.JWTManager) *Server {
	return &Server{ledger: l, jwt: jwtManager}
}

// Handler builds the full middleware-wrapped route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/trips/{tripID}/payments", s.handleListPayments)
	mux.HandleFunc("POST /api/v1/trips/{tripID}/payments", s.handleCreatePayment)
	mux.HandleFunc("POST /api/v1/trips/{tripID}/payments/{recordID}/settle", s.handleMarkSettled)
	mux.HandleFunc("GET /api/v1/trips/{tripID}/balance", s.handleBalanceSummary)
	mux.HandleFunc("POST /api/v1/trips/{tripID}/refresh", s.handleRefresh)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var handler http.Handler = mux
	if s.jwt != nil {
		handler = middleware.ViewerIdentity(s.jwt)(handler)
	}
	return middleware.Logging(middleware.CORS(handler))
}

// Package httpapi provides the HTTP/JSON API for the gas price cap.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/branched-services/go-gas-adjuster/pkg/adjuster"
)

// Server exposes the current gas price cap.
type Server struct {
	addr   string
	caps   adjuster.CapReader
	logger *slog.Logger
	server *http.Server
}

// NewServer creates a new API server.
func NewServer(addr string, caps adjuster.CapReader, logger *slog.Logger) *Server {
	s := &Server{
		addr:   addr,
		caps:   caps,
		logger: logger.With("component", "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/gas/price-cap", s.handlePriceCap)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Run starts the server. Blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", s.addr)
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("API server shutting down")
	return s.server.Shutdown(ctx)
}

// withMiddleware wraps the handler with common middleware.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		w.Header().Set("Content-Type", "application/json")

		next.ServeHTTP(w, r)

		s.logger.Debug("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_us", time.Since(start).Microseconds(),
		)
	})
}

// PriceCapResponse is the API response format.
type PriceCapResponse struct {
	MaxGasPrice string  `json:"max_gas_price"`
	AvgGasPrice string  `json:"avg_gas_price"`
	ScaleFactor float64 `json:"scale_factor"`
	BlockNumber uint64  `json:"block_number"`
	RenewedAt   string  `json:"renewed_at"`
}

// ErrorResponse is the API error format.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePriceCap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "method not allowed"})
		return
	}

	cap, err := s.caps.Current(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, adjuster.ErrNotReady) {
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
		return
	}

	json.NewEncoder(w).Encode(PriceCapResponse{
		MaxGasPrice: cap.Value.Dec(),
		AvgGasPrice: cap.AvgPrice.Dec(),
		ScaleFactor: cap.ScaleFactor,
		BlockNumber: cap.BlockNumber,
		RenewedAt:   cap.RenewedAt.UTC().Format(time.RFC3339),
	})
}

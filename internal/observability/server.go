package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pinkgavel/internal/version"
)

// MetricsServer exposes Prometheus metrics and a health probe while the
// client runs in watch mode.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer builds the metrics HTTP server. The Prometheus handler is
// mounted at path only when the provider actually carries an exporter; the
// health endpoint is always available.
func NewMetricsServer(port int, path string, provider *Provider) *MetricsServer {
	router := mux.NewRouter()

	if provider != nil && provider.MetricsEnabled() {
		router.Handle(path, promhttp.Handler()).Methods(http.MethodGet)
	}
	router.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	return &MetricsServer{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start serves until Shutdown is called. Returns http.ErrServerClosed on
// graceful shutdown.
func (ms *MetricsServer) Start() error {
	slog.Info("Starting metrics server", "addr", ms.server.Addr)
	return ms.server.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.GetInfo().Version,
	})
}

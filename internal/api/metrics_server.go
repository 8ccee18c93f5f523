package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viimsigame/terrain-server/internal/logging"
)

// MetricsServer отдаёт Prometheus метрики на выделенном порту,
// отдельно от игрового REST API: скрейпер не должен конкурировать
// с запросами клиентов.
type MetricsServer struct {
	httpServer *http.Server
	log        *logging.Logger
}

// NewMetricsServer создаёт сервер метрик на указанном порту.
func NewMetricsServer(port int) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logging.GetAPILogger(),
	}
}

// Start запускает сервер метрик. Блокирует до остановки.
func (m *MetricsServer) Start() error {
	m.log.Info("Prometheus метрики слушают %s", m.httpServer.Addr)
	if err := m.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop останавливает сервер метрик.
func (m *MetricsServer) Stop(ctx context.Context) error {
	return m.httpServer.Shutdown(ctx)
}

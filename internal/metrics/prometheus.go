package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type MetricsCollector struct {
	registry        *prometheus.Registry
	commandsHandled *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	backups         *prometheus.CounterVec
	registeredCmds  prometheus.Gauge
	logger          *zap.Logger
}

func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()

	return &MetricsCollector{
		registry: registry,
		commandsHandled: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "bot_commands_handled_total",
			Help: "Total number of handled slash commands by command and outcome",
		}, []string{"command", "outcome"}),
		commandDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bot_command_duration_seconds",
			Help:    "Time taken to handle a slash command",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
		backups: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_backups_total",
			Help: "Backup runs by outcome",
		}, []string{"outcome"}),
		registeredCmds: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "bot_registered_commands",
			Help: "Number of commands accepted by the platform at startup",
		}),
		logger: logger,
	}
}

func (m *MetricsCollector) RecordCommand(command, outcome string, duration time.Duration) {
	m.commandsHandled.WithLabelValues(command, outcome).Inc()
	m.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func (m *MetricsCollector) RecordBackup(outcome string) {
	m.backups.WithLabelValues(outcome).Inc()
}

func (m *MetricsCollector) SetRegisteredCommands(n int) {
	m.registeredCmds.Set(float64(n))
}

func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer serves /metrics and /health on addr in the background
func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		m.logger.Info("Starting metrics server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context, server *http.Server) error {
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

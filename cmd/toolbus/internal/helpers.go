package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/drblury/toolbus/internal/runtime/client"
	"github.com/drblury/toolbus/internal/runtime/config"
	"github.com/drblury/toolbus/internal/runtime/jsoncodec"
	"github.com/drblury/toolbus/internal/runtime/logging"
	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/metrics"
	"github.com/drblury/toolbus/internal/runtime/protocol"
)

var version = "dev"

// DefaultMetricsAddr is used when TOOLBUS_METRICS_ENABLED is set without
// --metrics-addr.
const DefaultMetricsAddr = ":9464"

func GetVersion() string {
	return version
}

// GlobalOptions are the flags shared by every subcommand.
type GlobalOptions struct {
	MetricsAddr string
}

// Session is a started client plus the process level plumbing around it.
type Session struct {
	Config *config.Config
	Log    logging.ServiceLogger
	Client *client.Client

	metricsServer *http.Server
}

// Open loads the configuration from the environment and starts a client.
func Open(ctx context.Context, global *GlobalOptions) (*Session, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	s := &Session{Config: &cfg, Log: log}

	var metricsAddr string
	if global != nil {
		metricsAddr = global.MetricsAddr
	}
	if metricsAddr == "" && cfg.MetricsEnabled {
		metricsAddr = DefaultMetricsAddr
	}

	var deps client.Dependencies
	if metricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		deps.Metrics = metrics.New(cfg.MetricsNamespace, registry)
		s.serveMetrics(metricsAddr, registry)
	}

	c, err := client.New(&cfg, log, protocol.NewRegistry(), deps)
	if err != nil {
		s.stopMetrics(ctx)
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		s.stopMetrics(ctx)
		return nil, err
	}
	s.Client = c
	return s, nil
}

func (s *Session) serveMetrics(addr string, gatherer prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	s.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Error("Metrics server stopped", err, logging.LogFields{"addr": addr})
		}
	}()
	s.Log.Info("Serving metrics", logging.LogFields{"addr": addr})
}

func (s *Session) stopMetrics(ctx context.Context) {
	if s.metricsServer == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_ = s.metricsServer.Shutdown(shutdownCtx)
}

// Close drains the client and stops the metrics server.
func (s *Session) Close(ctx context.Context) error {
	err := s.Client.Close(context.WithoutCancel(ctx))
	s.stopMetrics(ctx)
	return err
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

type printedEnvelope struct {
	Type    string `json:"type"`
	Subject string `json:"subject,omitempty"`
	ID      string `json:"id"`
	Payload any    `json:"payload"`
}

// PrintEnvelope writes env as one JSON line.
func PrintEnvelope(w io.Writer, env messages.Envelope) error {
	return jsoncodec.Encode(w, printedEnvelope{
		Type:    env.Type(),
		Subject: env.Subject(),
		ID:      env.ID(),
		Payload: env.Body(),
	})
}

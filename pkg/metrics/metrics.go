// Package metrics exposes the node's Prometheus gauges, grounded on the
// reference node's namespace-per-service gauge-vec convention.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "otherneo"

var (
	activePeers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_peers",
		Help:      "Number of peers currently marked active in the registry.",
	})
	heldMessages = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "held_messages",
		Help:      "Number of held messages by status.",
	}, []string{"status"})
	sweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "maintenance_sweep_seconds",
		Help:      "Duration of each maintenance sweep pass.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(activePeers, heldMessages, sweepDuration)
}

// SetActivePeers records the current active-peer count.
func SetActivePeers(n int) {
	activePeers.Set(float64(n))
}

// SetHeldByStatus records the held-message count for one status label.
func SetHeldByStatus(status string, n int) {
	heldMessages.WithLabelValues(status).Set(float64(n))
}

// ObserveSweepDuration records how long one maintenance sweep took.
func ObserveSweepDuration(d time.Duration) {
	sweepDuration.Observe(d.Seconds())
}

// Service is a BasicService-style HTTP exposer for the /metrics endpoint,
// mirroring the reference node's Prometheus monitoring service.
type Service struct {
	Addresses []string
	log       *zap.Logger
	servers   []*http.Server
}

// NewService builds a metrics Service bound to the given addresses.
func NewService(addresses []string, log *zap.Logger) *Service {
	return &Service{Addresses: addresses, log: log}
}

// Start launches one HTTP listener per configured address, each serving
// /metrics. Listener failures are logged but do not abort the others.
func (s *Service) Start() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	for _, addr := range s.Addresses {
		srv := &http.Server{Addr: addr, Handler: mux}
		s.servers = append(s.servers, srv)
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.log.Warn("metrics listener failed", zap.String("address", srv.Addr), zap.Error(err))
			}
		}(srv)
	}
}

// Shutdown gracefully stops every metrics listener.
func (s *Service) Shutdown(ctx context.Context) {
	for _, srv := range s.servers {
		if err := srv.Shutdown(ctx); err != nil {
			s.log.Warn("metrics shutdown failed", zap.String("address", srv.Addr), zap.Error(err))
		}
	}
}

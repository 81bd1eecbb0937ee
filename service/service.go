package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-describe/metrics"
)

// Config holds the listen addresses of the service endpoints. An empty
// address disables that endpoint.
type Config struct {
	Log         log.Logger
	HealthzAddr string
	MetricsAddr string
}

type Service struct {
	Healthz *HealthzServer
	Metrics *MetricsServer
	cfg     Config
}

func New(cfg Config) *Service {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	s := &Service{
		Healthz: &HealthzServer{log: cfg.Log},
		Metrics: &MetricsServer{},
		cfg:     cfg,
	}
	return s
}

func (s *Service) Start(ctx context.Context) {
	s.cfg.Log.Info("service starting")

	if addr := s.cfg.HealthzAddr; addr != "" {
		go func() {
			s.cfg.Log.Info("starting healthz server", "addr", addr)
			if err := s.Healthz.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.cfg.Log.Error("error starting healthz server", "err", err)
				metrics.RecordErrorDetails("error starting healthz server", err)
			}
		}()
	}

	if addr := s.cfg.MetricsAddr; addr != "" {
		go func() {
			s.cfg.Log.Info("starting metrics server", "addr", addr)
			if err := s.Metrics.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.cfg.Log.Error("error starting metrics server", "err", err)
				metrics.RecordErrorDetails("error starting metrics server", err)
			}
		}()
	}

	s.cfg.Log.Info("service started")
}

func (s *Service) Shutdown() {
	s.cfg.Log.Info("service shutting down")

	_ = s.Healthz.Shutdown()
	s.cfg.Log.Info("healthz stopped")

	_ = s.Metrics.Shutdown()
	s.cfg.Log.Info("metrics stopped")

	s.cfg.Log.Info("service stopped")
}

package selectio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sebhaan/selectio/internal/cfg"
	"github.com/sebhaan/selectio/internal/importance"
	"github.com/sebhaan/selectio/internal/metrics"
	"github.com/sebhaan/selectio/internal/storage"
)

// ScoreReport is a persisted record of one scoring batch.
type ScoreReport = storage.ScoreReport

// Service is the configuration-driven assembly of the engine: a scorer wired
// to Prometheus metrics, plus report persistence when DATA_PATH is set and a
// metrics listener when METRICS_PORT is set.
type Service struct {
	scorer   *Scorer
	settings cfg.Settings
	registry *prometheus.Registry
	tracker  *metrics.Wrapper
	store    *storage.Store
	srv      *http.Server
}

// NewServiceFromConfig resolves settings from the YAML file named by
// CONFIG_FILE and the environment (environment wins) and assembles the
// service. Call Close when done.
func NewServiceFromConfig() (*Service, error) {
	settings, err := cfg.Load()
	if err != nil {
		return nil, err
	}
	return newService(settings)
}

func newService(settings cfg.Settings) (*Service, error) {
	registry := prometheus.NewRegistry()
	tracker := metrics.NewWrapper(metrics.NewWithRegistry(registry))

	scorer, err := importance.NewScorer(importance.OptionsFromSettings(settings), tracker)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		scorer:   scorer,
		settings: settings,
		registry: registry,
		tracker:  tracker,
	}

	if settings.DataPath != "" {
		store, err := storage.New(settings.DataPath)
		if err != nil {
			return nil, err
		}
		svc.store = store
	}

	if settings.MetricsPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", svc.MetricsHandler())
		svc.srv = &http.Server{
			Addr:         fmt.Sprintf(":%d", settings.MetricsPort),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Int("port", settings.MetricsPort).Msg("metrics server listening")
			if err := svc.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	return svc, nil
}

// Score runs one factor importance batch over the row-major (n, k) matrix X
// and, when a report store is configured, persists the result under dataset.
// features may be nil; it only annotates the stored report.
func (s *Service) Score(ctx context.Context, dataset string, features []string, X [][]float64, y []float64, normalize bool) ([]float64, error) {
	scores, err := s.scorer.FactorImportance(ctx, X, y, normalize)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		report := ScoreReport{
			Dataset:    dataset,
			Timestamp:  time.Now(),
			Features:   features,
			Scores:     scores,
			SampleSize: len(y),
			Normalized: normalize,
			Estimator:  s.settings.Estimator,
			Seed:       s.settings.Seed,
		}
		if err := s.store.StoreReport(report); err != nil {
			return nil, fmt.Errorf("store score report: %w", err)
		}
		s.tracker.ReportStored()
	}

	return scores, nil
}

// LatestReport returns the most recent persisted report for dataset, or nil
// when the dataset has none.
func (s *Service) LatestReport(dataset string) (*ScoreReport, error) {
	if s.store == nil {
		return nil, errors.New("selectio: no report store configured")
	}
	return s.store.LatestReport(dataset)
}

// ReportsInRange returns the persisted reports for dataset with timestamps
// inside (start, end).
func (s *Service) ReportsInRange(dataset string, start, end time.Time) ([]ScoreReport, error) {
	if s.store == nil {
		return nil, errors.New("selectio: no report store configured")
	}
	return s.store.GetReportsInRange(dataset, start, end)
}

// MetricsHandler serves the service's Prometheus registry in text format.
func (s *Service) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Close shuts down the metrics listener, if any, and closes the report store.
func (s *Service) Close() error {
	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(ctx)
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// Service is the Prometheus implementation of Metrics
type Service struct {
	Intercepted      *prometheus.CounterVec
	Malformed        *prometheus.CounterVec
	StoredMatches    prometheus.Gauge
	Passes           prometheus.Counter
	CardsTransformed *prometheus.CounterVec
	Fallback         *prometheus.CounterVec
}

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Intercepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dbd_history_responses_intercepted_total",
			Help: "Match-history responses observed, by retrieval channel.",
		}, []string{"source"}),
		Malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dbd_history_responses_malformed_total",
			Help: "Match-history bodies that could not be parsed, by retrieval channel.",
		}, []string{"source"}),
		StoredMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dbd_history_stored_matches",
			Help: "Distinct matches currently held in the match store.",
		}),
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dbd_history_correlation_passes_total",
			Help: "Locate/correlate/render passes run over the page.",
		}),
		CardsTransformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dbd_history_cards_transformed_total",
			Help: "Match cards replaced with a stat table, by correlation strategy.",
		}, []string{"strategy"}),
		Fallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dbd_history_fallback_total",
			Help: "Fallback retrieval outcomes.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		s.Intercepted,
		s.Malformed,
		s.StoredMatches,
		s.Passes,
		s.CardsTransformed,
		s.Fallback,
	)

	return s
}

func (s *Service) IncIntercepted(source string) {
	s.Intercepted.WithLabelValues(source).Inc()
}

func (s *Service) IncMalformed(source string) {
	s.Malformed.WithLabelValues(source).Inc()
}

func (s *Service) SetStoredMatches(total int) {
	s.StoredMatches.Set(float64(total))
}

func (s *Service) IncPasses() {
	s.Passes.Inc()
}

func (s *Service) IncCardsTransformed(strategy string) {
	s.CardsTransformed.WithLabelValues(strategy).Inc()
}

func (s *Service) IncFallback(outcome string) {
	s.Fallback.WithLabelValues(outcome).Inc()
}

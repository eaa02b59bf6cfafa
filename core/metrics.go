package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics recull comptadors de les agregacions.
type Metrics struct {
	Records   *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
	Provinces *prometheus.GaugeVec
}

// NewMetrics registra les mètriques al registre donat.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mapanaixements_records_total",
			Help: "Registres processats per conjunt de dades i resultat de la normalització",
		}, []string{"dataset", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mapanaixements_aggregate_duration_seconds",
			Help:    "Durada de cada agregació",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"dataset"}),
		Provinces: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mapanaixements_provinces",
			Help: "Províncies diferents de l'última agregació",
		}, []string{"dataset"}),
	}
}

// Observe registra el resultat d'una agregació. Accepta un receptor nil.
func (m *Metrics) Observe(dataset string, res *Result, d time.Duration) {
	if m == nil || res == nil {
		return
	}
	for outcome, n := range res.Outcomes {
		m.Records.WithLabelValues(dataset, string(outcome)).Add(float64(n))
	}
	if res.Filtered > 0 {
		m.Records.WithLabelValues(dataset, "filtered").Add(float64(res.Filtered))
	}
	m.Duration.WithLabelValues(dataset).Observe(d.Seconds())
	m.Provinces.WithLabelValues(dataset).Set(float64(len(res.Provinces)))
}

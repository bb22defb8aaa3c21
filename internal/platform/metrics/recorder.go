// Package metrics exporta las métricas de una corrida en formato Prometheus.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
)

var _ ports.RunObserver = (*Recorder)(nil)

// Recorder observa una corrida y acumula métricas en un registry privado.
// WriteTextfile las vuelca en el formato del textfile collector de
// node_exporter.
type Recorder struct {
	ports.NopObserver

	registry *prometheus.Registry

	sourceRuns    *prometheus.CounterVec
	sourceNames   *prometheus.CounterVec
	sourceSeconds *prometheus.HistogramVec
	probeChecks   *prometheus.CounterVec
	names         *prometheus.GaugeVec
	runDuration   prometheus.Gauge
	lastRun       prometheus.Gauge
	interrupted   prometheus.Gauge
}

// NewRecorder crea el recorder con todas las métricas registradas.
func NewRecorder() (*Recorder, error) {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.sourceRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subterra_source_runs_total",
			Help: "Source executions by outcome",
		},
		[]string{"source", "outcome"},
	)
	r.sourceNames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subterra_source_names_total",
			Help: "Names produced by each source at each stage (emitted, valid, added)",
		},
		[]string{"source", "stage"},
	)
	r.sourceSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subterra_source_duration_seconds",
			Help:    "Source execution time in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 900, 1800},
		},
		[]string{"source"},
	)
	r.probeChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subterra_probe_checks_total",
			Help: "Liveness checks by result (live, dead, error)",
		},
		[]string{"result"},
	)
	r.names = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subterra_names",
			Help: "Size of the persisted name sets",
		},
		[]string{"domain", "set"},
	)
	r.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "subterra_run_duration_seconds",
		Help: "Duration of the last run in seconds",
	})
	r.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "subterra_last_run_timestamp_seconds",
		Help: "Unix time at which the last run finished",
	})
	r.interrupted = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "subterra_run_interrupted",
		Help: "1 if the last run was interrupted before completing",
	})

	collectors := []prometheus.Collector{
		r.sourceRuns,
		r.sourceNames,
		r.sourceSeconds,
		r.probeChecks,
		r.names,
		r.runDuration,
		r.lastRun,
		r.interrupted,
	}
	for _, c := range collectors {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	return r, nil
}

// Registry retorna el registry privado (tests y exportadores).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// SourceFinished cuenta la ejecución y sus nombres por etapa.
func (r *Recorder) SourceFinished(s domain.SourceStats) {
	r.sourceRuns.WithLabelValues(s.Name, s.Outcome.String()).Inc()
	r.sourceNames.WithLabelValues(s.Name, "emitted").Add(float64(s.Emitted))
	r.sourceNames.WithLabelValues(s.Name, "valid").Add(float64(s.Valid))
	r.sourceNames.WithLabelValues(s.Name, "added").Add(float64(s.Added))
	if s.Outcome != domain.OutcomeSkipped {
		r.sourceSeconds.WithLabelValues(s.Name).Observe(s.Duration.Seconds())
	}
}

// ProbeFinished acumula los chequeos de una fase de liveness.
func (r *Recorder) ProbeFinished(stats domain.ProbeStats) {
	dead := max(stats.Probed-stats.Live-stats.Errors, 0)
	r.probeChecks.WithLabelValues("live").Add(float64(stats.Live))
	r.probeChecks.WithLabelValues("dead").Add(float64(dead))
	r.probeChecks.WithLabelValues("error").Add(float64(stats.Errors))
}

// RunFinished fija los gauges finales.
func (r *Recorder) RunFinished(stats *domain.RunStats) {
	if stats == nil {
		return
	}
	d := string(stats.Domain)

	r.names.WithLabelValues(d, "canonical").Set(float64(stats.TotalCanonical))
	r.names.WithLabelValues(d, "live").Set(float64(stats.TotalLive))
	r.runDuration.Set(stats.Elapsed.Seconds())
	r.lastRun.Set(float64(stats.FinishedAt.Unix()))
	if stats.Interrupted {
		r.interrupted.Set(1)
	} else {
		r.interrupted.Set(0)
	}
}

// WriteTextfile escribe las métricas en path de forma atómica.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

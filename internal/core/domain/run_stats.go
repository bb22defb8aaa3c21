// internal/core/domain/run_stats.go
package domain

import (
	"fmt"
	"time"
)

// SourceStats registra el resultado de una fuente en una corrida.
type SourceStats struct {
	Name    string  `json:"name"`
	Phase   Phase   `json:"phase"`
	Outcome Outcome `json:"outcome"`

	Emitted   int `json:"emitted"`             // candidatos extraídos de la salida cruda
	Valid     int `json:"valid"`               // candidatos válidos y en alcance
	Added     int `json:"added"`               // nombres nuevos incorporados al conjunto canónico
	Malformed int `json:"malformed,omitempty"` // registros de salida que no se pudieron decodificar

	Duration        time.Duration `json:"-"`
	DurationSeconds float64       `json:"duration_seconds"`
	Attempts        int           `json:"attempts"`
	Error           string        `json:"error,omitempty"`
}

// ProbeStats resume la fase de liveness.
type ProbeStats struct {
	Total   int `json:"total"`    // nombres enviados al prober
	Probed  int `json:"probed"`   // chequeos completados (vivos o no)
	Live    int `json:"live"`     // nombres confirmados vivos en esta corrida
	NewLive int `json:"new_live"` // nombres vivos que no estaban en el conjunto persistido
	Errors  int `json:"errors"`   // chequeos que terminaron en error de transporte
	Batches int `json:"batches"`  // lotes confirmados en disco
}

// RunStats es el reporte de una corrida completa.
type RunStats struct {
	RunID  string   `json:"run_id"`
	Domain Hostname `json:"domain"`

	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Elapsed        time.Duration `json:"-"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`

	Sources []SourceStats `json:"sources"`

	PermutationCandidates int        `json:"permutation_candidates"`
	PermutationLive       int        `json:"permutation_live"`
	PermutationProbe      ProbeStats `json:"permutation_probe"`

	Probe ProbeStats `json:"probe"`

	NewNames       int `json:"new_names"`
	TotalCanonical int `json:"total_canonical"`
	TotalLive      int `json:"total_live"`

	Interrupted bool   `json:"interrupted"`
	Error       string `json:"error,omitempty"`
}

// NewRunStats crea el reporte de una corrida que empieza ahora.
func NewRunStats(runID string, domain Hostname) *RunStats {
	return &RunStats{
		RunID:     runID,
		Domain:    domain,
		StartedAt: time.Now(),
		Sources:   []SourceStats{},
	}
}

// AddSource registra el resultado de una fuente.
func (r *RunStats) AddSource(s SourceStats) {
	s.DurationSeconds = s.Duration.Seconds()
	r.Sources = append(r.Sources, s)
	r.NewNames += s.Added
}

// Finish cierra el reporte.
func (r *RunStats) Finish(err error) {
	r.FinishedAt = time.Now()
	r.Elapsed = r.FinishedAt.Sub(r.StartedAt)
	r.ElapsedSeconds = r.Elapsed.Seconds()
	if err != nil {
		r.Error = err.Error()
	}
}

// FailedSources retorna los nombres de las fuentes que fallaron o expiraron.
func (r *RunStats) FailedSources() []string {
	var out []string
	for _, s := range r.Sources {
		if s.Outcome.IsFailure() {
			out = append(out, s.Name)
		}
	}
	return out
}

// CountOutcome cuenta las fuentes con el outcome dado.
func (r *RunStats) CountOutcome(o Outcome) int {
	n := 0
	for _, s := range r.Sources {
		if s.Outcome == o {
			n++
		}
	}
	return n
}

// FormatElapsed formatea la duración como hh:mm:ss.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

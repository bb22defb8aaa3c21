// internal/platform/ui/raw_presenter.go
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-json-experiment/json"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
)

// LogFormat define el formato de salida para el modo raw
type LogFormat string

const (
	LogFormatText LogFormat = "text" // Formato logfmt (default)
	LogFormatJSON LogFormat = "json" // Formato JSON estructurado
)

// field es un par key/value; el orden de los campos se conserva en logfmt.
type field struct {
	key   string
	value any
}

// RawPresenter escribe un evento por línea, sin formato visual.
// Pensado para logs de CI o salida redirigida a archivo.
type RawPresenter struct {
	out    io.Writer
	format LogFormat
	mu     sync.Mutex

	// último progreso publicado, en décimas del total
	lastDecile int
}

var _ Presenter = (*RawPresenter)(nil)

// NewRawPresenter crea un nuevo RawPresenter
func NewRawPresenter(out io.Writer, format LogFormat) *RawPresenter {
	return &RawPresenter{out: out, format: format}
}

// log escribe un evento en el formato configurado
func (r *RawPresenter) log(level, event string, fields ...field) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timestamp := time.Now().UTC().Format(time.RFC3339)

	if r.format == LogFormatJSON {
		r.logJSON(timestamp, level, event, fields)
	} else {
		r.logText(timestamp, level, event, fields)
	}
}

// logText escribe en formato logfmt: timestamp LEVEL event key=value key2=value2
func (r *RawPresenter) logText(timestamp, level, event string, fields []field) {
	parts := make([]string, 0, len(fields)+3)
	parts = append(parts, timestamp, fmt.Sprintf("%-5s", level), event)

	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%s", f.key, formatValue(f.value)))
	}

	fmt.Fprintln(r.out, strings.Join(parts, " "))
}

// logJSON escribe en formato JSON estructurado
func (r *RawPresenter) logJSON(timestamp, level, event string, fields []field) {
	entry := map[string]any{
		"timestamp": timestamp,
		"level":     level,
		"event":     event,
	}
	for _, f := range fields {
		if d, ok := f.value.(time.Duration); ok {
			entry[f.key] = d.String()
			continue
		}
		entry[f.key] = f.value
	}

	data, err := json.Marshal(entry, json.Deterministic(true))
	if err != nil {
		fmt.Fprintf(r.out, `{"level":"ERROR","event":"encode_failed","error":%q}`+"\n", err.Error())
		return
	}
	fmt.Fprintln(r.out, string(data))
}

// formatValue formatea valores para logfmt (entrecomilla strings con espacios)
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if val == "" || strings.ContainsAny(val, " \t=\"") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case time.Duration:
		return val.Round(time.Millisecond).String()
	case float64:
		return fmt.Sprintf("%.1f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// RunStarted registra el inicio de la corrida
func (r *RawPresenter) RunStarted(info ports.RunInfo) {
	r.log("INFO", "run_started",
		field{"run_id", info.RunID},
		field{"domain", string(info.Domain)},
		field{"sources", strings.Join(info.Sources, ",")},
		field{"parallel", info.Parallel},
		field{"output", info.OutputDir},
	)
}

// SourceStarted registra el inicio de una fuente
func (r *RawPresenter) SourceStarted(name string, phase domain.Phase) {
	r.log("INFO", "source_started", field{"source", name}, field{"phase", phase.String()})
}

// SourceFinished registra el resultado de una fuente
func (r *RawPresenter) SourceFinished(s domain.SourceStats) {
	level := "INFO"
	if s.Outcome.IsFailure() {
		level = "WARN"
	}

	fields := []field{
		{"source", s.Name},
		{"phase", s.Phase.String()},
		{"outcome", s.Outcome.String()},
		{"emitted", s.Emitted},
		{"valid", s.Valid},
		{"added", s.Added},
		{"duration", s.Duration},
	}
	if s.Attempts > 1 {
		fields = append(fields, field{"attempts", s.Attempts})
	}
	if s.Error != "" {
		fields = append(fields, field{"error", s.Error})
	}
	r.log(level, "source_finished", fields...)
}

// ProbeStarted registra el inicio de una fase de liveness
func (r *RawPresenter) ProbeStarted(total int) {
	r.mu.Lock()
	r.lastDecile = 0
	r.mu.Unlock()
	r.log("INFO", "probe_started", field{"total", total})
}

// ProbeProgress publica el avance cada 10% del total para no inundar la salida
func (r *RawPresenter) ProbeProgress(p ports.ProbeProgress) {
	if p.Total <= 0 {
		return
	}
	decile := p.Done * 10 / p.Total

	r.mu.Lock()
	if decile <= r.lastDecile {
		r.mu.Unlock()
		return
	}
	r.lastDecile = decile
	r.mu.Unlock()

	r.log("INFO", "probe_progress",
		field{"done", p.Done},
		field{"total", p.Total},
		field{"live", p.Live},
		field{"batch", p.Batch},
	)
}

// ProbeFinished registra el resumen de una fase de liveness
func (r *RawPresenter) ProbeFinished(s domain.ProbeStats) {
	r.log("INFO", "probe_finished",
		field{"total", s.Total},
		field{"probed", s.Probed},
		field{"live", s.Live},
		field{"new_live", s.NewLive},
		field{"errors", s.Errors},
		field{"batches", s.Batches},
	)
}

// RunFinished registra el resumen final
func (r *RawPresenter) RunFinished(s *domain.RunStats) {
	if s == nil {
		return
	}
	level := "INFO"
	if s.Interrupted || s.Error != "" {
		level = "WARN"
	}

	fields := []field{
		{"domain", string(s.Domain)},
		{"runtime", domain.FormatElapsed(s.Elapsed)},
		{"new_names", s.NewNames},
		{"total_names", s.TotalCanonical},
		{"new_live", s.Probe.NewLive},
		{"total_live", s.TotalLive},
		{"sources_failed", len(s.FailedSources())},
		{"interrupted", s.Interrupted},
	}
	if s.Error != "" {
		fields = append(fields, field{"error", s.Error})
	}
	r.log(level, "run_finished", fields...)
}

// Info muestra un mensaje informativo
func (r *RawPresenter) Info(msg string) {
	r.log("INFO", "message", field{"msg", msg})
}

// Warning muestra una advertencia
func (r *RawPresenter) Warning(msg string) {
	r.log("WARN", "message", field{"msg", msg})
}

// Error muestra un error
func (r *RawPresenter) Error(msg string) {
	r.log("ERROR", "message", field{"msg", msg})
}

// Close limpia recursos
func (r *RawPresenter) Close() error {
	return nil
}

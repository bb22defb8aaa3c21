// internal/adapters/output/history.go
package output

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/go-json-experiment/json"

	"subterra/internal/core/domain"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
)

// HistoryFile acumula una línea JSON por corrida, nunca se reescribe.
const HistoryFile = "runs.jsonl"

// HistoryWriter agrega el resumen de cada corrida al historial del dominio.
// Complementa run_stats.json, que solo conserva la última corrida.
type HistoryWriter struct {
	path   string
	logger logx.Logger
}

// NewHistoryWriter crea un writer para <dir>/runs.jsonl.
func NewHistoryWriter(dir string, logger logx.Logger) *HistoryWriter {
	return &HistoryWriter{
		path:   filepath.Join(dir, HistoryFile),
		logger: logger.With("component", "history-writer"),
	}
}

// Path retorna la ruta del historial.
func (w *HistoryWriter) Path() string {
	return w.path
}

// Append agrega stats como una línea JSON compacta.
func (w *HistoryWriter) Append(stats *domain.RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrapf(errors.ErrReportWrite, "encode history entry: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return errors.Wrapf(errors.ErrReportWrite, "create directory: %v", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(errors.ErrReportWrite, "open %s: %v", w.path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return errors.Wrapf(errors.ErrReportWrite, "append %s: %v", w.path, err)
	}
	if err := f.Sync(); err != nil {
		return errors.Wrapf(errors.ErrReportWrite, "sync %s: %v", w.path, err)
	}

	w.logger.Debug("history entry appended", "run_id", stats.RunID, "file", w.path)
	return nil
}

// Load lee todas las corridas registradas, en orden. Una línea corrupta
// (corrida interrumpida a mitad de escritura) se omite.
func (w *HistoryWriter) Load() ([]domain.RunStats, error) {
	f, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(errors.ErrReportWrite, "open %s: %v", w.path, err)
	}
	defer f.Close()

	var runs []domain.RunStats
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rs domain.RunStats
		if err := json.Unmarshal(line, &rs); err != nil {
			w.logger.Warn("skipping corrupt history line", "error", err.Error())
			continue
		}
		runs = append(runs, rs)
	}
	if err := sc.Err(); err != nil {
		return runs, errors.Wrapf(errors.ErrReportWrite, "read %s: %v", w.path, err)
	}
	return runs, nil
}

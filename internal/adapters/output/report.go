// internal/adapters/output/report.go
package output

import (
	"os"
	"path/filepath"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"subterra/internal/core/domain"
	"subterra/internal/platform/errors"
)

// ReportFile es el reporte de la última corrida dentro del directorio del dominio.
const ReportFile = "run_stats.json"

// WriteRunReport escribe stats como JSON indentado en <dir>/run_stats.json.
// La escritura es atómica: un lector nunca ve un reporte a medias.
func WriteRunReport(dir string, stats *domain.RunStats) (string, error) {
	if stats == nil {
		return "", errors.Wrap(errors.ErrReportWrite, "nil run stats")
	}

	data, err := json.Marshal(stats, jsontext.WithIndent("  "))
	if err != nil {
		return "", errors.Wrapf(errors.ErrReportWrite, "encode report: %v", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, ReportFile)
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// ReadRunReport carga un reporte escrito por WriteRunReport.
func ReadRunReport(path string) (*domain.RunStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "read report %s: %v", path, err)
	}

	var stats domain.RunStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, errors.Wrapf(errors.ErrReportWrite, "decode report %s: %v", path, err)
	}
	return &stats, nil
}

// writeFileAtomic escribe data en un temporal del mismo directorio y lo
// renombra sobre path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(errors.ErrReportWrite, "create directory %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.Wrapf(errors.ErrReportWrite, "create temp file in %s: %v", dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(errors.ErrReportWrite, "write %s: %v", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(errors.ErrReportWrite, "sync %s: %v", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(errors.ErrReportWrite, "close %s: %v", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrapf(errors.ErrReportWrite, "chmod %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(errors.ErrReportWrite, "rename into %s: %v", path, err)
	}
	committed = true
	return nil
}

// internal/core/ports/source.go
package ports

import (
	"context"
	"time"

	"subterra/internal/core/domain"
)

// Source es el port primario para las herramientas de enumeración y
// permutación. Cada implementación envuelve un proceso externo.
type Source interface {
	// Name retorna el nombre único de la fuente (ej: "subfinder", "alterx")
	Name() string

	// Spec retorna la definición inmutable de la fuente
	Spec() domain.SourceSpec

	// Run ejecuta la fuente contra el target. Nunca retorna un error fatal:
	// los fallos se reflejan en Result.Outcome y Result.Err.
	Run(ctx context.Context, target domain.Hostname, in SourceInput) SourceResult

	// Close libera recursos utilizados por la fuente (procesos en curso)
	Close() error
}

// Preflighter lo implementan las fuentes y checkers que pueden verificar
// antes de la corrida que su binario está disponible.
type Preflighter interface {
	Preflight() error
}

// SourceInput son los archivos que se sustituyen en la plantilla de comando.
type SourceInput struct {
	// InputFile es la lista de nombres conocidos ({input}), solo fase permute
	InputFile string

	// Wordlist es el archivo de patrones o palabras ({wordlist}), opcional
	Wordlist string
}

// SourceResult es el resultado de una ejecución de fuente.
type SourceResult struct {
	Candidates []string       // nombres candidatos, sin validar
	Outcome    domain.Outcome // success, failed, timed_out, canceled, skipped
	Dropped    int            // tokens descartados por el filtro de alcance
	Malformed  int            // registros de salida que no se pudieron decodificar
	Attempts   int
	Duration   time.Duration
	Stderr     string // salida de error capturada (truncada)
	Err        error  // causa del fallo, nil si Outcome == success
}

// SourceFactory construye una fuente a partir de su definición.
type SourceFactory func(spec domain.SourceSpec) (Source, error)

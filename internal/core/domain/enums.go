// internal/core/domain/enums.go
package domain

// Phase define en qué fase del pipeline corre una fuente.
type Phase string

const (
	// PhaseEnumerate fuentes que descubren nombres a partir del dominio objetivo
	PhaseEnumerate Phase = "enumerate"

	// PhasePermute fuentes que generan candidatos a partir del conjunto canónico
	PhasePermute Phase = "permute"
)

// IsValid verifica si la fase es válida.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseEnumerate, PhasePermute:
		return true
	default:
		return false
	}
}

// String retorna la representación string de la fase.
func (p Phase) String() string {
	return string(p)
}

// Outcome es el resultado de ejecutar una fuente.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeTimedOut Outcome = "timed_out"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeCanceled Outcome = "canceled"
)

// String retorna la representación string del outcome.
func (o Outcome) String() string {
	return string(o)
}

// IsFailure reporta si el outcome representa una fuente que no produjo resultados útiles.
func (o Outcome) IsFailure() bool {
	return o == OutcomeFailed || o == OutcomeTimedOut
}

// ExtractKind identifica la regla de extracción de nombres de la salida cruda.
type ExtractKind string

const (
	// ExtractLines: un candidato por línea
	ExtractLines ExtractKind = "lines"

	// ExtractArrow: "NAME --> EVIDENCE", solo el primer token es candidato
	ExtractArrow ExtractKind = "arrow"

	// ExtractSections: reporte con secciones subrayadas (estilo dnsenum)
	ExtractSections ExtractKind = "sections"

	// ExtractJSONL: un objeto JSON por línea, el nombre en un campo
	ExtractJSONL ExtractKind = "jsonl"
)

// IsValid verifica si el tipo de extracción es conocido.
func (k ExtractKind) IsValid() bool {
	switch k {
	case ExtractLines, ExtractArrow, ExtractSections, ExtractJSONL:
		return true
	default:
		return false
	}
}

// Structured reporta si la regla requiere filtro de alcance por sufijo.
func (k ExtractKind) Structured() bool {
	return k == ExtractArrow || k == ExtractSections || k == ExtractJSONL
}

// String retorna la representación string del tipo.
func (k ExtractKind) String() string {
	return string(k)
}

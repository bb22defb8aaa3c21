// internal/platform/ui/symbols.go
package ui

import (
	"github.com/pterm/pterm"

	"subterra/internal/core/domain"
)

// Status representa el estado de una fuente en pantalla
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	StatusWarning
	StatusError
	StatusSkipped
)

// StatusFromOutcome traduce el resultado de una fuente.
// Un timeout o una cancelación conservan lo ya fusionado: se muestran como warning.
func StatusFromOutcome(o domain.Outcome) Status {
	switch o {
	case domain.OutcomeSuccess:
		return StatusSuccess
	case domain.OutcomeFailed:
		return StatusError
	case domain.OutcomeTimedOut, domain.OutcomeCanceled:
		return StatusWarning
	case domain.OutcomeSkipped:
		return StatusSkipped
	default:
		return StatusPending
	}
}

// String convierte el status a string
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Symbol retorna el símbolo Unicode para cada estado
func (s Status) Symbol() string {
	switch s {
	case StatusPending:
		return "⏸"
	case StatusRunning:
		return "⣾"
	case StatusSuccess:
		return "✓"
	case StatusWarning:
		return "⚠"
	case StatusError:
		return "✗"
	case StatusSkipped:
		return "⊘"
	default:
		return "?"
	}
}

// Color retorna el color pterm para cada estado
func (s Status) Color() pterm.Color {
	switch s {
	case StatusRunning:
		return pterm.FgCyan
	case StatusSuccess:
		return pterm.FgGreen
	case StatusWarning:
		return pterm.FgYellow
	case StatusError:
		return pterm.FgRed
	case StatusPending, StatusSkipped:
		return pterm.FgGray
	default:
		return pterm.FgDefault
	}
}

// Style retorna un pterm.Style configurado para el estado
func (s Status) Style() *pterm.Style {
	return pterm.NewStyle(s.Color())
}

// Icons
var (
	IconTarget  = "🎯"
	IconPhase   = "🔄"
	IconTime    = "⏱"
	IconNames   = "📦"
	IconLive    = "🟢"
	IconSources = "🔌"
	IconWorkers = "⚙️"
)

// Separadores
var (
	SeparatorHeavy = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	SeparatorLight = "────────────────────────────────────────────"
)

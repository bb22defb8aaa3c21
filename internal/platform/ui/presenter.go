// internal/platform/ui/presenter.go
package ui

import (
	"io"
	"os"

	"golang.org/x/term"

	"subterra/internal/core/ports"
)

// Mode define el modo de visualización.
type Mode string

const (
	ModeAuto   Mode = "auto"   // pretty en una terminal, plain en otro caso
	ModePretty Mode = "pretty" // spinners, barra de progreso y resumen con pterm
	ModePlain  Mode = "plain"  // una línea logfmt (o JSON) por evento
	ModeQuiet  Mode = "quiet"  // sin salida visual
)

// Presenter presenta el progreso de una corrida. Recibe los eventos del
// pipeline como RunObserver y mensajes sueltos del comando.
type Presenter interface {
	ports.RunObserver

	// Info muestra un mensaje informativo
	Info(msg string)

	// Warning muestra una advertencia
	Warning(msg string)

	// Error muestra un error
	Error(msg string)

	// Close detiene spinners y barras activas
	Close() error
}

// Options configura la construcción del presenter.
type Options struct {
	Out  io.Writer // default: os.Stdout
	JSON bool      // plain: una línea JSON por evento
}

// New crea el presenter para mode.
func New(mode Mode, opts Options) Presenter {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	switch mode {
	case ModeQuiet:
		return NewNoopPresenter()
	case ModePlain:
		return NewRawPresenter(opts.Out, formatFor(opts.JSON))
	case ModePretty:
		return NewPTermPresenter()
	default:
		if isTerminal(opts.Out) && !opts.JSON {
			return NewPTermPresenter()
		}
		return NewRawPresenter(opts.Out, formatFor(opts.JSON))
	}
}

func formatFor(json bool) LogFormat {
	if json {
		return LogFormatJSON
	}
	return LogFormatText
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

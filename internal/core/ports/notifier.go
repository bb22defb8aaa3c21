// internal/core/ports/notifier.go
package ports

import (
	"time"

	"subterra/internal/core/domain"
)

// RunObserver es el port para eventos de progreso de una corrida.
// Desacopla la lógica de negocio de la presentación (terminal, métricas).
// Las implementaciones deben ser seguras para uso concurrente.
type RunObserver interface {
	// RunStarted notifica el inicio de una corrida
	RunStarted(info RunInfo)

	// SourceStarted notifica el inicio de ejecución de una fuente
	SourceStarted(name string, phase domain.Phase)

	// SourceFinished notifica la finalización de una fuente
	SourceFinished(stats domain.SourceStats)

	// ProbeStarted notifica el inicio de la fase de liveness
	ProbeStarted(total int)

	// ProbeProgress reporta el avance acumulado (monótono)
	ProbeProgress(p ProbeProgress)

	// ProbeFinished notifica el fin de la fase de liveness
	ProbeFinished(stats domain.ProbeStats)

	// RunFinished notifica el fin de la corrida con el reporte final
	RunFinished(stats *domain.RunStats)
}

// RunInfo contiene información inicial de la corrida.
type RunInfo struct {
	RunID     string
	Domain    domain.Hostname
	Sources   []string
	Parallel  int
	OutputDir string
	StartedAt time.Time
}

// ProbeProgress es una instantánea del contador de progreso del prober.
type ProbeProgress struct {
	Done  int
	Total int
	Live  int
	Batch int
}

// NopObserver descarta todos los eventos.
type NopObserver struct{}

func (NopObserver) RunStarted(RunInfo)                 {}
func (NopObserver) SourceStarted(string, domain.Phase) {}
func (NopObserver) SourceFinished(domain.SourceStats)  {}
func (NopObserver) ProbeStarted(int)                   {}
func (NopObserver) ProbeProgress(ProbeProgress)        {}
func (NopObserver) ProbeFinished(domain.ProbeStats)    {}
func (NopObserver) RunFinished(*domain.RunStats)       {}

// MultiObserver reenvía cada evento a todos los observers.
type MultiObserver []RunObserver

func (m MultiObserver) RunStarted(info RunInfo) {
	for _, o := range m {
		o.RunStarted(info)
	}
}

func (m MultiObserver) SourceStarted(name string, phase domain.Phase) {
	for _, o := range m {
		o.SourceStarted(name, phase)
	}
}

func (m MultiObserver) SourceFinished(stats domain.SourceStats) {
	for _, o := range m {
		o.SourceFinished(stats)
	}
}

func (m MultiObserver) ProbeStarted(total int) {
	for _, o := range m {
		o.ProbeStarted(total)
	}
}

func (m MultiObserver) ProbeProgress(p ProbeProgress) {
	for _, o := range m {
		o.ProbeProgress(p)
	}
}

func (m MultiObserver) ProbeFinished(stats domain.ProbeStats) {
	for _, o := range m {
		o.ProbeFinished(stats)
	}
}

func (m MultiObserver) RunFinished(stats *domain.RunStats) {
	for _, o := range m {
		o.RunFinished(stats)
	}
}

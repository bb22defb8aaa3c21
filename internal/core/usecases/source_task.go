// internal/core/usecases/source_task.go
package usecases

import (
	"context"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
)

// SourceTask adapta un ports.Source a workerpool.Task.
type SourceTask struct {
	source ports.Source
	target domain.Hostname
	input  ports.SourceInput
	weight int

	hooks SourceHooks
}

// SourceHooks se invocan dentro del worker, antes y después de la source.
type SourceHooks struct {
	Started func()
	Done    func(ctx context.Context, res ports.SourceResult) error
}

// NewSourceTask crea una nueva SourceTask.
func NewSourceTask(source ports.Source, target domain.Hostname, input ports.SourceInput, hooks SourceHooks) *SourceTask {
	return &SourceTask{
		source: source,
		target: target,
		input:  input,
		weight: EstimateSourceWeight(source.Spec()),
		hooks:  hooks,
	}
}

// Execute ejecuta la source y entrega el resultado al hook.
func (st *SourceTask) Execute(ctx context.Context) error {
	if st.hooks.Started != nil {
		st.hooks.Started()
	}
	res := st.source.Run(ctx, st.target, st.input)
	if st.hooks.Done != nil {
		return st.hooks.Done(ctx, res)
	}
	return nil
}

// Priority retorna la prioridad declarada por la source.
func (st *SourceTask) Priority() int {
	return st.source.Spec().Priority
}

// Weight retorna el peso/costo estimado de la tarea.
func (st *SourceTask) Weight() int {
	return st.weight
}

// Name retorna el nombre de la tarea (nombre de la source).
func (st *SourceTask) Name() string {
	return st.source.Name()
}

// EstimateSourceWeight estima el costo de una source a partir de su timeout:
// las herramientas con más presupuesto suelen ser las más lentas.
func EstimateSourceWeight(spec domain.SourceSpec) int {
	minutes := int(spec.Timeout.Minutes())

	// Cap entre 10-100
	weight := 10 + minutes*2
	if weight > 100 {
		weight = 100
	}
	return weight
}

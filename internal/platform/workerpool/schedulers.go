// internal/platform/workerpool/schedulers.go
package workerpool

import (
	"fmt"
	"sort"
)

// Nombres de estrategia aceptados por NewScheduler.
const (
	StrategyPriority = "priority"
	StrategyWeighted = "weighted"
	StrategyHybrid   = "hybrid"
	StrategyFIFO     = "fifo"
)

// DefaultHybridBalance reparte el peso por igual entre prioridad y costo.
const DefaultHybridBalance = 0.5

// Strategies lista las estrategias en el orden en que se documentan.
func Strategies() []string {
	return []string{StrategyPriority, StrategyWeighted, StrategyHybrid, StrategyFIFO}
}

// NewScheduler construye el scheduler de la estrategia dada.
// Un nombre vacío equivale a priority.
func NewScheduler(strategy string) (Scheduler, error) {
	switch strategy {
	case "", StrategyPriority:
		return NewPriorityScheduler(), nil
	case StrategyWeighted:
		return NewWeightedScheduler(), nil
	case StrategyHybrid:
		return NewHybridScheduler(DefaultHybridBalance), nil
	case StrategyFIFO:
		return NewFIFOScheduler(), nil
	default:
		return nil, fmt.Errorf("unknown scheduler %q (want one of %v)", strategy, Strategies())
	}
}

// orderedScheduler reordena una copia de las tareas con un orden estable.
// Un less nil conserva el orden de llegada.
type orderedScheduler struct {
	name string
	less func(a, b Task) bool
}

func (s *orderedScheduler) Schedule(tasks []Task) []Task {
	out := append([]Task(nil), tasks...)
	if s.less != nil {
		sort.SliceStable(out, func(i, j int) bool { return s.less(out[i], out[j]) })
	}
	return out
}

func (s *orderedScheduler) Name() string { return s.name }

// NewPriorityScheduler: mayor prioridad primero; a igual prioridad, la más
// liviana primero.
func NewPriorityScheduler() Scheduler {
	return &orderedScheduler{name: StrategyPriority, less: func(a, b Task) bool {
		if a.Priority() != b.Priority() {
			return a.Priority() > b.Priority()
		}
		return a.Weight() < b.Weight()
	}}
}

// NewWeightedScheduler: menor peso primero, para que las fuentes rápidas
// confirmen resultados antes; a igual peso decide la prioridad.
func NewWeightedScheduler() Scheduler {
	return &orderedScheduler{name: StrategyWeighted, less: func(a, b Task) bool {
		if a.Weight() != b.Weight() {
			return a.Weight() < b.Weight()
		}
		return a.Priority() > b.Priority()
	}}
}

// NewFIFOScheduler conserva el orden de Submit.
func NewFIFOScheduler() Scheduler {
	return &orderedScheduler{name: StrategyFIFO}
}

// HybridScheduler ordena por priority*(1-b) - weight*b.
// BalanceFactor b en [0, 1]: 0 = solo prioridad, 1 = solo peso.
type HybridScheduler struct {
	BalanceFactor float64
}

// NewHybridScheduler acota balanceFactor a [0, 1].
func NewHybridScheduler(balanceFactor float64) *HybridScheduler {
	return &HybridScheduler{BalanceFactor: min(max(balanceFactor, 0), 1)}
}

func (s *HybridScheduler) score(t Task) float64 {
	return float64(t.Priority())*(1-s.BalanceFactor) - float64(t.Weight())*s.BalanceFactor
}

// Schedule ordena por score descendente.
func (s *HybridScheduler) Schedule(tasks []Task) []Task {
	inner := orderedScheduler{less: func(a, b Task) bool { return s.score(a) > s.score(b) }}
	return inner.Schedule(tasks)
}

// Name retorna el nombre del scheduler.
func (s *HybridScheduler) Name() string {
	return StrategyHybrid
}

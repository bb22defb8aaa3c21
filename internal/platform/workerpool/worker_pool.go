// internal/platform/workerpool/worker_pool.go
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"subterra/internal/platform/logx"
)

// Task representa una tarea a ejecutar en el worker pool.
type Task interface {
	// Execute ejecuta la tarea
	Execute(ctx context.Context) error

	// Priority retorna la prioridad de la tarea (mayor = más prioritario)
	Priority() int

	// Weight retorna el peso/costo estimado de la tarea (0-100)
	Weight() int

	// Name retorna el nombre de la tarea
	Name() string
}

// Scheduler define la estrategia de scheduling.
type Scheduler interface {
	// Schedule ordena las tareas según la estrategia
	Schedule(tasks []Task) []Task

	// Name retorna el nombre del scheduler
	Name() string
}

// TaskFunc adapta una función a Task.
type TaskFunc struct {
	TaskName     string
	TaskPriority int
	TaskWeight   int
	Fn           func(ctx context.Context) error
}

func (f TaskFunc) Execute(ctx context.Context) error { return f.Fn(ctx) }
func (f TaskFunc) Priority() int                     { return f.TaskPriority }
func (f TaskFunc) Weight() int                       { return f.TaskWeight }
func (f TaskFunc) Name() string                      { return f.TaskName }

// WorkerPool gestiona la ejecución concurrente de tareas con scheduling.
// Los workers son persistentes; cada Submit lleva su propio contexto.
type WorkerPool struct {
	workers   int
	scheduler Scheduler
	logger    logx.Logger

	// Channels
	taskQueue chan job

	// Control
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  atomic.Bool
	stopOnce sync.Once
	inFlight atomic.Int64
}

// indexedTask conserva la posición original durante el scheduling.
type indexedTask struct {
	Task
	index int
}

type job struct {
	ctx   context.Context
	task  Task
	index int
	out   chan<- TaskResult
}

// TaskResult representa el resultado de una tarea.
type TaskResult struct {
	Task     Task
	Index    int // posición en el slice original pasado a Submit
	Error    error
	Duration time.Duration
	Skipped  bool // no llegó a ejecutarse (contexto cancelado)
}

// WorkerPoolConfig configura el worker pool.
type WorkerPoolConfig struct {
	Workers   int
	Scheduler Scheduler
	Logger    logx.Logger
}

// NewWorkerPool crea un nuevo worker pool.
func NewWorkerPool(cfg WorkerPoolConfig) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewPriorityScheduler()
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.New()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workers:   cfg.Workers,
		scheduler: cfg.Scheduler,
		logger:    cfg.Logger.With("component", "worker-pool"),
		taskQueue: make(chan job, cfg.Workers*2), // Buffer 2x workers
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start inicia el worker pool. Llamadas repetidas no tienen efecto.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		return
	}
	wp.logger.Debug("starting worker pool", "workers", wp.workers, "scheduler", wp.scheduler.Name())

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// worker es el goroutine que procesa tareas.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return

		case j, ok := <-wp.taskQueue:
			if !ok {
				return
			}
			j.out <- wp.executeTask(id, j)
		}
	}
}

// executeTask ejecuta una tarea individual.
func (wp *WorkerPool) executeTask(workerID int, j job) (res TaskResult) {
	res = TaskResult{Task: j.task, Index: j.index}

	// Contexto ya cancelado: no ejecutar
	if err := j.ctx.Err(); err != nil {
		res.Error = err
		res.Skipped = true
		return res
	}

	wp.inFlight.Add(1)
	defer wp.inFlight.Add(-1)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Errorf("task %s panicked: %v", j.task.Name(), r)
			wp.logger.Warn("task panicked", "worker_id", workerID, "task", j.task.Name(), "panic", r)
		}
		res.Duration = time.Since(start)
	}()

	res.Error = j.task.Execute(j.ctx)
	return res
}

// Submit envía tareas al pool con scheduling y espera sus resultados.
// Si ctx se cancela, las tareas aún no despachadas se reportan como
// Skipped. Los resultados llegan en orden de finalización.
func (wp *WorkerPool) Submit(ctx context.Context, tasks []Task) []TaskResult {
	if len(tasks) == 0 {
		return []TaskResult{}
	}
	wp.Start()

	// Se envuelve cada tarea con su índice original antes de reordenar
	wrapped := make([]Task, len(tasks))
	for i, t := range tasks {
		wrapped[i] = &indexedTask{Task: t, index: i}
	}
	scheduled := wp.scheduler.Schedule(wrapped)

	out := make(chan TaskResult, len(tasks))
	results := make([]TaskResult, 0, len(tasks))
	sent := 0

	skipRest := func(rest []Task, err error) {
		for _, t := range rest {
			it := t.(*indexedTask)
			results = append(results, TaskResult{Task: it.Task, Index: it.index, Error: err, Skipped: true})
		}
	}

dispatch:
	for i, task := range scheduled {
		it := task.(*indexedTask)
		j := job{ctx: ctx, task: it.Task, index: it.index, out: out}
		select {
		case wp.taskQueue <- j:
			sent++
		case <-ctx.Done():
			skipRest(scheduled[i:], ctx.Err())
			break dispatch
		case <-wp.ctx.Done():
			skipRest(scheduled[i:], context.Canceled)
			break dispatch
		}
	}

	// Cada tarea despachada produce exactamente un resultado
	for i := 0; i < sent; i++ {
		results = append(results, <-out)
	}
	return results
}

// Stop detiene el worker pool. No debe llamarse en paralelo con Submit.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		wp.cancel()
		close(wp.taskQueue)
		wp.wg.Wait()
		wp.logger.Debug("worker pool stopped")
	})
}

// Stats retorna estadísticas del worker pool.
func (wp *WorkerPool) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		Workers:       wp.workers,
		SchedulerName: wp.scheduler.Name(),
		QueueSize:     len(wp.taskQueue),
		InFlight:      int(wp.inFlight.Load()),
	}
}

// WorkerPoolStats contiene estadísticas del worker pool.
type WorkerPoolStats struct {
	Workers       int
	SchedulerName string
	QueueSize     int
	InFlight      int
}

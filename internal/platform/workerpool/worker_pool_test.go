package workerpool

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"subterra/internal/platform/logx"
	"subterra/internal/testutil"
)

func task(name string, priority, weight int, fn func(ctx context.Context) error) TaskFunc {
	if fn == nil {
		fn = func(context.Context) error { return nil }
	}
	return TaskFunc{TaskName: name, TaskPriority: priority, TaskWeight: weight, Fn: fn}
}

func names(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Name()
	}
	return out
}

func TestSchedulers(t *testing.T) {
	tasks := []Task{
		task("a", 1, 50, nil),
		task("b", 10, 90, nil),
		task("c", 10, 10, nil),
		task("d", 1, 50, nil),
	}

	tests := []struct {
		name      string
		scheduler Scheduler
		want      []string
	}{
		{"priority", NewPriorityScheduler(), []string{"c", "b", "a", "d"}},
		{"weighted", NewWeightedScheduler(), []string{"c", "a", "d", "b"}},
		{"fifo", NewFIFOScheduler(), []string{"a", "b", "c", "d"}},
		{"hybrid priority only", NewHybridScheduler(0), []string{"b", "c", "a", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(tt.scheduler.Schedule(tasks))
			testutil.AssertEqual(t, got, tt.want, "schedule order")
		})
	}

	// El slice de entrada no se modifica
	testutil.AssertEqual(t, names(tasks), []string{"a", "b", "c", "d"}, "input untouched")
}

func TestNewScheduler(t *testing.T) {
	for _, strategy := range Strategies() {
		s, err := NewScheduler(strategy)
		testutil.RequireNoError(t, err, strategy)
		testutil.AssertEqual(t, s.Name(), strategy, "scheduler name")
	}

	s, err := NewScheduler("")
	testutil.RequireNoError(t, err, "empty strategy")
	testutil.AssertEqual(t, s.Name(), StrategyPriority, "priority by default")

	_, err = NewScheduler("random")
	testutil.AssertError(t, err, "unknown strategy")
}

func TestNewHybridScheduler_ClampsFactor(t *testing.T) {
	testutil.AssertEqual(t, NewHybridScheduler(-1).BalanceFactor, 0.0, "lower clamp")
	testutil.AssertEqual(t, NewHybridScheduler(2).BalanceFactor, 1.0, "upper clamp")
}

func TestWorkerPool_SubmitRunsEveryTask(t *testing.T) {
	wp := NewWorkerPool(WorkerPoolConfig{Workers: 3, Scheduler: NewFIFOScheduler(), Logger: logx.NewSilent()})
	defer wp.Stop()

	var count atomic.Int32
	boom := errors.New("boom")
	tasks := make([]Task, 0, 20)
	for i := 0; i < 20; i++ {
		i := i
		tasks = append(tasks, task("t", 0, 0, func(context.Context) error {
			count.Add(1)
			if i == 7 {
				return boom
			}
			return nil
		}))
	}

	results := wp.Submit(context.Background(), tasks)

	testutil.AssertLen(t, results, 20, "one result per task")
	testutil.AssertEqual(t, int(count.Load()), 20, "every task executed")

	indexes := make([]int, 0, len(results))
	for _, r := range results {
		indexes = append(indexes, r.Index)
		if r.Index == 7 {
			testutil.AssertErrorIs(t, r.Error, boom, "error propagated")
		} else {
			testutil.AssertNoError(t, r.Error, "task error")
		}
		testutil.AssertFalse(t, r.Skipped, "not skipped")
	}
	sort.Ints(indexes)
	for i, idx := range indexes {
		testutil.AssertEqual(t, idx, i, "original index preserved")
	}
}

func TestWorkerPool_BoundedConcurrency(t *testing.T) {
	const workers = 2
	wp := NewWorkerPool(WorkerPoolConfig{Workers: workers, Logger: logx.NewSilent()})
	defer wp.Stop()

	var current, peak atomic.Int32
	tasks := make([]Task, 0, 10)
	for i := 0; i < 10; i++ {
		tasks = append(tasks, task("slow", 0, 0, func(context.Context) error {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			return nil
		}))
	}

	wp.Submit(context.Background(), tasks)
	testutil.AssertTrue(t, peak.Load() <= workers, "never more than the configured workers")
	testutil.AssertTrue(t, peak.Load() >= 1, "tasks ran")
}

func TestWorkerPool_CanceledContextSkipsTasks(t *testing.T) {
	wp := NewWorkerPool(WorkerPoolConfig{Workers: 1, Scheduler: NewFIFOScheduler(), Logger: logx.NewSilent()})
	defer wp.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var executed atomic.Int32
	tasks := make([]Task, 0, 50)
	for i := 0; i < 50; i++ {
		tasks = append(tasks, task("t", 0, 0, func(context.Context) error {
			if executed.Add(1) == 1 {
				cancel()
			}
			return nil
		}))
	}

	results := wp.Submit(ctx, tasks)

	testutil.AssertLen(t, results, 50, "every task reported")
	skipped := 0
	for _, r := range results {
		if r.Skipped {
			skipped++
			testutil.AssertErrorIs(t, r.Error, context.Canceled, "skip reason")
		}
	}
	testutil.AssertTrue(t, skipped > 0, "remaining tasks skipped")
	testutil.AssertEqual(t, skipped+int(executed.Load()), 50, "executed plus skipped")
}

func TestWorkerPool_PanicIsReported(t *testing.T) {
	wp := NewWorkerPool(WorkerPoolConfig{Workers: 1, Logger: logx.NewSilent()})
	defer wp.Stop()

	results := wp.Submit(context.Background(), []Task{
		task("panics", 0, 0, func(context.Context) error { panic("kaboom") }),
		task("fine", 0, 0, nil),
	})

	testutil.AssertLen(t, results, 2, "both reported")
	for _, r := range results {
		if r.Task.Name() == "panics" {
			testutil.AssertError(t, r.Error, "panic converted to error")
		} else {
			testutil.AssertNoError(t, r.Error, "other task unaffected")
		}
	}
}

func TestWorkerPool_ReusableAcrossSubmits(t *testing.T) {
	wp := NewWorkerPool(WorkerPoolConfig{Workers: 4, Logger: logx.NewSilent()})

	var mu sync.Mutex
	seen := 0
	for round := 0; round < 3; round++ {
		tasks := []Task{
			task("x", 0, 0, func(context.Context) error { mu.Lock(); seen++; mu.Unlock(); return nil }),
			task("y", 0, 0, func(context.Context) error { mu.Lock(); seen++; mu.Unlock(); return nil }),
		}
		testutil.AssertLen(t, wp.Submit(context.Background(), tasks), 2, "round results")
	}
	testutil.AssertEqual(t, seen, 6, "all rounds executed")

	stats := wp.Stats()
	testutil.AssertEqual(t, stats.Workers, 4, "workers")
	testutil.AssertEqual(t, stats.InFlight, 0, "nothing in flight")

	wp.Stop()
	wp.Stop()
	testutil.AssertLen(t, wp.Submit(context.Background(), nil), 0, "empty submit")
}

package usecases

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"subterra/internal/adapters/store"
	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
	"subterra/internal/platform/workerpool"
	"subterra/internal/sources/common"
	"subterra/internal/testutil"
)

func newOrchestrator(t *testing.T, out string, checker ports.LivenessChecker, sources ...ports.Source) *Orchestrator {
	t.Helper()
	return NewOrchestrator(OrchestratorOptions{
		Sources:    sources,
		Checker:    checker,
		OpenStores: fileStores(t, out),
		OutputDir:  out,
		Logger:     logx.NewSilent(),
	})
}

func TestOrchestrator_EndToEnd(t *testing.T) {
	out := t.TempDir()
	obs := &recordingObserver{}

	o := NewOrchestrator(OrchestratorOptions{
		Sources: []ports.Source{
			newStatic("first", domain.PhaseEnumerate, "a.example.com", "b.example.com"),
			newStatic("second", domain.PhaseEnumerate, "b.example.com", "c.example.com"),
		},
		Checker:    liveSet("a.example.com"),
		OpenStores: fileStores(t, out),
		Observer:   obs,
		Logger:     logx.NewSilent(),
	})

	stats, err := o.Run(context.Background(), "Example.COM")
	testutil.RequireNoError(t, err, "run")

	dir := store.DomainDir(out, "example.com")
	testutil.AssertEqual(t, testutil.ReadLines(t, filepath.Join(dir, store.CanonicalFile)),
		[]string{"a.example.com", "b.example.com", "c.example.com"}, "canonical set")
	testutil.AssertEqual(t, testutil.ReadLines(t, filepath.Join(dir, store.LiveFile)),
		[]string{"a.example.com"}, "live set")

	testutil.AssertEqual(t, stats.Domain, domain.Hostname("example.com"), "normalized domain")
	testutil.AssertNotEqual(t, stats.RunID, "", "run id")
	testutil.AssertEqual(t, stats.NewNames, 3, "new names")
	testutil.AssertEqual(t, stats.TotalCanonical, 3, "canonical total")
	testutil.AssertEqual(t, stats.TotalLive, 1, "live total")
	testutil.AssertEqual(t, stats.Probe.Probed, 3, "probed")
	testutil.AssertLen(t, stats.Sources, 2, "source stats")
	testutil.AssertEqual(t, stats.Sources[0].Added+stats.Sources[1].Added, 3, "b counted once")
	testutil.AssertFalse(t, stats.Interrupted, "not interrupted")
	testutil.AssertEqual(t, obs.runs, 1, "run finished event")

	// Segunda corrida: nada nuevo, merge idempotente
	stats, err = o.Run(context.Background(), "example.com")
	testutil.RequireNoError(t, err, "rerun")
	testutil.AssertEqual(t, stats.NewNames, 0, "rerun adds nothing")
	testutil.AssertEqual(t, stats.TotalCanonical, 3, "same canonical set")
	testutil.AssertEqual(t, stats.Probe.NewLive, 0, "no new live names")
}

func TestOrchestrator_PartialFailureWithProcesses(t *testing.T) {
	testutil.RequireShell(t)
	bin := t.TempDir()
	out := t.TempDir()

	good := testutil.WriteScript(t, bin, "good", `echo "www.$1"; echo "api.$1"; echo "www.other.org"; echo "not a host"`)
	bad := testutil.WriteScript(t, bin, "bad", `echo "leak.$1"; exit 1`)
	slow := testutil.WriteScript(t, bin, "slow", `echo "late.$1"; exec sleep 10`)

	mk := func(name, script string, timeout time.Duration) ports.Source {
		src, err := common.NewCLISource(domain.SourceSpec{
			Name:    name,
			Phase:   domain.PhaseEnumerate,
			Command: []string{script, "{domain}"},
			Timeout: timeout,
			Extract: domain.ExtractRule{Kind: domain.ExtractLines},
			Enabled: true,
		}, common.CLIConfig{WorkDir: t.TempDir(), WaitDelay: 200 * time.Millisecond}, logx.NewSilent())
		testutil.RequireNoError(t, err, "source "+name)
		return src
	}

	o := newOrchestrator(t, out, liveSet(), mk("good", good, 5*time.Second), mk("bad", bad, 5*time.Second), mk("slow", slow, 300*time.Millisecond))
	defer o.Close()

	stats, err := o.Run(context.Background(), "example.com")
	testutil.RequireNoError(t, err, "source failures are not fatal")

	outcomes := map[string]domain.Outcome{}
	for _, s := range stats.Sources {
		outcomes[s.Name] = s.Outcome
	}
	testutil.AssertEqual(t, outcomes, map[string]domain.Outcome{
		"good": domain.OutcomeSuccess,
		"bad":  domain.OutcomeFailed,
		"slow": domain.OutcomeTimedOut,
	}, "per-source outcomes")
	testutil.AssertEqual(t, stats.FailedSources(), []string{"bad", "slow"}, "failed sources")

	canonical := testutil.ReadLines(t, filepath.Join(store.DomainDir(out, "example.com"), store.CanonicalFile))
	testutil.AssertEqual(t, canonical, []string{"api.example.com", "www.example.com"}, "only the succeeding source merged, in scope")
}

func TestOrchestrator_ParallelSources(t *testing.T) {
	out := t.TempDir()
	o := NewOrchestrator(OrchestratorOptions{
		Sources: []ports.Source{
			newStatic("one", domain.PhaseEnumerate, "a.example.com"),
			newStatic("two", domain.PhaseEnumerate, "b.example.com", "a.example.com"),
			newStatic("three", domain.PhaseEnumerate, "c.example.com"),
		},
		Checker:       liveSet("c.example.com"),
		OpenStores:    fileStores(t, out),
		SourceWorkers: 3,
		Logger:        logx.NewSilent(),
	})

	stats, err := o.Run(context.Background(), "example.com")
	testutil.RequireNoError(t, err, "run")
	testutil.AssertLen(t, stats.Sources, 3, "all sources recorded")
	testutil.AssertEqual(t, stats.TotalCanonical, 3, "union")
	testutil.AssertEqual(t, stats.NewNames, 3, "no double counting")
	testutil.AssertEqual(t, stats.TotalLive, 1, "live")
}

func TestOrchestrator_ParallelSourcesWeighted(t *testing.T) {
	out := t.TempDir()
	slow := newStatic("slow", domain.PhaseEnumerate, "a.example.com")
	slow.spec.Timeout = 30 * time.Minute
	fast := newStatic("fast", domain.PhaseEnumerate, "b.example.com")
	fast.spec.Timeout = time.Minute

	o := NewOrchestrator(OrchestratorOptions{
		Sources:       []ports.Source{slow, fast},
		Checker:       liveSet(),
		OpenStores:    fileStores(t, out),
		SourceWorkers: 2,
		Scheduler:     workerpool.NewWeightedScheduler(),
		Logger:        logx.NewSilent(),
	})
	testutil.AssertEqual(t, o.scheduler.Name(), workerpool.StrategyWeighted, "configured scheduler kept")

	stats, err := o.Run(context.Background(), "example.com")
	testutil.RequireNoError(t, err, "run")
	testutil.AssertLen(t, stats.Sources, 2, "both sources recorded")
	testutil.AssertEqual(t, stats.TotalCanonical, 2, "union")
}

func TestOrchestrator_DefaultScheduler(t *testing.T) {
	o := newOrchestrator(t, t.TempDir(), liveSet())
	testutil.AssertEqual(t, o.scheduler.Name(), workerpool.StrategyPriority, "priority by default")
}

func TestSourceTask_WeightedOrder(t *testing.T) {
	spec := func(name string, timeout time.Duration, priority int) *staticSource {
		s := newStatic(name, domain.PhaseEnumerate)
		s.spec.Timeout = timeout
		s.spec.Priority = priority
		return s
	}
	var tasks []workerpool.Task
	for _, s := range []*staticSource{
		spec("slow", time.Hour, 9),
		spec("medium", 10*time.Minute, 5),
		spec("fast", time.Minute, 1),
	} {
		tasks = append(tasks, NewSourceTask(s, "example.com", ports.SourceInput{}, SourceHooks{}))
	}

	names := func(sched workerpool.Scheduler) []string {
		var out []string
		for _, task := range sched.Schedule(tasks) {
			out = append(out, task.Name())
		}
		return out
	}
	testutil.AssertEqual(t, names(workerpool.NewWeightedScheduler()), []string{"fast", "medium", "slow"}, "lightest first")
	testutil.AssertEqual(t, names(workerpool.NewPriorityScheduler()), []string{"slow", "medium", "fast"}, "highest priority first")
}

func TestOrchestrator_InvalidInputs(t *testing.T) {
	out := t.TempDir()
	src := newStatic("s", domain.PhaseEnumerate, "a.example.com")

	stats, err := newOrchestrator(t, out, liveSet(), src).Run(context.Background(), "co.uk")
	testutil.AssertNil(t, stats, "no stats for invalid target")
	testutil.AssertTrue(t, errors.IsConfigError(err), "public suffix rejected")

	_, err = newOrchestrator(t, out, liveSet(), src).Run(context.Background(), "not a domain")
	testutil.AssertTrue(t, errors.IsConfigError(err), "garbage rejected")

	_, err = newOrchestrator(t, out, liveSet()).Run(context.Background(), "example.com")
	testutil.AssertErrorIs(t, err, errors.ErrInvalidConfig, "no sources")

	disabled := newStatic("off", domain.PhaseEnumerate)
	disabled.spec.Enabled = false
	_, err = newOrchestrator(t, out, liveSet(), disabled).Run(context.Background(), "example.com")
	testutil.AssertErrorIs(t, err, errors.ErrInvalidConfig, "only disabled sources")
}

func TestOrchestrator_Exclusions(t *testing.T) {
	out := t.TempDir()
	o := NewOrchestrator(OrchestratorOptions{
		Sources:    []ports.Source{newStatic("s", domain.PhaseEnumerate, "www.example.com", "x.internal.example.com", "internal.example.com")},
		Checker:    liveSet(),
		OpenStores: fileStores(t, out),
		Exclude:    []string{"internal.example.com"},
		Logger:     logx.NewSilent(),
	})

	stats, err := o.Run(context.Background(), "example.com")
	testutil.RequireNoError(t, err, "run")
	testutil.AssertEqual(t, stats.TotalCanonical, 1, "excluded subtree dropped")
}

func TestOrchestrator_PermutationPhase(t *testing.T) {
	out := t.TempDir()
	enum := newStatic("enum", domain.PhaseEnumerate, "www.example.com")
	perm := newStatic("perm", domain.PhasePermute, "dev-www.example.com", "stage-www.example.com", "www.example.com", "dev.other.org")

	checker := liveSet("www.example.com", "dev-www.example.com")
	o := NewOrchestrator(OrchestratorOptions{
		Sources:    []ports.Source{perm, enum},
		Checker:    checker,
		OpenStores: fileStores(t, out),
		Wordlist:   "/tmp/patterns.txt",
		Logger:     logx.NewSilent(),
	})

	stats, err := o.Run(context.Background(), "example.com")
	testutil.RequireNoError(t, err, "run")

	dir := store.DomainDir(out, "example.com")
	testutil.AssertEqual(t, testutil.ReadLines(t, filepath.Join(dir, store.CanonicalFile)),
		[]string{"dev-www.example.com", "www.example.com"}, "only live permutations join canonical")
	testutil.AssertEqual(t, testutil.ReadLines(t, filepath.Join(dir, store.LiveFile)),
		[]string{"dev-www.example.com", "www.example.com"}, "live set")

	testutil.AssertEqual(t, stats.PermutationCandidates, 2, "fresh in-scope candidates")
	testutil.AssertEqual(t, stats.PermutationLive, 1, "live permutations")
	testutil.AssertEqual(t, stats.NewNames, 2, "enumerated plus permuted")
	testutil.AssertEqual(t, stats.Probe.Total, 1, "permutation results not re-probed")
	testutil.AssertEqual(t, stats.PermutationProbe.Total, 2, "permutation probe total")
	testutil.AssertEqual(t, stats.PermutationProbe.Probed, 2, "permutation probe checks")
	testutil.AssertEqual(t, stats.PermutationProbe.Live, 1, "permutation probe live")

	testutil.AssertLen(t, perm.inputs, 1, "permutation ran once")
	testutil.AssertEqual(t, perm.inputs[0].InputFile, filepath.Join(dir, store.CanonicalFile), "input is canonical file")
	testutil.AssertEqual(t, perm.inputs[0].Wordlist, "/tmp/patterns.txt", "wordlist")

	var permStats domain.SourceStats
	for _, s := range stats.Sources {
		if s.Name == "perm" {
			permStats = s
		}
	}
	testutil.AssertEqual(t, permStats.Phase, domain.PhasePermute, "phase recorded")
	testutil.AssertEqual(t, permStats.Added, 1, "attributed live permutation")
}

func TestOrchestrator_PermutationSkippedOnEmptyCanonical(t *testing.T) {
	out := t.TempDir()
	enum := newStatic("enum", domain.PhaseEnumerate)
	perm := newStatic("perm", domain.PhasePermute, "dev.example.com")

	stats, err := newOrchestrator(t, out, liveSet(), enum, perm).Run(context.Background(), "example.com")
	testutil.RequireNoError(t, err, "run")
	testutil.AssertEqual(t, stats.CountOutcome(domain.OutcomeSkipped), 1, "permutation skipped")
	testutil.AssertLen(t, perm.inputs, 0, "permutation source never ran")
}

func TestOrchestrator_SkipKnownLive(t *testing.T) {
	out := t.TempDir()
	src := newStatic("s", domain.PhaseEnumerate, "a.example.com", "b.example.com")

	first := newOrchestrator(t, out, liveSet("a.example.com"), src)
	_, err := first.Run(context.Background(), "example.com")
	testutil.RequireNoError(t, err, "first run")

	second := NewOrchestrator(OrchestratorOptions{
		Sources:       []ports.Source{src},
		Checker:       liveSet("a.example.com"),
		OpenStores:    fileStores(t, out),
		SkipKnownLive: true,
		Logger:        logx.NewSilent(),
	})
	stats, err := second.Run(context.Background(), "example.com")
	testutil.RequireNoError(t, err, "second run")
	testutil.AssertEqual(t, stats.Probe.Total, 1, "known live name not re-probed")
}

func TestOrchestrator_CanceledRunKeepsStats(t *testing.T) {
	out := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	checker := ports.LivenessCheckerFunc(func(c context.Context, name domain.Hostname) ports.CheckResult {
		cancel()
		return ports.CheckResult{Name: name, Live: true}
	})
	o := NewOrchestrator(OrchestratorOptions{
		Sources:    []ports.Source{newStatic("s", domain.PhaseEnumerate, "a.example.com", "b.example.com")},
		Checker:    checker,
		OpenStores: fileStores(t, out),
		BatchSize:  1,
		Logger:     logx.NewSilent(),
	})

	stats, err := o.Run(ctx, "example.com")
	testutil.AssertErrorIs(t, err, context.Canceled, "cancellation surfaced")
	testutil.AssertNotNil(t, stats, "stats returned")
	testutil.AssertTrue(t, stats.Interrupted, "interrupted flag")
	testutil.AssertEqual(t, stats.TotalCanonical, 2, "enumeration committed")
	testutil.AssertEqual(t, stats.TotalLive, 0, "in-flight batch discarded")
}

func TestOrchestrator_MergeFailureIsFatal(t *testing.T) {
	o := NewOrchestrator(OrchestratorOptions{
		Sources: []ports.Source{newStatic("s", domain.PhaseEnumerate, "a.example.com")},
		Checker: liveSet(),
		OpenStores: func(root domain.Hostname) (ports.NameRepository, ports.NameRepository, error) {
			return failingRepo{NameRepository: openLive(t, t.TempDir())}, openLive(t, t.TempDir()), nil
		},
		Logger: logx.NewSilent(),
	})

	stats, err := o.Run(context.Background(), "example.com")
	testutil.AssertTrue(t, errors.IsMergeIO(err), "merge failure surfaced")
	testutil.AssertNotNil(t, stats, "stats returned")
	testutil.AssertNotEqual(t, stats.Error, "", "error recorded")
}

func TestEstimateSourceWeight(t *testing.T) {
	testutil.AssertEqual(t, EstimateSourceWeight(domain.SourceSpec{Timeout: 0}), 10, "floor")
	testutil.AssertEqual(t, EstimateSourceWeight(domain.SourceSpec{Timeout: 10 * time.Minute}), 30, "scaled")
	testutil.AssertEqual(t, EstimateSourceWeight(domain.SourceSpec{Timeout: 2 * time.Hour}), 100, "cap")
}

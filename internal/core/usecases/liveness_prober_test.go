package usecases

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
	"subterra/internal/testutil"
)

func TestLivenessProber_MergesLiveSubset(t *testing.T) {
	dir := t.TempDir()
	live := openLive(t, dir)
	obs := &recordingObserver{}

	prober := NewLivenessProber(ProberOptions{
		Checker:     liveSet("api.example.com", "www.example.com"),
		Live:        live,
		BatchSize:   2,
		Concurrency: 3,
		Observer:    obs,
		Logger:      logx.NewSilent(),
	})

	names := hostnames("www.example.com", "dev.example.com", "api.example.com", "old.example.com", "www.example.com")
	confirmed, stats, err := prober.Probe(context.Background(), names)

	testutil.RequireNoError(t, err, "probe")
	testutil.AssertEqual(t, confirmed, hostnames("api.example.com", "www.example.com"), "confirmed sorted")
	testutil.AssertEqual(t, stats.Total, 4, "duplicates collapsed")
	testutil.AssertEqual(t, stats.Probed, 4, "probed")
	testutil.AssertEqual(t, stats.Live, 2, "live")
	testutil.AssertEqual(t, stats.NewLive, 2, "new live")
	testutil.AssertEqual(t, stats.Batches, 2, "batches")
	testutil.AssertEqual(t, testutil.ReadLines(t, live.Path()), []string{"api.example.com", "www.example.com"}, "persisted")

	// Progreso monótono hasta el total
	testutil.AssertLen(t, obs.progress, 4, "one event per check")
	for i, p := range obs.progress {
		testutil.AssertEqual(t, p.Done, i+1, "monotonic progress")
		testutil.AssertEqual(t, p.Total, 4, "total")
	}
}

func TestLivenessProber_AlreadyKnownLiveIsNotNew(t *testing.T) {
	dir := t.TempDir()
	live := openLive(t, dir)
	_, err := live.Merge(hostnames("www.example.com"))
	testutil.RequireNoError(t, err, "seed")

	prober := NewLivenessProber(ProberOptions{Checker: liveSet("www.example.com", "api.example.com"), Live: live, Logger: logx.NewSilent()})
	confirmed, stats, err := prober.Probe(context.Background(), hostnames("www.example.com", "api.example.com"))

	testutil.RequireNoError(t, err, "probe")
	testutil.AssertLen(t, confirmed, 2, "both confirmed this run")
	testutil.AssertEqual(t, stats.NewLive, 1, "only api is new")
	testutil.AssertEqual(t, live.Len(), 2, "store size")
}

func TestLivenessProber_CheckpointedAcrossInterruption(t *testing.T) {
	dir := t.TempDir()
	names := hostnames("a1.example.com", "a2.example.com", "a3.example.com", "a4.example.com", "a5.example.com", "a6.example.com")

	// Todos vivos salvo a2; el primer chequeo del lote 2 interrumpe la corrida
	ctx, cancel := context.WithCancel(context.Background())
	base := liveSet("a1.example.com", "a3.example.com", "a4.example.com", "a5.example.com", "a6.example.com")
	interrupting := ports.LivenessCheckerFunc(func(c context.Context, name domain.Hostname) ports.CheckResult {
		if name == "a3.example.com" {
			cancel()
		}
		return base.Check(c, name)
	})

	live := openLive(t, dir)
	prober := NewLivenessProber(ProberOptions{Checker: interrupting, Live: live, BatchSize: 2, Concurrency: 1, Logger: logx.NewSilent()})
	confirmed, stats, err := prober.Probe(ctx, names)

	testutil.AssertErrorIs(t, err, context.Canceled, "interruption surfaced")
	testutil.AssertEqual(t, stats.Batches, 1, "one committed batch")
	testutil.AssertEqual(t, confirmed, hostnames("a1.example.com"), "batch 1 live subset")

	// Lo persistido es exactamente el subconjunto vivo del lote 1
	reopened := openLive(t, dir)
	testutil.AssertEqual(t, reopened.Snapshot(), hostnames("a1.example.com"), "checkpoint after batch 1")

	// Re-ejecutar reanuda sin pérdidas ni duplicados
	resumed := NewLivenessProber(ProberOptions{Checker: base, Live: reopened, BatchSize: 2, Concurrency: 1, Logger: logx.NewSilent()})
	_, stats, err = resumed.Probe(context.Background(), names)
	testutil.RequireNoError(t, err, "resume")
	testutil.AssertEqual(t, stats.NewLive, 4, "a3..a6 are new")
	testutil.AssertEqual(t, testutil.ReadLines(t, reopened.Path()), []string{
		"a1.example.com", "a3.example.com", "a4.example.com", "a5.example.com", "a6.example.com",
	}, "no loss, no duplication")
}

func TestLivenessProber_CheckErrorsAreNotLive(t *testing.T) {
	live := openLive(t, t.TempDir())
	checker := ports.LivenessCheckerFunc(func(ctx context.Context, name domain.Hostname) ports.CheckResult {
		if name == "down.example.com" {
			return ports.CheckResult{Name: name, Err: errors.Wrap(errors.ErrProbeFailed, "connection refused")}
		}
		return ports.CheckResult{Name: name, Live: true, StatusCode: 200}
	})

	prober := NewLivenessProber(ProberOptions{Checker: checker, Live: live, Logger: logx.NewSilent()})
	confirmed, stats, err := prober.Probe(context.Background(), hostnames("down.example.com", "up.example.com"))

	testutil.RequireNoError(t, err, "check errors are not fatal")
	testutil.AssertEqual(t, confirmed, hostnames("up.example.com"), "only reachable name")
	testutil.AssertEqual(t, stats.Errors, 1, "error counted")
	testutil.AssertEqual(t, stats.Probed, 2, "both probed")
}

func TestLivenessProber_BoundedConcurrency(t *testing.T) {
	var current, peak atomic.Int32
	checker := ports.LivenessCheckerFunc(func(ctx context.Context, name domain.Hostname) ports.CheckResult {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		current.Add(-1)
		return ports.CheckResult{Name: name}
	})

	names := make([]domain.Hostname, 0, 40)
	for i := 0; i < 40; i++ {
		names = append(names, domain.Hostname("h"+string(rune('a'+i%26))+string(rune('a'+i/26))+".example.com"))
	}

	prober := NewLivenessProber(ProberOptions{Checker: checker, Live: openLive(t, t.TempDir()), BatchSize: 20, Concurrency: 3, Logger: logx.NewSilent()})
	_, stats, err := prober.Probe(context.Background(), names)

	testutil.RequireNoError(t, err, "probe")
	testutil.AssertEqual(t, stats.Probed, 40, "all probed")
	testutil.AssertTrue(t, peak.Load() <= 3, "concurrency bound respected")
}

func TestLivenessProber_Defaults(t *testing.T) {
	p := NewLivenessProber(ProberOptions{BatchSize: -1, Concurrency: 0, Logger: logx.NewSilent()})
	testutil.AssertEqual(t, p.batchSize, DefaultBatchSize, "batch size default")
	testutil.AssertEqual(t, p.concurrency, DefaultConcurrency, "never unbounded")
}

func TestLivenessProber_EmptyInput(t *testing.T) {
	p := NewLivenessProber(ProberOptions{Checker: liveSet(), Live: openLive(t, t.TempDir()), Logger: logx.NewSilent()})
	confirmed, stats, err := p.Probe(context.Background(), nil)

	testutil.AssertNoError(t, err, "empty probe")
	testutil.AssertLen(t, confirmed, 0, "nothing confirmed")
	testutil.AssertEqual(t, stats.Batches, 0, "no batches")
}

// failingRepo rejects every non-empty merge.
type failingRepo struct{ ports.NameRepository }

func (failingRepo) Merge(names []domain.Hostname) ([]domain.Hostname, error) {
	return nil, errors.Wrap(errors.ErrMergeIO, "disk full")
}

func TestLivenessProber_MergeFailureIsFatal(t *testing.T) {
	var checks atomic.Int32
	checker := ports.LivenessCheckerFunc(func(ctx context.Context, name domain.Hostname) ports.CheckResult {
		checks.Add(1)
		return ports.CheckResult{Name: name, Live: true}
	})

	p := NewLivenessProber(ProberOptions{Checker: checker, Live: failingRepo{}, BatchSize: 1, Concurrency: 1, Logger: logx.NewSilent()})
	_, stats, err := p.Probe(context.Background(), hostnames("a.example.com", "b.example.com", "c.example.com"))

	testutil.AssertTrue(t, errors.IsMergeIO(err), "merge error surfaced")
	testutil.AssertEqual(t, stats.Batches, 0, "nothing committed")
	testutil.AssertEqual(t, int(checks.Load()), 1, "stops after the failing batch")
}

func TestLivenessProber_ProbeIntoExtraRepository(t *testing.T) {
	dir := t.TempDir()
	live := openLive(t, dir)
	canonical := openLive(t, t.TempDir())

	p := NewLivenessProber(ProberOptions{Checker: liveSet("dev-www.example.com"), Live: live, Logger: logx.NewSilent()})
	confirmed, _, err := p.ProbeInto(context.Background(), hostnames("dev-www.example.com", "stage-www.example.com"), canonical)

	testutil.RequireNoError(t, err, "probe")
	testutil.AssertEqual(t, confirmed, hostnames("dev-www.example.com"), "confirmed")
	testutil.AssertTrue(t, canonical.Contains("dev-www.example.com"), "merged into extra")
	testutil.AssertTrue(t, live.Contains("dev-www.example.com"), "merged into live")
	testutil.AssertFalse(t, canonical.Contains("stage-www.example.com"), "dead candidate dropped")
}

package usecases

import (
	"context"
	"sync"
	"testing"

	"subterra/internal/adapters/store"
	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
	"subterra/internal/platform/logx"
	"subterra/internal/testutil"
)

// staticSource emits a fixed candidate list.
type staticSource struct {
	spec       domain.SourceSpec
	candidates []string
	outcome    domain.Outcome

	mu     sync.Mutex
	inputs []ports.SourceInput
}

func newStatic(name string, phase domain.Phase, candidates ...string) *staticSource {
	return &staticSource{
		spec:       domain.SourceSpec{Name: name, Phase: phase, Enabled: true},
		candidates: candidates,
		outcome:    domain.OutcomeSuccess,
	}
}

func (s *staticSource) Name() string            { return s.spec.Name }
func (s *staticSource) Spec() domain.SourceSpec { return s.spec }
func (s *staticSource) Close() error            { return nil }

func (s *staticSource) Run(ctx context.Context, target domain.Hostname, in ports.SourceInput) ports.SourceResult {
	s.mu.Lock()
	s.inputs = append(s.inputs, in)
	s.mu.Unlock()

	if s.outcome != domain.OutcomeSuccess {
		return ports.SourceResult{Outcome: s.outcome, Candidates: []string{}, Attempts: 1}
	}
	return ports.SourceResult{Outcome: domain.OutcomeSuccess, Candidates: s.candidates, Attempts: 1}
}

// liveSet returns a checker that answers live for the given names only.
func liveSet(names ...domain.Hostname) ports.LivenessChecker {
	set := make(map[domain.Hostname]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return ports.LivenessCheckerFunc(func(ctx context.Context, name domain.Hostname) ports.CheckResult {
		if set[name] {
			return ports.CheckResult{Name: name, Live: true, StatusCode: 200, URL: "https://" + string(name)}
		}
		return ports.CheckResult{Name: name, StatusCode: 404}
	})
}

// fileStores opens the real file-backed stores under dir.
func fileStores(t *testing.T, dir string) StoreOpener {
	t.Helper()
	return func(root domain.Hostname) (ports.NameRepository, ports.NameRepository, error) {
		res, err := store.OpenResults(dir, root, logx.NewSilent())
		if err != nil {
			return nil, nil, err
		}
		return res.Canonical, res.Live, nil
	}
}

func openLive(t *testing.T, dir string) *store.NameStore {
	t.Helper()
	s, err := store.Open(dir+"/live.txt", logx.NewSilent())
	testutil.RequireNoError(t, err, "open live store")
	return s
}

func hostnames(names ...string) []domain.Hostname {
	out := make([]domain.Hostname, len(names))
	for i, n := range names {
		out[i] = domain.Hostname(n)
	}
	return out
}

// recordingObserver keeps the events the tests inspect.
type recordingObserver struct {
	ports.NopObserver

	mu       sync.Mutex
	progress []ports.ProbeProgress
	finished []domain.SourceStats
	runs     int
}

func (r *recordingObserver) ProbeProgress(p ports.ProbeProgress) {
	r.mu.Lock()
	r.progress = append(r.progress, p)
	r.mu.Unlock()
}

func (r *recordingObserver) SourceFinished(s domain.SourceStats) {
	r.mu.Lock()
	r.finished = append(r.finished, s)
	r.mu.Unlock()
}

func (r *recordingObserver) RunFinished(*domain.RunStats) {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
}

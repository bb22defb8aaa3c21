package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
	"subterra/internal/platform/registry"
	"subterra/internal/testutil"
)

// fakeRunner simula go/cargo/pip: "instalar" crea un ejecutable en binDir.
type fakeRunner struct {
	mu      sync.Mutex
	binDir  string
	fail    map[string]error // por gestor (go, cargo, pip3)
	version string
	calls   []string
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	f.mu.Unlock()

	switch name {
	case "go", "cargo", "pip3":
		if len(args) > 0 && (args[0] == "version" || args[0] == "env") {
			return nil, errors.New("not available in tests")
		}
		if err := f.fail[name]; err != nil {
			return []byte("boom"), err
		}
		pkg := args[len(args)-1]
		bin := filepath.Base(strings.SplitN(pkg, "@", 2)[0])
		return nil, os.WriteFile(filepath.Join(f.binDir, bin), []byte("#!/bin/sh\n"), 0o755)
	default:
		// Invocación de versión del binario instalado
		return []byte("tool version v" + f.version + "\n"), nil
	}
}

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("PATH", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	return t.TempDir()
}

func TestDefaultCatalog_CoversBuiltinSources(t *testing.T) {
	catalog := DefaultCatalog()
	names := append(registry.Default(logx.NewSilent()).List(), "httpx")

	tools, err := catalog.Select(names)
	testutil.RequireNoError(t, err, "every preset has a recipe")
	for _, tool := range tools {
		testutil.AssertNoError(t, tool.Validate(), tool.Name)
	}
}

func TestCatalog_LoadFile(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteLines(t, dir, "good.yaml",
		"tools:",
		"  - name: mytool",
		"    kind: go",
		"    package: example.com/mytool@latest",
		"  - name: dnsenum",
		"    kind: pip",
		"    package: dnsenum-py",
	)
	catalog := DefaultCatalog()
	testutil.RequireNoError(t, catalog.LoadFile(good), "LoadFile")
	testutil.AssertEqual(t, catalog["mytool"].Kind, KindGo, "new tool")
	testutil.AssertEqual(t, catalog["dnsenum"].Kind, KindPip, "replaced recipe")

	bad := testutil.WriteLines(t, dir, "bad.yaml",
		"tools:",
		"  - name: broken",
		"    kind: brew",
	)
	err := DefaultCatalog().LoadFile(bad)
	testutil.AssertTrue(t, errors.IsConfigError(err), "unknown kind")

	_, err = DefaultCatalog().Select([]string{"subfinder", "nope"})
	testutil.AssertTrue(t, errors.IsConfigError(err), "missing recipe")
}

func TestCommandInstaller_Command(t *testing.T) {
	tests := []struct {
		tool Tool
		want []string
	}{
		{Tool{Name: "a", Kind: KindGo, Package: "example.com/a@latest"}, []string{"go", "install", "-v", "example.com/a@latest"}},
		{Tool{Name: "b", Kind: KindCargo, Package: "b"}, []string{"cargo", "install", "--locked", "b"}},
		{Tool{Name: "c", Kind: KindPip, Package: "c"}, []string{"pip3", "install", "--user", "--upgrade", "c"}},
		{Tool{Name: "d", Kind: KindSystem, Hint: "apt-get install d"}, nil},
	}
	for _, tt := range tests {
		got := NewCommandInstaller(tt.tool, SystemInfo{}, ExecRunner).Command()
		testutil.AssertEqual(t, got, tt.want, string(tt.tool.Kind))
	}
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Current Version: v2.6.6", "2.6.6"},
		{"httpx version 1.3.7\n", "1.3.7"},
		{"findomain 9.0.4", "9.0.4"},
		{"usage: dnsgen [OPTIONS]", ""},
		{"v3 (beta)", ""},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, ExtractVersion(tt.in), tt.want, tt.in)
	}
}

func TestOrchestrator_InstallAndCheck(t *testing.T) {
	binDir := isolate(t)
	fr := &fakeRunner{binDir: binDir, version: "1.4.0"}

	tools := []Tool{
		{Name: "gotool", Kind: KindGo, Package: "example.com/cmd/gotool@latest"},
		{Name: "rusttool", Kind: KindCargo, Package: "rusttool"},
		{Name: "systool", Kind: KindSystem, Hint: "apt-get install systool"},
	}
	fr.fail = map[string]error{"cargo": errors.New(`exec: "cargo": executable file not found in $PATH`)}

	orch := NewOrchestrator(Options{
		Tools:  tools,
		System: SystemInfo{GoBin: binDir},
		Runner: fr.run,
		Logger: logx.NewSilent(),
	})

	before := orch.Check(context.Background())
	testutil.AssertEqual(t, Summarize(before).Missing, 3, "nothing installed yet")

	results := orch.Install(context.Background(), false, false)
	testutil.AssertLen(t, results, 3, "one result per tool")

	testutil.AssertEqual(t, results[0].Status, StatusSuccess, "go install")
	testutil.AssertEqual(t, results[0].Version, "1.4.0", "version probed after install")
	testutil.AssertEqual(t, results[0].Path, filepath.Join(binDir, "gotool"), "found in GOBIN")

	testutil.AssertEqual(t, results[1].Status, StatusFailed, "cargo missing")
	testutil.AssertNotNil(t, results[1].Context, "error context")
	testutil.AssertContains(t, results[1].Context.Reason, "cargo", "reason names the toolchain")

	testutil.AssertEqual(t, results[2].Status, StatusFailed, "system tools are manual")
	testutil.AssertContains(t, results[2].Error.Error(), "apt-get install systool", "hint surfaced")

	testutil.AssertEqual(t, orch.PathWarnings(results), []string{binDir}, "GOBIN not in PATH")

	// Segunda pasada: ya instalado, no se reinstala
	fr.calls = nil
	again := orch.Install(context.Background(), false, false)
	testutil.AssertEqual(t, again[0].Status, StatusAlreadyInstalled, "idempotent")
	for _, call := range fr.calls {
		testutil.AssertFalse(t, strings.HasPrefix(call, "go install"), "no reinstall without --force")
	}
}

func TestOrchestrator_DryRunAndCancel(t *testing.T) {
	binDir := isolate(t)
	fr := &fakeRunner{binDir: binDir}
	orch := NewOrchestrator(Options{
		Tools:  []Tool{{Name: "gotool", Kind: KindGo, Package: "example.com/gotool@latest"}},
		System: SystemInfo{GoBin: binDir},
		Runner: fr.run,
		Logger: logx.NewSilent(),
	})

	results := orch.Install(context.Background(), false, true)
	testutil.AssertEqual(t, results[0].Status, StatusSkipped, "dry run")
	testutil.AssertContains(t, results[0].Message, "go install", "command shown")
	_, err := os.Stat(filepath.Join(binDir, "gotool"))
	testutil.AssertTrue(t, os.IsNotExist(err), "nothing installed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results = orch.Install(ctx, false, false)
	testutil.AssertEqual(t, results[0].Status, StatusSkipped, "canceled")
}

func TestAnalyzeError(t *testing.T) {
	tool := Tool{Name: "dnsgen", Kind: KindPip, Package: "dnsgen", Docs: "https://example.com/dnsgen"}

	ec := AnalyzeError(tool, "install", errors.New("error: externally-managed-environment"))
	testutil.AssertContains(t, ec.Reason, "PEP 668", "pip reason")
	testutil.AssertContains(t, ec.Solutions[0], "pipx install dnsgen", "pipx hint")
	testutil.AssertContains(t, ec.String(), "DOCS: https://example.com/dnsgen", "docs rendered")

	testutil.AssertNil(t, AnalyzeError(tool, "install", nil), "nil error")
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"subterra/internal/adapters/output"
	"subterra/internal/adapters/store"
	"subterra/internal/core/domain"
	"subterra/internal/platform/errors"
	"subterra/internal/testutil"
)

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_InformationalFlags(t *testing.T) {
	code, out, _ := runCmd(t, "--help")
	testutil.AssertEqual(t, code, exitOK, "help")
	testutil.AssertContains(t, out, "--target", "flag usages")

	code, out, _ = runCmd(t, "--version")
	testutil.AssertEqual(t, code, exitOK, "version")
	testutil.AssertContains(t, out, version, "version string")

	code, out, _ = runCmd(t, "--list-sources")
	testutil.AssertEqual(t, code, exitOK, "list sources")
	testutil.AssertContains(t, out, "* subfinder", "default marked")
	testutil.AssertContains(t, out, "dnsenum", "every preset listed")

	code, out, _ = runCmd(t, "--print-config", "-t", "example.com")
	testutil.AssertEqual(t, code, exitOK, "print config")
	testutil.AssertContains(t, out, "target: example.com", "yaml dump")
}

func TestRun_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--nope"}},
		{"missing target", []string{"--ui", "quiet"}},
		{"invalid target", []string{"--ui", "quiet", "-t", "localhost"}},
		{"bad checker", []string{"-t", "example.com", "--checker", "ping"}},
		{"no sources", []string{"--ui", "quiet", "-t", "example.com", "--disable-source", "subfinder,assetfinder"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCmd(t, tt.args...)
			testutil.AssertEqual(t, code, exitConfig, "exit code")
		})
	}
}

func TestRun_EndToEndWithoutNames(t *testing.T) {
	testutil.RequireShell(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "subterra.yaml")
	yamlCfg := `
sources:
  subfinder:
    enabled: false
  assetfinder:
    enabled: false
  silent:
    phase: enumerate
    command: ["sh", "-c", "true", "_", "{domain}"]
    timeout: 30s
    extract:
      kind: lines
`
	testutil.RequireNoError(t, os.WriteFile(cfgPath, []byte(yamlCfg), 0o644), "write config")

	outDir := filepath.Join(dir, "results")
	metricsPath := filepath.Join(dir, "metrics.prom")
	code, out, _ := runCmd(t,
		"-c", cfgPath,
		"-t", "Example.COM",
		"-o", outDir,
		"--ui", "plain",
		"--metrics-file", metricsPath,
	)
	testutil.AssertEqual(t, code, exitOK, "exit code")
	testutil.AssertContains(t, out, "source_finished", "plain events")
	testutil.AssertContains(t, out, "Subdomains:", "summary printed")
	testutil.AssertContains(t, out, "silent", "source row in summary")

	domainDir := store.DomainDir(outDir, "example.com")
	for _, name := range []string{store.CanonicalFile, store.LiveFile, output.ReportFile, output.HistoryFile} {
		_, err := os.Stat(filepath.Join(domainDir, name))
		testutil.AssertNoError(t, err, name+" exists")
	}

	stats, err := output.ReadRunReport(filepath.Join(domainDir, output.ReportFile))
	testutil.RequireNoError(t, err, "read report")
	testutil.AssertEqual(t, stats.Domain, domain.Hostname("example.com"), "normalized domain")
	testutil.AssertLen(t, stats.Sources, 1, "one source")
	testutil.AssertEqual(t, stats.Sources[0].Outcome, domain.OutcomeSuccess, "outcome")

	raw, err := os.ReadFile(metricsPath)
	testutil.RequireNoError(t, err, "metrics textfile")
	testutil.AssertContains(t, string(raw), `subterra_source_runs_total{outcome="success",source="silent"} 1`, "metrics")
}

func TestRun_CanceledRunExits130(t *testing.T) {
	testutil.RequireShell(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "subterra.yaml")
	yamlCfg := `
sources:
  subfinder:
    enabled: false
  assetfinder:
    enabled: false
  slow:
    phase: enumerate
    command: ["sh", "-c", "sleep 30", "_", "{domain}"]
    timeout: 1m
    extract:
      kind: lines
`
	testutil.RequireNoError(t, os.WriteFile(cfgPath, []byte(yamlCfg), 0o644), "write config")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"-c", cfgPath, "-t", "example.com", "-o", filepath.Join(dir, "out"), "--ui", "quiet"}, &stdout, &stderr)
	testutil.AssertEqual(t, code, exitInterrupted, "interrupted")
}

func TestExitCode(t *testing.T) {
	testutil.AssertEqual(t, exitCode(nil, false), exitOK, "nil")
	testutil.AssertEqual(t, exitCode(context.Canceled, true), exitInterrupted, "canceled")
	testutil.AssertEqual(t, exitCode(errors.Wrap(errors.ErrInvalidTarget, "x"), false), exitConfig, "target")
	testutil.AssertEqual(t, exitCode(domain.ErrNoSourcesAvailable, false), exitConfig, "no sources")
	testutil.AssertEqual(t, exitCode(errors.Wrap(errors.ErrMergeIO, "disk full"), false), exitFailure, "merge io")
	testutil.AssertEqual(t, exitCode(errors.Wrap(errors.ErrReportWrite, "x"), false), exitFailure, "report")
}

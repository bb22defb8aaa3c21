// internal/platform/config/help.go
package config

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

const helpHeader = `
subterra - Subdomain discovery and liveness pipeline

USAGE:
  subterra -t <domain> [options]
  subterra [options] <domain>

PIPELINE:
  1. Enumeration tools run against the target; their output is validated,
     scoped to the target and merged into <out>/<domain>/subdomains.txt
  2. Permutation tools expand the known names; only candidates confirmed
     live are added to the canonical set
  3. Every canonical name is probed over HTTP(S) in committed batches;
     live names are merged into <out>/<domain>/live_subdomains.txt

  Re-running is safe: merges are idempotent and an interrupted run keeps
  every batch committed before the interruption.

OPTIONS:
`

const helpFooter = `
ENVIRONMENT VARIABLES:
  SUBTERRA_CONFIG                   YAML configuration file
  SUBTERRA_TARGET                   Target domain
  SUBTERRA_OUTPUT_DIR               Results directory
  SUBTERRA_SOURCE_WORKERS=2         Sources run in parallel
  SUBTERRA_SCHEDULER=weighted       Source order with workers > 1
  SUBTERRA_TIMEOUT=2h               Global run timeout
  SUBTERRA_EXCLUDE=dev.example.com  Out-of-scope names (comma-separated)
  SUBTERRA_PROBE_CHECKER=httpx      Liveness checker
  SUBTERRA_PROBE_CONCURRENCY=50     Concurrent liveness checks
  SUBTERRA_PROBE_MATCH_CODES=200    Live status codes
  SUBTERRA_WORDLIST=/path           Permutation patterns file
  SUBTERRA_METRICS_TEXTFILE=/path   Prometheus textfile
  SUBTERRA_LOG_LEVEL=debug          Log level

  Source-specific (replace AMASS with the source name):
  SUBTERRA_SOURCES_AMASS_ENABLED=true
  SUBTERRA_SOURCES_AMASS_TIMEOUT=20m

  Precedence: flags > environment > config file > defaults.

EXAMPLES:
  subterra -t example.com
  subterra -t example.com -s amass -s alterx --wordlist patterns.txt
  subterra -t example.com --checker httpx --match-codes 200,301,302
  subterra -c subterra.yaml -w 3 --ui plain
  subterra -t example.com -w 4 --scheduler weighted
`

// PrintHelp escribe la ayuda completa en w.
func PrintHelp(w io.Writer) {
	defaults := DefaultConfig()
	fs := newFlagSet(&defaults)

	var b strings.Builder
	b.WriteString(strings.TrimPrefix(helpHeader, "\n"))
	b.WriteString(fs.FlagUsages())
	b.WriteString(helpFooter)
	fmt.Fprint(w, b.String())
}

// PrintVersion escribe la información de versión en w.
func PrintVersion(w io.Writer, version, commit, date string) {
	fmt.Fprintf(w, "subterra %s\n", version)
	fmt.Fprintf(w, "  Commit:  %s\n", commit)
	fmt.Fprintf(w, "  Built:   %s\n", date)
	fmt.Fprintf(w, "  Go:      %s\n", runtime.Version())
}

// internal/adapters/output/summary.go
package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"subterra/internal/core/domain"
)

// PrintSummary imprime el resumen de la corrida como tabla de texto.
func PrintSummary(out io.Writer, stats *domain.RunStats) error {
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)

	fmt.Fprintf(w, "\n=== subterra run %s ===\n", stats.RunID)
	fmt.Fprintf(w, "Domain:\t%s\n", stats.Domain)
	fmt.Fprintf(w, "Runtime:\t%s (hh:mm:ss)\n", domain.FormatElapsed(stats.Elapsed))
	fmt.Fprintf(w, "Subdomains:\t%d (%d new)\n", stats.TotalCanonical, stats.NewNames)
	fmt.Fprintf(w, "Live:\t%d (%d new)\n", stats.TotalLive, stats.Probe.NewLive)
	if stats.PermutationCandidates > 0 {
		fmt.Fprintf(w, "Permutations:\t%d candidates, %d live\n", stats.PermutationCandidates, stats.PermutationLive)
	}
	fmt.Fprintln(w)

	if len(stats.Sources) > 0 {
		fmt.Fprintln(w, "SOURCE\tPHASE\tOUTCOME\tEMITTED\tVALID\tADDED\tDURATION")
		fmt.Fprintln(w, "------\t-----\t-------\t-------\t-----\t-----\t--------")
		for _, s := range stats.Sources {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				s.Name,
				s.Phase,
				s.Outcome,
				s.Emitted,
				s.Valid,
				s.Added,
				domain.FormatElapsed(s.Duration),
			)
		}
	} else {
		fmt.Fprintln(w, "No sources ran.")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush summary: %w", err)
	}

	if failed := stats.FailedSources(); len(failed) > 0 {
		fmt.Fprintf(out, "\n⚠️  Failed sources (%d): %s\n", len(failed), strings.Join(failed, ", "))
	}
	if stats.Interrupted {
		fmt.Fprintln(out, "\n⚠️  Run interrupted: committed results are kept, re-run to resume.")
	}
	if stats.Error != "" {
		fmt.Fprintf(out, "\n❌ Error: %s\n", stats.Error)
	}

	fmt.Fprintln(out)
	return nil
}

// internal/platform/ui/helpers.go
package ui

import (
	"fmt"
	"time"

	"subterra/internal/core/domain"
)

// formatDuration formatea una duración de manera legible
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
}

// sourceCounts resume una fuente como "emitted/valid/added".
func sourceCounts(s domain.SourceStats) string {
	return fmt.Sprintf("%d/%d/%d", s.Emitted, s.Valid, s.Added)
}

// internal/core/domain/target.go
package domain

import (
	"fmt"
	"strings"
)

// Target representa el objetivo de una corrida de descubrimiento.
type Target struct {
	// Root es el dominio raíz objetivo, ya validado
	Root Hostname

	// Exclude lista subárboles a descartar aunque estén bajo Root
	Exclude []Hostname
}

// NewTarget crea un nuevo target.
func NewTarget(root Hostname, exclude ...Hostname) *Target {
	return &Target{
		Root:    root,
		Exclude: append([]Hostname{}, exclude...),
	}
}

// IsInScope verifica si un nombre está dentro del alcance del target.
func (t *Target) IsInScope(name Hostname) bool {
	for _, excluded := range t.Exclude {
		if name.Within(excluded) {
			return false
		}
	}
	return name.Within(t.Root)
}

// FilterInScope retorna los nombres en alcance, preservando el orden.
func (t *Target) FilterInScope(names []Hostname) []Hostname {
	out := make([]Hostname, 0, len(names))
	for _, n := range names {
		if t.IsInScope(n) {
			out = append(out, n)
		}
	}
	return out
}

// Depth calcula la profundidad de un nombre relativo al root.
// Ejemplo: para root="example.com"
//   - "example.com" = 0
//   - "test.example.com" = 1
//   - "api.test.example.com" = 2
func (t *Target) Depth(name Hostname) int {
	if name == t.Root || !name.Within(t.Root) {
		return 0
	}
	sub := strings.TrimSuffix(string(name), "."+string(t.Root))
	return strings.Count(sub, ".") + 1
}

// String retorna una representación legible del target.
func (t *Target) String() string {
	return fmt.Sprintf("Target{root=%s, exclude=%d}", t.Root, len(t.Exclude))
}

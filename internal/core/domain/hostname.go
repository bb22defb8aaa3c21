// internal/core/domain/hostname.go
package domain

import (
	"sort"
	"strings"
)

// Hostname es un nombre DNS ya validado y normalizado: minúsculas, forma
// Punycode (A-label), sin punto raíz final. Solo el validador lo construye
// a partir de entrada no confiable.
type Hostname string

// String retorna el hostname como string.
func (h Hostname) String() string {
	return string(h)
}

// Labels retorna las etiquetas del hostname de izquierda a derecha.
func (h Hostname) Labels() []string {
	if h == "" {
		return nil
	}
	return strings.Split(string(h), ".")
}

// Within reporta si h es root o un subdominio de root (match por sufijo
// en frontera de etiqueta).
func (h Hostname) Within(root Hostname) bool {
	if root == "" || h == "" {
		return false
	}
	if h == root {
		return true
	}
	return strings.HasSuffix(string(h), "."+string(root))
}

// SortHostnames ordena in-place en orden lexicográfico.
func SortHostnames(names []Hostname) {
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
}

// Dedupe retorna los nombres sin duplicados, ordenados.
func Dedupe(names []Hostname) []Hostname {
	if len(names) == 0 {
		return []Hostname{}
	}
	seen := make(map[Hostname]struct{}, len(names))
	out := make([]Hostname, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	SortHostnames(out)
	return out
}

// internal/core/domain/status_policy.go
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// StatusPolicy decide si un código HTTP cuenta como "vivo".
// Las entradas son códigos exactos ("200") o clases ("2xx").
// Un código está vivo si no coincide con Filter y, cuando Match no está
// vacío, coincide con Match.
type StatusPolicy struct {
	Match  []string `yaml:"match" json:"match,omitempty"`
	Filter []string `yaml:"filter" json:"filter,omitempty"`
}

// DefaultStatusPolicy descarta solo 404.
func DefaultStatusPolicy() StatusPolicy {
	return StatusPolicy{Filter: []string{"404"}}
}

// Live reporta si el código cumple la política.
func (p StatusPolicy) Live(code int) bool {
	if code <= 0 {
		return false
	}
	for _, f := range p.Filter {
		if statusMatches(f, code) {
			return false
		}
	}
	if len(p.Match) == 0 {
		return true
	}
	for _, m := range p.Match {
		if statusMatches(m, code) {
			return true
		}
	}
	return false
}

// Validate verifica que todas las entradas sean códigos o clases válidas.
func (p StatusPolicy) Validate() error {
	for _, list := range [][]string{p.Match, p.Filter} {
		for _, e := range list {
			if !validStatusEntry(e) {
				return fmt.Errorf("%w: %q", ErrInvalidStatusPolicy, e)
			}
		}
	}
	return nil
}

func statusMatches(entry string, code int) bool {
	entry = strings.ToLower(strings.TrimSpace(entry))
	if len(entry) == 3 && strings.HasSuffix(entry, "xx") {
		class := int(entry[0] - '0')
		return code/100 == class
	}
	n, err := strconv.Atoi(entry)
	return err == nil && n == code
}

func validStatusEntry(entry string) bool {
	entry = strings.ToLower(strings.TrimSpace(entry))
	if len(entry) != 3 {
		return false
	}
	if strings.HasSuffix(entry, "xx") {
		return entry[0] >= '1' && entry[0] <= '5'
	}
	n, err := strconv.Atoi(entry)
	return err == nil && n >= 100 && n <= 599
}

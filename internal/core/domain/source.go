// internal/core/domain/source.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Placeholders reconocidos en la plantilla de comando de una fuente.
const (
	PlaceholderDomain   = "{domain}"
	PlaceholderOutput   = "{output}"
	PlaceholderInput    = "{input}"
	PlaceholderWordlist = "{wordlist}"
)

// ExtractRule describe cómo obtener candidatos de la salida cruda de una fuente.
type ExtractRule struct {
	Kind ExtractKind `yaml:"kind" json:"kind"`

	// Field es la clave JSON que contiene el nombre (solo ExtractJSONL).
	Field string `yaml:"field,omitempty" json:"field,omitempty"`

	// Sections limita ExtractSections a los encabezados listados
	// (prefijo, sin distinguir mayúsculas). Vacío = todas las secciones.
	Sections []string `yaml:"sections,omitempty" json:"sections,omitempty"`
}

// Validate verifica la consistencia de la regla.
func (r ExtractRule) Validate() error {
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidExtract, r.Kind)
	}
	if r.Kind == ExtractJSONL && strings.TrimSpace(r.Field) == "" {
		return fmt.Errorf("%w: jsonl rule requires a field", ErrInvalidExtract)
	}
	return nil
}

// SourceSpec define una fuente externa: un comando que produce candidatos
// para el dominio objetivo. Es inmutable durante una corrida.
type SourceSpec struct {
	Name  string `yaml:"name" json:"name"`
	Phase Phase  `yaml:"phase" json:"phase"`

	// Command es una plantilla argv; nunca se interpreta con un shell.
	Command []string `yaml:"command" json:"command"`

	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Extract  ExtractRule   `yaml:"extract" json:"extract"`
	Priority int           `yaml:"priority" json:"priority"`
	Retries  int           `yaml:"retries" json:"retries"`
	Enabled  bool          `yaml:"enabled" json:"enabled"`
}

// Validate verifica que la definición de la fuente sea ejecutable.
func (s SourceSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptySourceName
	}
	if len(s.Command) == 0 || strings.TrimSpace(s.Command[0]) == "" {
		return fmt.Errorf("%w: source %s", ErrEmptyCommand, s.Name)
	}
	if !s.Phase.IsValid() {
		return fmt.Errorf("%w: source %s phase %q", ErrInvalidPhase, s.Name, s.Phase)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%w: source %s", ErrInvalidTimeout, s.Name)
	}
	if err := s.Extract.Validate(); err != nil {
		return fmt.Errorf("source %s: %w", s.Name, err)
	}
	if s.Phase == PhasePermute && !s.HasPlaceholder(PlaceholderInput) {
		return fmt.Errorf("%w: permutation source %s needs %s", ErrMissingPlaceholder, s.Name, PlaceholderInput)
	}
	if s.Phase == PhaseEnumerate && !s.HasPlaceholder(PlaceholderDomain) {
		return fmt.Errorf("%w: enumeration source %s needs %s", ErrMissingPlaceholder, s.Name, PlaceholderDomain)
	}
	return nil
}

// HasPlaceholder reporta si algún argumento contiene el placeholder dado.
func (s SourceSpec) HasPlaceholder(p string) bool {
	for _, arg := range s.Command {
		if strings.Contains(arg, p) {
			return true
		}
	}
	return false
}

// Expand sustituye los placeholders en la plantilla y retorna el argv final.
// Los valores vacíos no se sustituyen.
func (s SourceSpec) Expand(values map[string]string) []string {
	out := make([]string, len(s.Command))
	for i, arg := range s.Command {
		for k, v := range values {
			if v == "" {
				continue
			}
			arg = strings.ReplaceAll(arg, k, v)
		}
		out[i] = arg
	}
	return out
}

// Merge aplica los campos no-cero de override sobre s (usado para
// personalizar presets desde la configuración).
func (s SourceSpec) Merge(override SourceSpec) SourceSpec {
	out := s
	if override.Phase != "" {
		out.Phase = override.Phase
	}
	if len(override.Command) > 0 {
		out.Command = append([]string(nil), override.Command...)
	}
	if override.Timeout > 0 {
		out.Timeout = override.Timeout
	}
	if override.Extract.Kind != "" {
		out.Extract = override.Extract
	}
	if override.Priority != 0 {
		out.Priority = override.Priority
	}
	if override.Retries != 0 {
		out.Retries = override.Retries
	}
	return out
}

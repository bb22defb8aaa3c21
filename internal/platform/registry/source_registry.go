// internal/platform/registry/source_registry.go
package registry

import (
	"sort"
	"sync"
	"time"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
	"subterra/internal/platform/resilience"
	"subterra/internal/sources/common"
)

// SourceRegistry gestiona los presets de herramientas conocidas y construye
// las fuentes habilitadas a partir de la configuración.
type SourceRegistry struct {
	mu      sync.RWMutex
	presets map[string]domain.SourceSpec
	logger  logx.Logger
}

// Override habilita o personaliza una fuente desde la configuración.
// Los campos no-cero de Spec pisan los del preset del mismo nombre; un nombre
// sin preset define una fuente custom completa.
type Override struct {
	Enabled *bool
	Spec    domain.SourceSpec
}

// BuildConfig son los parámetros comunes a todas las fuentes construidas.
type BuildConfig struct {
	WorkDir      string
	WaitDelay    time.Duration
	RetryBackoff time.Duration
}

// NewSourceRegistry crea un registry vacío.
func NewSourceRegistry(logger logx.Logger) *SourceRegistry {
	return &SourceRegistry{
		presets: make(map[string]domain.SourceSpec),
		logger:  logger.With("component", "source-registry"),
	}
}

// Default crea un registry con los presets integrados.
func Default(logger logx.Logger) *SourceRegistry {
	r := NewSourceRegistry(logger)
	for _, spec := range builtinPresets() {
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}
	return r
}

// Register agrega un preset. El nombre debe ser único y la definición válida.
func (r *SourceRegistry) Register(spec domain.SourceSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := spec.Validate(); err != nil {
		return errors.Wrap(err, "register preset")
	}
	if _, exists := r.presets[spec.Name]; exists {
		return errors.Wrapf(errors.ErrInvalidConfig, "source %s is already registered", spec.Name)
	}

	spec.Enabled = false
	r.presets[spec.Name] = spec
	r.logger.Debug("preset registered", "name", spec.Name, "phase", spec.Phase)
	return nil
}

// Preset retorna la definición integrada de name.
func (r *SourceRegistry) Preset(name string) (domain.SourceSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.presets[name]
	return spec, ok
}

// IsRegistered verifica si existe un preset con ese nombre.
func (r *SourceRegistry) IsRegistered(name string) bool {
	_, ok := r.Preset(name)
	return ok
}

// List retorna los nombres de los presets ordenados.
func (r *SourceRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve combina los presets con la configuración y retorna las
// definiciones habilitadas: enumeración primero, luego por prioridad.
//
// Sin overrides quedan habilitadas las fuentes de DefaultEnabled. Mencionar
// una fuente en la configuración la habilita salvo enabled: false.
func (r *SourceRegistry) Resolve(overrides map[string]Override) ([]domain.SourceSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enabled := make(map[string]domain.SourceSpec)
	for _, name := range DefaultEnabled {
		if spec, ok := r.presets[name]; ok {
			enabled[name] = spec
		}
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		o := overrides[name]
		if o.Enabled != nil && !*o.Enabled {
			delete(enabled, name)
			continue
		}

		spec, isPreset := r.presets[name]
		if isPreset {
			spec = spec.Merge(o.Spec)
		} else {
			spec = o.Spec
			spec.Name = name
		}

		if err := spec.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		enabled[name] = spec
	}

	// Validate ya clasifica cada error como ErrInvalidConfig
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	specs := make([]domain.SourceSpec, 0, len(enabled))
	for _, spec := range enabled {
		spec.Enabled = true
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool {
		if specs[i].Phase != specs[j].Phase {
			return specs[i].Phase == domain.PhaseEnumerate
		}
		if specs[i].Priority != specs[j].Priority {
			return specs[i].Priority > specs[j].Priority
		}
		return specs[i].Name < specs[j].Name
	})

	return specs, nil
}

// Build construye una fuente por definición. Las fuentes con Retries > 0
// quedan envueltas en un RetryableSource.
func (r *SourceRegistry) Build(specs []domain.SourceSpec, cfg BuildConfig, logger logx.Logger) ([]ports.Source, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	sources := make([]ports.Source, 0, len(specs))
	for _, spec := range specs {
		src, err := common.NewCLISource(spec, common.CLIConfig{
			WorkDir:   cfg.WorkDir,
			WaitDelay: cfg.WaitDelay,
		}, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "build source %s", spec.Name)
		}

		sources = append(sources, resilience.Wrap(src, cfg.RetryBackoff, logger))
		logger.Debug("source built",
			"name", spec.Name,
			"phase", spec.Phase,
			"priority", spec.Priority,
			"retries", spec.Retries,
		)
	}

	logger.Info("sources built", "count", len(sources))
	return sources, nil
}

// Preflight verifica las fuentes que lo soportan y retorna los errores por
// nombre. Un binario ausente no impide la corrida: la fuente fallará.
func Preflight(sources []ports.Source) map[string]error {
	problems := make(map[string]error)
	for _, src := range sources {
		p, ok := src.(ports.Preflighter)
		if !ok {
			continue
		}
		if err := p.Preflight(); err != nil {
			problems[src.Name()] = err
		}
	}
	return problems
}

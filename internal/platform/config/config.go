// internal/platform/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"subterra/internal/core/domain"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/registry"
	"subterra/internal/platform/workerpool"
)

// EnvPrefix es el prefijo de todas las variables de entorno.
const EnvPrefix = "SUBTERRA_"

// Checkers de liveness soportados.
const (
	CheckerHTTP  = "http"  // cliente net/http nativo
	CheckerHTTPX = "httpx" // binario httpx de projectdiscovery
)

// Modos de presentación en terminal.
const (
	UIModeAuto   = "auto"
	UIModePretty = "pretty"
	UIModePlain  = "plain"
	UIModeQuiet  = "quiet"
)

type Config struct {
	Core        Core                    `yaml:"core"`
	Sources     map[string]SourceConfig `yaml:"sources"`
	Prober      Prober                  `yaml:"prober"`
	Permutation Permutation             `yaml:"permutation"`
	Metrics     Metrics                 `yaml:"metrics"`
	UI          UI                      `yaml:"ui"`

	// Solo CLI
	ConfigPath   string `yaml:"-"`
	PrintVersion bool   `yaml:"-"`
	PrintConfig  bool   `yaml:"-"`
	ListSources  bool   `yaml:"-"`
}

type Core struct {
	Target        string        `yaml:"target"`
	OutputDir     string        `yaml:"output_dir"`
	WorkDir       string        `yaml:"work_dir"`       // padre de los directorios temporales de fuentes
	SourceWorkers int           `yaml:"source_workers"` // 1 = fuentes en secuencia
	Scheduler     string        `yaml:"scheduler"`      // orden de fuentes con workers > 1
	Timeout       time.Duration `yaml:"timeout"`        // timeout global de la corrida (0 = sin timeout)
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
	KillGrace     time.Duration `yaml:"kill_grace"` // espera entre SIGINT y SIGKILL de una herramienta
	Exclude       []string      `yaml:"exclude"`    // nombres fuera de alcance, con sus subdominios
}

// SourceConfig personaliza una fuente. Los campos vacíos heredan del preset.
type SourceConfig struct {
	Enabled  *bool              `yaml:"enabled,omitempty"`
	Phase    domain.Phase       `yaml:"phase,omitempty"`
	Command  []string           `yaml:"command,omitempty"`
	Timeout  time.Duration      `yaml:"timeout,omitempty"`
	Extract  domain.ExtractRule `yaml:"extract,omitempty"`
	Priority int                `yaml:"priority,omitempty"`
	Retries  int                `yaml:"retries,omitempty"`
}

type Prober struct {
	Checker       string              `yaml:"checker"`
	HTTPXBinary   string              `yaml:"httpx_binary"`
	Concurrency   int                 `yaml:"concurrency"`
	BatchSize     int                 `yaml:"batch_size"`
	Timeout       time.Duration       `yaml:"timeout"`
	RateLimit     float64             `yaml:"rate_limit"` // requests/s (0 = sin límite)
	RateBurst     int                 `yaml:"rate_burst"`
	Retries       int                 `yaml:"retries"`
	MaxRedirects  int                 `yaml:"max_redirects"`
	UserAgent     string              `yaml:"user_agent"`
	InsecureTLS   bool                `yaml:"insecure_tls"`
	SkipKnownLive bool                `yaml:"skip_known_live"`
	Status        domain.StatusPolicy `yaml:"status"`
}

type Permutation struct {
	Enabled  bool   `yaml:"enabled"`
	Wordlist string `yaml:"wordlist"`
}

type Metrics struct {
	Textfile string `yaml:"textfile"` // vacío = sin métricas en disco
}

type UI struct {
	Mode     string `yaml:"mode"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

// DefaultConfig retorna una configuración por defecto.
func DefaultConfig() Config {
	return Config{
		Core: Core{
			OutputDir:     "results",
			SourceWorkers: 1,
			Scheduler:     workerpool.StrategyPriority,
			RetryBackoff:  2 * time.Second,
			KillGrace:     5 * time.Second,
		},
		Sources: map[string]SourceConfig{},
		Prober: Prober{
			Checker:      CheckerHTTP,
			HTTPXBinary:  "httpx",
			Concurrency:  10,
			BatchSize:    100,
			Timeout:      6 * time.Second,
			RateLimit:    0,
			RateBurst:    1,
			Retries:      0,
			MaxRedirects: 3,
			UserAgent:    "subterra/1.0",
			Status:       domain.DefaultStatusPolicy(),
		},
		Permutation: Permutation{Enabled: true},
		UI: UI{
			Mode:     UIModeAuto,
			LogLevel: "info",
		},
	}
}

// Load construye la configuración por capas: defaults, archivo YAML
// (--config o SUBTERRA_CONFIG), variables de entorno y por último flags.
// Con -h/--help retorna pflag.ErrHelp.
func Load(args []string) (Config, error) {
	// Primera pasada: solo para conocer --config y reportar flags inválidos
	var scratch Config
	first := newFlagSet(&scratch)
	if err := first.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return scratch, err
		}
		return scratch, errors.Wrap(errors.ErrInvalidConfig, err.Error())
	}

	cfg := DefaultConfig()

	path := scratch.ConfigPath
	if path == "" {
		path = getenv(EnvPrefix+"CONFIG", "")
	}
	if path != "" {
		if err := loadFromFile(&cfg, path); err != nil {
			return cfg, err
		}
		cfg.ConfigPath = path
	}

	loadFromEnv(&cfg)

	// Segunda pasada sobre la configuración real: los flags tienen prioridad
	fs := newFlagSet(&cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, errors.Wrap(errors.ErrInvalidConfig, err.Error())
	}
	applySourceFlags(&cfg, fs)

	if cfg.Core.Target == "" && fs.NArg() > 0 {
		cfg.Core.Target = fs.Arg(0)
	}

	normalize(&cfg)
	return cfg, cfg.Validate()
}

// loadFromFile mezcla el archivo YAML sobre cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidConfig, "read config %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(errors.ErrInvalidConfig, "parse config %s: %v", path, err)
	}
	if cfg.Sources == nil {
		cfg.Sources = map[string]SourceConfig{}
	}
	return nil
}

// loadFromEnv carga configuración desde variables de entorno.
func loadFromEnv(cfg *Config) {
	if v := getenv(EnvPrefix+"TARGET", ""); v != "" {
		cfg.Core.Target = v
	}
	if v := getenv(EnvPrefix+"OUTPUT_DIR", ""); v != "" {
		cfg.Core.OutputDir = v
	}
	if v := getenv(EnvPrefix+"WORK_DIR", ""); v != "" {
		cfg.Core.WorkDir = v
	}
	if v := getenv(EnvPrefix+"SOURCE_WORKERS", ""); v != "" {
		cfg.Core.SourceWorkers = parseInt(v, cfg.Core.SourceWorkers)
	}
	if v := getenv(EnvPrefix+"SCHEDULER", ""); v != "" {
		cfg.Core.Scheduler = v
	}
	if v := getenv(EnvPrefix+"TIMEOUT", ""); v != "" {
		cfg.Core.Timeout = parseDuration(v, cfg.Core.Timeout)
	}
	if v := getenv(EnvPrefix+"EXCLUDE", ""); v != "" {
		cfg.Core.Exclude = splitList(v)
	}

	// Prober
	if v := getenv(EnvPrefix+"PROBE_CHECKER", ""); v != "" {
		cfg.Prober.Checker = v
	}
	if v := getenv(EnvPrefix+"PROBE_CONCURRENCY", ""); v != "" {
		cfg.Prober.Concurrency = parseInt(v, cfg.Prober.Concurrency)
	}
	if v := getenv(EnvPrefix+"PROBE_BATCH_SIZE", ""); v != "" {
		cfg.Prober.BatchSize = parseInt(v, cfg.Prober.BatchSize)
	}
	if v := getenv(EnvPrefix+"PROBE_TIMEOUT", ""); v != "" {
		cfg.Prober.Timeout = parseDuration(v, cfg.Prober.Timeout)
	}
	if v := getenv(EnvPrefix+"PROBE_RATE_LIMIT", ""); v != "" {
		cfg.Prober.RateLimit = parseFloat(v, cfg.Prober.RateLimit)
	}
	if v := getenv(EnvPrefix+"PROBE_SKIP_KNOWN_LIVE", ""); v != "" {
		cfg.Prober.SkipKnownLive = parseBool(v)
	}
	if v := getenv(EnvPrefix+"PROBE_MATCH_CODES", ""); v != "" {
		cfg.Prober.Status.Match = splitList(v)
	}
	if v := getenv(EnvPrefix+"PROBE_FILTER_CODES", ""); v != "" {
		cfg.Prober.Status.Filter = splitList(v)
	}

	// Permutación, métricas y UI
	if v := getenv(EnvPrefix+"PERMUTATION_ENABLED", ""); v != "" {
		cfg.Permutation.Enabled = parseBool(v)
	}
	if v := getenv(EnvPrefix+"WORDLIST", ""); v != "" {
		cfg.Permutation.Wordlist = v
	}
	if v := getenv(EnvPrefix+"METRICS_TEXTFILE", ""); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := getenv(EnvPrefix+"UI_MODE", ""); v != "" {
		cfg.UI.Mode = v
	}
	if v := getenv(EnvPrefix+"LOG_LEVEL", ""); v != "" {
		cfg.UI.LogLevel = v
	}
	if v := getenv(EnvPrefix+"LOG_JSON", ""); v != "" {
		cfg.UI.LogJSON = parseBool(v)
	}

	// Fuentes
	// Formato: SUBTERRA_SOURCES_AMASS_ENABLED=true
	//          SUBTERRA_SOURCES_AMASS_TIMEOUT=20m
	//          SUBTERRA_SOURCES_AMASS_PRIORITY=9
	//          SUBTERRA_SOURCES_AMASS_RETRIES=2
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix+"SOURCES_") {
			continue
		}
		rest := strings.TrimPrefix(key, EnvPrefix+"SOURCES_")
		idx := strings.LastIndex(rest, "_")
		if idx <= 0 {
			continue
		}
		name := strings.ToLower(rest[:idx])
		src := cfg.Sources[name]

		switch rest[idx+1:] {
		case "ENABLED":
			enabled := parseBool(value)
			src.Enabled = &enabled
		case "TIMEOUT":
			src.Timeout = parseDuration(value, src.Timeout)
		case "PRIORITY":
			src.Priority = parseInt(value, src.Priority)
		case "RETRIES":
			src.Retries = parseInt(value, src.Retries)
		default:
			continue
		}
		cfg.Sources[name] = src
	}
}

// newFlagSet declara los flags enlazados a cfg.
func newFlagSet(cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("subterra", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)

	fs.StringVarP(&cfg.ConfigPath, "config", "c", cfg.ConfigPath, "YAML configuration file")
	fs.StringVarP(&cfg.Core.Target, "target", "t", cfg.Core.Target, "Target domain (e.g., example.com)")
	fs.StringVarP(&cfg.Core.OutputDir, "out", "o", cfg.Core.OutputDir, "Results directory")
	fs.StringVar(&cfg.Core.WorkDir, "work-dir", cfg.Core.WorkDir, "Directory for per-source temp dirs")
	fs.IntVarP(&cfg.Core.SourceWorkers, "workers", "w", cfg.Core.SourceWorkers, "Sources run in parallel (1 = sequential)")
	fs.StringVar(&cfg.Core.Scheduler, "scheduler", cfg.Core.Scheduler, "Source order with --workers > 1: priority, weighted, hybrid or fifo")
	fs.DurationVarP(&cfg.Core.Timeout, "timeout", "T", cfg.Core.Timeout, "Global run timeout (0 = none)")

	fs.StringSliceVarP(&cfg.Core.Exclude, "exclude", "x", cfg.Core.Exclude, "Out-of-scope names, subdomains included (repeatable)")

	fs.StringSliceP("source", "s", nil, "Enable a source by name (repeatable)")
	fs.StringSlice("disable-source", nil, "Disable a source by name (repeatable)")

	fs.StringVar(&cfg.Prober.Checker, "checker", cfg.Prober.Checker, "Liveness checker: http or httpx")
	fs.IntVarP(&cfg.Prober.Concurrency, "concurrency", "C", cfg.Prober.Concurrency, "Concurrent liveness checks")
	fs.IntVar(&cfg.Prober.BatchSize, "batch-size", cfg.Prober.BatchSize, "Names per committed probe batch")
	fs.DurationVar(&cfg.Prober.Timeout, "probe-timeout", cfg.Prober.Timeout, "Timeout per liveness check")
	fs.Float64Var(&cfg.Prober.RateLimit, "rate-limit", cfg.Prober.RateLimit, "Probe requests per second (0 = unlimited)")
	fs.StringSliceVar(&cfg.Prober.Status.Match, "match-codes", cfg.Prober.Status.Match, "Status codes or classes counted as live (e.g., 200,3xx)")
	fs.StringSliceVar(&cfg.Prober.Status.Filter, "filter-codes", cfg.Prober.Status.Filter, "Status codes or classes never counted as live")
	fs.BoolVar(&cfg.Prober.InsecureTLS, "insecure", cfg.Prober.InsecureTLS, "Skip TLS certificate verification")
	fs.BoolVar(&cfg.Prober.SkipKnownLive, "skip-known-live", cfg.Prober.SkipKnownLive, "Do not re-probe names already known live")

	fs.StringVar(&cfg.Permutation.Wordlist, "wordlist", cfg.Permutation.Wordlist, "Patterns/words file for permutation tools")
	fs.BoolVar(&cfg.Permutation.Enabled, "permute", cfg.Permutation.Enabled, "Run the permutation phase")

	fs.StringVar(&cfg.Metrics.Textfile, "metrics-file", cfg.Metrics.Textfile, "Write Prometheus metrics to this textfile")

	fs.StringVar(&cfg.UI.Mode, "ui", cfg.UI.Mode, "Terminal mode: auto, pretty, plain or quiet")
	fs.StringVar(&cfg.UI.LogLevel, "log-level", cfg.UI.LogLevel, "Log level: debug, info, warn or error")
	fs.BoolVar(&cfg.UI.LogJSON, "log-json", cfg.UI.LogJSON, "Emit logs as JSON")

	fs.BoolVar(&cfg.ListSources, "list-sources", false, "List built-in sources and exit")
	fs.BoolVar(&cfg.PrintConfig, "print-config", false, "Print the effective configuration and exit")
	fs.BoolVarP(&cfg.PrintVersion, "version", "v", false, "Print version and exit")
	return fs
}

// applySourceFlags traduce --source/--disable-source a overrides.
func applySourceFlags(cfg *Config, fs *pflag.FlagSet) {
	set := func(flag string, enabled bool) {
		names, _ := fs.GetStringSlice(flag)
		for _, name := range names {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			src := cfg.Sources[name]
			src.Enabled = &enabled
			cfg.Sources[name] = src
		}
	}
	set("source", true)
	set("disable-source", false)
}

func normalize(c *Config) {
	c.Core.Target = strings.TrimSpace(strings.ToLower(strings.TrimSuffix(c.Core.Target, ".")))
	if c.Core.SourceWorkers < 1 {
		c.Core.SourceWorkers = 1
	}
	c.Core.Scheduler = strings.ToLower(strings.TrimSpace(c.Core.Scheduler))
	if c.Core.Scheduler == "" {
		c.Core.Scheduler = workerpool.StrategyPriority
	}
	if c.Core.Timeout < 0 {
		c.Core.Timeout = 0
	}
	if c.Core.OutputDir == "" {
		c.Core.OutputDir = "results"
	}
	if c.Core.RetryBackoff <= 0 {
		c.Core.RetryBackoff = 2 * time.Second
	}
	if c.Core.KillGrace <= 0 {
		c.Core.KillGrace = 5 * time.Second
	}
	if c.Prober.Concurrency <= 0 {
		c.Prober.Concurrency = 10
	}
	if c.Prober.BatchSize <= 0 {
		c.Prober.BatchSize = 100
	}
	if c.Prober.Timeout <= 0 {
		c.Prober.Timeout = 6 * time.Second
	}
	if c.Prober.HTTPXBinary == "" {
		c.Prober.HTTPXBinary = "httpx"
	}
	c.Prober.Checker = strings.ToLower(strings.TrimSpace(c.Prober.Checker))
	c.UI.Mode = strings.ToLower(strings.TrimSpace(c.UI.Mode))
	if c.UI.Mode == "" {
		c.UI.Mode = UIModeAuto
	}
}

// Validate verifica la configuración ya normalizada. Las fuentes se validan
// campo a campo; la definición completa (preset + override) la valida el
// registry al resolverlas.
func (c Config) Validate() error {
	var errs []error

	switch c.Prober.Checker {
	case CheckerHTTP, CheckerHTTPX:
	default:
		errs = append(errs, fmt.Errorf("unknown checker %q", c.Prober.Checker))
	}
	if _, err := workerpool.NewScheduler(c.Core.Scheduler); err != nil {
		errs = append(errs, err)
	}
	switch c.UI.Mode {
	case UIModeAuto, UIModePretty, UIModePlain, UIModeQuiet:
	default:
		errs = append(errs, fmt.Errorf("unknown ui mode %q", c.UI.Mode))
	}
	if c.Prober.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must be >= 0"))
	}
	if err := c.Prober.Status.Validate(); err != nil {
		errs = append(errs, err)
	}

	for _, name := range c.SourceNames() {
		src := c.Sources[name]
		if src.Phase != "" && !src.Phase.IsValid() {
			errs = append(errs, fmt.Errorf("source %s: unknown phase %q", name, src.Phase))
		}
		if src.Timeout < 0 {
			errs = append(errs, fmt.Errorf("source %s: timeout must be positive", name))
		}
		if src.Extract.Kind != "" {
			if err := src.Extract.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("source %s: %v", name, err))
			}
		}
		if len(src.Command) > 0 && strings.TrimSpace(src.Command[0]) == "" {
			errs = append(errs, fmt.Errorf("source %s: empty command", name))
		}
	}

	if len(errs) > 0 {
		return errors.Wrap(errors.ErrInvalidConfig, errors.Join(errs...).Error())
	}
	return nil
}

// SourceNames retorna los nombres configurados, ordenados.
func (c Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Overrides convierte la sección sources al formato del registry.
func (c Config) Overrides() map[string]registry.Override {
	out := make(map[string]registry.Override, len(c.Sources))
	for name, src := range c.Sources {
		out[name] = registry.Override{
			Enabled: src.Enabled,
			Spec: domain.SourceSpec{
				Name:     name,
				Phase:    src.Phase,
				Command:  src.Command,
				Timeout:  src.Timeout,
				Extract:  src.Extract,
				Priority: src.Priority,
				Retries:  src.Retries,
			},
		}
	}
	return out
}

// Dump serializa la configuración efectiva a YAML (--print-config).
func (c Config) Dump() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func parseFloat(v string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// parseDuration acepta "90s"/"15m" o un entero en segundos.
func parseDuration(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

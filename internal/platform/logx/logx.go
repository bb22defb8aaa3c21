// internal/platform/logx/logx.go
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// EnvLevel es la variable de entorno que fija el nivel por defecto.
const EnvLevel = "SUBTERRA_LOG_LEVEL"

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Err(err error, kv ...any)
	With(kv ...any) Logger
	SetLevel(lvl Level)
}

// Options configura el backend pterm del logger.
type Options struct {
	Level  Level
	JSON   bool      // usa pterm.LogFormatterJSON en lugar del formato coloreado
	Writer io.Writer // default: os.Stderr
}

type ptermLogger struct {
	lvl   *atomic.Int32 // compartido entre clones de With
	scope []any         // pares key/value fijos
	base  *pterm.Logger
}

func New() Logger {
	return NewWithOptions(Options{Level: parseLevel(os.Getenv(EnvLevel))})
}

// NewWithLevel creates a logger with a specific log level
func NewWithLevel(lvl Level) Logger {
	return NewWithOptions(Options{Level: lvl})
}

// NewSilent creates a logger that only outputs errors (silent mode for UI)
func NewSilent() Logger {
	return NewWithLevel(LevelError)
}

// NewWithOptions builds a logger over a dedicated pterm.Logger.
func NewWithOptions(opts Options) Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	base := pterm.DefaultLogger.
		WithLevel(pterm.LogLevelTrace).
		WithWriter(&lockedWriter{w: w}).
		WithTime(true).
		WithTimeFormat("15:04:05")
	if opts.JSON {
		base = base.WithFormatter(pterm.LogFormatterJSON)
	}

	lvl := &atomic.Int32{}
	lvl.Store(int32(opts.Level))

	return &ptermLogger{lvl: lvl, base: base}
}

func (p *ptermLogger) With(kv ...any) Logger {
	clone := *p
	clone.scope = append(append([]any{}, p.scope...), kvPairs(kv...)...)
	return &clone
}

func (p *ptermLogger) SetLevel(lvl Level) {
	p.lvl.Store(int32(lvl))
}

func (p *ptermLogger) Debug(msg string, kv ...any) { p.log(LevelDebug, msg, kv...) }
func (p *ptermLogger) Info(msg string, kv ...any)  { p.log(LevelInfo, msg, kv...) }
func (p *ptermLogger) Warn(msg string, kv ...any)  { p.log(LevelWarn, msg, kv...) }
func (p *ptermLogger) Err(err error, kv ...any) {
	if err == nil {
		return
	}
	kv = append([]any{"error", err.Error()}, kv...)
	p.log(LevelError, "", kv...)
}

func (p *ptermLogger) log(l Level, msg string, kv ...any) {
	if int32(l) < p.lvl.Load() {
		return
	}
	fields := append(append([]any{}, p.scope...), kvPairs(kv...)...)
	args := p.base.Args(fields...)

	switch l {
	case LevelDebug:
		p.base.Debug(msg, args)
	case LevelInfo:
		p.base.Info(msg, args)
	case LevelWarn:
		p.base.Warn(msg, args)
	default:
		p.base.Error(msg, args)
	}
}

// kvPairs normaliza pares key/value: claves como string, valores imprimibles
// (los errores y duraciones se convierten a texto para el formato JSON).
func kvPairs(kv ...any) []any {
	out := make([]any, 0, len(kv)+1)
	for i := 0; i < len(kv); i += 2 {
		k := fmt.Sprint(kv[i])
		var v any = "(missing)"
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		switch tv := v.(type) {
		case error:
			v = tv.Error()
		case time.Duration:
			v = tv.String()
		case fmt.Stringer:
			v = tv.String()
		}
		out = append(out, k, v)
	}
	return out
}

func parseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return LevelDebug
	case "info", "inf", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "err", "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseLevel exposes the level parser for flag handling.
func ParseLevel(s string) Level { return parseLevel(s) }

// lockedWriter serializa escrituras concurrentes al writer subyacente.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(b []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(b)
}

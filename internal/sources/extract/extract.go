// Package extract turns raw tool output into candidate names.
// Each extraction rule is a line handler fed one line at a time by the
// source adapter, so large outputs are never held in memory twice.
package extract

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/go-json-experiment/json"

	"subterra/internal/core/domain"
	"subterra/internal/platform/validator"
)

// Handler procesa la salida de una herramienta línea por línea.
type Handler interface {
	// ProcessLine handles one line of raw output.
	ProcessLine(line []byte) error

	// Finalize is called once after the last line.
	Finalize() error

	// Candidates returns the extracted candidate names in emission order.
	Candidates() []string

	// Dropped returns how many extracted tokens failed the scope check.
	Dropped() int

	// Malformed returns how many records could not be decoded.
	Malformed() int
}

// New construye el handler para la regla dada. root se usa para el filtro
// de alcance de las reglas estructuradas.
func New(rule domain.ExtractRule, root domain.Hostname) (Handler, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	base := collector{root: root, scoped: rule.Kind.Structured()}

	switch rule.Kind {
	case domain.ExtractLines:
		return &linesHandler{collector: base}, nil
	case domain.ExtractArrow:
		return &arrowHandler{collector: base}, nil
	case domain.ExtractSections:
		return newSectionsHandler(base, rule.Sections), nil
	case domain.ExtractJSONL:
		return &jsonlHandler{collector: base, path: strings.Split(rule.Field, ".")}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidExtract, rule.Kind)
	}
}

// Feed lee r línea por línea y alimenta el handler, luego lo finaliza.
func Feed(r io.Reader, h Handler) error {
	scanner := bufio.NewScanner(r)

	// Increase buffer size for large output lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024) // 10MB max token size

	for scanner.Scan() {
		if err := h.ProcessLine(scanner.Bytes()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read output: %w", err)
	}
	return h.Finalize()
}

// Unparseable reporta si la salida tenía registros y ninguno se pudo usar:
// todos fallaron al decodificar y no salió ningún token.
func Unparseable(h Handler) bool {
	return h.Malformed() > 0 && len(h.Candidates()) == 0 && h.Dropped() == 0
}

// collector acumula candidatos y aplica el filtro de alcance cuando corresponde.
type collector struct {
	root      domain.Hostname
	scoped    bool
	out       []string
	dropped   int
	malformed int
}

func (c *collector) emit(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	if c.scoped {
		h, ok := validator.ValidateHostname(token)
		if !ok || !h.Within(c.root) {
			c.dropped++
			return
		}
	}
	c.out = append(c.out, token)
}

func (c *collector) Candidates() []string {
	if c.out == nil {
		return []string{}
	}
	return c.out
}

func (c *collector) Dropped() int    { return c.dropped }
func (c *collector) Malformed() int  { return c.malformed }
func (c *collector) Finalize() error { return nil }

// linesHandler: un candidato por línea no vacía.
type linesHandler struct {
	collector
}

func (h *linesHandler) ProcessLine(line []byte) error {
	h.emit(string(line))
	return nil
}

// arrowHandler: "NAME --> EVIDENCE". Solo el primer token de las líneas
// que contienen la flecha; el resto de la línea es evidencia.
type arrowHandler struct {
	collector
}

const arrow = "-->"

func (h *arrowHandler) ProcessLine(line []byte) error {
	s := string(line)
	i := strings.Index(s, arrow)
	if i < 0 {
		return nil
	}
	fields := strings.Fields(s[:i])
	if len(fields) == 0 {
		return nil
	}
	h.emit(fields[0])
	return nil
}

// jsonlHandler: un objeto JSON por línea; el nombre está en path.
type jsonlHandler struct {
	collector
	path []string
}

func (h *jsonlHandler) ProcessLine(line []byte) error {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" || trimmed[0] != '{' {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		h.malformed++
		return nil
	}

	if name, ok := lookup(obj, h.path); ok {
		h.emit(name)
	}
	return nil
}

func lookup(obj map[string]any, path []string) (string, bool) {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		if cur, ok = m[key]; !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}

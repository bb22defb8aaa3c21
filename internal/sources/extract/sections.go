package extract

import (
	"strings"
)

// sectionsHandler parsea reportes divididos en secciones, donde cada
// encabezado va seguido de una línea de guiones bajos (estilo dnsenum):
//
//	Brute forcing with /usr/share/dnsenum/dns.txt:
//	_______________________________________________
//
//	mail.example.com.     300    IN    A    198.51.100.3
//
// Se toma el primer campo de cada línea de datos. Las líneas previas al
// primer encabezado se ignoran.
type sectionsHandler struct {
	collector
	wanted []string

	pending   *string // línea retenida hasta saber si es encabezado
	inSection bool
}

func newSectionsHandler(base collector, wanted []string) *sectionsHandler {
	lowered := make([]string, 0, len(wanted))
	for _, w := range wanted {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			lowered = append(lowered, w)
		}
	}
	return &sectionsHandler{collector: base, wanted: lowered}
}

func (h *sectionsHandler) ProcessLine(line []byte) error {
	s := string(line)

	if isUnderline(s) {
		if h.pending != nil {
			h.inSection = h.selects(*h.pending)
			h.pending = nil
		}
		return nil
	}

	h.flush()
	h.pending = &s
	return nil
}

func (h *sectionsHandler) Finalize() error {
	h.flush()
	return nil
}

// flush trata la línea retenida como línea de datos.
func (h *sectionsHandler) flush() {
	if h.pending == nil {
		return
	}
	line := *h.pending
	h.pending = nil

	if !h.inSection {
		return
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	h.emit(strings.TrimSuffix(fields[0], "."))
}

func (h *sectionsHandler) selects(header string) bool {
	if len(h.wanted) == 0 {
		return true
	}
	header = strings.ToLower(strings.TrimSpace(header))
	for _, w := range h.wanted {
		if strings.HasPrefix(header, w) {
			return true
		}
	}
	return false
}

func isUnderline(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 3 && strings.Trim(s, "_") == ""
}

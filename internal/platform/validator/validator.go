// internal/platform/validator/validator.go
package validator

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"subterra/internal/core/domain"
)

const (
	maxHostnameLen = 253
	maxLabelLen    = 63
)

// profile convierte U-labels a A-labels (Punycode) con las reglas de lookup
// de IDNA2008. No aplica STD3 porque la gramática de etiquetas se verifica aparte.
var profile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// Hostname validators

// ValidateHostname decide si candidate es un hostname legal y lo normaliza.
// Acepta ruido típico de herramientas: espacios, prefijo scheme://, path,
// puerto, userinfo y punto raíz final. El rechazo es un valor, no un error.
func ValidateHostname(candidate string) (domain.Hostname, bool) {
	s := stripNoise(candidate)
	if s == "" {
		return "", false
	}

	// Las IPs no son hostnames
	if net.ParseIP(s) != nil {
		return "", false
	}

	// Bytes no UTF-8 se mapearían a U+FFFD y producirían un A-label inventado
	if !utf8.ValidString(s) || strings.ContainsRune(s, utf8.RuneError) {
		return "", false
	}

	ascii, err := profile.ToASCII(s)
	if err != nil {
		return "", false
	}
	ascii = strings.ToLower(ascii)

	if !isHostnameGrammar(ascii) {
		return "", false
	}
	return domain.Hostname(ascii), true
}

// ValidateTarget valida el dominio objetivo de una corrida. Además de la
// gramática de hostname rechaza sufijos públicos (com, co.uk).
func ValidateTarget(raw string) (domain.Hostname, error) {
	if strings.TrimSpace(raw) == "" {
		return "", domain.ErrEmptyTarget
	}

	host, ok := ValidateHostname(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDomain, raw)
	}

	if suffix, icann := publicsuffix.PublicSuffix(string(host)); icann && suffix == string(host) {
		return "", fmt.Errorf("%w: %q", domain.ErrPublicSuffix, raw)
	}

	return host, nil
}

// IsSubdomainOf verifica si name es root o un subdominio de root.
func IsSubdomainOf(name, root domain.Hostname) bool {
	return name.Within(root)
}

// ValidateAll valida una lista de candidatos y retorna los aceptados
// (en el orden de entrada, con duplicados) junto con la cantidad rechazada.
func ValidateAll(candidates []string) ([]domain.Hostname, int) {
	out := make([]domain.Hostname, 0, len(candidates))
	rejected := 0
	for _, c := range candidates {
		if h, ok := ValidateHostname(c); ok {
			out = append(out, h)
			continue
		}
		rejected++
	}
	return out, rejected
}

// stripNoise elimina espacios, scheme, userinfo, path, puerto y punto raíz.
func stripNoise(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if host, port, err := net.SplitHostPort(s); err == nil && IsPort(port) {
		s = host
	}
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

// isHostnameGrammar aplica longitud total, longitud y caracteres por
// etiqueta, guiones en los bordes y la forma del TLD.
func isHostnameGrammar(s string) bool {
	if len(s) == 0 || len(s) > maxHostnameLen {
		return false
	}

	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}

	for _, label := range labels {
		if !isLabel(label) {
			return false
		}
	}

	return isTLD(labels[len(labels)-1])
}

func isLabel(label string) bool {
	if len(label) == 0 || len(label) > maxLabelLen {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

// isTLD acepta TLDs alfabéticos de al menos dos letras o A-labels (xn--).
func isTLD(label string) bool {
	if strings.HasPrefix(label, "xn--") {
		return len(label) > 4
	}
	if len(label) < 2 {
		return false
	}
	for i := 0; i < len(label); i++ {
		if label[i] < 'a' || label[i] > 'z' {
			return false
		}
	}
	return true
}

// Network validators

// IsPort valida que un puerto esté en el rango válido [1-65535].
func IsPort(portStr string) bool {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return false
	}
	return port >= 1 && port <= 65535
}

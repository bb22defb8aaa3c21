// internal/platform/registry/presets.go
package registry

import (
	"time"

	"subterra/internal/core/domain"
)

const (
	enumerateTimeout = 15 * time.Minute
	permuteTimeout   = 30 * time.Minute
)

// DefaultEnabled son las fuentes activas cuando la configuración no dice nada.
var DefaultEnabled = []string{"assetfinder", "subfinder"}

// builtinPresets retorna las definiciones de las herramientas conocidas.
func builtinPresets() []domain.SourceSpec {
	lines := domain.ExtractRule{Kind: domain.ExtractLines}

	return []domain.SourceSpec{
		// Enumeración
		{
			Name:     "assetfinder",
			Phase:    domain.PhaseEnumerate,
			Command:  []string{"assetfinder", "--subs-only", domain.PlaceholderDomain},
			Timeout:  enumerateTimeout,
			Extract:  lines,
			Priority: 8,
		},
		{
			Name:     "subfinder",
			Phase:    domain.PhaseEnumerate,
			Command:  []string{"subfinder", "-d", domain.PlaceholderDomain, "-silent", "-all", "-oJ", "-o", domain.PlaceholderOutput},
			Timeout:  enumerateTimeout,
			Extract:  domain.ExtractRule{Kind: domain.ExtractJSONL, Field: "host"},
			Priority: 10,
		},
		{
			Name:     "findomain",
			Phase:    domain.PhaseEnumerate,
			Command:  []string{"findomain", "-q", "-t", domain.PlaceholderDomain, "-u", domain.PlaceholderOutput},
			Timeout:  enumerateTimeout,
			Extract:  lines,
			Priority: 7,
		},
		{
			Name:     "sublist3r",
			Phase:    domain.PhaseEnumerate,
			Command:  []string{"sublist3r", "-n", "-d", domain.PlaceholderDomain, "-o", domain.PlaceholderOutput},
			Timeout:  enumerateTimeout,
			Extract:  lines,
			Priority: 5,
		},
		{
			Name:     "amass",
			Phase:    domain.PhaseEnumerate,
			Command:  []string{"amass", "enum", "-d", domain.PlaceholderDomain, "-r", "8.8.8.8,1.1.1.1,9.9.9.9", "-o", domain.PlaceholderOutput},
			Timeout:  enumerateTimeout,
			Extract:  domain.ExtractRule{Kind: domain.ExtractArrow},
			Priority: 6,
		},
		{
			Name:     "dnsenum",
			Phase:    domain.PhaseEnumerate,
			Command:  []string{"dnsenum", "--nocolor", "--noreverse", domain.PlaceholderDomain},
			Timeout:  enumerateTimeout,
			Extract:  domain.ExtractRule{Kind: domain.ExtractSections},
			Priority: 4,
		},

		// Permutación
		{
			Name:     "alterx",
			Phase:    domain.PhasePermute,
			Command:  []string{"alterx", "-silent", "-l", domain.PlaceholderInput, "-p", domain.PlaceholderWordlist, "-ms", "100", "-o", domain.PlaceholderOutput},
			Timeout:  permuteTimeout,
			Extract:  lines,
			Priority: 8,
		},
		{
			Name:     "gotator",
			Phase:    domain.PhasePermute,
			Command:  []string{"gotator", "-sub", domain.PlaceholderInput, "-perm", domain.PlaceholderWordlist, "-fast", "-depth", "1", "-numbers", "1", "-mindup", "-adv", "-md", "-silent"},
			Timeout:  permuteTimeout,
			Extract:  lines,
			Priority: 6,
		},
		{
			Name:     "dnsgen",
			Phase:    domain.PhasePermute,
			Command:  []string{"dnsgen", domain.PlaceholderInput},
			Timeout:  permuteTimeout,
			Extract:  lines,
			Priority: 5,
		},
		{
			Name:     "ripgen",
			Phase:    domain.PhasePermute,
			Command:  []string{"ripgen", "-d", domain.PlaceholderInput},
			Timeout:  permuteTimeout,
			Extract:  lines,
			Priority: 4,
		},
	}
}

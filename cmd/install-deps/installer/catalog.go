package installer

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"subterra/internal/platform/errors"
)

// Catalog mapea nombre de fuente a receta de instalación.
type Catalog map[string]Tool

// DefaultCatalog cubre las fuentes predefinidas y el checker httpx.
func DefaultCatalog() Catalog {
	tools := []Tool{
		{Name: "assetfinder", Kind: KindGo, Package: "github.com/tomnomnom/assetfinder@latest",
			VersionArgs: []string{"--help"}, Docs: "https://github.com/tomnomnom/assetfinder"},
		{Name: "subfinder", Kind: KindGo, Package: "github.com/projectdiscovery/subfinder/v2/cmd/subfinder@latest",
			Docs: "https://github.com/projectdiscovery/subfinder"},
		{Name: "findomain", Kind: KindCargo, Package: "findomain",
			VersionArgs: []string{"--version"}, Docs: "https://github.com/Findomain/Findomain"},
		{Name: "sublist3r", Kind: KindPip, Package: "sublist3r",
			VersionArgs: []string{"-h"}, Docs: "https://github.com/aboul3la/Sublist3r"},
		{Name: "amass", Kind: KindGo, Package: "github.com/owasp-amass/amass/v4/...@master",
			Docs: "https://github.com/owasp-amass/amass"},
		{Name: "dnsenum", Kind: KindSystem, Hint: "sudo apt-get install -y dnsenum",
			VersionArgs: []string{"--help"}, Docs: "https://github.com/fwaeytens/dnsenum"},
		{Name: "alterx", Kind: KindGo, Package: "github.com/projectdiscovery/alterx/cmd/alterx@latest",
			Docs: "https://github.com/projectdiscovery/alterx"},
		{Name: "gotator", Kind: KindGo, Package: "github.com/Josue87/gotator@latest",
			VersionArgs: []string{"-h"}, Docs: "https://github.com/Josue87/gotator"},
		{Name: "dnsgen", Kind: KindPip, Package: "dnsgen",
			VersionArgs: []string{"--help"}, Docs: "https://github.com/AlephNullSK/dnsgen"},
		{Name: "ripgen", Kind: KindCargo, Package: "ripgen",
			VersionArgs: []string{"--version"}, Docs: "https://github.com/resyncgg/ripgen"},
		{Name: "httpx", Kind: KindGo, Package: "github.com/projectdiscovery/httpx/cmd/httpx@latest",
			Docs: "https://github.com/projectdiscovery/httpx"},
	}

	c := make(Catalog, len(tools))
	for _, t := range tools {
		c[t.Name] = t
	}
	return c
}

// catalogFile es el formato del archivo --config.
type catalogFile struct {
	Tools []Tool `yaml:"tools"`
}

// LoadFile agrega (o reemplaza) herramientas desde un archivo YAML.
func (c Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidConfig, "read %s: %v", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return errors.Wrapf(errors.ErrInvalidConfig, "parse %s: %v", path, err)
	}

	for _, t := range f.Tools {
		if err := t.Validate(); err != nil {
			return err
		}
		c[t.Name] = t
	}
	return nil
}

// Validate verifica la receta.
func (t Tool) Validate() error {
	if t.Name == "" {
		return errors.Wrap(errors.ErrInvalidConfig, "tool without name")
	}
	switch t.Kind {
	case KindGo, KindCargo, KindPip:
		if t.Package == "" {
			return errors.Wrapf(errors.ErrInvalidConfig, "tool %s: %s install needs a package", t.Name, t.Kind)
		}
	case KindSystem:
	default:
		return errors.Wrapf(errors.ErrInvalidConfig, "tool %s: unknown kind %q", t.Name, t.Kind)
	}
	return nil
}

// Select retorna las recetas de names en orden. Un nombre sin receta es un
// error de configuración.
func (c Catalog) Select(names []string) ([]Tool, error) {
	tools := make([]Tool, 0, len(names))
	var missing []string
	for _, name := range names {
		t, ok := c[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		tools = append(tools, t)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.Wrap(errors.ErrInvalidConfig, fmt.Sprintf("no install recipe for %v", missing))
	}
	return tools, nil
}

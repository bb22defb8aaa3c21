package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CommandInstaller instala una herramienta ejecutando el gestor de paquetes
// de su ecosistema.
type CommandInstaller struct {
	tool Tool
	sys  SystemInfo
	run  Runner
}

// NewCommandInstaller creates an installer for tool.
func NewCommandInstaller(tool Tool, sys SystemInfo, run Runner) *CommandInstaller {
	return &CommandInstaller{tool: tool, sys: sys, run: run}
}

// Name returns the tool name.
func (c *CommandInstaller) Name() string {
	return c.tool.Name
}

// Command retorna el comando de instalación (vacío para KindSystem).
func (c *CommandInstaller) Command() []string {
	switch c.tool.Kind {
	case KindGo:
		return []string{"go", "install", "-v", c.tool.Package}
	case KindCargo:
		return []string{"cargo", "install", "--locked", c.tool.Package}
	case KindPip:
		return []string{"pip3", "install", "--user", "--upgrade", c.tool.Package}
	default:
		return nil
	}
}

// Check reports whether the binary is reachable and its version.
func (c *CommandInstaller) Check(ctx context.Context) (path, version string, ok bool) {
	path, ok = LookPath(c.tool.BinaryName(), c.searchDirs()...)
	if !ok {
		return "", "", false
	}

	args := c.tool.VersionArgs
	if len(args) == 0 {
		args = []string{"-version"}
	}
	// Muchas herramientas imprimen la versión por stderr y salen con código != 0
	out, _ := c.run(ctx, path, args...)
	return path, ExtractVersion(string(out)), true
}

// Install ejecuta el comando de instalación.
func (c *CommandInstaller) Install(ctx context.Context) error {
	cmd := c.Command()
	if len(cmd) == 0 {
		hint := c.tool.Hint
		if hint == "" {
			hint = "your system package manager"
		}
		return fmt.Errorf("%s must be installed manually: %s", c.tool.Name, hint)
	}

	out, err := c.run(ctx, cmd[0], cmd[1:]...)
	if err != nil {
		return fmt.Errorf("%s failed: %w\n%s", strings.Join(cmd, " "), err, tail(string(out), 20))
	}
	return nil
}

// searchDirs retorna los destinos habituales de cada gestor.
func (c *CommandInstaller) searchDirs() []string {
	dirs := []string{c.sys.GoBin}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".cargo", "bin"),
			filepath.Join(home, ".local", "bin"),
		)
	}
	return dirs
}

// tail retorna las últimas n líneas de s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

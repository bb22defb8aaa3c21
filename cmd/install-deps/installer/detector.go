package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// DetectSystem gathers system information for tool installation.
func DetectSystem(ctx context.Context, run Runner) SystemInfo {
	info := SystemInfo{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		PathEntries: filepath.SplitList(os.Getenv("PATH")),
	}

	if out, err := run(ctx, "go", "version"); err == nil {
		// "go version go1.24.4 linux/amd64"
		if parts := strings.Fields(string(out)); len(parts) >= 3 {
			info.GoVersion = strings.TrimPrefix(parts[2], "go")
		}
	}
	info.GoBin = goBinDir(ctx, run)

	return info
}

// goBinDir resuelve el destino de go install: GOBIN o GOPATH/bin.
func goBinDir(ctx context.Context, run Runner) string {
	if out, err := run(ctx, "go", "env", "GOBIN"); err == nil {
		if dir := strings.TrimSpace(string(out)); dir != "" {
			return dir
		}
	}
	if out, err := run(ctx, "go", "env", "GOPATH"); err == nil {
		if gopath := strings.TrimSpace(string(out)); gopath != "" {
			return filepath.Join(filepath.SplitList(gopath)[0], "bin")
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "go", "bin")
	}
	return ""
}

// ExecRunner ejecuta comandos reales.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// LookPath busca bin en PATH y, si no está, en los directorios extra
// (GOBIN, ~/.cargo/bin, ~/.local/bin).
func LookPath(bin string, extra ...string) (string, bool) {
	if p, err := exec.LookPath(bin); err == nil {
		return p, true
	}
	for _, dir := range extra {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, bin)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() && fi.Mode()&0o111 != 0 {
			return p, true
		}
	}
	return "", false
}

// IsInPath checks if a directory is in the PATH entries.
func IsInPath(dir string, pathEntries []string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	for _, entry := range pathEntries {
		absEntry, err := filepath.Abs(entry)
		if err != nil {
			continue
		}
		if absEntry == absDir {
			return true
		}
	}
	return false
}

// ExtractVersion busca un número de versión en la salida de una herramienta.
func ExtractVersion(output string) string {
	for _, line := range strings.Split(output, "\n") {
		for _, field := range strings.Fields(line) {
			v := strings.TrimLeft(strings.TrimSpace(field), "vV")
			v = strings.TrimRight(v, ",;)")
			if isValidVersion(v) {
				return v
			}
		}
	}
	return ""
}

// isValidVersion checks if a string looks like a version number.
func isValidVersion(v string) bool {
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts {
		var num int
		if _, err := fmt.Sscanf(part, "%d", &num); err != nil {
			return false
		}
		if fmt.Sprint(num) != part {
			return false
		}
	}
	return true
}

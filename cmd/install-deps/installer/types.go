// Package installer checks and installs the external tools that subterra
// sources run.
package installer

import (
	"context"
	"time"
)

// Kind identifica cómo se instala una herramienta.
type Kind string

const (
	KindGo     Kind = "go"     // go install <package>
	KindCargo  Kind = "cargo"  // cargo install <package>
	KindPip    Kind = "pip"    // pip install --user <package>
	KindSystem Kind = "system" // solo gestor de paquetes del sistema: se informa el comando
)

// Status represents the installation status of a tool.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusFailed           Status = "failed"
	StatusSkipped          Status = "skipped"
	StatusAlreadyInstalled Status = "already_installed"
	StatusMissing          Status = "missing"
)

// SystemInfo contains system detection information.
type SystemInfo struct {
	OS          string // linux, darwin, windows
	Arch        string // amd64, arm64
	GoVersion   string
	GoBin       string // destino de go install
	PathEntries []string
}

// Tool describe una herramienta externa y su receta de instalación.
type Tool struct {
	Name        string   `yaml:"name"`
	Binary      string   `yaml:"binary"` // nombre en PATH (default: Name)
	Kind        Kind     `yaml:"kind"`
	Package     string   `yaml:"package"`      // módulo, crate o paquete pip
	Hint        string   `yaml:"hint"`         // comando sugerido para KindSystem
	VersionArgs []string `yaml:"version_args"` // default: -version
	Docs        string   `yaml:"docs"`
}

// BinaryName retorna el binario esperado en PATH.
func (t Tool) BinaryName() string {
	if t.Binary != "" {
		return t.Binary
	}
	return t.Name
}

// Result represents the outcome of checking or installing one tool.
type Result struct {
	Tool     Tool
	Status   Status
	Path     string
	Version  string
	Error    error
	Context  *ErrorContext
	Duration time.Duration
	Message  string
}

// Runner ejecuta un comando y retorna su salida combinada. Los tests lo
// reemplazan para no tocar la red.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ProgressCallback recibe avances de una instalación en curso.
type ProgressCallback func(tool string, message string)

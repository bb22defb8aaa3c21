// internal/testutil/mocks.go
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Nota: los fakes de ports (checker, reporter) viven en los paquetes que los usan.
// Este archivo contiene solo utilidades genéricas sin dependencias circulares.

// RequireShell omite el test si no hay un /bin/sh disponible.
func RequireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

// WriteScript crea un script sh ejecutable que simula una herramienta externa.
// body es el cuerpo del script; "$@" recibe los argumentos del comando.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	RequireShell(t)
	path := filepath.Join(dir, name)
	content := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755), "write script %s", name)
	return path
}

// internal/testutil/helpers.go
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertEqual verifica que dos valores sean iguales (comparación profunda).
func AssertEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	assert.Equal(t, want, got, msg)
}

// AssertNotEqual verifica que dos valores sean diferentes.
func AssertNotEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	assert.NotEqual(t, want, got, msg)
}

// AssertNil verifica que un valor sea nil.
func AssertNil(t *testing.T, got interface{}, msg string) {
	t.Helper()
	assert.Nil(t, got, msg)
}

// AssertNotNil verifica que un valor no sea nil.
func AssertNotNil(t *testing.T, got interface{}, msg string) {
	t.Helper()
	assert.NotNil(t, got, msg)
}

// AssertError verifica que un error no sea nil.
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	assert.Error(t, err, msg)
}

// AssertErrorIs verifica que err contenga target en su cadena.
func AssertErrorIs(t *testing.T, err, target error, msg string) {
	t.Helper()
	assert.ErrorIs(t, err, target, msg)
}

// AssertNoError verifica que no haya error.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	assert.NoError(t, err, msg)
}

// RequireNoError aborta el test si hay error.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	require.NoError(t, err, msg)
}

// AssertTrue verifica que una condición sea verdadera.
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	assert.True(t, condition, msg)
}

// AssertFalse verifica que una condición sea falsa.
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	assert.False(t, condition, msg)
}

// AssertContains verifica que un slice contenga un elemento O que un string contenga un substring.
func AssertContains(t *testing.T, container interface{}, element interface{}, msg string) {
	t.Helper()
	assert.Contains(t, container, element, msg)
}

// AssertNotContains verifica lo contrario de AssertContains.
func AssertNotContains(t *testing.T, container interface{}, element interface{}, msg string) {
	t.Helper()
	assert.NotContains(t, container, element, msg)
}

// AssertLen verifica la longitud de un slice, map o string.
func AssertLen(t *testing.T, object interface{}, want int, msg string) {
	t.Helper()
	assert.Len(t, object, want, msg)
}

// AssertElementsMatch verifica que dos slices tengan los mismos elementos sin importar el orden.
func AssertElementsMatch(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	assert.ElementsMatch(t, want, got, msg)
}

// ReadLines lee un archivo de texto y retorna sus líneas no vacías.
func ReadLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "read %s", path)
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// WriteLines escribe líneas en un archivo y retorna la ruta.
func WriteLines(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := strings.Join(lines, "\n")
	if len(lines) > 0 {
		body += "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644), "write %s", path)
	return path
}

// Sorted retorna una copia ordenada de s.
func Sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

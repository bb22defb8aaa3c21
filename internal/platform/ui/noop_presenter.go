// internal/platform/ui/noop_presenter.go
package ui

import "subterra/internal/core/ports"

// NoopPresenter no produce ninguna salida. Útil para modo quiet o headless.
type NoopPresenter struct {
	ports.NopObserver
}

// NewNoopPresenter crea una instancia del presenter sin salida
func NewNoopPresenter() *NoopPresenter {
	return &NoopPresenter{}
}

func (n *NoopPresenter) Info(string)    {}
func (n *NoopPresenter) Warning(string) {}
func (n *NoopPresenter) Error(string)   {}
func (n *NoopPresenter) Close() error   { return nil }

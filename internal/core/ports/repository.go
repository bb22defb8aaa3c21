// internal/core/ports/repository.go
package ports

import "subterra/internal/core/domain"

// NameRepository es el port de persistencia de un conjunto de nombres
// append-only. Merge es la única mutación y debe serializar el ciclo
// diff/unión/persistencia.
type NameRepository interface {
	// Merge incorpora names y retorna los que no estaban, ordenados
	Merge(names []domain.Hostname) ([]domain.Hostname, error)

	// Contains reporta pertenencia
	Contains(name domain.Hostname) bool

	// Missing retorna los candidatos ausentes del conjunto
	Missing(candidates []domain.Hostname) []domain.Hostname

	// Len retorna la cantidad de nombres
	Len() int

	// Snapshot retorna una copia ordenada
	Snapshot() []domain.Hostname

	// Path retorna la ubicación persistida
	Path() string
}

package domain

import (
	"errors"
	"strings"
	"time"
)

// CelestialObjectProvider resolves a body name to its equatorial position at
// an instant for an observer. Implementations must be safe for concurrent use.
type CelestialObjectProvider interface {
	Equatorial(name string, at time.Time, obs Observer) (EquatorialCoordinate, error)
}

// BodyLister is implemented by providers that can enumerate the names they resolve.
type BodyLister interface {
	Bodies() []string
}

// NormalizeName folds a body name for case-insensitive lookup.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ProviderChain tries each provider in order. It only moves on to the next
// provider when the current one reports ErrUnknownBody.
type ProviderChain []CelestialObjectProvider

// Equatorial implements CelestialObjectProvider.
func (c ProviderChain) Equatorial(name string, at time.Time, obs Observer) (EquatorialCoordinate, error) {
	for _, p := range c {
		eq, err := p.Equatorial(name, at, obs)
		if err == nil {
			return eq, nil
		}
		if !errors.Is(err, ErrUnknownBody) {
			return EquatorialCoordinate{}, err
		}
	}
	return EquatorialCoordinate{}, &UnknownBodyError{Name: name}
}

// Bodies lists the names of every member implementing BodyLister, first
// occurrence wins.
func (c ProviderChain) Bodies() []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range c {
		l, ok := p.(BodyLister)
		if !ok {
			continue
		}
		for _, n := range l.Bodies() {
			key := NormalizeName(n)
			if seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, n)
		}
	}
	return names
}

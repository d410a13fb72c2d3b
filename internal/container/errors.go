package container

import (
	"errors"
	"fmt"
	"strings"
)

// Dependency names a collaborator the server cannot start without
type Dependency string

const (
	DepDatabase      Dependency = "database"
	DepStorage       Dependency = "storage backend"
	DepIntelligence  Dependency = "intelligence client"
	DepAuthenticator Dependency = "authenticator"
)

// ErrIncomplete matches any InitializationError via errors.Is
var ErrIncomplete = errors.New("container incomplete")

// InitializationError lists the dependencies missing when Build ran
type InitializationError struct {
	Missing []Dependency
}

func (e *InitializationError) Error() string {
	names := make([]string, len(e.Missing))
	for i, dep := range e.Missing {
		names[i] = string(dep)
	}
	return fmt.Sprintf("missing required dependencies: %s", strings.Join(names, ", "))
}

func (e *InitializationError) Is(target error) bool {
	return target == ErrIncomplete
}

// Lacks reports whether dep was missing
func (e *InitializationError) Lacks(dep Dependency) bool {
	for _, m := range e.Missing {
		if m == dep {
			return true
		}
	}
	return false
}

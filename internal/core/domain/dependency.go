package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// ErrDependencyUnsatisfied is the kind matched by errors.Is for every
// DependencyUnsatisfiedError.
var ErrDependencyUnsatisfied = zerr.New("no packages found")

// DependencyUnsatisfiedError reports a required package that is not available
// yet. Spec is the requirement as written in the recipe, e.g. "numpy >=1.7".
type DependencyUnsatisfiedError struct {
	Spec string
}

// Error implements error.
func (e *DependencyUnsatisfiedError) Error() string {
	return "no packages found matching: " + e.Spec
}

// Is makes errors.Is(err, ErrDependencyUnsatisfied) hold.
func (e *DependencyUnsatisfiedError) Is(target error) bool {
	return target == ErrDependencyUnsatisfied
}

// Name is the bare package name: the token before the first space.
func (e *DependencyUnsatisfiedError) Name() string {
	name, _, _ := strings.Cut(strings.TrimSpace(e.Spec), " ")
	return name
}

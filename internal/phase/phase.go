// Package phase defines the fixed lifecycle every plugin task moves through.
package phase

import (
	"fmt"
	"strings"
)

// Phase is one stage of the plugin lifecycle. The zero value is Setup.
type Phase int

const (
	Setup Phase = iota
	ValidateConfig
	LoadInput
	Generate
	Emit
	Cleanup
	// Done and Failed are absorbing and never iterated.
	Done
	Failed
)

// Sequence is the ordered list of phases a scheduler visits.
var Sequence = []Phase{Setup, ValidateConfig, LoadInput, Generate, Emit, Cleanup}

var names = [...]string{
	Setup:          "Setup",
	ValidateConfig: "ValidateConfig",
	LoadInput:      "LoadInput",
	Generate:       "Generate",
	Emit:           "Emit",
	Cleanup:        "Cleanup",
	Done:           "Done",
	Failed:         "Failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(names) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return names[p]
}

// Next returns the phase immediately following p. Cleanup is followed by Done;
// terminal phases return themselves.
func (p Phase) Next() Phase {
	switch {
	case p.Terminal():
		return p
	case p >= Cleanup:
		return Done
	}
	return p + 1
}

// Terminal reports whether p is Done or Failed.
func (p Phase) Terminal() bool { return p == Done || p == Failed }

// Before reports whether p comes strictly before o in the total order.
func (p Phase) Before(o Phase) bool { return p < o }

// Valid reports whether p is one of the declared phases.
func (p Phase) Valid() bool { return p >= Setup && p <= Failed }

// Parse returns the phase with the given name, ignoring case.
func Parse(s string) (Phase, error) {
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// Package csweep provides unused and undeclared C function analysis.
package csweep

import "github.com/715d/csweep/internal/cparse"

// FindingKind classifies a reported finding.
type FindingKind string

const (
	// KindUnused marks a function with a definition that is not reachable
	// from any entry point.
	KindUnused FindingKind = "unused"

	// KindUndeclared marks call sites whose target has no prototype or
	// definition in the scanned set.
	KindUndeclared FindingKind = "undeclared"

	// KindMissingPrototype marks a non-static definition with no forward
	// declaration. Reported in strict mode only.
	KindMissingPrototype FindingKind = "missing-prototype"
)

// Finding represents one reportable result of a sweep.
type Finding struct {
	Name   string        `json:"name"`
	Kind   FindingKind   `json:"kind"`
	Reason string        `json:"reason"`
	Sites  []cparse.Site `json:"sites"`
}

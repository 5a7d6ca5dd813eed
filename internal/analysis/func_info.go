// Package analysis provides function metadata and classification for the
// C function sweeper.
package analysis

import (
	"github.com/715d/csweep/internal/cparse"
)

// FuncInfo accumulates everything observed about one function name across
// the scanned set.
type FuncInfo struct {
	// Name is the bare C identifier. C external linkage is a flat
	// namespace, so the name is the table key.
	Name string

	// Prototypes are forward-declaration sites.
	Prototypes []cparse.Site

	// Definitions are definition sites (normally one; duplicate statics in
	// separate translation units land here too).
	Definitions []cparse.Site

	// Calls are direct call sites.
	Calls []cparse.Site

	// References are address-taken sites (argument lists, initializers,
	// assignments).
	References []cparse.Site

	// Static indicates a `static` storage class on any definition or
	// prototype. Static functions have internal linkage and can never be
	// called from outside the scanned set.
	Static bool

	// IsMacro indicates the name is #defined somewhere in the scanned set.
	// Macro invocations parse as calls and must not be reported undeclared.
	IsMacro bool

	// IsLibc indicates the name is a well-known C library symbol.
	IsLibc bool

	// IsExternal indicates the name was configured as external and is
	// expected to resolve outside the scanned set.
	IsExternal bool

	// IsEntryPoint indicates the name is a sweep root (main or configured).
	IsEntryPoint bool

	// IsReachable is set by the reachability pass.
	IsReachable bool

	// IsSuppressed indicates a suppression comment on the definition.
	IsSuppressed bool
}

// Record merges one parse event into the record.
func (fi *FuncInfo) Record(sym cparse.Symbol) {
	switch sym.Kind {
	case cparse.KindPrototype:
		fi.Prototypes = append(fi.Prototypes, sym.Site)
		fi.Static = fi.Static || sym.Static
	case cparse.KindDefinition:
		fi.Definitions = append(fi.Definitions, sym.Site)
		fi.Static = fi.Static || sym.Static
	case cparse.KindCall:
		fi.Calls = append(fi.Calls, sym.Site)
	case cparse.KindReference:
		fi.References = append(fi.References, sym.Site)
	case cparse.KindMacro:
		fi.IsMacro = true
	}
}

// IsDefined reports whether the function has at least one definition in
// the scanned set.
func (fi *FuncInfo) IsDefined() bool {
	return len(fi.Definitions) > 0
}

// HasPrototype reports whether the function has a forward declaration
// separate from its definition.
func (fi *FuncInfo) HasPrototype() bool {
	return len(fi.Prototypes) > 0
}

// IsUsed reports whether the function is called or referenced anywhere,
// reachable or not.
func (fi *FuncInfo) IsUsed() bool {
	return len(fi.Calls) > 0 || len(fi.References) > 0
}

// ShouldReportUnused determines if this function should be reported as
// unused. Returns true if it is defined, not an entry point, not
// suppressed, and not reachable from any root. A pure macro record has no
// definition and drops out on IsDefined.
func (fi *FuncInfo) ShouldReportUnused() bool {
	if !fi.IsDefined() {
		return false
	}
	if fi.IsEntryPoint {
		return false
	}
	if fi.IsSuppressed {
		return false
	}
	return !fi.IsReachable
}

// ShouldReportUndeclared determines if call sites for this name should be
// reported as undeclared: called, with no prototype or definition in the
// scanned set, and not a macro, libc symbol, or configured external.
func (fi *FuncInfo) ShouldReportUndeclared() bool {
	if len(fi.Calls) == 0 {
		return false
	}
	if fi.IsDefined() || fi.HasPrototype() {
		return false
	}
	return !fi.IsMacro && !fi.IsLibc && !fi.IsExternal
}

// ShouldReportMissingPrototype determines if this function should be
// reported as defined without a forward declaration. Only meaningful for
// non-static definitions; callers gate this behind strict mode.
func (fi *FuncInfo) ShouldReportMissingPrototype() bool {
	if !fi.IsDefined() || fi.HasPrototype() {
		return false
	}
	if fi.Static || fi.IsEntryPoint || fi.IsSuppressed {
		return false
	}
	return true
}

package analysis

import (
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/715d/csweep/internal/cparse"
)

// Table is the symbol table for a sweep: one FuncInfo per function name,
// safe for concurrent lookup while parse results are merged.
type Table struct {
	funcs *xsync.Map[string, *FuncInfo]
}

// NewTable creates an empty symbol table.
func NewTable() *Table {
	return &Table{
		funcs: xsync.NewMap[string, *FuncInfo](),
	}
}

// Get returns the record for name, creating it on first use.
func (t *Table) Get(name string) *FuncInfo {
	if fi, ok := t.funcs.Load(name); ok {
		return fi
	}
	fi, _ := t.funcs.LoadOrStore(name, &FuncInfo{Name: name})
	return fi
}

// Lookup returns the record for name without creating one.
func (t *Table) Lookup(name string) (*FuncInfo, bool) {
	return t.funcs.Load(name)
}

// Record merges one parse event into the table.
func (t *Table) Record(sym cparse.Symbol) {
	t.Get(sym.Name).Record(sym)
}

// Len returns the number of distinct names observed.
func (t *Table) Len() int {
	return t.funcs.Size()
}

// Range calls f for each record until f returns false.
func (t *Table) Range(f func(*FuncInfo) bool) {
	t.funcs.Range(func(_ string, fi *FuncInfo) bool {
		return f(fi)
	})
}

// Sorted returns all records ordered by name for deterministic reports.
func (t *Table) Sorted() []*FuncInfo {
	out := make([]*FuncInfo, 0, t.funcs.Size())
	t.funcs.Range(func(_ string, fi *FuncInfo) bool {
		out = append(out, fi)
		return true
	})
	slices.SortFunc(out, func(a, b *FuncInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

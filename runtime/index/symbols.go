package index

import (
	"sort"
	"strings"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// Symbol is a name and every location it was seen at, in the order seen.
type Symbol struct {
	Name      string
	Locations []source.Location
}

// SymbolTable maps names to their locations case-insensitively. The display
// name is the casing first seen.
type SymbolTable map[string]*Symbol

// NewSymbolTable returns an empty table.
func NewSymbolTable() SymbolTable {
	return make(SymbolTable)
}

func symbolKey(name string) string {
	return strings.ToLower(name)
}

// Add records one more location for name.
func (t SymbolTable) Add(name string, loc source.Location) {
	key := symbolKey(name)
	sym, ok := t[key]
	if !ok {
		sym = &Symbol{Name: name}
		t[key] = sym
	}
	sym.Locations = append(sym.Locations, loc)
}

// Lookup returns the symbol for name, in any casing.
func (t SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := t[symbolKey(name)]
	return sym, ok
}

// Has reports whether name is in the table.
func (t SymbolTable) Has(name string) bool {
	_, ok := t[symbolKey(name)]
	return ok
}

// First returns the first location recorded for name.
func (t SymbolTable) First(name string) (source.Location, bool) {
	sym, ok := t.Lookup(name)
	if !ok || len(sym.Locations) == 0 {
		return source.Location{}, false
	}
	return sym.Locations[0], true
}

// Names returns the display names in sorted order.
func (t SymbolTable) Names() []string {
	names := make([]string, 0, len(t))
	for _, sym := range t {
		names = append(names, sym.Name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy, so callers can't reach into the index.
func (t SymbolTable) Clone() SymbolTable {
	out := make(SymbolTable, len(t))
	for k, sym := range t {
		out[k] = &Symbol{Name: sym.Name, Locations: append([]source.Location(nil), sym.Locations...)}
	}
	return out
}

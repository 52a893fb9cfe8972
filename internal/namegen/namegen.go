// Package namegen threads synthetic-name generation through the passes
// that need it, replacing the global autogenerated-name counters the
// source material uses (spec.md §9 Design Notes: "Global counters ...
// Thread a NameGen handle through the passes that need it").
package namegen

import "fmt"

// Gen produces fresh, collision-free synthetic identifiers. It is created
// once per compilation and held in semantic.Context.Names; it is never
// package-level state. No semantic pass draws names from it.
type Gen struct {
	counters map[string]int
}

// New creates a fresh generator.
func New() *Gen {
	return &Gen{counters: make(map[string]int)}
}

// Next returns the next name in the given series, e.g. Next("anon_scope")
// yields "anon_scope_1", "anon_scope_2", ...
func (g *Gen) Next(series string) string {
	g.counters[series]++
	return fmt.Sprintf("%s_%d", series, g.counters[series])
}

// AnonScope returns the next synthetic name for an anonymous scope.
func (g *Gen) AnonScope() string { return g.Next("anon_scope") }

// Temp returns the next synthetic name for a compiler-introduced temporary.
func (g *Gen) Temp() string { return g.Next("p8c_tmp") }

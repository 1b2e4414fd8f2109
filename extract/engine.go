// Package extract applies a field catalogue to normalized document text.
package extract

import (
	"github.com/brunobiangulo/medextract/catalog"
)

// Engine evaluates every catalogue field against a text. It holds no mutable
// state and may be shared between goroutines.
type Engine struct {
	cat *catalog.Catalog
}

// New returns an Engine bound to cat.
func New(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat}
}

// Catalog returns the catalogue the engine evaluates.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Extract runs the primary pass over all fields in catalogue order, then
// copies each aliased field's final value into its alias keys. Text is
// expected to be normalized already. A field that does not match is stored
// as absent; Extract never fails.
func (e *Engine) Extract(text string) *Result {
	fields := e.cat.Fields()
	aliases := e.cat.Aliases()

	n := len(fields)
	for _, a := range aliases {
		n += len(a.Keys)
	}
	res := newResult(n)

	for _, f := range fields {
		var v Value
		if text != "" {
			v.Text, v.Found = f.Match(text)
		}
		res.set(f.Name(), v)
	}

	for _, a := range aliases {
		v := res.values[a.Field]
		for _, k := range a.Keys {
			res.set(k, v)
		}
	}
	return res
}

package extract

import (
	"bytes"
	"encoding/json"
)

// NotMentioned is written in place of a value that was not found.
const NotMentioned = "Not mentioned"

// Value is the outcome for one output key. Absence is tracked explicitly so a
// document that literally says "Not mentioned" stays distinguishable until
// the result is serialized.
type Value struct {
	Text  string
	Found bool
}

// String renders the value for output, substituting NotMentioned for absence.
func (v Value) String() string {
	if !v.Found {
		return NotMentioned
	}
	return v.Text
}

// Result is an ordered mapping from output key to Value. It is owned by the
// caller once returned.
type Result struct {
	keys   []string
	values map[string]Value
}

func newResult(capacity int) *Result {
	return &Result{
		keys:   make([]string, 0, capacity),
		values: make(map[string]Value, capacity),
	}
}

// set stores v under key, keeping the key's original position on overwrite.
func (r *Result) set(key string, v Value) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r *Result) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the output keys in order.
func (r *Result) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of output keys.
func (r *Result) Len() int { return len(r.keys) }

// Found returns how many keys hold a captured value.
func (r *Result) Found() int {
	n := 0
	for _, v := range r.values {
		if v.Found {
			n++
		}
	}
	return n
}

// Map flattens the result into key -> string with the sentinel applied.
func (r *Result) Map() map[string]string {
	m := make(map[string]string, len(r.keys))
	for _, k := range r.keys {
		m[k] = r.values[k].String()
	}
	return m
}

// MarshalJSON encodes the result as a JSON object of strings, preserving key
// order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k].String())
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

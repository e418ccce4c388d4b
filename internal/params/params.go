// Package params provides parameter sets for experiment launches.
//
// A ParameterSet is a nested, insertion-order-preserving mapping built
// from a parameter file and optionally updated with command-line
// overrides. Two file formats are supported: YAML and CUE, selected by
// file extension. Unknown extensions are attempted as YAML.
package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ParameterSet is a name→value mapping that preserves insertion order.
// Values are scalars (string, int64, float64, bool), []any lists, or
// nested *ParameterSet groups.
type ParameterSet struct {
	keys   []string
	values map[string]any
}

// NewSet creates an empty ParameterSet.
func NewSet() *ParameterSet {
	return &ParameterSet{values: make(map[string]any)}
}

// Len returns the number of top-level entries.
func (p *ParameterSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the top-level parameter names in insertion order.
func (p *ParameterSet) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Get returns the value for name, and whether it is present.
func (p *ParameterSet) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Set inserts or replaces the value for name. A new name is appended
// at the end of the key order; an existing name keeps its position.
func (p *ParameterSet) Set(name string, value any) {
	if _, ok := p.values[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.values[name] = value
}

// Update merges other into p, replacing values for existing names and
// appending new ones. Nested groups present in both are merged
// recursively; a non-group value in other replaces a group in p.
func (p *ParameterSet) Update(other *ParameterSet) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		ov := other.values[k]
		if sub, ok := ov.(*ParameterSet); ok {
			if cur, ok := p.values[k].(*ParameterSet); ok {
				cur.Update(sub)
				continue
			}
			p.Set(k, sub.Copy())
			continue
		}
		p.Set(k, ov)
	}
}

// Copy returns a deep copy of the parameter set.
func (p *ParameterSet) Copy() *ParameterSet {
	if p == nil {
		return nil
	}
	out := NewSet()
	for _, k := range p.keys {
		switch v := p.values[k].(type) {
		case *ParameterSet:
			out.Set(k, v.Copy())
		case []any:
			lst := make([]any, len(v))
			copy(lst, v)
			out.Set(k, lst)
		default:
			out.Set(k, v)
		}
	}
	return out
}

// AsMap converts the set to a plain map for diffing and hashing.
// Insertion order is lost; use MarshalJSON for order-preserving output.
func (p *ParameterSet) AsMap() map[string]any {
	if p == nil {
		return nil
	}
	m := make(map[string]any, len(p.keys))
	for _, k := range p.keys {
		if sub, ok := p.values[k].(*ParameterSet); ok {
			m[k] = sub.AsMap()
			continue
		}
		m[k] = p.values[k]
	}
	return m
}

// Equal reports whether two parameter sets hold the same names and
// values, ignoring key order.
func (p *ParameterSet) Equal(other *ParameterSet) bool {
	if p.Len() != other.Len() {
		return false
	}
	if p == nil || other == nil {
		return true
	}
	for _, k := range p.keys {
		ov, ok := other.values[k]
		if !ok {
			return false
		}
		if !valueEqual(p.values[k], ov) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case *ParameterSet:
		bv, ok := b.(*ParameterSet)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// MarshalJSON emits the set as a JSON object with keys in insertion
// order. Nested groups marshal recursively.
func (p *ParameterSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal parameter %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, preserving its key order. Numbers
// decode to int64 when integral, float64 otherwise.
func (p *ParameterSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("parameter set must be a JSON object")
	}
	p.keys = nil
	p.values = make(map[string]any)
	return decodeObjectInto(dec, p)
}

func decodeObjectInto(dec *json.Decoder, p *ParameterSet) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in parameter object", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		p.Set(key, val)
	}
	// Consume closing brace.
	_, err := dec.Token()
	return err
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			sub := NewSet()
			if err := decodeObjectInto(dec, sub); err != nil {
				return nil, err
			}
			return sub, nil
		case '[':
			var lst []any
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				lst = append(lst, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			if lst == nil {
				lst = []any{}
			}
			return lst, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	default:
		return tok, nil
	}
}

// String renders the set in a stable "name = value" form, one entry
// per line, nested groups dotted. Used by record listings.
func (p *ParameterSet) String() string {
	var buf bytes.Buffer
	p.writeFlat(&buf, "")
	return buf.String()
}

func (p *ParameterSet) writeFlat(buf *bytes.Buffer, prefix string) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		if sub, ok := p.values[k].(*ParameterSet); ok {
			sub.writeFlat(buf, name)
			continue
		}
		fmt.Fprintf(buf, "%s = %v\n", name, p.values[k])
	}
}

// Flatten returns dotted-path names mapped to leaf values, with the
// path list sorted. Used by the record diff.
func (p *ParameterSet) Flatten() (paths []string, values map[string]any) {
	values = make(map[string]any)
	p.flattenInto("", values)
	for k := range values {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths, values
}

func (p *ParameterSet) flattenInto(prefix string, out map[string]any) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		if sub, ok := p.values[k].(*ParameterSet); ok {
			sub.flattenInto(name, out)
			continue
		}
		out[name] = p.values[k]
	}
}

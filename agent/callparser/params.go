package callparser

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// positionalPrefix marks synthetic keys assigned to positional arguments.
const positionalPrefix = "arg_"

// PositionalKey returns the synthetic key for the i-th positional argument.
func PositionalKey(i int) string {
	return positionalPrefix + strconv.Itoa(i)
}

// PositionalIndex reports whether key is a positional key (arg_N) and returns N.
func PositionalIndex(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, positionalPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Params is an ordered mapping from parameter key to Value. Iteration follows
// insertion order; setting an existing key replaces its value in place. The
// zero value is an empty mapping ready to use.
type Params struct {
	keys   []string
	values map[string]Value
}

// NewParams builds Params from pairs in order.
func NewParams(pairs ...Param) Params {
	var p Params
	for _, kv := range pairs {
		p.Set(kv.Key, kv.Value)
	}
	return p
}

// Param is a single key/value pair.
type Param struct {
	Key   string
	Value Value
}

// P is shorthand for building a Param.
func P(key string, v Value) Param { return Param{Key: key, Value: v} }

// Len returns the number of parameters.
func (p *Params) Len() int { return len(p.keys) }

// Get returns the value stored under key.
func (p *Params) Get(key string) (Value, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Set stores v under key. A new key is appended; an existing key keeps its
// position and its value is replaced.
func (p *Params) Set(key string, v Value) {
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

// Delete removes key, reporting whether it was present.
func (p *Params) Delete(key string) bool {
	if _, ok := p.values[key]; !ok {
		return false
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
	return true
}

// Pop removes key and returns its value.
func (p *Params) Pop(key string) (Value, bool) {
	v, ok := p.values[key]
	if ok {
		p.Delete(key)
	}
	return v, ok
}

// Rename moves the value under from to key to, appending it at the end.
// It reports whether from was present.
func (p *Params) Rename(from, to string) bool {
	v, ok := p.Pop(from)
	if !ok {
		return false
	}
	p.Set(to, v)
	return true
}

// Keys returns the keys in iteration order.
func (p *Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Entries returns the key/value pairs in iteration order.
func (p *Params) Entries() []Param {
	out := make([]Param, len(p.keys))
	for i, k := range p.keys {
		out[i] = Param{Key: k, Value: p.values[k]}
	}
	return out
}

// Positional returns the positional parameters ordered by their index.
func (p *Params) Positional() []Param {
	type indexed struct {
		n int
		Param
	}
	var pos []indexed
	for _, k := range p.keys {
		if n, ok := PositionalIndex(k); ok {
			pos = append(pos, indexed{n: n, Param: Param{Key: k, Value: p.values[k]}})
		}
	}
	sort.SliceStable(pos, func(i, j int) bool { return pos[i].n < pos[j].n })
	out := make([]Param, len(pos))
	for i := range pos {
		out[i] = pos[i].Param
	}
	return out
}

// Named returns the non-positional parameters in iteration order.
func (p *Params) Named() []Param {
	var out []Param
	for _, k := range p.keys {
		if _, ok := PositionalIndex(k); !ok {
			out = append(out, Param{Key: k, Value: p.values[k]})
		}
	}
	return out
}

// Clone returns an independent copy.
func (p *Params) Clone() Params {
	var c Params
	for _, k := range p.keys {
		c.Set(k, p.values[k])
	}
	return c
}

// Equal reports whether both mappings hold the same keys with equal values.
// Iteration order is not compared.
func (p *Params) Equal(o *Params) bool {
	if p.Len() != o.Len() {
		return false
	}
	for _, k := range p.keys {
		ov, ok := o.values[k]
		if !ok || !p.values[k].Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the parameters as a JSON object in iteration order.
func (p Params) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		sb.Write(kb)
		sb.WriteByte(':')
		vb, err := p.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		sb.Write(vb)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

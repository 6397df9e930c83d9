package callparser

import (
	"encoding/json"
	"strings"
)

// Call is a decoded name(args) action instruction.
type Call struct {
	// Name is a dotted identifier such as "pyautogui.click" or "click".
	Name string
	// Params holds positional (arg_N) and named parameters in encounter order.
	Params Params
	// RawText is the span the parser decoded this call from. It is never
	// rewritten after parsing.
	RawText string
	// Description is a free-text annotation. The normalizer stamps the
	// canonical form here.
	Description string
}

// NewCall creates a call with the given parameters.
func NewCall(name string, params ...Param) *Call {
	return &Call{Name: name, Params: NewParams(params...)}
}

// String renders the canonical call syntax: positional arguments first in
// index order, then named arguments as key=value in mapping order.
func (c *Call) String() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('(')
	first := true
	for _, p := range c.Params.Positional() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		p.Value.writeLiteral(&sb)
	}
	for _, p := range c.Params.Named() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		p.Value.writeLiteral(&sb)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Clone returns a deep copy. Values are immutable, so copying the mapping is
// enough.
func (c *Call) Clone() *Call {
	return &Call{
		Name:        c.Name,
		Params:      c.Params.Clone(),
		RawText:     c.RawText,
		Description: c.Description,
	}
}

// Equal reports whether both calls have the same name and equal parameters.
// RawText and Description are not compared.
func (c *Call) Equal(o *Call) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.Name == o.Name && c.Params.Equal(&o.Params)
}

// Param returns the value stored under key.
func (c *Call) Param(key string) (Value, bool) {
	return c.Params.Get(key)
}

type callJSON struct {
	Name        string `json:"name"`
	Parameters  Params `json:"parameters"`
	RawText     string `json:"raw_text"`
	Description string `json:"description,omitempty"`
	Canonical   string `json:"canonical"`
}

// MarshalJSON encodes the call with its ordered parameters and canonical form.
func (c *Call) MarshalJSON() ([]byte, error) {
	return json.Marshal(callJSON{
		Name:        c.Name,
		Parameters:  c.Params,
		RawText:     c.RawText,
		Description: c.Description,
		Canonical:   c.String(),
	})
}

// Join renders calls in canonical form separated by a single space.
func Join(calls []*Call) string {
	parts := make([]string, len(calls))
	for i, c := range calls {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

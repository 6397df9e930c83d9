package callparser

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an action argument. It is a closed sum type: exactly one of the
// variants below is populated, selected by Kind. The zero Value is the empty
// string.
type Value struct {
	kind    Kind
	str     string
	num     int64
	flt     float64
	boolean bool
	list    []Value
	entries []MapEntry
}

// MapEntry is one key/value pair of a map Value.
type MapEntry struct {
	Key   Value
	Value Value
}

// String constructs a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int constructs an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, num: i} }

// Float constructs a float Value.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// List constructs a list Value. The slice is copied.
func List(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindList, list: out}
}

// Floats constructs a list of float Values.
func Floats(fs ...float64) Value {
	out := make([]Value, len(fs))
	for i, f := range fs {
		out[i] = Float(f)
	}
	return Value{kind: KindList, list: out}
}

// Map constructs a map Value. A repeated key replaces the earlier value in
// place, keeping the first position.
func Map(entries ...MapEntry) Value {
	v := Value{kind: KindMap, entries: make([]MapEntry, 0, len(entries))}
	for _, e := range entries {
		v.entries = setEntry(v.entries, e.Key, e.Value)
	}
	return v
}

func setEntry(entries []MapEntry, key, val Value) []MapEntry {
	for i := range entries {
		if entries[i].Key.Equal(key) {
			entries[i].Value = val
			return entries
		}
	}
	return append(entries, MapEntry{Key: key, Value: val})
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsScalar reports whether v is neither a list nor a map.
func (v Value) IsScalar() bool { return v.kind != KindList && v.kind != KindMap }

// AsString returns the string variant.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsInt returns the integer variant.
func (v Value) AsInt() (int64, bool) { return v.num, v.kind == KindInt }

// AsFloat returns the float variant.
func (v Value) AsFloat() (float64, bool) { return v.flt, v.kind == KindFloat }

// AsBool returns the boolean variant.
func (v Value) AsBool() (bool, bool) { return v.boolean, v.kind == KindBool }

// AsList returns the list variant. The returned slice must not be modified.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsMap returns the map entries. The returned slice must not be modified.
func (v Value) AsMap() ([]MapEntry, bool) { return v.entries, v.kind == KindMap }

// Number returns the numeric value of an int or float Value.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.num), true
	case KindFloat:
		return v.flt, true
	}
	return 0, false
}

// ToFloat coerces a scalar to float64. Numeric strings are accepted; booleans,
// lists and maps are not.
func (v Value) ToFloat() (float64, error) {
	switch v.kind {
	case KindInt:
		return float64(v.num), nil
	case KindFloat:
		return v.flt, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to float", v.str)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot convert %s to float", v.kind)
}

// FitsInt64 reports whether f truncated toward zero is representable as an
// int64, i.e. -2^63 <= f < 2^63.
func FitsInt64(f float64) bool {
	return f >= -(1<<63) && f < 1<<63
}

// ToInt coerces a scalar to int64. Floats are truncated toward zero and must
// fit in int64; strings must hold an integer literal.
func (v Value) ToInt() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.num, nil
	case KindFloat:
		if math.IsNaN(v.flt) || math.IsInf(v.flt, 0) {
			return 0, fmt.Errorf("cannot convert %v to int", v.flt)
		}
		if !FitsInt64(v.flt) {
			return 0, fmt.Errorf("%v is out of int64 range", v.flt)
		}
		return int64(v.flt), nil
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to int", v.str)
		}
		return i, nil
	}
	return 0, fmt.Errorf("cannot convert %s to int", v.kind)
}

// Equal reports deep value equality. Ints and floats are distinct variants and
// never compare equal to each other. Maps compare as sets of entries.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.num == o.num
	case KindFloat:
		return v.flt == o.flt
	case KindBool:
		return v.boolean == o.boolean
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for _, e := range v.entries {
			other, ok := lookupEntry(o.entries, e.Key)
			if !ok || !other.Equal(e.Value) {
				return false
			}
		}
		return true
	}
	return false
}

func lookupEntry(entries []MapEntry, key Value) (Value, bool) {
	for _, e := range entries {
		if e.Key.Equal(key) {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Literal renders v in call syntax: strings single-quoted, lists as [a, b],
// maps as {k: v}, booleans lowercase, floats always with a decimal point.
func (v Value) Literal() string {
	var sb strings.Builder
	v.writeLiteral(&sb)
	return sb.String()
}

func (v Value) writeLiteral(sb *strings.Builder) {
	switch v.kind {
	case KindString:
		// 无转义：含单引号且不含双引号时改用双引号包裹
		quote := byte('\'')
		if strings.IndexByte(v.str, '\'') >= 0 && strings.IndexByte(v.str, '"') < 0 {
			quote = '"'
		}
		sb.WriteByte(quote)
		sb.WriteString(v.str)
		sb.WriteByte(quote)
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.num, 10))
	case KindFloat:
		sb.WriteString(formatFloat(v.flt))
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.boolean))
	case KindList:
		sb.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.writeLiteral(sb)
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.Key.writeLiteral(sb)
			sb.WriteString(": ")
			e.Value.writeLiteral(sb)
		}
		sb.WriteByte('}')
	}
}

// formatFloat prints the shortest decimal form that round-trips and keeps a
// decimal point so the literal re-parses as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// String implements fmt.Stringer using the call-syntax literal.
func (v Value) String() string { return v.Literal() }

// Interface converts v into plain Go values: string, int64, float64, bool,
// []any or map[string]any (map keys rendered with Literal unless they are
// strings).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.boolean
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.entries))
		for _, e := range v.entries {
			out[mapKey(e.Key)] = e.Value.Interface()
		}
		return out
	}
	return nil
}

func mapKey(k Value) string {
	if s, ok := k.AsString(); ok {
		return s
	}
	return k.Literal()
}

// MarshalJSON encodes v as its natural JSON form. Map entry order is kept.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindList:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				sb.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			sb.Write(b)
		}
		sb.WriteByte(']')
		return []byte(sb.String()), nil
	case KindMap:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				sb.WriteByte(',')
			}
			k, err := json.Marshal(mapKey(e.Key))
			if err != nil {
				return nil, err
			}
			sb.Write(k)
			sb.WriteByte(':')
			b, err := e.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			sb.Write(b)
		}
		sb.WriteByte('}')
		return []byte(sb.String()), nil
	case KindFloat:
		if math.IsNaN(v.flt) || math.IsInf(v.flt, 0) {
			return json.Marshal(formatFloat(v.flt))
		}
	}
	return json.Marshal(v.Interface())
}

package callparser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// 字符串内容可含单引号但不含双引号：引号内没有转义，两种引号同时出现时不保证往返。
var stringText = rapid.StringMatching(`[a-zA-Z0-9 ,()\[\]{}=:._'\-]{0,12}`)

func scalarValue() *rapid.Generator[Value] {
	return rapid.OneOf(
		rapid.Map(stringText, String),
		rapid.Map(rapid.Int64(), Int),
		rapid.Map(rapid.Float64Range(-1e6, 1e6), Float),
		rapid.Map(rapid.Bool(), Bool),
	)
}

func anyValue(depth int) *rapid.Generator[Value] {
	if depth == 0 {
		return scalarValue()
	}
	return rapid.Custom(func(t *rapid.T) Value {
		switch rapid.IntRange(0, 2).Draw(t, "shape") {
		case 0:
			items := rapid.SliceOfN(anyValue(depth-1), 0, 4).Draw(t, "items")
			return List(items...)
		case 1:
			n := rapid.IntRange(0, 3).Draw(t, "entries")
			entries := make([]MapEntry, 0, n)
			for i := 0; i < n; i++ {
				var key Value
				if rapid.Bool().Draw(t, fmt.Sprintf("intKey_%d", i)) {
					key = Int(rapid.Int64Range(-100, 100).Draw(t, fmt.Sprintf("key_%d", i)))
				} else {
					key = String(stringText.Draw(t, fmt.Sprintf("key_%d", i)))
				}
				entries = append(entries, MapEntry{Key: key, Value: anyValue(depth-1).Draw(t, fmt.Sprintf("value_%d", i))})
			}
			return Map(entries...)
		default:
			return scalarValue().Draw(t, "scalar")
		}
	})
}

func callGen() *rapid.Generator[*Call] {
	return rapid.Custom(func(t *rapid.T) *Call {
		name := rapid.StringMatching(`[a-z][a-z0-9_]{0,5}(\.[a-z][a-z0-9_]{0,5})?`).Draw(t, "name")
		call := NewCall(name)
		positional := rapid.IntRange(0, 3).Draw(t, "positional")
		for i := 0; i < positional; i++ {
			call.Params.Set(PositionalKey(i), anyValue(2).Draw(t, fmt.Sprintf("arg_%d", i)))
		}
		named := rapid.IntRange(0, 3).Draw(t, "named")
		for i := 0; i < named; i++ {
			// 不以 a 开头，避免与 arg_N 冲突
			key := rapid.StringMatching(`[b-z][a-z0-9_]{0,6}`).Draw(t, fmt.Sprintf("key_%d", i))
			call.Params.Set(key, anyValue(2).Draw(t, fmt.Sprintf("val_%d", i)))
		}
		return call
	})
}

// TestProperty_Call_RoundTrip 渲染后再解析得到等价的调用
// For any call whose strings contain no double quote, ParseCalls(c.String())
// yields exactly one call equal to c.
func TestProperty_Call_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		call := callGen().Draw(rt, "call")
		rendered := call.String()

		parsed := ParseCalls(rendered)
		require.Len(rt, parsed, 1, "rendered: %s", rendered)
		assert.True(rt, call.Equal(parsed[0]), "rendered %s re-parsed as %s", rendered, parsed[0].String())
		assert.Equal(rt, rendered, parsed[0].String())
		assert.Equal(rt, rendered, parsed[0].RawText)
	})
}

// TestProperty_ParseCalls_EmbeddedInProse 调用嵌入任意文本时仍可被提取
func TestProperty_ParseCalls_EmbeddedInProse(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		call := callGen().Draw(rt, "call")
		prefix := rapid.StringMatching(`[ 0-9!?#*<>\n]{0,10}`).Draw(rt, "prefix")
		suffix := rapid.StringMatching(`[ 0-9!?#*<>\n]{0,10}`).Draw(rt, "suffix")

		text := prefix + call.String() + suffix
		parsed := ParseCalls(text)
		require.Len(rt, parsed, 1, "text: %q", text)
		assert.True(rt, call.Equal(parsed[0]))
		assert.True(rt, strings.Contains(text, parsed[0].RawText))
	})
}

// TestProperty_ParseCalls_Sequence 多个调用按出现顺序返回
func TestProperty_ParseCalls_Sequence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		calls := rapid.SliceOfN(callGen(), 0, 5).Draw(rt, "calls")

		parsed := ParseCalls(Join(calls))
		require.Len(rt, parsed, len(calls))
		for i := range calls {
			assert.True(rt, calls[i].Equal(parsed[i]), "call %d", i)
		}
	})
}

package callparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ParseCalls
// =============================================================================

func TestParseCalls_NamedFloats(t *testing.T) {
	calls := ParseCalls("click(x=0.5, y=0.75)")
	require.Len(t, calls, 1)

	call := calls[0]
	assert.Equal(t, "click", call.Name)
	assert.Equal(t, []string{"x", "y"}, call.Params.Keys())

	x, ok := call.Param("x")
	require.True(t, ok)
	f, ok := x.AsFloat()
	require.True(t, ok, "x must decode as float, got %s", x.Kind())
	assert.Equal(t, 0.5, f)

	y, _ := call.Param("y")
	assert.True(t, y.Equal(Float(0.75)))
	assert.Equal(t, "click(x=0.5, y=0.75)", call.RawText)
}

func TestParseCalls_LiteralDecoding(t *testing.T) {
	tests := []struct {
		name  string
		input string
		key   string
		want  Value
	}{
		{name: "single quoted string", input: "type(text='hello world')", key: "text", want: String("hello world")},
		{name: "double quoted string", input: `type(text="hello")`, key: "text", want: String("hello")},
		{name: "empty string", input: "type(text='')", key: "text", want: String("")},
		{name: "integer", input: "scroll(amount=100)", key: "amount", want: Int(100)},
		{name: "negative integer", input: "scroll(amount=-3)", key: "amount", want: Int(-3)},
		{name: "negative float", input: "pyautogui.scroll(-0.5)", key: "arg_0", want: Float(-0.5)},
		{name: "bool lower", input: "f(flag=true)", key: "flag", want: Bool(true)},
		{name: "bool mixed case", input: "f(flag=FaLsE)", key: "flag", want: Bool(false)},
		{name: "dotted non-number stays string", input: "f(a.b)", key: "arg_0", want: String("a.b")},
		{name: "bare word stays string", input: "press(enter)", key: "arg_0", want: String("enter")},
		{name: "exponent without dot stays string", input: "f(1e5)", key: "arg_0", want: String("1e5")},
		{name: "int overflow stays string", input: "f(99999999999999999999)", key: "arg_0", want: String("99999999999999999999")},
		{name: "tuple", input: "mobile.swipe((0.1,0.2))", key: "arg_0", want: Floats(0.1, 0.2)},
		{name: "list", input: "f(keys=['ctrl', 'c'])", key: "keys", want: List(String("ctrl"), String("c"))},
		{name: "empty tuple", input: "f(())", key: "arg_0", want: List()},
		{name: "parenthesised scalar", input: "f((5))", key: "arg_0", want: Int(5)},
		{name: "map", input: "f(opts={'a': 1, 'b': [2]})", key: "opts", want: Map(
			MapEntry{Key: String("a"), Value: Int(1)},
			MapEntry{Key: String("b"), Value: List(Int(2))},
		)},
		{name: "nested call stays string", input: "f(g(1))", key: "arg_0", want: String("g(1)")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := ParseCalls(tt.input)
			require.Len(t, calls, 1)
			got, ok := calls[0].Param(tt.key)
			require.True(t, ok, "missing %s in %s", tt.key, calls[0])
			assert.True(t, got.Equal(tt.want), "got %s (%s), want %s (%s)", got, got.Kind(), tt.want, tt.want.Kind())
		})
	}
}

func TestParseCalls_PositionalOrdering(t *testing.T) {
	calls := ParseCalls("f(1, 2, x=3)")
	require.Len(t, calls, 1)

	call := calls[0]
	assert.Equal(t, []string{"arg_0", "arg_1", "x"}, call.Params.Keys())
	assert.True(t, call.Params.Equal(ptr(NewParams(
		P("arg_0", Int(1)),
		P("arg_1", Int(2)),
		P("x", Int(3)),
	))))
	assert.Equal(t, "f(1, 2, x=3)", call.String())
}

func TestParseCalls_NamedDoesNotConsumePositionalSlot(t *testing.T) {
	calls := ParseCalls("f(a=1, 'b', c=2, 'd')")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"a", "arg_0", "c", "arg_1"}, calls[0].Params.Keys())
	assert.Equal(t, "f('b', 'd', a=1, c=2)", calls[0].String())
}

func TestParseCalls_DuplicateNameLastWriteWins(t *testing.T) {
	calls := ParseCalls("click(x=0.1, y=0.2, x=0.9)")
	require.Len(t, calls, 1)

	// The repeated key keeps its first position and takes the last value.
	assert.Equal(t, []string{"x", "y"}, calls[0].Params.Keys())
	x, _ := calls[0].Param("x")
	assert.True(t, x.Equal(Float(0.9)))
}

func TestParseCalls_EmptyArguments(t *testing.T) {
	for _, input := range []string{"home()", "home(   )", "home(,)"} {
		calls := ParseCalls(input)
		require.Len(t, calls, 1, input)
		assert.Equal(t, "home", calls[0].Name)
		assert.Equal(t, 0, calls[0].Params.Len())
		assert.Equal(t, "home()", calls[0].String())
	}
}

func TestParseCalls_WhitespaceInsignificant(t *testing.T) {
	calls := ParseCalls("click(  x =  0.5 ,y= 0.25  )")
	require.Len(t, calls, 1)
	assert.Equal(t, "click(x=0.5, y=0.25)", calls[0].String())
}

func TestParseCalls_NoMatch(t *testing.T) {
	for _, input := range []string{
		"this is not a function call",
		"",
		"()",
		"123(4)",
		"click (x=1)",
	} {
		calls := ParseCalls(input)
		assert.NotNil(t, calls, input)
		assert.Empty(t, calls, input)
	}
}

func TestParseCalls_QuotedDelimiters(t *testing.T) {
	calls := ParseCalls("<code>type(text='a, b) c')</code>")
	require.Len(t, calls, 1)

	text, ok := calls[0].Param("text")
	require.True(t, ok)
	s, ok := text.AsString()
	require.True(t, ok)
	assert.Equal(t, "a, b) c", s)
	assert.Equal(t, 1, calls[0].Params.Len())
}

func TestParseCalls_ApostropheInsideDoubleQuotes(t *testing.T) {
	calls := ParseCalls(`type(text="don't stop")`)
	require.Len(t, calls, 1)
	v, _ := calls[0].Param("text")
	assert.True(t, v.Equal(String("don't stop")))
}

func TestParseCalls_ApostropheSurvivesRoundTrip(t *testing.T) {
	calls := ParseCalls(`pyautogui.write(message="don't stop")`)
	require.Len(t, calls, 1)

	rendered := calls[0].String()
	assert.Equal(t, `pyautogui.write(message="don't stop")`, rendered)

	reparsed := ParseCalls(rendered)
	require.Len(t, reparsed, 1)
	assert.True(t, calls[0].Equal(reparsed[0]), "re-parsed as %s", reparsed[0])
}

func TestParseCalls_MultipleInOrder(t *testing.T) {
	text := "First I click(x=0.1, y=0.2) then type(text='hi') and finally pyautogui.press('enter')."
	calls := ParseCalls(text)
	require.Len(t, calls, 3)
	assert.Equal(t, "click", calls[0].Name)
	assert.Equal(t, "type", calls[1].Name)
	assert.Equal(t, "pyautogui.press", calls[2].Name)
	assert.Equal(t, "pyautogui.press('enter')", calls[2].RawText)
}

func TestParseCalls_NestedParensStayInsideCall(t *testing.T) {
	calls := ParseCalls("mobile.swipe((0.1,0.2), (0.3,0.4)) done()")
	require.Len(t, calls, 2)
	assert.Equal(t, "mobile.swipe", calls[0].Name)
	assert.Equal(t, []string{"arg_0", "arg_1"}, calls[0].Params.Keys())
	assert.Equal(t, "done", calls[1].Name)
}

func TestParseCalls_IdentifierAfterDigits(t *testing.T) {
	calls := ParseCalls("9click(1)")
	require.Len(t, calls, 1)
	assert.Equal(t, "click", calls[0].Name)
}

func TestParseCalls_UnclosedCandidateDoesNotHideLaterCalls(t *testing.T) {
	calls := ParseCalls("click(x=0.5 and then type(text='ok')")
	require.Len(t, calls, 1)
	assert.Equal(t, "type", calls[0].Name)
}

func TestParseCalls_UnterminatedQuoteDropsOnlyThatCall(t *testing.T) {
	calls := ParseCalls("wait(1) type(text='oops)")
	require.Len(t, calls, 1)
	assert.Equal(t, "wait", calls[0].Name)
}

func TestParseCalls_UndecodableCallExcluded(t *testing.T) {
	calls := ParseCalls("f(opts={1}) g(2)")
	require.Len(t, calls, 1)
	assert.Equal(t, "g", calls[0].Name)
}

func TestParseCalls_MismatchedBracketDropped(t *testing.T) {
	calls := ParseCalls("f(1]) g()")
	require.Len(t, calls, 1)
	assert.Equal(t, "g", calls[0].Name)
}

func TestExtractCallsFromFreeText_MarkdownFence(t *testing.T) {
	text := "Sure! Here is the action:\n```python\npyautogui.click(0.25, 0.5)\n```\nLet me know."
	calls := ExtractCallsFromFreeText(text)
	require.Len(t, calls, 1)
	assert.Equal(t, "pyautogui.click(0.25, 0.5)", calls[0].String())
}

func TestParseCall_First(t *testing.T) {
	call, ok := ParseCall("wait(2) click(x=0.1, y=0.1)")
	require.True(t, ok)
	assert.Equal(t, "wait", call.Name)

	_, ok = ParseCall("nothing here")
	assert.False(t, ok)
}

// =============================================================================
// Tagged blocks
// =============================================================================

func TestExtractTagged(t *testing.T) {
	text := "<think>\nfind the button\n</think>\n<code>\nclick(x=0.3, y=0.4)\n</code>"

	body, ok := ExtractTagged(text, "think")
	require.True(t, ok)
	assert.Equal(t, "find the button", body)

	body, ok = ExtractTagged(text, "code")
	require.True(t, ok)
	assert.Equal(t, "click(x=0.3, y=0.4)", body)

	_, ok = ExtractTagged("<code>unterminated", "code")
	assert.False(t, ok)
}

func TestParseCodeBlock(t *testing.T) {
	calls := ParseCodeBlock("<think>scroll() would be wrong</think><code>click(x=0.3, y=0.4)</code>")
	require.Len(t, calls, 1)
	assert.Equal(t, "click", calls[0].Name)

	assert.Empty(t, ParseCodeBlock("click(x=0.3, y=0.4)"))
}

// =============================================================================
// Call.String
// =============================================================================

func TestCallString_Rendering(t *testing.T) {
	call := NewCall("f",
		P("flag", Bool(true)),
		P("arg_1", String("b")),
		P("coords", Floats(0.1, 2)),
		P("arg_0", Int(7)),
		P("opts", Map(MapEntry{Key: String("k"), Value: Float(1)})),
	)
	assert.Equal(t, "f(7, 'b', flag=true, coords=[0.1, 2.0], opts={'k': 1.0})", call.String())
	assert.Equal(t, "g()", NewCall("g").String())
}

func TestCallString_RoundTripExamples(t *testing.T) {
	inputs := []string{
		"click(x=0.5, y=0.75)",
		"f(1, 2, x=3)",
		"mobile.swipe((0.1,0.2), (0.3,0.4))",
		"type(text=\"hello, world\")",
		"f(arg_0=5)",
		"f(arg_1=9, 5, 6)",
		"f(opts={'a': [1, 2.5, {'b': false}]})",
		"press(enter, True)",
		"f(1.0, -0.0, 007)",
	}
	for _, input := range inputs {
		calls := ParseCalls(input)
		require.Len(t, calls, 1, input)

		again := ParseCalls(calls[0].String())
		require.Len(t, again, 1, "re-parse of %q", calls[0].String())
		assert.True(t, calls[0].Equal(again[0]), "%q -> %q -> %q", input, calls[0].String(), again[0].String())
	}
}

func TestCall_MarshalJSON(t *testing.T) {
	calls := ParseCalls("click(0.5, y=0.25, label='ok')")
	require.Len(t, calls, 1)

	data, err := calls[0].MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "click",
		"parameters": {"arg_0": 0.5, "y": 0.25, "label": "ok"},
		"raw_text": "click(0.5, y=0.25, label='ok')",
		"canonical": "click(0.5, y=0.25, label='ok')"
	}`, string(data))
}

func TestJoin(t *testing.T) {
	calls := ParseCalls("a(1) b(x=2)")
	assert.Equal(t, "a(1) b(x=2)", Join(calls))
	assert.Equal(t, "", Join(nil))
}

func ptr[T any](v T) *T { return &v }

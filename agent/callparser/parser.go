package callparser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var namedParamPattern = regexp.MustCompile(`(?s)^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)

// ErrMapEntry is returned when a map literal entry has no top-level colon.
var ErrMapEntry = errors.New("map entry without ':'")

// ParseCalls extracts every top-level call in text, left to right. It never
// fails: spans whose arguments cannot be decoded are left out and the rest of
// the text is still scanned. Text without calls yields an empty slice.
func ParseCalls(text string) []*Call {
	spans := scanCalls(text)
	calls := make([]*Call, 0, len(spans))
	for _, s := range spans {
		params, err := parseArguments(s.args)
		if err != nil {
			continue
		}
		calls = append(calls, &Call{
			Name:    s.name,
			Params:  params,
			RawText: text[s.start:s.end],
		})
	}
	return calls
}

// ExtractCallsFromFreeText extracts calls from model-generated prose, for
// example the contents of a fenced block or an XML-style tag. Matching is the
// same as ParseCalls.
func ExtractCallsFromFreeText(text string) []*Call {
	return ParseCalls(text)
}

// ParseCall returns the first call in text.
func ParseCall(text string) (*Call, bool) {
	calls := ParseCalls(text)
	if len(calls) == 0 {
		return nil, false
	}
	return calls[0], true
}

// ExtractTagged returns the trimmed body of the first <tag>...</tag> block.
func ExtractTagged(text, tag string) (string, bool) {
	open := "<" + tag + ">"
	closeTag := "</" + tag + ">"
	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	body := text[start+len(open):]
	end := strings.Index(body, closeTag)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}

// ParseCodeBlock extracts calls from the <code> block of a stage-2 model
// completion. Text without a code block yields no calls.
func ParseCodeBlock(text string) []*Call {
	body, ok := ExtractTagged(text, "code")
	if !ok {
		return nil
	}
	return ExtractCallsFromFreeText(body)
}

// parseArguments decodes a comma-separated argument list. Positional values
// get keys arg_0, arg_1, ... in order; named values keep their name and do not
// consume a positional slot. A repeated name overwrites the earlier value.
func parseArguments(args string) (Params, error) {
	var params Params
	pos := 0
	for _, part := range splitTopLevel(args, ',') {
		if m := namedParamPattern.FindStringSubmatch(part); m != nil {
			v, err := ParseValue(m[2])
			if err != nil {
				return Params{}, fmt.Errorf("parameter %s: %w", m[1], err)
			}
			params.Set(m[1], v)
			continue
		}
		v, err := ParseValue(part)
		if err != nil {
			return Params{}, fmt.Errorf("positional parameter %d: %w", pos, err)
		}
		params.Set(PositionalKey(pos), v)
		pos++
	}
	return params, nil
}

// ParseValue decodes a single literal. Quoted text is a string; true/false in
// any case is a boolean; a token with a '.' that parses as a number is a
// float; otherwise an integer if it parses as one; otherwise the raw token is
// kept as a string. Bracketed lists, comma tuples and {k: v} maps decode
// recursively.
func ParseValue(token string) (Value, error) {
	token = strings.TrimSpace(token)
	if len(token) >= 2 && isQuote(token[0]) && token[len(token)-1] == token[0] {
		return String(token[1 : len(token)-1]), nil
	}
	switch strings.ToLower(token) {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}
	if len(token) >= 2 {
		inner := token[1 : len(token)-1]
		switch {
		case token[0] == '[' && token[len(token)-1] == ']':
			return parseList(inner)
		case token[0] == '(' && token[len(token)-1] == ')':
			if strings.TrimSpace(inner) == "" || indexTopLevel(inner, ',') >= 0 {
				return parseList(inner)
			}
			return ParseValue(inner)
		case token[0] == '{' && token[len(token)-1] == '}':
			return parseMap(inner)
		}
	}
	if strings.Contains(token, ".") {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return Float(f), nil
		}
		return String(token), nil
	}
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return Int(i), nil
	}
	return String(token), nil
}

func parseList(inner string) (Value, error) {
	parts := splitTopLevel(inner, ',')
	items := make([]Value, 0, len(parts))
	for _, part := range parts {
		v, err := ParseValue(part)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	return Value{kind: KindList, list: items}, nil
}

func parseMap(inner string) (Value, error) {
	parts := splitTopLevel(inner, ',')
	entries := make([]MapEntry, 0, len(parts))
	for _, part := range parts {
		colon := indexTopLevel(part, ':')
		if colon < 0 {
			return Value{}, fmt.Errorf("%w: %q", ErrMapEntry, part)
		}
		k, err := ParseValue(part[:colon])
		if err != nil {
			return Value{}, err
		}
		v, err := ParseValue(part[colon+1:])
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, MapEntry{Key: k, Value: v})
	}
	return Map(entries...), nil
}

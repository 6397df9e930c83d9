package callparser

import "strings"

// span is a call-shaped region of the input: name(args).
type span struct {
	name  string
	args  string
	start int
	end   int // exclusive
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}

func isQuote(c byte) bool { return c == '\'' || c == '"' }

// scanCalls finds every top-level name(args) span from left to right. A
// candidate whose closing parenthesis cannot be found is dropped and scanning
// resumes right after its name, so its arguments are still searched.
func scanCalls(text string) []span {
	var spans []span
	n := len(text)
	i := 0
	for i < n {
		if !isIdentStart(text[i]) {
			i++
			continue
		}
		j := i + 1
		for j < n && isIdentPart(text[j]) {
			j++
		}
		// Every suffix of the identifier run ends at j too, so a run not
		// followed by '(' can be skipped whole.
		if j < n && text[j] == '(' {
			if closeAt, ok := matchClose(text, j); ok {
				spans = append(spans, span{
					name:  text[i:j],
					args:  text[j+1 : closeAt],
					start: i,
					end:   closeAt + 1,
				})
				i = closeAt + 1
				continue
			}
		}
		i = j
	}
	return spans
}

// matchClose returns the index of the ')' closing the '(' at open. Brackets of
// all three kinds share one depth counter; quoted spans are opaque and end at
// the next occurrence of their opening quote character (no escapes).
func matchClose(text string, open int) (int, bool) {
	depth := 0
	var quote byte
	for k := open; k < len(text); k++ {
		c := text[k]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return k, c == ')'
			}
			if depth < 0 {
				return 0, false
			}
		}
	}
	return 0, false
}

// splitTopLevel splits s on sep where sep occurs outside quotes and brackets.
// Parts are trimmed and empty parts dropped.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	last := 0
	for k := 0; k < len(s); k++ {
		c := s[k]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case isQuote(c):
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			if part := strings.TrimSpace(s[last:k]); part != "" {
				parts = append(parts, part)
			}
			last = k + 1
		}
	}
	if part := strings.TrimSpace(s[last:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}

// indexTopLevel returns the index of the first sep outside quotes and
// brackets, or -1.
func indexTopLevel(s string, sep byte) int {
	depth := 0
	var quote byte
	for k := 0; k < len(s); k++ {
		c := s[k]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case isQuote(c):
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			return k
		}
	}
	return -1
}

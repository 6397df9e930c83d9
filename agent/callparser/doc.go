// Copyright 2024 Churninator Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package callparser extracts name(arg, ...) action calls from free-form text
and renders them back into canonical call syntax.

# Overview

Vision-language models, training corpora and evaluation completions all
describe actions as Python-style calls, often wrapped in prose, markdown
fences or tags:

	<think>The search box is at the top.</think>
	<code>click(x=0.41, y=0.07)</code>

ParseCalls scans such text left to right and decodes every top-level call into
a Call with ordered, typed parameters. Matching is depth-aware (nested
brackets do not end a call early) and quote-aware (commas and parentheses
inside quoted strings are plain text). Quotes have no escape sequences.

# Values

Arguments decode into Value, a closed sum type with the kinds string, int,
float, bool, list and map. Callers switch on Value.Kind instead of inspecting
Go types:

	switch v.Kind() {
	case callparser.KindList:
		// coordinate pair
	case callparser.KindFloat, callparser.KindInt:
		// scalar
	}

# Round trip

Call.String renders positional arguments first (arg_0, arg_1, ...) and named
arguments after them. Re-parsing the output of String yields an equal Call for
every call produced by ParseCalls, with the exception of strings that
themselves contain a quote character.

Parsing never fails. Text that is not call-shaped, or a call whose arguments
cannot be decoded, simply contributes no result.
*/
package callparser

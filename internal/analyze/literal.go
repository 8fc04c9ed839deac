// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// callPrefix tags a nested call in extracted argument values.
const callPrefix = "call:"

// Literal extracts the value of a literal expression node. It handles
// numbers, strings, booleans, None, names (returned as their identifier),
// lists, tuples, dictionaries, and one level of nested call (returned as
// "call:<name>"). The second return value is false when nothing could be
// extracted; None also reports false since it carries no value.
func Literal(n *sitter.Node, src []byte) (any, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Kind() {
	case "integer":
		return parseInteger(n.Utf8Text(src))
	case "float":
		return parseFloat(n.Utf8Text(src))
	case "true":
		return true, true
	case "false":
		return false, true
	case "none":
		return nil, false
	case "string":
		return stringValue(n, src)
	case "concatenated_string":
		var b strings.Builder
		for _, part := range namedChildren(n) {
			s, ok := stringValue(&part, src)
			if !ok {
				return nil, false
			}
			b.WriteString(s.(string))
		}
		return b.String(), true
	case "identifier":
		return n.Utf8Text(src), true
	case "list", "tuple":
		elts := []any{}
		for _, c := range namedChildren(n) {
			v, _ := Literal(&c, src)
			elts = append(elts, v)
		}
		return elts, true
	case "dictionary":
		m := map[string]any{}
		for _, c := range namedChildren(n) {
			if c.Kind() != "pair" {
				continue
			}
			k, _ := Literal(c.ChildByFieldName("key"), src)
			v, _ := Literal(c.ChildByFieldName("value"), src)
			m[keyString(k)] = v
		}
		return m, true
	case "call":
		if name := calleeName(n.ChildByFieldName("function"), src); name != "" {
			return callPrefix + name, true
		}
		return nil, false
	case "parenthesized_expression":
		inner := namedChildren(n)
		if len(inner) != 1 {
			return nil, false
		}
		return Literal(&inner[0], src)
	}
	return nil, false
}

// calleeName returns the called name of a call's function node: the
// identifier itself, or the final attribute of a dotted reference.
func calleeName(fn *sitter.Node, src []byte) string {
	if fn == nil {
		return ""
	}
	switch fn.Kind() {
	case "identifier":
		return fn.Utf8Text(src)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return attr.Utf8Text(src)
		}
	}
	return ""
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []sitter.Node {
	count := n.NamedChildCount()
	out := make([]sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out = append(out, *c)
	}
	return out
}

func parseInteger(text string) (any, bool) {
	text = strings.ReplaceAll(text, "_", "")
	if isImaginary(text) {
		return nil, false
	}
	text = strings.TrimRight(text, "lL")
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, true
	}
	return nil, false
}

func parseFloat(text string) (any, bool) {
	text = strings.ReplaceAll(text, "_", "")
	if isImaginary(text) {
		return nil, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

// isImaginary reports a complex literal such as 2j, which has no JSON form.
func isImaginary(text string) bool {
	return strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J")
}

// stringValue decodes a string node. Formatted strings and byte strings
// yield no value.
func stringValue(n *sitter.Node, src []byte) (any, bool) {
	if n.Kind() != "string" {
		return nil, false
	}
	var start, end *sitter.Node
	for _, c := range namedChildren(n) {
		switch c.Kind() {
		case "interpolation":
			return nil, false
		case "string_start":
			start = &c
		case "string_end":
			end = &c
		}
	}
	if start == nil || end == nil {
		return nil, false
	}

	prefix := strings.ToLower(strings.TrimRight(start.Utf8Text(src), `'"`))
	if strings.ContainsAny(prefix, "bf") {
		return nil, false
	}
	body := string(src[start.EndByte():end.StartByte()])
	if strings.Contains(prefix, "r") {
		return body, true
	}
	return unescape(body), true
}

// unescape decodes Python backslash escapes. Unknown escapes are kept
// verbatim, as Python does.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
			// line continuation
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+1+width <= len(s) {
				if r, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32); err == nil && utf8.ValidRune(rune(r)) {
					b.WriteRune(rune(r))
					i += width
					continue
				}
			}
			b.WriteByte('\\')
			b.WriteByte(e)
		default:
			if e >= '0' && e <= '7' {
				j := i
				for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
					j++
				}
				r, _ := strconv.ParseUint(s[i:j], 8, 32)
				b.WriteRune(rune(r))
				i = j - 1
				continue
			}
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}

// keyString renders a mapping key the way a JSON encoder of the original
// value would: strings as-is, None as "null", numbers and booleans as text.
func keyString(k any) string {
	switch v := k.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	default:
		return fmt.Sprint(v)
	}
}

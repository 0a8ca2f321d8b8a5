// Package render turns configuration trees into markdown and wraps generated
// pages for each output mode.
//
// Tree classifies every nested mapping by its key before looking at its
// shape: a key containing "rules" becomes a Rule/Config table and a key
// containing "require" becomes an Option/Value table. The match is a plain
// substring test, so a key such as "requirements" is also rendered as an
// options table. Existing rulesets rely on this, so it is kept as is.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/standards/internal/tree"
)

const (
	startDepth = 2
	maxDepth   = 4
)

// Tree renders m as markdown. Output is deterministic and follows m's key
// order. An empty or nil tree renders as "".
func Tree(m *tree.Map) string {
	lines := renderSection(m, startDepth, "")
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// renderSection emits the entries of m. Scalar and list entries are listed
// first as bullets; mapping entries follow in order, each classified as a
// rule table, an options table, a flat list or a nested section. prefix is the
// dotted path of m and is informational only.
func renderSection(m *tree.Map, depth int, prefix string) []string {
	var (
		lines   []string
		scalars []tree.Entry
	)
	for _, e := range m.Entries() {
		if e.Value == nil {
			continue
		}
		if _, ok := e.Value.(*tree.Map); !ok {
			scalars = append(scalars, e)
		}
	}
	if len(scalars) > 0 {
		lines = append(lines, bulletList(scalars)...)
	}

	for _, e := range m.Entries() {
		child, ok := e.Value.(*tree.Map)
		if !ok || child == nil {
			continue
		}
		lines = append(lines, headingLine(depth, e.Key), "")

		switch {
		case isRulesKey(e.Key):
			lines = append(lines, table("Rule", "Config", child)...)
		case isRequireKey(e.Key):
			lines = append(lines, table("Option", "Value", child)...)
		case child.Len() > 0 && !child.HasMapChild():
			lines = append(lines, bulletList(child.Entries())...)
		default:
			lines = append(lines, renderSection(child, depth+1, joinKey(prefix, e.Key))...)
		}
	}
	return lines
}

func isRulesKey(key string) bool {
	return strings.Contains(key, "rules") || strings.HasSuffix(key, ".rules")
}

func isRequireKey(key string) bool {
	return strings.Contains(key, "require") || strings.HasSuffix(key, ".require")
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func headingLine(depth int, key string) string {
	return strings.Repeat("#", min(depth, maxDepth)) + " " + Title(key)
}

// table renders a two-column table followed by a blank line.
func table(keyHeader, valueHeader string, m *tree.Map) []string {
	lines := []string{
		fmt.Sprintf("| %s | %s |", keyHeader, valueHeader),
		fmt.Sprintf("|%s|%s|", strings.Repeat("-", len(keyHeader)+2), strings.Repeat("-", len(valueHeader)+2)),
	}
	for _, e := range m.Entries() {
		if e.Value == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("| `%s` | %s |", e.Key, FormatValue(e.Value)))
	}
	return append(lines, "")
}

// bulletList renders "- **Title**: value" lines followed by a blank line.
func bulletList(entries []tree.Entry) []string {
	var lines []string
	for _, e := range entries {
		if e.Value == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("- **%s**: %s", Title(e.Key), FormatValue(e.Value)))
	}
	if len(lines) == 0 {
		return nil
	}
	return append(lines, "")
}

// Title formats a key for display: the last "."-separated segment, split on
// "-" and "_", each word capitalised, joined with spaces.
func Title(key string) string {
	seg := key
	if i := strings.LastIndex(key, "."); i >= 0 && i < len(key)-1 {
		seg = key[i+1:]
	}
	parts := splitKeep(seg)
	for i, w := range parts {
		parts[i] = capitalize(w)
	}
	return strings.Join(parts, " ")
}

func isWordSep(r rune) bool { return r == '-' || r == '_' }

// splitKeep splits on "-" and "_" keeping empty words, so "a--b" has three.
func splitKeep(s string) []string {
	var (
		parts []string
		start int
	)
	for i, r := range s {
		if isWordSep(r) {
			parts = append(parts, s[start:i])
			start = i + utf8.RuneLen(r)
		}
	}
	return append(parts, s[start:])
}

// TitleCase capitalises the "-"-separated words of an identifier, as used for
// file stems ("typescript-production" -> "Typescript Production").
func TitleCase(s string) string {
	words := strings.Split(s, "-")
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if size == 0 {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}

// FormatValue formats a value for a table cell or bullet: scalars in inline
// code, list elements in inline code joined by ", ", mappings in brace form.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string, bool, int, int64, float64, time.Time:
		return "`" + plain(x) + "`"
	case []any:
		items := make([]string, len(x))
		for i, e := range x {
			items[i] = "`" + plain(e) + "`"
		}
		return strings.Join(items, ", ")
	case *tree.Map:
		return plain(x)
	case fmt.Stringer:
		return "`" + x.String() + "`"
	}
	return fmt.Sprint(v)
}

// plain is the untyped, unquoted string form of v.
func plain(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case []any:
		items := make([]string, len(x))
		for i, e := range x {
			items[i] = plain(e)
		}
		return strings.Join(items, ",")
	case *tree.Map:
		pairs := make([]string, 0, x.Len())
		for _, e := range x.Entries() {
			pairs = append(pairs, e.Key+": "+plain(e.Value))
		}
		return "{ " + strings.Join(pairs, ", ") + " }"
	}
	return fmt.Sprint(v)
}

// Package redact scrubs secret-looking values from generated pages before
// they are written. Guideline examples and ruleset values occasionally carry
// sample credentials; redaction is opt-in through the redact config flag.
package redact

import (
	"regexp"
	"sort"
	"strings"
)

const redacted = "[REDACTED]"

// Finding records one redacted match.
type Finding struct {
	Rule string
	Line int // 1-based line of the match start
}

type rule struct {
	name    string
	pattern *regexp.Regexp
	repl    string // expansion template; keeps any leading context group
}

// pemPattern matches PEM key blocks across multiple lines.
var pemPattern = regexp.MustCompile(`(?s)-----BEGIN [A-Z ]+KEY-----.*?-----END [A-Z ]+KEY-----`)

// rules holds single-line secret-detection regexes in priority order.
var rules = []rule{
	{"aws-access-key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`), redacted},
	{"api-secret-key", regexp.MustCompile(`(^|[\s"'=])sk-[a-zA-Z0-9\-_]{20,}`), "${1}" + redacted},
	{"github-token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36,}`), redacted},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`), redacted},
	{"bearer-token", regexp.MustCompile(`(?i)Bearer[ \t]+[A-Za-z0-9\-._~+/]{20,}=*`), redacted},
	{"password", regexp.MustCompile(`(?i)(password[ \t]*[:=][ \t]*)[^\s"'` + "`" + `]+`), "${1}" + redacted},
}

// Redact replaces known secret patterns in input with [REDACTED] and
// reports what it replaced, ordered by line. Line structure is preserved:
// the output has as many newlines as the input.
func Redact(input string) (string, []Finding) {
	var findings []Finding

	input = replace(input, pemPattern, "pem-private-key", &findings, func(match string) string {
		lines := strings.Split(match, "\n")
		for i := range lines {
			lines[i] = redacted
		}
		return strings.Join(lines, "\n")
	})

	for _, r := range rules {
		re, repl := r.pattern, r.repl
		input = replace(input, re, r.name, &findings, func(match string) string {
			return re.ReplaceAllString(match, repl)
		})
	}

	sort.SliceStable(findings, func(i, j int) bool { return findings[i].Line < findings[j].Line })
	return input, findings
}

// replace substitutes every match of re using fn, recording a finding per match.
func replace(input string, re *regexp.Regexp, name string, findings *[]Finding, fn func(string) string) string {
	locs := re.FindAllStringSubmatchIndex(input, -1)
	if len(locs) == 0 {
		return input
	}
	var (
		sb   strings.Builder
		last int
	)
	for _, loc := range locs {
		// A leading context group is not part of the secret.
		start := loc[0]
		if len(loc) >= 4 && loc[3] > start {
			start = loc[3]
		}
		*findings = append(*findings, Finding{Rule: name, Line: strings.Count(input[:start], "\n") + 1})
		sb.WriteString(input[last:loc[0]])
		sb.WriteString(fn(input[loc[0]:loc[1]]))
		last = loc[1]
	}
	sb.WriteString(input[last:])
	return sb.String()
}

// Bytes is Redact for file contents.
func Bytes(data []byte) ([]byte, []Finding) {
	out, findings := Redact(string(data))
	if len(findings) == 0 {
		return data, nil
	}
	return []byte(out), findings
}

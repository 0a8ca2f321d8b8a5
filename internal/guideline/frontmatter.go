package guideline

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrNoClosingDelimiter is returned when a document opens a frontmatter block
// but never closes it.
var ErrNoClosingDelimiter = errors.New("no closing frontmatter delimiter")

// Metadata is the typed frontmatter of a guideline document.
type Metadata struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Priority *int   `yaml:"priority"`
	Tags     Tags   `yaml:"tags"`
}

// Tags accepts either a single string or a list of strings.
type Tags []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Tags) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" || n.Value == "" {
			*t = nil
			return nil
		}
		*t = Tags{n.Value}
		return nil
	case yaml.SequenceNode:
		var s []string
		if err := n.Decode(&s); err != nil {
			return err
		}
		*t = s
		return nil
	}
	return fmt.Errorf("line %d: tags must be a string or a list of strings", n.Line)
}

// splitFrontmatter separates a leading "---" delimited block from the body.
// found is false when the document has no frontmatter at all.
func splitFrontmatter(content string) (meta, body string, found bool, err error) {
	s := strings.TrimPrefix(content, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	if s != delimiter && !strings.HasPrefix(s, delimiter+"\n") {
		return "", s, false, nil
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(s, delimiter), "\n")

	// Empty block: "---\n---\n..."
	if rest == delimiter || strings.HasPrefix(rest, delimiter+"\n") {
		return "", strings.TrimPrefix(rest, delimiter), true, nil
	}

	idx := strings.Index(rest, "\n"+delimiter+"\n")
	if idx == -1 {
		if !strings.HasSuffix(rest, "\n"+delimiter) {
			return "", s, true, ErrNoClosingDelimiter
		}
		idx = len(rest) - len(delimiter) - 1
	}
	return rest[:idx], rest[idx+1+len(delimiter):], true, nil
}

// parseMetadata decodes a frontmatter block into Metadata.
func parseMetadata(block string) (Metadata, error) {
	var m Metadata
	if strings.TrimSpace(block) == "" {
		return m, nil
	}
	if err := yaml.Unmarshal([]byte(block), &m); err != nil {
		return Metadata{}, fmt.Errorf("parse YAML frontmatter: %w", err)
	}
	return m, nil
}

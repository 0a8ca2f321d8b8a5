// Package guideline loads guideline fragments: markdown documents with a YAML
// frontmatter block carrying an id, title, category, priority and tags.
package guideline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/standards/internal/diag"
	"github.com/dshills/standards/internal/source"
)

const (
	// DefaultCategory is used when a fragment names no category.
	DefaultCategory = "general"
	// DefaultPriority sorts fragments without a priority last.
	DefaultPriority = 99
)

// ErrMissingID is returned for documents whose frontmatter has no id.
var ErrMissingID = errors.New("missing 'id' in frontmatter")

// Fragment is a single reusable block of guidance text.
type Fragment struct {
	ID       string
	Title    string
	Category string
	Priority int
	Tags     []string
	Body     string // trimmed
	Source   string // file the fragment was parsed from
}

// Parse builds a Fragment from a document. Documents without an id return an
// error of kind diag.KindMissingField; unparseable frontmatter returns
// diag.KindMalformed.
func Parse(filename string, content []byte) (*Fragment, error) {
	block, body, _, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, diag.New(diag.KindMalformed, filename, err)
	}
	meta, err := parseMetadata(block)
	if err != nil {
		return nil, diag.New(diag.KindMalformed, filename, err)
	}
	return newFragment(filename, meta, body)
}

func newFragment(filename string, meta Metadata, body string) (*Fragment, error) {
	id := strings.TrimSpace(meta.ID)
	if id == "" {
		return nil, diag.New(diag.KindMissingField, filename, ErrMissingID)
	}

	f := &Fragment{
		ID:       id,
		Title:    meta.Title,
		Category: meta.Category,
		Priority: DefaultPriority,
		Tags:     []string(meta.Tags),
		Body:     strings.TrimSpace(body),
		Source:   filename,
	}
	if f.Title == "" {
		f.Title = id
	}
	if f.Category == "" {
		f.Category = DefaultCategory
	}
	if meta.Priority != nil {
		f.Priority = *meta.Priority
	}
	return f, nil
}

// Lookup resolves guideline ids to fragments.
type Lookup interface {
	Get(id string) (*Fragment, bool)
}

// Set holds the fragments of one generation run keyed by id.
type Set map[string]*Fragment

// Get implements Lookup.
func (s Set) Get(id string) (*Fragment, bool) {
	f, ok := s[id]
	return f, ok
}

// Sorted returns the fragments by ascending priority, ties broken by id.
func (s Set) Sorted() []*Fragment {
	out := make([]*Fragment, 0, len(s))
	for _, f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LoadDir parses every guideline under dir matching pattern. Documents that
// fail to parse or lack an id are excluded and reported as diagnostics; a
// later file redefining an id replaces the earlier one with a diagnostic.
// The returned error is non-nil only when dir itself cannot be enumerated.
func LoadDir(dir, pattern string) (Set, []diag.Diagnostic, error) {
	files, readErrs, err := source.LoadAll(dir, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("loading guidelines: %w", err)
	}

	set := make(Set, len(files))
	var diags []diag.Diagnostic
	for _, err := range readErrs {
		diags = append(diags, diag.FromError("", err))
	}
	for _, f := range files {
		frag, err := Parse(f.Path, f.Raw)
		if err != nil {
			diags = append(diags, diag.FromError(f.Path, err))
			continue
		}
		if prev, ok := set[frag.ID]; ok {
			diags = append(diags, diag.Diagnostic{
				Kind:    diag.KindDuplicate,
				Source:  f.Path,
				Message: fmt.Sprintf("guideline %q already defined in %s; replacing it", frag.ID, prev.Source),
			})
		}
		set[frag.ID] = frag
	}
	return set, diags, nil
}

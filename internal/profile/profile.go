// Package profile loads profile descriptors and composes them with guideline
// fragments into a single document body.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/standards/internal/diag"
	"github.com/dshills/standards/internal/guideline"
	"github.com/dshills/standards/internal/source"
)

// Separator is the block placed between adjacent sections of a composed body.
const Separator = "---"

// fragmentJoin separates consecutive guideline bodies inside the guideline section.
const fragmentJoin = "\n\n" + Separator + "\n\n"

// Profile is a named bundle of guidelines plus custom text.
type Profile struct {
	ID       string   `toml:"-"` // file stem
	Meta     Meta     `toml:"profile"`
	Includes Includes `toml:"includes"`
	Context  Context  `toml:"context"`
	Content  Content  `toml:"content"`
}

// Meta carries the document header fields.
type Meta struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// Includes lists the guideline ids to compose, in order.
type Includes struct {
	Guidelines []string `toml:"guidelines"`
}

// Context holds text placed before and after everything else.
type Context struct {
	Preamble  string `toml:"preamble"`
	Postamble string `toml:"postamble"`
}

// Content holds custom markdown inserted as its own section.
type Content struct {
	Markdown string `toml:"markdown"`
}

// Parse decodes a TOML profile descriptor. id is usually the file stem.
func Parse(id string, data []byte) (*Profile, error) {
	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, diag.New(diag.KindMalformed, id, fmt.Errorf("parse profile TOML: %w", err))
	}
	p.ID = id
	return &p, nil
}

// Validate reports missing header fields.
func (p *Profile) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Meta.Name) == "" {
		missing = append(missing, "profile.name")
	}
	if strings.TrimSpace(p.Meta.Description) == "" {
		missing = append(missing, "profile.description")
	}
	if len(missing) > 0 {
		return diag.New(diag.KindMissingField, p.ID, fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}
	return nil
}

// Load reads and validates the profile at path.
func Load(path string) (*Profile, error) {
	f, err := source.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	p, err := Parse(f.Stem(), f.Raw)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadDir loads every profile under dir matching pattern, sorted by id.
// Profiles that fail to load are reported as diagnostics. The returned error
// is non-nil only when dir itself cannot be enumerated.
func LoadDir(dir, pattern string) ([]*Profile, []diag.Diagnostic, error) {
	paths, err := source.Glob(dir, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("loading profiles: %w", err)
	}
	var (
		profiles []*Profile
		diags    []diag.Diagnostic
	)
	for _, path := range paths {
		p, err := Load(path)
		if err != nil {
			diags = append(diags, diag.FromError(path, err))
			continue
		}
		profiles = append(profiles, p)
	}
	sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, diags, nil
}

// Get returns the profile with the given id.
func Get(profiles []*Profile, id string) (*Profile, error) {
	for _, p := range profiles {
		if p.ID == id {
			return p, nil
		}
	}
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	return nil, fmt.Errorf("unknown profile %q: valid profiles are %s", id, strings.Join(ids, ", "))
}

// Composition is the result of composing a profile.
type Composition struct {
	Body        string
	Missing     []string // unresolved guideline ids, in reference order
	Diagnostics []diag.Diagnostic
}

// Compose selects the profile's guidelines from fragments, orders them by
// ascending priority (stable), and joins preamble, custom markdown, guideline
// bodies and postamble with exactly one separator between adjacent sections.
// Whitespace-only texts are treated as absent. Unknown ids are dropped and
// reported in the result; Compose never fails.
func Compose(p *Profile, fragments guideline.Lookup) Composition {
	var (
		c     Composition
		parts []string
	)
	section := func(text string) {
		if len(parts) > 0 {
			parts = append(parts, Separator)
		}
		parts = append(parts, text)
	}

	if preamble := strings.TrimSpace(p.Context.Preamble); preamble != "" {
		section(preamble)
	}
	if custom := strings.TrimSpace(p.Content.Markdown); custom != "" {
		section(custom)
	}

	included := resolve(p.Includes.Guidelines, fragments, &c)
	if len(included) > 0 {
		bodies := make([]string, len(included))
		for i, f := range included {
			bodies[i] = f.Body
		}
		section(strings.Join(bodies, fragmentJoin))
	}

	if postamble := strings.TrimSpace(p.Context.Postamble); postamble != "" {
		section(postamble)
	}

	c.Body = strings.TrimSpace(strings.Join(parts, "\n\n"))
	return c
}

// resolve looks up ids in order, records the ones that are missing, and
// returns the found fragments stably sorted by priority.
func resolve(ids []string, fragments guideline.Lookup, c *Composition) []*guideline.Fragment {
	included := make([]*guideline.Fragment, 0, len(ids))
	for _, id := range ids {
		var (
			f  *guideline.Fragment
			ok bool
		)
		if fragments != nil {
			f, ok = fragments.Get(id)
		}
		if !ok || f == nil {
			c.Missing = append(c.Missing, id)
			c.Diagnostics = append(c.Diagnostics, diag.Diagnostic{
				Kind:    diag.KindUnresolvedReference,
				Source:  id,
				Message: fmt.Sprintf("guideline %q not found", id),
			})
			continue
		}
		included = append(included, f)
	}
	sort.SliceStable(included, func(i, j int) bool {
		return included[i].Priority < included[j].Priority
	})
	return included
}

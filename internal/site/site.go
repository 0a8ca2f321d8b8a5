// Package site assembles a static documentation site from guideline
// fragments and rulesets: a home page, index pages for both collections, one
// page per guideline and ruleset, and mkdocs.yml for MkDocs.
package site

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dshills/standards/internal/guideline"
	"github.com/dshills/standards/internal/render"
	"github.com/dshills/standards/internal/ruleset"
)

// Dir is the site directory relative to the output directory.
const Dir = "site"

// Options describe the site being generated.
type Options struct {
	Mode        render.Mode // render.ModeMkDocs or render.ModeHugo
	Name        string
	Description string
	URL         string
	RepoName    string
	RepoURL     string
	Hint        string // command named in generated-page banners
}

// Build renders every page of the site. fragments should already be in
// display order (see guideline.Set.Sorted); rulesets are sorted by id here.
func Build(opts Options, fragments []*guideline.Fragment, rulesets []*ruleset.Ruleset) ([]render.File, error) {
	l, err := newLayout(opts.Mode)
	if err != nil {
		return nil, err
	}
	r, err := render.NewRenderer(opts.Mode)
	if err != nil {
		return nil, err
	}

	rulesets = append([]*ruleset.Ruleset(nil), rulesets...)
	sort.SliceStable(rulesets, func(i, j int) bool { return rulesets[i].ID < rulesets[j].ID })

	b := &builder{renderer: r}
	b.page(l.home, &render.Page{
		Title:       opts.Name,
		Description: opts.Description,
		Body:        homeBody(opts, l, fragments, rulesets),
	})
	b.page(l.guidelinesIndex, &render.Page{
		Title:       "Guidelines",
		Description: guidelinesBlurb,
		Weight:      10,
		Body:        guidelinesIndexBody(l, fragments),
	})
	for _, f := range fragments {
		p := &render.Page{Body: f.Body}
		if opts.Mode == render.ModeHugo {
			p.Title = f.Title
			p.Weight = f.Priority
			p.Tags = f.Tags
		}
		b.page(path.Join(l.content, "guidelines", f.ID+".md"), p)
	}
	b.page(l.rulesetsIndex, &render.Page{
		Title:       "Rulesets",
		Description: rulesetsBlurb,
		Weight:      20,
		Body:        rulesetsIndexBody(l, rulesets),
	})
	for i, rs := range rulesets {
		b.page(path.Join(l.content, "rulesets", rs.ID+".md"), RulesetPage(rs, opts.Hint, i+1))
	}
	if b.err != nil {
		return nil, b.err
	}

	if opts.Mode == render.ModeMkDocs {
		cfg, err := MkDocsConfig(opts, fragments, rulesets)
		if err != nil {
			return nil, err
		}
		b.files = append(b.files, render.File{Path: path.Join(Dir, "mkdocs.yml"), Content: cfg})
	}
	return b.files, nil
}

// RulesetPage builds the page for one ruleset. weight orders Hugo pages.
func RulesetPage(rs *ruleset.Ruleset, hint string, weight int) *render.Page {
	return &render.Page{
		Title:       render.TitleCase(rs.ID),
		Description: fmt.Sprintf("%s ruleset", render.TitleCase(rs.ID)),
		Source:      rs.File,
		Hint:        hint,
		Weight:      weight,
		Tags:        nonEmpty(rs.Language(), rs.Tier()),
		Body:        render.Tree(rs.Tree),
	}
}

type builder struct {
	renderer render.Renderer
	files    []render.File
	err      error
}

func (b *builder) page(p string, pg *render.Page) {
	if b.err != nil {
		return
	}
	content, err := b.renderer.Render(pg)
	if err != nil {
		b.err = fmt.Errorf("rendering %s: %w", p, err)
		return
	}
	b.files = append(b.files, render.File{Path: p, Content: content})
}

// layout holds the mode-specific page locations and link style.
type layout struct {
	mode            render.Mode
	content         string
	home            string
	guidelinesIndex string
	rulesetsIndex   string
}

func newLayout(mode render.Mode) (layout, error) {
	switch mode {
	case render.ModeMkDocs:
		content := path.Join(Dir, "docs")
		return layout{
			mode:            mode,
			content:         content,
			home:            path.Join(content, "index.md"),
			guidelinesIndex: path.Join(content, "guidelines", "index.md"),
			rulesetsIndex:   path.Join(content, "rulesets", "index.md"),
		}, nil
	case render.ModeHugo:
		content := path.Join(Dir, "content")
		return layout{
			mode:            mode,
			content:         content,
			home:            path.Join(content, "_index.md"),
			guidelinesIndex: path.Join(content, "guidelines", "_index.md"),
			rulesetsIndex:   path.Join(content, "rulesets", "_index.md"),
		}, nil
	}
	return layout{}, fmt.Errorf("site mode must be mkdocs or hugo, got %s", mode)
}

// link returns the link target of a page given as "section/id", written
// relative to the page in section from ("" for the home page).
func (l layout) link(from, target string) string {
	if l.mode == render.ModeHugo {
		return fmt.Sprintf(`{{< relref "/%s" >}}`, strings.TrimSuffix(target, "/index"))
	}
	if from != "" {
		target = strings.TrimPrefix(target, from+"/")
	}
	return target + ".md"
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

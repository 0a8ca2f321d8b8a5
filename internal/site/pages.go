package site

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/standards/internal/guideline"
	"github.com/dshills/standards/internal/render"
	"github.com/dshills/standards/internal/ruleset"
)

const (
	guidelinesBlurb = "Architectural and implementation standards"
	rulesetsBlurb   = "Linting and tooling configurations at different strictness tiers"
)

// knownTiers lists the tiers with a legend entry, strictest first.
var knownTiers = []struct{ name, desc string }{
	{"production", "Strictest settings for production code"},
	{"internal", "Moderate settings for internal tools"},
	{"prototype", "Relaxed settings for rapid prototyping"},
}

func homeBody(opts Options, l layout, fragments []*guideline.Fragment, rulesets []*ruleset.Ruleset) string {
	var sb strings.Builder
	if opts.Description != "" {
		sb.WriteString(opts.Description + "\n\n")
	}

	sb.WriteString("## Quick Links\n\n")
	fmt.Fprintf(&sb, "- [Guidelines](%s) - %s\n", l.link("", "guidelines/index"), guidelinesBlurb)
	fmt.Fprintf(&sb, "- [Rulesets](%s) - %s\n\n", l.link("", "rulesets/index"), rulesetsBlurb)

	sb.WriteString("## Guidelines Overview\n\n")
	sb.WriteString("| Guideline | Category | Tags |\n")
	sb.WriteString("|-----------|----------|------|\n")
	for _, f := range fragments {
		fmt.Fprintf(&sb, "| [%s](%s) | %s | %s |\n", f.Title, l.link("", "guidelines/"+f.ID), f.Category, strings.Join(f.Tags, ", "))
	}
	sb.WriteString("\n")

	sb.WriteString("## Rulesets Overview\n\n")
	sb.WriteString("| Ruleset | Language | Tier |\n")
	sb.WriteString("|---------|----------|------|\n")
	for _, rs := range rulesets {
		fmt.Fprintf(&sb, "| [%s](%s) | %s | %s |\n",
			render.TitleCase(rs.ID), l.link("", "rulesets/"+rs.ID), render.TitleCase(rs.Language()), render.TitleCase(rs.Tier()))
	}
	return sb.String()
}

// guidelinesIndexBody groups fragments by category, categories in order of
// first appearance.
func guidelinesIndexBody(l layout, fragments []*guideline.Fragment) string {
	var (
		order      []string
		byCategory = make(map[string][]*guideline.Fragment)
	)
	for _, f := range fragments {
		if _, ok := byCategory[f.Category]; !ok {
			order = append(order, f.Category)
		}
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}

	var sb strings.Builder
	sb.WriteString(guidelinesBlurb + ".\n")
	for _, cat := range order {
		fmt.Fprintf(&sb, "\n## %s\n\n", render.TitleCase(cat))
		for _, f := range byCategory[cat] {
			fmt.Fprintf(&sb, "- [%s](%s)\n", f.Title, l.link("guidelines", "guidelines/"+f.ID))
		}
	}
	return sb.String()
}

// rulesetsIndexBody lists the tier legend and one section per language.
func rulesetsIndexBody(l layout, rulesets []*ruleset.Ruleset) string {
	var sb strings.Builder
	sb.WriteString(rulesetsBlurb + ".\n")

	if tiers := tierLegend(rulesets); len(tiers) > 0 {
		sb.WriteString("\n## Tiers\n\n")
		for _, line := range tiers {
			sb.WriteString(line + "\n")
		}
	}

	for _, lang := range languages(rulesets) {
		fmt.Fprintf(&sb, "\n## %s\n\n", render.TitleCase(lang))
		for _, rs := range rulesets {
			if rs.Language() == lang {
				fmt.Fprintf(&sb, "- [%s](%s)\n", render.TitleCase(rs.ID), l.link("rulesets", "rulesets/"+rs.ID))
			}
		}
	}
	return sb.String()
}

// tierLegend describes the tiers in use: known tiers first, others sorted.
func tierLegend(rulesets []*ruleset.Ruleset) []string {
	used := make(map[string]bool)
	for _, rs := range rulesets {
		if t := rs.Tier(); t != "" {
			used[t] = true
		}
	}
	var lines []string
	for _, t := range knownTiers {
		if used[t.name] {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", render.TitleCase(t.name), t.desc))
			delete(used, t.name)
		}
	}
	var rest []string
	for t := range used {
		rest = append(rest, t)
	}
	sort.Strings(rest)
	for _, t := range rest {
		lines = append(lines, fmt.Sprintf("- **%s**", render.TitleCase(t)))
	}
	return lines
}

func languages(rulesets []*ruleset.Ruleset) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rs := range rulesets {
		if lang := rs.Language(); !seen[lang] {
			seen[lang] = true
			out = append(out, lang)
		}
	}
	sort.Strings(out)
	return out
}

type mkdocsConfig struct {
	SiteName           string      `yaml:"site_name"`
	SiteURL            string      `yaml:"site_url,omitempty"`
	SiteDescription    string      `yaml:"site_description,omitempty"`
	RepoName           string      `yaml:"repo_name,omitempty"`
	RepoURL            string      `yaml:"repo_url,omitempty"`
	Theme              mkdocsTheme `yaml:"theme"`
	MarkdownExtensions []any       `yaml:"markdown_extensions"`
	Nav                []any       `yaml:"nav"`
}

type mkdocsTheme struct {
	Name     string          `yaml:"name"`
	Palette  []mkdocsPalette `yaml:"palette"`
	Features []string        `yaml:"features"`
}

type mkdocsPalette struct {
	Scheme  string       `yaml:"scheme"`
	Primary string       `yaml:"primary"`
	Accent  string       `yaml:"accent"`
	Toggle  mkdocsToggle `yaml:"toggle"`
}

type mkdocsToggle struct {
	Icon string `yaml:"icon"`
	Name string `yaml:"name"`
}

// MkDocsConfig renders mkdocs.yml for the Material theme with a nav listing
// every guideline and ruleset page.
func MkDocsConfig(opts Options, fragments []*guideline.Fragment, rulesets []*ruleset.Ruleset) ([]byte, error) {
	guidelineNav := []any{"guidelines/index.md"}
	for _, f := range fragments {
		guidelineNav = append(guidelineNav, map[string]string{f.Title: "guidelines/" + f.ID + ".md"})
	}
	rulesetNav := []any{"rulesets/index.md"}
	for _, rs := range rulesets {
		rulesetNav = append(rulesetNav, map[string]string{render.TitleCase(rs.ID): "rulesets/" + rs.ID + ".md"})
	}

	cfg := mkdocsConfig{
		SiteName:        opts.Name,
		SiteURL:         opts.URL,
		SiteDescription: opts.Description,
		RepoName:        opts.RepoName,
		RepoURL:         opts.RepoURL,
		Theme: mkdocsTheme{
			Name: "material",
			Palette: []mkdocsPalette{
				{Scheme: "slate", Primary: "indigo", Accent: "blue", Toggle: mkdocsToggle{Icon: "material/brightness-4", Name: "Switch to light mode"}},
				{Scheme: "default", Primary: "indigo", Accent: "blue", Toggle: mkdocsToggle{Icon: "material/brightness-7", Name: "Switch to dark mode"}},
			},
			Features: []string{
				"navigation.instant",
				"navigation.tracking",
				"navigation.sections",
				"navigation.expand",
				"navigation.top",
				"search.suggest",
				"search.highlight",
				"content.code.copy",
			},
		},
		MarkdownExtensions: []any{
			map[string]any{"pymdownx.highlight": map[string]bool{"anchor_linenums": true}},
			"pymdownx.superfences",
			map[string]any{"pymdownx.tabbed": map[string]bool{"alternate_style": true}},
			"tables",
			"admonition",
			"pymdownx.details",
		},
		Nav: []any{
			map[string]string{"Home": "index.md"},
			map[string][]any{"Guidelines": guidelineNav},
			map[string][]any{"Rulesets": rulesetNav},
		},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding mkdocs.yml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding mkdocs.yml: %w", err)
	}
	return buf.Bytes(), nil
}

// Package generate loads the guideline, profile and ruleset inputs named by a
// config.Config and renders the requested output targets.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dshills/standards/internal/config"
	"github.com/dshills/standards/internal/diag"
	"github.com/dshills/standards/internal/guideline"
	"github.com/dshills/standards/internal/logging"
	"github.com/dshills/standards/internal/profile"
	"github.com/dshills/standards/internal/redact"
	"github.com/dshills/standards/internal/render"
	"github.com/dshills/standards/internal/ruleset"
	"github.com/dshills/standards/internal/site"
)

// Target is a group of generated files.
type Target string

const (
	TargetProfiles Target = "profiles"
	TargetRulesets Target = "rulesets"
	TargetSite     Target = "site"
)

// AllTargets lists every target in generation order.
var AllTargets = []Target{TargetProfiles, TargetRulesets, TargetSite}

// Hint is the command that regenerates t, named in generated banners.
func (t Target) Hint() string {
	return "standards " + string(t)
}

// Dir is the output subdirectory holding t's files.
func (t Target) Dir() string {
	if t == TargetSite {
		return site.Dir
	}
	return string(t)
}

// Inputs are the documents loaded for one run.
type Inputs struct {
	Guidelines guideline.Set
	Profiles   []*profile.Profile
	Rulesets   []*ruleset.Ruleset
}

// Result holds the files produced by one run, with paths relative to the
// output directory, and the diagnostics reported along the way.
type Result struct {
	Files       []render.File
	Diagnostics []diag.Diagnostic
	Redactions  int
}

// Generator renders output targets from the inputs named by its config.
type Generator struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New returns a Generator. A nil logger discards log output.
func New(cfg *config.Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Generate loads the inputs the targets need and renders them in memory.
// Per-document problems become diagnostics; an error is returned only when a
// required input directory cannot be enumerated or rendering fails.
func (g *Generator) Generate(ctx context.Context, targets ...Target) (*Result, error) {
	if len(targets) == 0 {
		targets = AllTargets
	}
	in, diags, err := g.Load(ctx, targets...)
	if err != nil {
		return nil, err
	}
	res := &Result{Diagnostics: diags}

	for _, t := range targets {
		var (
			files []render.File
			ds    []diag.Diagnostic
			err   error
		)
		switch t {
		case TargetProfiles:
			files, ds, err = Profiles(in.Profiles, in.Guidelines)
		case TargetRulesets:
			files, err = Rulesets(in.Rulesets)
		case TargetSite:
			files, err = site.Build(g.siteOptions(), in.Guidelines.Sorted(), in.Rulesets)
		default:
			err = fmt.Errorf("unknown target %q", t)
		}
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", t, err)
		}
		res.Files = append(res.Files, files...)
		res.Diagnostics = append(res.Diagnostics, ds...)
		g.logger.Debug("Rendered target", zap.String("target", string(t)), zap.Int("files", len(files)))
	}

	if g.cfg.Redact {
		res.Redactions = g.redact(res.Files)
	}
	logging.Diagnostics(g.logger, res.Diagnostics)
	return res, nil
}

// Load reads the inputs needed by targets. A missing guidelines directory
// is a diagnostic and yields an empty set; a missing profiles or rulesets
// directory is an error when its target is requested.
func (g *Generator) Load(ctx context.Context, targets ...Target) (*Inputs, []diag.Diagnostic, error) {
	var (
		in    = &Inputs{Guidelines: guideline.Set{}}
		diags []diag.Diagnostic
	)
	wants := func(want ...Target) bool {
		for _, t := range targets {
			for _, w := range want {
				if t == w {
					return true
				}
			}
		}
		return false
	}

	if wants(TargetProfiles, TargetSite) {
		dir := g.cfg.GuidelinesDir()
		set, ds, err := guideline.LoadDir(dir, g.cfg.Patterns.Guidelines)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			diags = append(diags, diag.Diagnostic{Kind: diag.KindIO, Source: dir, Message: "guidelines directory not found"})
		case err != nil:
			return nil, nil, err
		default:
			in.Guidelines = set
			diags = append(diags, ds...)
		}
		g.logger.Info("Loaded guidelines", zap.Int("count", len(in.Guidelines)))
	}

	if wants(TargetProfiles) {
		profiles, ds, err := profile.LoadDir(g.cfg.ProfilesDir(), g.cfg.Patterns.Profiles)
		if err != nil {
			return nil, nil, err
		}
		if len(profiles) == 0 && len(ds) == 0 {
			diags = append(diags, diag.Diagnostic{Kind: diag.KindIO, Source: g.cfg.ProfilesDir(), Message: "no profile files found"})
		}
		in.Profiles = profiles
		diags = append(diags, ds...)
	}

	if wants(TargetRulesets, TargetSite) {
		rulesets, ds, err := ruleset.LoadDir(ctx, g.cfg.RulesetsDir(), g.cfg.Patterns.Rulesets, g.cfg.Workers())
		if err != nil {
			return nil, nil, err
		}
		if len(rulesets) == 0 && len(ds) == 0 {
			diags = append(diags, diag.Diagnostic{Kind: diag.KindIO, Source: g.cfg.RulesetsDir(), Message: "no ruleset files found"})
		}
		in.Rulesets = rulesets
		diags = append(diags, ds...)
	}
	return in, diags, nil
}

// Profiles composes every profile against set and wraps each body in the
// profile document header.
func Profiles(profiles []*profile.Profile, set guideline.Set) ([]render.File, []diag.Diagnostic, error) {
	var (
		files []render.File
		diags []diag.Diagnostic
	)
	for _, p := range profiles {
		c := profile.Compose(p, set)
		for _, d := range c.Diagnostics {
			d.Message = fmt.Sprintf("profile %s: %s", p.ID, d.Message)
			diags = append(diags, d)
		}
		doc := &render.ProfileDocument{
			Name:        p.Meta.Name,
			Description: p.Meta.Description,
			Hint:        TargetProfiles.Hint(),
			Body:        c.Body,
		}
		content, err := doc.Render()
		if err != nil {
			return nil, nil, fmt.Errorf("profile %s: %w", p.ID, err)
		}
		files = append(files, render.File{Path: path.Join(TargetProfiles.Dir(), p.ID+".md"), Content: content})
	}
	return files, diags, nil
}

// Rulesets renders each ruleset as a standalone markdown page.
func Rulesets(rulesets []*ruleset.Ruleset) ([]render.File, error) {
	r, err := render.NewRenderer(render.ModePlain)
	if err != nil {
		return nil, err
	}
	var files []render.File
	for _, rs := range rulesets {
		content, err := r.Render(site.RulesetPage(rs, TargetRulesets.Hint(), 0))
		if err != nil {
			return nil, fmt.Errorf("ruleset %s: %w", rs.ID, err)
		}
		files = append(files, render.File{Path: path.Join(TargetRulesets.Dir(), rs.ID+".md"), Content: content})
	}
	return files, nil
}

func (g *Generator) siteOptions() site.Options {
	mode, err := render.ParseMode(g.cfg.Site.Mode)
	if err != nil {
		// Config validation only admits mkdocs and hugo.
		mode = render.ModeMkDocs
	}
	return site.Options{
		Mode:        mode,
		Name:        g.cfg.Site.Name,
		Description: g.cfg.Site.Description,
		URL:         g.cfg.Site.URL,
		RepoName:    g.cfg.Site.RepoName,
		RepoURL:     g.cfg.Site.RepoURL,
		Hint:        TargetSite.Hint(),
	}
}

func (g *Generator) redact(files []render.File) int {
	total := 0
	for i := range files {
		out, findings := redact.Bytes(files[i].Content)
		for _, f := range findings {
			g.logger.Warn("Redacted secret",
				zap.String("path", files[i].Path),
				zap.String("rule", f.Rule),
				zap.Int("line", f.Line),
			)
		}
		files[i].Content = out
		total += len(findings)
	}
	return total
}

// Write stores files under the output directory, creating directories as
// needed. Files whose content is unchanged are not rewritten. It returns the
// number of files written.
func (g *Generator) Write(files []render.File) (int, error) {
	root := g.cfg.OutputDir()
	written := 0
	for _, f := range files {
		dst := filepath.Join(root, filepath.FromSlash(f.Path))
		if existing, err := os.ReadFile(dst); err == nil && bytes.Equal(existing, f.Content) {
			g.logger.Debug("Unchanged", zap.String("path", dst))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return written, fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(dst, f.Content, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", dst, err)
		}
		written++
		g.logger.Info("Generated", zap.String("path", dst))
	}
	return written, nil
}

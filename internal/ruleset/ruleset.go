// Package ruleset decodes ruleset TOML files into order-preserving
// configuration trees.
//
// Values come from toml.Unmarshal; key order is recovered from a second pass
// over the document with the go-toml unstable parser, so tables, dotted keys
// and inline tables keep the order in which they were written. Mappings that
// live inside arrays (arrays of tables, inline tables in arrays) are opaque to
// the renderer and keep sorted key order.
package ruleset

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/standards/internal/diag"
	"github.com/dshills/standards/internal/source"
	"github.com/dshills/standards/internal/tree"
)

// Ruleset is one decoded ruleset file.
type Ruleset struct {
	ID     string // file stem, e.g. "typescript-production"
	File   string // base file name, e.g. "typescript-production.toml"
	Source string // path the ruleset was read from
	Hash   string
	Tree   *tree.Map
}

// Language returns the id segment before the first "-" ("typescript" for
// "typescript-production").
func (r *Ruleset) Language() string {
	lang, _, _ := strings.Cut(r.ID, "-")
	return lang
}

// Tier returns the id segment after the first "-", or "" when there is none.
func (r *Ruleset) Tier() string {
	_, tier, _ := strings.Cut(r.ID, "-")
	return tier
}

// Decode parses TOML data into an ordered tree.
func Decode(data []byte) (*tree.Map, error) {
	var values map[string]any
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse ruleset TOML: %w", err)
	}
	order, err := keyOrder(data)
	if err != nil {
		return nil, fmt.Errorf("parse ruleset TOML: %w", err)
	}
	return build(values, nil, order), nil
}

// Load reads and decodes the ruleset at path.
func Load(path string) (*Ruleset, error) {
	f, err := source.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading ruleset: %w", err)
	}
	t, err := Decode(f.Raw)
	if err != nil {
		return nil, diag.New(diag.KindMalformed, path, err)
	}
	return &Ruleset{
		ID:     f.Stem(),
		File:   filepath.Base(path),
		Source: path,
		Hash:   f.Hash,
		Tree:   t,
	}, nil
}

// LoadDir decodes every ruleset under dir matching pattern, at most workers
// files at a time, sorted by id. Files that fail to decode are reported as
// diagnostics. The returned error is non-nil only when dir itself cannot be
// enumerated or ctx is cancelled.
func LoadDir(ctx context.Context, dir, pattern string, workers int) ([]*Ruleset, []diag.Diagnostic, error) {
	paths, err := source.Glob(dir, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("loading rulesets: %w", err)
	}

	loaded := make([]*Ruleset, len(paths))
	errs := make([]error, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, p := range paths {
		i, p := i, p // per-iteration copies (go.mod targets go 1.21)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			loaded[i], errs[i] = Load(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		out   []*Ruleset
		diags []diag.Diagnostic
	)
	for i, rs := range loaded {
		if errs[i] != nil {
			diags = append(diags, diag.FromError(paths[i], errs[i]))
			continue
		}
		out = append(out, rs)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, diags, nil
}

// pathKey joins a key path into a map key; NUL cannot appear in TOML keys.
func pathKey(path []string) string {
	return strings.Join(path, "\x00")
}

// orderIndex records, per table path, child keys in first-seen order.
type orderIndex struct {
	children map[string][]string
	seen     map[string]struct{}
}

func newOrderIndex() *orderIndex {
	return &orderIndex{
		children: make(map[string][]string),
		seen:     make(map[string]struct{}),
	}
}

// add records every key along path under its parent.
func (o *orderIndex) add(path []string) {
	for i := range path {
		full := pathKey(path[:i+1])
		if _, ok := o.seen[full]; ok {
			continue
		}
		o.seen[full] = struct{}{}
		parent := pathKey(path[:i])
		o.children[parent] = append(o.children[parent], path[i])
	}
}

func (o *orderIndex) keys(path []string) []string {
	return o.children[pathKey(path)]
}

// keyOrder walks the document's expressions and records key order for every
// table reachable without passing through an array.
func keyOrder(data []byte) (*orderIndex, error) {
	o := newOrderIndex()
	var (
		p       unstable.Parser
		current []string
		inArray bool
	)
	p.Reset(data)
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table:
			current = keyPath(expr.Key())
			inArray = false
			o.add(current)
		case unstable.ArrayTable:
			key := keyPath(expr.Key())
			o.add(key)
			current = nil
			inArray = true
		case unstable.KeyValue:
			if inArray {
				continue
			}
			full := append(append([]string(nil), current...), keyPath(expr.Key())...)
			o.add(full)
			if v := expr.Value(); v != nil && v.Kind == unstable.InlineTable {
				o.addInline(full, v)
			}
		}
	}
	if err := p.Error(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *orderIndex) addInline(prefix []string, table *unstable.Node) {
	it := table.Children()
	for it.Next() {
		kv := it.Node()
		if kv.Kind != unstable.KeyValue {
			continue
		}
		full := append(append([]string(nil), prefix...), keyPath(kv.Key())...)
		o.add(full)
		if v := kv.Value(); v != nil && v.Kind == unstable.InlineTable {
			o.addInline(full, v)
		}
	}
}

func keyPath(it unstable.Iterator) []string {
	var path []string
	for it.Next() {
		path = append(path, string(it.Node().Data))
	}
	return path
}

// build converts decoded values at path into a tree.Map. Keys recorded in
// order come first; any others follow sorted.
func build(values map[string]any, path []string, order *orderIndex) *tree.Map {
	m := tree.New()
	var keys []string
	if order != nil {
		for _, k := range order.keys(path) {
			if _, ok := values[k]; ok {
				keys = append(keys, k)
			}
		}
	}
	if len(keys) < len(values) {
		known := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			known[k] = struct{}{}
		}
		var rest []string
		for k := range values {
			if _, ok := known[k]; !ok {
				rest = append(rest, k)
			}
		}
		sort.Strings(rest)
		keys = append(keys, rest...)
	}

	for _, k := range keys {
		child := append(append([]string(nil), path...), k)
		m.Set(k, convert(values[k], child, order))
	}
	return m
}

func convert(v any, path []string, order *orderIndex) any {
	switch x := v.(type) {
	case map[string]any:
		return build(x, path, order)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			// Mappings inside arrays are outside the recorded order.
			out[i] = convert(e, nil, nil)
		}
		return out
	}
	return v
}

// Package drift compares freshly rendered files with the copies on disk and
// reports the ones that are out of date.
package drift

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/standards/internal/render"
)

// Status classifies a drifted file.
type Status string

const (
	// StatusStale marks a file whose content differs from what would be generated.
	StatusStale Status = "stale"
	// StatusMissing marks a file that would be generated but does not exist.
	StatusMissing Status = "missing"
	// StatusOrphan marks a generated file that no input produces any more.
	StatusOrphan Status = "orphan"
)

// Entry is one drifted file.
type Entry struct {
	Path   string `json:"path"`
	Status Status `json:"status"`
	Diff   string `json:"diff,omitempty"`
}

// Report is the result of a drift check.
type Report struct {
	Checked int     `json:"checked"`
	Entries []Entry `json:"entries"`
}

// Clean reports whether nothing drifted.
func (r *Report) Clean() bool {
	return len(r.Entries) == 0
}

// Check compares expected, with paths relative to outDir, against disk.
// Files under the given subdirectories of outDir that carry the generated
// marker but are not expected are reported as orphans; hand-written files
// are left alone.
func Check(outDir string, expected []render.File, dirs ...string) (*Report, error) {
	r := &Report{Checked: len(expected)}
	want := make(map[string]bool, len(expected))

	for _, f := range expected {
		want[f.Path] = true
		got, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(f.Path)))
		if err != nil {
			if os.IsNotExist(err) {
				r.Entries = append(r.Entries, Entry{Path: f.Path, Status: StatusMissing})
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", f.Path, err)
		}
		if bytes.Equal(got, f.Content) {
			continue
		}
		r.Entries = append(r.Entries, Entry{
			Path:   f.Path,
			Status: StatusStale,
			Diff:   Diff(string(got), string(f.Content)),
		})
	}

	for _, dir := range dirs {
		orphans, err := findOrphans(outDir, dir, want)
		if err != nil {
			return nil, err
		}
		r.Entries = append(r.Entries, orphans...)
	}

	sort.SliceStable(r.Entries, func(i, j int) bool { return r.Entries[i].Path < r.Entries[j].Path })
	return r, nil
}

func findOrphans(outDir, dir string, want map[string]bool) ([]Entry, error) {
	var out []Entry
	root := filepath.Join(outDir, filepath.FromSlash(dir))
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(outDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if want[rel] {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if render.IsGenerated(data) {
			out = append(out, Entry{Path: path.Clean(rel), Status: StatusOrphan})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return out, nil
}

// Diff returns a unified-style patch turning got into want. Both sides are
// normalized first so trailing whitespace and CRLF line endings do not show
// up as changes. It returns "" when the normalized texts are equal.
func Diff(got, want string) string {
	got, want = normalize(got), normalize(want)
	if got == want {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(got, want, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.PatchToText(dmp.PatchMake(got, diffs))
}

// normalize trims trailing whitespace from each line and converts CRLF to LF.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// WriteText writes a human-readable summary. With diffs set, stale entries
// include their patch.
func (r *Report) WriteText(w io.Writer, diffs bool) error {
	if r.Clean() {
		_, err := fmt.Fprintf(w, "%d generated files up to date\n", r.Checked)
		return err
	}
	for _, e := range r.Entries {
		if _, err := fmt.Fprintf(w, "%-8s %s\n", e.Status, e.Path); err != nil {
			return err
		}
		if diffs && e.Diff != "" {
			if _, err := io.WriteString(w, e.Diff); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d drifted, %d generated files checked\n", len(r.Entries), r.Checked)
	return err
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	out := *r
	if out.Entries == nil {
		out.Entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Package source reads input documents from disk and discovers them with
// doublestar glob patterns.
package source

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/standards/internal/diag"
)

// File holds a loaded input document with derived metadata.
type File struct {
	Path string // path as given to Load
	Hash string // "sha256:<hex>"
	Raw  []byte
}

// Stem returns the file name without directory or extension,
// e.g. "rulesets/typescript-production.toml" -> "typescript-production".
func (f *File) Stem() string {
	return Stem(f.Path)
}

// Load reads a file from disk and computes its hash.
func Load(p string) (*File, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, diag.New(diag.KindIO, p, err)
	}
	return &File{
		Path: p,
		Hash: Hash(data),
		Raw:  data,
	}, nil
}

// Hash returns the "sha256:<hex>" digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", sum)
}

// Stem strips the directory and the final extension from p.
func Stem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Glob returns the files under dir matching pattern ("**" supported),
// as sorted paths joined onto dir. A missing dir is an error of kind
// diag.KindIO wrapping fs.ErrNotExist.
func Glob(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, diag.New(diag.KindIO, dir, err)
	}
	if !info.IsDir() {
		return nil, diag.New(diag.KindIO, dir, fmt.Errorf("not a directory"))
	}

	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q in %s: %w", pattern, dir, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		st, err := fs.Stat(fsys, m)
		if err != nil || st.IsDir() {
			continue
		}
		out = append(out, filepath.Join(dir, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

// Match reports whether the slash-separated name relative to a discovery
// root matches pattern.
func Match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, path.Clean(filepath.ToSlash(name)))
	return err == nil && ok
}

// LoadAll reads every file under dir matching pattern. Files that cannot be
// read are returned as errors alongside the files that could.
func LoadAll(dir, pattern string) ([]*File, []error, error) {
	paths, err := Glob(dir, pattern)
	if err != nil {
		return nil, nil, err
	}
	files := make([]*File, 0, len(paths))
	var errs []error
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, f)
	}
	return files, errs, nil
}

package render

import (
	"fmt"
	"strings"
)

// Mode selects how a page is wrapped for its destination.
type Mode int

const (
	// ModePlain writes standalone markdown with a generated-file banner.
	ModePlain Mode = iota
	// ModeMkDocs writes MkDocs pages: title heading first, then the banner.
	ModeMkDocs
	// ModeHugo writes Hugo pages with YAML front matter; Hugo supplies the title.
	ModeHugo
)

// String returns the mode's configuration name.
func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeMkDocs:
		return "mkdocs"
	case ModeHugo:
		return "hugo"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode returns the Mode named by s.
// Supported modes: "plain", "mkdocs", "hugo".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain":
		return ModePlain, nil
	case "mkdocs":
		return ModeMkDocs, nil
	case "hugo":
		return ModeHugo, nil
	default:
		return 0, fmt.Errorf("unknown mode %q: supported modes are plain, mkdocs, hugo", s)
	}
}

// Page is a generated markdown document before mode-specific wrapping.
type Page struct {
	Title       string   // "" omits the title heading
	Description string   // front matter only
	Source      string   // input file named in the banner, optional
	Hint        string   // command named in the banner; "" omits the banner
	Weight      int      // front matter only
	Tags        []string // front matter only
	Body        string
}

// Renderer wraps a Page for one output Mode.
type Renderer interface {
	Render(p *Page) ([]byte, error)
}

// NewRenderer returns the Renderer for mode.
func NewRenderer(mode Mode) (Renderer, error) {
	switch mode {
	case ModePlain:
		return &plainRenderer{}, nil
	case ModeMkDocs:
		return &mkdocsRenderer{}, nil
	case ModeHugo:
		return &hugoRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown mode %v: supported modes are plain, mkdocs, hugo", mode)
	}
}

const generatedMarker = "<!-- AUTO-GENERATED — DO NOT EDIT -->"

// banner returns the generated-file comment block, or "" without a hint.
func banner(p *Page) string {
	if p.Hint == "" {
		return ""
	}
	lines := []string{generatedMarker}
	if p.Source != "" {
		lines = append(lines, fmt.Sprintf("<!-- Source: %s -->", p.Source))
	}
	lines = append(lines, fmt.Sprintf("<!-- Run %q to update -->", p.Hint))
	return strings.Join(lines, "\n")
}

// IsGenerated reports whether content carries the generated-file marker.
func IsGenerated(content []byte) bool {
	return strings.Contains(string(content), generatedMarker)
}

// assemble joins the non-empty header blocks with blank lines and appends
// body. The result always ends with a single newline.
func assemble(body string, blocks ...string) []byte {
	var parts []string
	for _, b := range blocks {
		if b != "" {
			parts = append(parts, b)
		}
	}
	body = strings.TrimRight(body, "\n")
	if body != "" {
		parts = append(parts, body)
	}
	if len(parts) == 0 {
		return nil
	}
	return []byte(strings.Join(parts, "\n\n") + "\n")
}

func heading(title string) string {
	if title == "" {
		return ""
	}
	return "# " + title
}

// File is a generated document at a slash-separated path relative to the
// output directory.
type File struct {
	Path    string
	Content []byte
}

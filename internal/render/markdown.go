package render

import (
	"bytes"
	"fmt"
	"text/template"
)

type plainRenderer struct{}

func (r *plainRenderer) Render(p *Page) ([]byte, error) {
	return assemble(p.Body, banner(p), heading(p.Title)), nil
}

type mkdocsRenderer struct{}

func (r *mkdocsRenderer) Render(p *Page) ([]byte, error) {
	return assemble(p.Body, heading(p.Title), banner(p)), nil
}

var profileTemplate = template.Must(template.New("profile").Parse(`<!-- AUTO-GENERATED — DO NOT EDIT -->
<!-- Profile: {{ .Name }} -->
<!-- Run "{{ .Hint }}" to update -->

# {{ .Name }}

{{ .Description }}

---

{{ .Body }}
`))

// ProfileDocument holds the header fields and composed body of a profile.
type ProfileDocument struct {
	Name        string
	Description string
	Hint        string
	Body        string
}

// Render wraps the composed body with the profile banner and title.
func (d *ProfileDocument) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := profileTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("rendering profile: %w", err)
	}
	return buf.Bytes(), nil
}

package render

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type hugoRenderer struct{}

type frontMatter struct {
	Title       string   `yaml:"title,omitempty"`
	LinkTitle   string   `yaml:"linkTitle,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Weight      int      `yaml:"weight,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

func (r *hugoRenderer) Render(p *Page) ([]byte, error) {
	fm, err := yaml.Marshal(frontMatter{
		Title:       p.Title,
		LinkTitle:   p.Title,
		Description: p.Description,
		Weight:      p.Weight,
		Tags:        p.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering front matter: %w", err)
	}
	return assemble(p.Body, "---\n"+string(fm)+"---", banner(p)), nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package label

import (
	"fmt"
	"os"
	"regexp"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/manim-dataset/pkg/types"
)

// Category is a named subject area defined by regex patterns.
type Category struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`

	compiled []*regexp.Regexp
}

// Table is an ordered list of categories. Order decides which category
// claims an expression that several would match.
type Table struct {
	Categories []Category `yaml:"categories"`
}

// DefaultTable returns the built-in category table.
func DefaultTable() *Table {
	t := &Table{Categories: []Category{
		{Name: "calculus", Patterns: []string{`\\int`, `\\sum`, `\\lim`, `d[fx]`, `\\nabla`, `\\partial`}},
		{Name: "linear_algebra", Patterns: []string{`\\begin\{bmatrix\}`, `\\vec`, `\\matrix`, `\\det`, `\\Rightarrow`}},
		{Name: "geometry", Patterns: []string{`\\triangle`, `\\angle`, `\\circle`, `\\perp`, `\\parallel`}},
		{Name: "complex_analysis", Patterns: []string{`\\mathds\{C\}`, `\\arg`, `z`, `\\overline\{z\}`, `e\\^\{i\}`}},
		{Name: "trigonometry", Patterns: []string{`\\sin`, `\\cos`, `\\tan`, `\\theta`, `\\pi`}},
		{Name: "probability", Patterns: []string{`P\\`, `\\mathbb\{E\}`, `\\mathbb\{P\}`, `\\sigma`, `\\mu`}},
		{Name: "combinatorics", Patterns: []string{`\\binom`, `\\choose`, `n!`, `\\mathcal\{P\}`}},
	}}
	// The built-in patterns are known to compile.
	_ = t.compile()
	return t
}

// LoadTable reads a category table from a YAML file of the form
//
//	categories:
//	  - name: calculus
//	    patterns: ['\\int', '\\sum']
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading category table %s: %w", path, err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing category table %s: %w", path, err)
	}
	if len(t.Categories) == 0 {
		return nil, fmt.Errorf("category table %s defines no categories", path)
	}
	if err := t.compile(); err != nil {
		return nil, fmt.Errorf("category table %s: %w", path, err)
	}
	return &t, nil
}

// TableFor returns the table named by cfg, or the default table.
func TableFor(cfg types.LabelConfig) (*Table, error) {
	if cfg.CategoriesFile == "" {
		return DefaultTable(), nil
	}
	return LoadTable(cfg.CategoriesFile)
}

func (t *Table) compile() error {
	for i := range t.Categories {
		c := &t.Categories[i]
		if c.Name == "" || c.Name == types.OtherCategory {
			return fmt.Errorf("invalid category name %q", c.Name)
		}
		c.compiled = c.compiled[:0]
		for _, p := range c.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("category %s: pattern %q: %w", c.Name, p, err)
			}
			c.compiled = append(c.compiled, re)
		}
	}
	return nil
}

// Classify returns the first category with a pattern matching expr, or
// the other category.
func (t *Table) Classify(expr string) string {
	for _, c := range t.Categories {
		for _, re := range c.compiled {
			if re.MatchString(expr) {
				return c.Name
			}
		}
	}
	return types.OtherCategory
}

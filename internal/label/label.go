// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package label adds math labels to scene records: the expressions passed
// to math text constructors, their subject categories, comment lines that
// name a concept, and a primary domain.
package label

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/manim-dataset/internal/analyze"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

// MathDatasetFile is the default name of the labeled document.
const MathDatasetFile = "manim_math_dataset.json"

var (
	expressionPattern = regexp.MustCompile(`(?:MathTex|Tex)\s*\(\s*r?['"]([^'"]+)['"]`)
	commentPattern    = regexp.MustCompile(`(?m)#\s*(.+)$`)
)

var conceptKeywords = []string{"concept", "theorem", "lemma", "property", "rule", "law", "identity", "formula"}

// Expressions returns the first string argument of every MathTex or Tex
// call in src, trimmed, skipping empty ones.
func Expressions(src string) []string {
	out := []string{}
	for _, m := range expressionPattern.FindAllStringSubmatch(src, -1) {
		if expr := strings.TrimSpace(m[1]); expr != "" {
			out = append(out, expr)
		}
	}
	return out
}

// Categorize assigns each expression to the first matching category of
// table. Only categories that received an expression appear in the result.
// order lists those categories by their first expression in exprs.
func Categorize(exprs []string, table *Table) (cats map[string][]string, order []string) {
	cats = map[string][]string{}
	for _, e := range exprs {
		name := table.Classify(e)
		if _, ok := cats[name]; !ok {
			order = append(order, name)
		}
		cats[name] = append(cats[name], e)
	}
	return cats, order
}

// Concepts returns the comment lines of src that mention a concept keyword.
func Concepts(src string) []string {
	out := []string{}
	for _, m := range commentPattern.FindAllStringSubmatch(src, -1) {
		comment := m[1]
		lower := strings.ToLower(comment)
		for _, kw := range conceptKeywords {
			if strings.Contains(lower, kw) {
				out = append(out, strings.TrimSpace(comment))
				break
			}
		}
	}
	return out
}

// PrimaryDomain returns the category with the most expressions, ignoring
// the other bucket. Ties go to the category that appears first in order.
// It returns the other category when only unmatched expressions exist and
// the empty string when there are none.
func PrimaryDomain(cats map[string][]string, order []string) string {
	best, bestN := "", 0
	for _, name := range order {
		n := len(cats[name])
		if name == types.OtherCategory || n <= bestN {
			continue
		}
		best, bestN = name, n
	}
	if best != "" {
		return best
	}
	if len(cats[types.OtherCategory]) > 0 {
		return types.OtherCategory
	}
	return ""
}

// Labels computes the math labels of one scene's source code.
func Labels(src string, table *Table) *types.MathLabels {
	exprs := Expressions(src)
	cats, order := Categorize(exprs, table)
	return &types.MathLabels{
		Expressions:   exprs,
		Categories:    cats,
		Concepts:      Concepts(src),
		PrimaryDomain: PrimaryDomain(cats, order),
	}
}

// Enhance reads the scene document at in, adds a math_labels field to every
// record, and writes the result to out. Fields it does not know about,
// such as the matched video of a merged document, are carried through.
func Enhance(in, out string, table *Table, w io.Writer) (int, error) {
	var records []map[string]json.RawMessage
	if err := analyze.ReadJSON(in, &records); err != nil {
		return 0, err
	}

	for i, rec := range records {
		var src, name string
		if raw, ok := rec["source_code"]; ok {
			if err := json.Unmarshal(raw, &src); err != nil {
				return 0, fmt.Errorf("record %d: source_code: %w", i, err)
			}
		}
		if raw, ok := rec["scene_name"]; ok {
			_ = json.Unmarshal(raw, &name)
		}

		labels := Labels(src, table)
		data, err := json.Marshal(labels)
		if err != nil {
			return 0, fmt.Errorf("record %d: encoding labels: %w", i, err)
		}
		rec["math_labels"] = data

		domain := labels.PrimaryDomain
		if domain == "" {
			domain = "-"
		}
		fmt.Fprintf(w, "labeled: %s (%d expressions, domain %s)\n", name, len(labels.Expressions), domain)
	}

	if records == nil {
		records = []map[string]json.RawMessage{}
	}
	if err := analyze.WriteJSON(out, records); err != nil {
		return 0, err
	}
	fmt.Fprintf(w, "\nLabeled %d scenes, saved to %s\n", len(records), out)
	return len(records), nil
}

// ReadLabeled loads a labeled scene document.
func ReadLabeled(path string) ([]types.LabeledScene, error) {
	var scenes []types.LabeledScene
	if err := analyze.ReadJSON(path, &scenes); err != nil {
		return nil, err
	}
	return scenes, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OtherCategory collects expressions no category pattern matched.
const OtherCategory = "other"

// UnknownDomain is written to the ML metadata when a scene has no labels.
const UnknownDomain = "unknown"

// MathLabels holds the math-specific labels of a scene.
type MathLabels struct {
	// Expressions lists the expression strings in source order.
	Expressions []string `json:"expressions" yaml:"expressions"`

	// Categories maps a category name to the expressions assigned to it.
	Categories map[string][]string `json:"categories" yaml:"categories"`

	// Concepts lists comment lines that name a mathematical concept.
	Concepts []string `json:"concepts" yaml:"concepts"`

	// PrimaryDomain is the category with the most expressions. It is empty
	// when the scene has no expressions at all.
	PrimaryDomain string `json:"primary_domain,omitempty" yaml:"primary_domain,omitempty"`
}

// LabeledScene is a Scene record enriched with math labels. It is also the
// input shape of the dataset stage, whose steps may carry frames.
type LabeledScene struct {
	File       string                `json:"file,omitempty" yaml:"file,omitempty"`
	SceneName  string                `json:"scene_name" yaml:"scene_name"`
	SourceCode string                `json:"source_code" yaml:"source_code"`
	Objects    map[string]ObjectInfo `json:"objects" yaml:"objects"`
	Animations []PlayCall            `json:"animations" yaml:"animations"`
	Steps      []Step                `json:"steps" yaml:"steps"`
	MathLabels *MathLabels           `json:"math_labels,omitempty" yaml:"math_labels,omitempty"`
}

// Domain returns the primary domain, or UnknownDomain when the scene was
// never labeled or has no expressions.
func (s LabeledScene) Domain() string {
	if s.MathLabels == nil || s.MathLabels.PrimaryDomain == "" {
		return UnknownDomain
	}
	return s.MathLabels.PrimaryDomain
}

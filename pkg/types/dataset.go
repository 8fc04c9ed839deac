// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ImageSize is the edge length of the square images kept in the image store.
const ImageSize = 224

// ImageChannels is the channel count of stored images (RGB).
const ImageChannels = 3

// Metadata is the column-oriented ML dataset document (metadata.json).
// Every slice has one entry per scene, in input order.
type Metadata struct {
	// BuildID identifies the dataset build that produced this document.
	BuildID string `json:"build_id" yaml:"build_id"`

	CodeSnippets       []string     `json:"code_snippets" yaml:"code_snippets"`
	AnimationSequences [][]PlayCall `json:"animation_sequences" yaml:"animation_sequences"`
	MathExpressions    [][]string   `json:"math_expressions" yaml:"math_expressions"`
	Domains            []string     `json:"domains" yaml:"domains"`

	// FramePaths holds one key frame per step that had frames.
	FramePaths [][]string `json:"frame_paths" yaml:"frame_paths"`
}

// Len returns the number of samples in the document.
func (m Metadata) Len() int { return len(m.CodeSnippets) }

// Splits holds train, validation, and test sample indices (data_splits.json).
type Splits struct {
	Train      []int `json:"train" yaml:"train"`
	Validation []int `json:"validation" yaml:"validation"`
	Test       []int `json:"test" yaml:"test"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the manim-dataset pipeline.
// Records flow between stages as JSON documents on disk: analyze produces
// Scene records, frames and label enrich them, and dataset consumes the
// labeled form.
package types

import "encoding/json"

// StepType tags a Step as an animation or a pause.
type StepType string

const (
	StepAnimation StepType = "animation"
	StepWait      StepType = "wait"
)

// ObjectAnimationType is the Animation.Type used for bare attribute
// references such as `square.animate` passed to a play call.
const ObjectAnimationType = "object_animation"

// ObjectInfo describes a constructor call assigned to a local name inside
// a scene's construction method.
type ObjectInfo struct {
	// Type is the called name (`Circle`) or the final attribute of a dotted
	// call (`mobject.copy` gives `copy`).
	Type string `json:"type" yaml:"type"`

	// Args holds positional arguments that yielded a literal value. Values
	// that could not be extracted are dropped.
	Args []any `json:"args" yaml:"args"`

	// Kwargs holds keyword arguments that yielded a literal value.
	Kwargs map[string]any `json:"kwargs" yaml:"kwargs"`
}

// Animation is one argument of a play call.
//
// Call arguments (`Write(title)`) fill Type, Args and Kwargs. Attribute
// references (`dot.animate`) set Type to ObjectAnimationType and fill
// Object and Method instead.
type Animation struct {
	Type   string         `json:"type" yaml:"type"`
	Args   []any          `json:"args,omitempty" yaml:"args,omitempty"`
	Kwargs map[string]any `json:"kwargs,omitempty" yaml:"kwargs,omitempty"`
	Object string         `json:"object,omitempty" yaml:"object,omitempty"`
	Method string         `json:"method,omitempty" yaml:"method,omitempty"`
}

// PlayCall is the structured form of a single play trigger call.
type PlayCall struct {
	// Animations lists the recognized animation arguments in argument order.
	Animations []Animation `json:"animations" yaml:"animations"`

	// Kwargs holds keyword arguments of the play call itself (run_time, rate_func).
	Kwargs map[string]any `json:"kwargs" yaml:"kwargs"`
}

// Step is either an animation action or a timed pause. Steps keep source
// order.
type Step struct {
	Type StepType `json:"type" yaml:"type"`

	// Data carries the parsed play call for animation steps.
	Data *PlayCall `json:"data,omitempty" yaml:"data,omitempty"`

	// Duration carries the wait argument for wait steps (1 when omitted,
	// nil when the argument was not a literal). Wait steps always encode
	// the key, as null when nil.
	Duration any `json:"duration,omitempty" yaml:"duration,omitempty"`

	// Frames lists frame image paths assigned to this step by the frames
	// or dataset stage.
	Frames []string `json:"frames,omitempty" yaml:"frames,omitempty"`
}

// IsAnimation reports whether the step is an animation action.
func (s Step) IsAnimation() bool { return s.Type == StepAnimation }

// MarshalJSON encodes the step, keeping "duration" on wait steps even when
// it is null.
func (s Step) MarshalJSON() ([]byte, error) {
	type step Step
	if s.Type != StepWait {
		return json.Marshal(step(s))
	}
	return json.Marshal(struct {
		step
		Duration any `json:"duration"`
	}{step(s), s.Duration})
}

// Scene is the analysis record for one scene class.
type Scene struct {
	// File is the source file the scene was found in.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// SceneName is the class name.
	SceneName string `json:"scene_name" yaml:"scene_name"`

	// SourceCode is the textual class block.
	SourceCode string `json:"source_code" yaml:"source_code"`

	// Objects maps local names to their constructor calls.
	Objects map[string]ObjectInfo `json:"objects" yaml:"objects"`

	// Animations lists every play call in source order.
	Animations []PlayCall `json:"animations" yaml:"animations"`

	// Steps lists animation and wait steps in source order.
	Steps []Step `json:"steps" yaml:"steps"`
}

// NewScene returns an empty Scene with non-nil collections so that JSON
// output always carries `{}` and `[]` rather than null.
func NewScene(name string) *Scene {
	return &Scene{
		SceneName:  name,
		Objects:    map[string]ObjectInfo{},
		Animations: []PlayCall{},
		Steps:      []Step{},
	}
}

// StepCount returns the number of steps of both kinds.
func (s *Scene) StepCount() int { return len(s.Steps) }

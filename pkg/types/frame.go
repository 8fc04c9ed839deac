// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Frame is one sampled video frame written to disk.
type Frame struct {
	// FrameIndex is the zero-based index of the frame in the source video.
	FrameIndex int `json:"frame_index" yaml:"frame_index"`

	// Timestamp is FrameIndex divided by the source frame rate, in seconds.
	Timestamp float64 `json:"timestamp" yaml:"timestamp"`

	// Path is the image file the frame was written to.
	Path string `json:"path" yaml:"path"`
}

// VideoInfo holds the probed properties of a video file.
type VideoInfo struct {
	Path       string  `json:"path" yaml:"path"`
	Width      int     `json:"width" yaml:"width"`
	Height     int     `json:"height" yaml:"height"`
	FPS        float64 `json:"fps" yaml:"fps"`
	FrameCount int     `json:"frame_count" yaml:"frame_count"`
	Duration   float64 `json:"duration" yaml:"duration"`
}

// VideoMeta records what the directory layout says about a discovered video.
type VideoMeta struct {
	Path     string `json:"path" yaml:"path"`
	Filename string `json:"filename" yaml:"filename"`

	// PotentialScene is the nearest ancestor directory name that looks like
	// a scene name, or empty when none qualifies.
	PotentialScene string `json:"potential_scene,omitempty" yaml:"potential_scene,omitempty"`

	// UniqueID is an identifier-looking token found in the filename.
	UniqueID string `json:"unique_id,omitempty" yaml:"unique_id,omitempty"`
}

// MergedScene is a Scene whose steps carry frame paths. The frames stage
// writes a list of these; SourceFile is dropped like in the merged output
// of the original pipeline.
type MergedScene struct {
	SceneName  string                `json:"scene_name" yaml:"scene_name"`
	SourceCode string                `json:"source_code" yaml:"source_code"`
	Objects    map[string]ObjectInfo `json:"objects" yaml:"objects"`
	Animations []PlayCall            `json:"animations" yaml:"animations"`
	Steps      []Step                `json:"steps" yaml:"steps"`

	// Video is the matched video path, empty when no video matched.
	Video string `json:"video,omitempty" yaml:"video,omitempty"`

	// Frames is kept for document compatibility and is always empty; frames
	// live on the steps.
	Frames []string `json:"frames" yaml:"frames"`
}

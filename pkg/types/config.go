package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "manim-dataset/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AnalyzeConfig holds settings for the source analysis stage.
type AnalyzeConfig struct {
	// SceneMarker is the substring a base class name must contain for the
	// class to count as a scene (default "Scene").
	SceneMarker string `json:"scene_marker" yaml:"scene_marker"`

	// ConstructMethod is the scene method whose body is analyzed
	// (default "construct").
	ConstructMethod string `json:"construct_method" yaml:"construct_method"`

	// PlayMethod and WaitMethod are the self-method names recognized as
	// animation and wait triggers (defaults "play" and "wait").
	PlayMethod string `json:"play_method" yaml:"play_method"`
	WaitMethod string `json:"wait_method" yaml:"wait_method"`
}

// WithDefaults fills unset fields with the default markers.
func (c AnalyzeConfig) WithDefaults() AnalyzeConfig {
	if c.SceneMarker == "" {
		c.SceneMarker = "Scene"
	}
	if c.ConstructMethod == "" {
		c.ConstructMethod = "construct"
	}
	if c.PlayMethod == "" {
		c.PlayMethod = "play"
	}
	if c.WaitMethod == "" {
		c.WaitMethod = "wait"
	}
	return c
}

// FramesConfig holds settings for the frame extraction stage.
type FramesConfig struct {
	// Fraction is the number of frames sampled per second of video
	// (default 1). The sampling interval is int(fps / Fraction).
	Fraction float64 `json:"fraction" yaml:"fraction"`

	// Workers bounds how many videos are extracted at once. 1 keeps the
	// run sequential; 0 uses one worker per physical CPU.
	Workers int `json:"workers" yaml:"workers"`

	// MinScore is the minimum scene-to-video match score (default 10).
	MinScore int `json:"min_score" yaml:"min_score"`

	// JPEGQuality is the quality used for written frames (default 95).
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`
}

// LabelConfig holds settings for the math labeling stage.
type LabelConfig struct {
	// CategoriesFile optionally replaces the built-in category table with a
	// YAML file.
	CategoriesFile string `json:"categories_file,omitempty" yaml:"categories_file,omitempty"`
}

// DatasetConfig holds settings for the dataset assembly stage.
type DatasetConfig struct {
	// OutputDir receives metadata.json, image_data.db, and data_splits.json.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// SearchDirs lists the roots searched for frames_* directories. Empty
	// selects the default search list relative to the input document.
	SearchDirs []string `json:"search_dirs,omitempty" yaml:"search_dirs,omitempty"`

	// MinScore is the minimum scene-to-frame-directory match score (default 10).
	MinScore int `json:"min_score" yaml:"min_score"`

	// Seed seeds the split shuffle. 0 picks a time-based seed.
	Seed int64 `json:"seed" yaml:"seed"`
}

// RenderQuality names a render quality preset.
type RenderQuality string

const (
	QualityLow    RenderQuality = "low_quality"
	QualityMedium RenderQuality = "medium_quality"
	QualityHigh   RenderQuality = "high_quality"
)

// Valid reports whether q is one of the known presets.
func (q RenderQuality) Valid() bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh:
		return true
	}
	return false
}

// RenderConfig holds settings for the remote render client.
type RenderConfig struct {
	HTTPConfig `yaml:",inline"`

	// SpaceURL is the render endpoint (…/api/predict).
	SpaceURL string `json:"space_url" yaml:"space_url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Quality selects the render preset (default medium_quality).
	Quality RenderQuality `json:"quality" yaml:"quality"`

	// OutputDir receives rendered videos (default "renders").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Retries is how many times a busy endpoint (429 or 503) is retried.
	// 0 sends each request once.
	Retries int `json:"retries,omitempty" yaml:"retries,omitempty"`
}

// RenderBackend selects how the serve endpoint runs the renderer.
type RenderBackend string

const (
	BackendLocal     RenderBackend = "local"
	BackendContainer RenderBackend = "container"
)

// ServeConfig holds settings for the render endpoint.
type ServeConfig struct {
	// Addr is the listen address (default ":7860").
	Addr string `json:"addr" yaml:"addr"`

	// Backend selects local or container rendering.
	Backend RenderBackend `json:"backend" yaml:"backend"`

	// Binary is the renderer executable for the local backend (default "manim").
	Binary string `json:"binary" yaml:"binary"`

	// Image is the container image for the container backend.
	Image string `json:"image" yaml:"image"`

	// RenderTimeout bounds a single render.
	RenderTimeout time.Duration `json:"render_timeout" yaml:"render_timeout"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Analyze AnalyzeConfig `json:"analyze" yaml:"analyze"`
	Frames  FramesConfig  `json:"frames" yaml:"frames"`
	Label   LabelConfig   `json:"label" yaml:"label"`
	Dataset DatasetConfig `json:"dataset" yaml:"dataset"`
	Render  RenderConfig  `json:"render" yaml:"render"`
	Serve   ServeConfig   `json:"serve" yaml:"serve"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render submits animation projects to a remote render endpoint
// and serves that endpoint. The client zips a project directory, posts it
// as base64 together with the main file, scene, and quality, and saves the
// returned video. The server unpacks the same payload, runs the renderer
// locally or in a container, and answers with the video as base64.
package render

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/manim-dataset/internal/httputil"
	"github.com/pdiddy/manim-dataset/internal/logging"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

const (
	// DefaultOutputDir receives rendered videos when no directory is set.
	DefaultOutputDir = "renders"

	// DefaultTimeout bounds one render request.
	DefaultTimeout = 10 * time.Minute

	// Placeholder marks an endpoint URL that was never configured.
	Placeholder = "YOUR_USERNAME"

	// StatusSuccess and StatusError are the first element of a response's
	// data array.
	StatusSuccess = "success"
	StatusError   = "error"

	// RequestIDHeader carries the per-render request ID.
	RequestIDHeader = "X-Request-ID"

	timestampLayout = "20060102-150405"
	maxErrorBody    = 500
)

// projectExtensions lists the files shipped with a project besides Python
// sources.
var projectExtensions = []string{".png", ".jpg", ".jpeg", ".svg", ".csv", ".json", ".txt"}

var (
	// ErrPlaceholderURL is returned when the endpoint URL still holds the
	// template user name.
	ErrPlaceholderURL = errors.New("render endpoint URL contains the " + Placeholder + " placeholder; set render.space_url or the hf-space-url secret to your own endpoint")

	// ErrNoPython is returned when a project holds no Python files.
	ErrNoPython = errors.New("no Python files found")

	// ErrInvalidResponse is returned when the response body does not carry
	// a status and payload.
	ErrInvalidResponse = errors.New("invalid response from render endpoint")
)

// HTTPError is returned when the endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("render endpoint returned HTTP %d", e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if hint := e.Hint(); hint != "" {
		msg += "\n" + hint
	}
	return msg
}

// Hint explains the likely cause of common failure statuses.
func (e *HTTPError) Hint() string {
	switch e.StatusCode {
	case http.StatusNotFound:
		return "The endpoint URL was not found. Check that the render endpoint is deployed and that the configured URL points at its /api/predict route."
	case http.StatusUnauthorized, http.StatusForbidden:
		return "Authentication failed. The API key may be invalid or missing; set render.api_key or the hf-api-key secret."
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return "The render took too long. Try a simpler scene or a lower quality setting."
	}
	return ""
}

// Job describes one render submission.
type Job struct {
	// ProjectDir holds the scene sources and their support files.
	ProjectDir string

	// Scene is the scene class to render.
	Scene string

	// Quality defaults to the client's configured quality.
	Quality types.RenderQuality

	// OutputDir defaults to the client's configured directory.
	OutputDir string

	// MainFile is the project-relative script to run. Empty selects the
	// first Python file found.
	MainFile string
}

// ProjectFile is one file shipped in a project archive.
type ProjectFile struct {
	Name string
	Data []byte
}

// Client posts render jobs to a remote endpoint.
type Client struct {
	url       string
	apiKey    string
	quality   types.RenderQuality
	outputDir string
	userAgent string
	retries   int
	http      *http.Client
	logger    zerolog.Logger
	now       func() time.Time
}

// NewClient returns a client for the endpoint in cfg.
func NewClient(cfg types.RenderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	quality := cfg.Quality
	if !quality.Valid() {
		quality = types.QualityMedium
	}
	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = DefaultOutputDir
	}
	return &Client{
		url:       cfg.SpaceURL,
		apiKey:    cfg.APIKey,
		quality:   quality,
		outputDir: outDir,
		userAgent: cfg.UserAgent,
		retries:   cfg.Retries,
		http:      &http.Client{Timeout: timeout},
		logger:    logging.WithComponent("render-client"),
		now:       time.Now,
	}
}

// CollectFiles returns the Python sources under dir followed by its
// support files, with slash-separated paths relative to dir.
func CollectFiles(dir string) ([]ProjectFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("project directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project directory %s is not a directory", dir)
	}

	var sources, support []ProjectFile
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		isSource := ext == ".py"
		if !isSource && !isProjectExtension(ext) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		f := ProjectFile{Name: filepath.ToSlash(rel), Data: data}
		if isSource {
			sources = append(sources, f)
		} else {
			support = append(support, f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting project files: %w", err)
	}
	return append(sources, support...), nil
}

func isProjectExtension(ext string) bool {
	for _, e := range projectExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ZipFiles packs files into a deflate-compressed zip archive.
func ZipFiles(files []ProjectFile) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("adding %s to archive: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("writing %s to archive: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// project is a zipped, encoded project ready for submission.
type project struct {
	encoded  string
	mainFile string
	files    int
}

func (c *Client) prepare(dir, mainFile string) (*project, error) {
	files, err := CollectFiles(dir)
	if err != nil {
		return nil, err
	}
	if mainFile == "" {
		for _, f := range files {
			if strings.HasSuffix(f.Name, ".py") {
				mainFile = f.Name
				break
			}
		}
		if mainFile == "" {
			return nil, fmt.Errorf("%w in %s", ErrNoPython, dir)
		}
		c.logger.Info().Str("main_file", mainFile).Msg("using first Python file as main file")
	}
	data, err := ZipFiles(files)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("dir", dir).Int("files", len(files)).Int("bytes", len(data)).Msg("prepared project")
	return &project{
		encoded:  base64.StdEncoding.EncodeToString(data),
		mainFile: mainFile,
		files:    len(files),
	}, nil
}

// Render submits job and writes the returned video to
// <output dir>/<scene>_<YYYYMMDD-HHMMSS>.mp4, returning its path.
func (c *Client) Render(ctx context.Context, job Job) (string, error) {
	if err := c.checkURL(); err != nil {
		return "", err
	}
	p, err := c.prepare(job.ProjectDir, job.MainFile)
	if err != nil {
		return "", err
	}
	return c.submit(ctx, p, job)
}

// BatchResult summarizes a batch render.
type BatchResult struct {
	Rendered int
	Failed   int
}

// Total returns the number of scenes attempted.
func (r BatchResult) Total() int {
	return r.Rendered + r.Failed
}

// HasFailures reports whether any scene failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// RenderBatch renders each scene of the project in job. A failed scene is
// logged and skipped. The project is packed once for the whole batch.
func (c *Client) RenderBatch(ctx context.Context, job Job, scenes []string, w io.Writer) ([]string, BatchResult, error) {
	var result BatchResult
	if err := c.checkURL(); err != nil {
		return nil, result, err
	}
	p, err := c.prepare(job.ProjectDir, job.MainFile)
	if err != nil {
		return nil, result, err
	}

	var paths []string
	for _, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return paths, result, err
		}
		fmt.Fprintf(w, "processing: %s\n", scene)
		j := job
		j.Scene = scene
		path, err := c.submit(ctx, p, j)
		if err != nil {
			c.logger.Error().Err(err).Str("scene", scene).Msg("render failed")
			fmt.Fprintf(w, "failed:  %s (%v)\n", scene, err)
			result.Failed++
			continue
		}
		paths = append(paths, path)
		result.Rendered++
	}

	fmt.Fprintf(w, "\nBatch summary: %d rendered, %d failed (of %d)\n",
		result.Rendered, result.Failed, result.Total())
	return paths, result, nil
}

func (c *Client) checkURL() error {
	if c.url == "" {
		return errors.New("render endpoint URL is not set; set render.space_url or the hf-space-url secret")
	}
	if strings.Contains(c.url, Placeholder) {
		return ErrPlaceholderURL
	}
	return nil
}

// predictRequest is the endpoint's positional input list:
// zipped project, main file, scene name, quality.
type predictRequest struct {
	Data []string `json:"data"`
}

func (c *Client) submit(ctx context.Context, p *project, job Job) (string, error) {
	quality := job.Quality
	if quality == "" {
		quality = c.quality
	}
	outDir := job.OutputDir
	if outDir == "" {
		outDir = c.outputDir
	}

	body, err := json.Marshal(predictRequest{Data: []string{p.encoded, p.mainFile, job.Scene, string(quality)}})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logger := c.logger.With().Str("request_id", requestID).Str("scene", job.Scene).Logger()
	logger.Info().Str("quality", string(quality)).Msg("submitting render job")

	var resp *http.Response
	if c.retries > 0 {
		resp, err = httputil.DoWithRetry(ctx, c.http, req, c.retries)
	} else {
		resp, err = c.http.Do(req)
	}
	if err != nil {
		return "", fmt.Errorf("submitting render job: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(data), maxErrorBody)}
		logger.Error().Int("status", resp.StatusCode).Msg("render endpoint error")
		return "", herr
	}

	video, err := decodeVideo(data)
	if err != nil {
		logger.Error().Err(err).Str("response", truncate(string(data), maxErrorBody)).Msg("processing response")
		return "", err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(outDir, fmt.Sprintf("%s_%s.mp4", job.Scene, c.now().Format(timestampLayout)))
	if err := os.WriteFile(path, video, 0o644); err != nil {
		return "", fmt.Errorf("writing video: %w", err)
	}
	logger.Info().Str("path", path).Int("bytes", len(video)).Msg("saved rendered video")
	return path, nil
}

// decodeVideo extracts the video bytes from a response body of the form
// {"data": [status, payload]}. A top-level "error" key is a failure.
func decodeVideo(body []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if raw, ok := fields["error"]; ok {
		return nil, fmt.Errorf("render endpoint error: %s", rawText(raw))
	}

	var data []string
	if raw, ok := fields["data"]; ok {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}
	if len(data) < 2 {
		return nil, ErrInvalidResponse
	}
	if data[0] != StatusSuccess {
		if data[0] == StatusError && data[1] != "" {
			return nil, fmt.Errorf("rendering failed: %s", data[1])
		}
		return nil, fmt.Errorf("rendering failed: %s", data[0])
	}
	if data[1] == "" {
		return nil, errors.New("no video data received")
	}
	video, err := base64.StdEncoding.DecodeString(data[1])
	if err != nil {
		return nil, fmt.Errorf("decoding video: %w", err)
	}
	return video, nil
}

// rawText renders a JSON value as text, unquoting strings.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

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
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/manim-dataset/internal/logging"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = ":7860"

	// PredictPath is the render route.
	PredictPath = "/api/predict"

	maxRequestBytes = 512 << 20
	maxStderr       = 4000
)

type contextKey string

const requestIDKey contextKey = "request_id"

// predictResponse is the endpoint's output list: status, then the base64
// video or an error message.
type predictResponse struct {
	Data [2]string `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server is the render endpoint.
type Server struct {
	httpServer *http.Server
	renderer   Renderer
	timeout    time.Duration
	logger     zerolog.Logger
	started    time.Time
}

// NewServer returns a server rendering with renderer.
func NewServer(cfg types.ServeConfig, renderer Renderer) *Server {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		renderer: renderer,
		timeout:  cfg.RenderTimeout,
		logger:   logging.WithComponent("render-server"),
		started:  time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Router returns the endpoint's routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Post(PredictPath, s.handlePredict)
	return r
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting render server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight renders up to ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down render server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime_s": int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if len(req.Data) < 3 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected data: [project_zip, main_file, scene_name, quality]"})
		return
	}
	quality := types.QualityMedium
	if len(req.Data) > 3 && req.Data[3] != "" {
		quality = types.RenderQuality(req.Data[3])
	}

	logger := s.logger.With().
		Str("request_id", requestID(r.Context())).
		Str("scene", req.Data[2]).
		Logger()

	status, result := s.render(r.Context(), logger, req.Data[0], req.Data[1], req.Data[2], quality)
	writeJSON(w, http.StatusOK, predictResponse{Data: [2]string{status, result}})
}

// render runs one job and returns the status and either the base64 video
// or an error message.
func (s *Server) render(ctx context.Context, logger zerolog.Logger, projectZip, mainFile, scene string, quality types.RenderQuality) (string, string) {
	if projectZip == "" {
		return StatusError, "No project file provided"
	}

	workDir, err := os.MkdirTemp("", "render-*")
	if err != nil {
		return StatusError, fmt.Sprintf("Unexpected error: %v", err)
	}
	defer os.RemoveAll(workDir)

	n, err := ExtractZip(projectZip, workDir)
	if err != nil {
		return StatusError, fmt.Sprintf("Error extracting zip: %v", err)
	}
	logger.Debug().Int("files", n).Msg("extracted project")

	mainPath, err := safeJoin(workDir, mainFile)
	if err != nil {
		return StatusError, fmt.Sprintf("Main file not found: %s", mainFile)
	}
	if info, err := os.Stat(mainPath); err != nil || info.IsDir() {
		return StatusError, fmt.Sprintf("Main file not found: %s", mainFile)
	}
	if err := os.MkdirAll(filepath.Join(workDir, OutputSubdir), 0o755); err != nil {
		return StatusError, fmt.Sprintf("Unexpected error: %v", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	start := time.Now()
	logger.Info().Str("main_file", mainFile).Str("quality", string(quality)).Msg("rendering")
	if err := s.renderer.Render(ctx, workDir, mainFile, scene, quality, &stdout, &stderr); err != nil {
		logger.Error().Err(err).Str("stdout", stdout.String()).Str("stderr", stderr.String()).Msg("render failed")
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return StatusError, "Error rendering scene: " + truncate(msg, maxStderr)
	}

	video, err := FindVideo(workDir)
	if err != nil {
		return StatusError, "No video file was generated"
	}
	data, err := os.ReadFile(video)
	if err != nil {
		return StatusError, fmt.Sprintf("Unexpected error: %v", err)
	}
	logger.Info().Dur("elapsed", time.Since(start)).Int("bytes", len(data)).Msg("render complete")
	return StatusSuccess, base64.StdEncoding.EncodeToString(data)
}

// ExtractZip decodes a base64 zip archive into dir and returns the number
// of files written. Entries that would land outside dir are rejected.
func ExtractZip(encoded, dir string) (int, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return 0, fmt.Errorf("decoding archive: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("reading archive: %w", err)
	}

	n := 0
	for _, f := range zr.File {
		target, err := safeJoin(dir, f.Name)
		if err != nil {
			return n, err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return n, err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return out.Close()
}

// safeJoin joins a slash-separated archive path onto dir, refusing paths
// that escape it.
func safeJoin(dir, name string) (string, error) {
	if name == "" || filepath.IsAbs(filepath.FromSlash(name)) {
		return "", fmt.Errorf("illegal path %q", name)
	}
	target := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal path %q", name)
	}
	return target, nil
}

// FindVideo returns the first .mp4 in workDir/output, or failing that the
// first one anywhere below workDir outside partial movie directories.
func FindVideo(workDir string) (string, error) {
	matches, _ := filepath.Glob(filepath.Join(workDir, OutputSubdir, "*.mp4"))
	if len(matches) > 0 {
		sort.Strings(matches)
		return matches[0], nil
	}

	var found string
	err := filepath.WalkDir(workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == "partial_movie_files" {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".mp4") {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", errors.New("no video file was generated")
	}
	return found, nil
}

// requestIDMiddleware propagates the caller's request ID, or assigns one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("request_id", requestID(r.Context())).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path"

	"github.com/pdiddy/manim-dataset/internal/container"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

const (
	// DefaultBinary is the renderer executable.
	DefaultBinary = "manim"

	// DefaultImage is the container image used by the container backend.
	DefaultImage = "manimcommunity/manim:stable"

	// OutputSubdir is the directory, relative to the job directory, that
	// receives the rendered video.
	OutputSubdir = "output"

	// VideoName is the requested output file name.
	VideoName = "video.mp4"

	// containerWorkdir is where the job directory is mounted.
	containerWorkdir = "/manim"
)

// Renderer renders one scene of an unpacked project. workDir holds the
// project; mainFile is relative to it. The video is expected under
// workDir/output or anywhere below workDir.
type Renderer interface {
	Render(ctx context.Context, workDir, mainFile, scene string, quality types.RenderQuality, stdout, stderr io.Writer) error
}

// QualityFlag maps a quality preset to the renderer's command-line flag.
// Unknown presets render at medium quality.
func QualityFlag(q types.RenderQuality) string {
	switch q {
	case types.QualityLow:
		return "-ql"
	case types.QualityHigh:
		return "-qh"
	default:
		return "-qm"
	}
}

// Args returns the renderer arguments for one scene.
func Args(mainFile, scene string, quality types.RenderQuality, output string) []string {
	return []string{QualityFlag(quality), "-o", output, mainFile, scene}
}

// LocalRenderer runs an installed renderer binary.
type LocalRenderer struct {
	Binary string
}

// Render runs the binary with workDir as its working directory.
func (r *LocalRenderer) Render(ctx context.Context, workDir, mainFile, scene string, quality types.RenderQuality, stdout, stderr io.Writer) error {
	bin := r.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	output := path.Join(OutputSubdir, VideoName)
	cmd := exec.CommandContext(ctx, bin, Args(mainFile, scene, quality, output)...)
	cmd.Dir = workDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", bin, err)
	}
	return nil
}

// ContainerRenderer runs the renderer inside a container with the job
// directory mounted at /manim.
type ContainerRenderer struct {
	Runtime container.Runtime
	Image   string
	Binary  string
}

// NewContainerRenderer detects a container runtime and checks that image
// is available locally.
func NewContainerRenderer(image, binary string) (*ContainerRenderer, error) {
	rt, err := container.DetectRuntime()
	if err != nil {
		return nil, err
	}
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, err
	}
	return &ContainerRenderer{Runtime: rt, Image: image, Binary: binary}, nil
}

// Render runs the renderer in a fresh container.
func (r *ContainerRenderer) Render(ctx context.Context, workDir, mainFile, scene string, quality types.RenderQuality, stdout, stderr io.Writer) error {
	bin := r.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	image := r.Image
	if image == "" {
		image = DefaultImage
	}
	output := path.Join(containerWorkdir, OutputSubdir, VideoName)
	spec := container.RunSpec{
		Image:   image,
		Mounts:  []container.Mount{{Host: workDir, Container: containerWorkdir}},
		Workdir: containerWorkdir,
		Args:    append([]string{bin}, Args(mainFile, scene, quality, output)...),
	}
	return r.Runtime.Run(ctx, spec, stdout, stderr)
}

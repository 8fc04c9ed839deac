// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manim-dataset/internal/container"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

type fakeRuntime struct {
	spec container.RunSpec
	err  error
}

func (f *fakeRuntime) Name() string { return "fake" }
func (f *fakeRuntime) Available() bool { return true }
func (f *fakeRuntime) ImageExists(image string) error { return nil }
func (f *fakeRuntime) Run(_ context.Context, spec container.RunSpec, _, _ io.Writer) error {
	f.spec = spec
	return f.err
}

func TestQualityFlag(t *testing.T) {
	tests := []struct {
		quality types.RenderQuality
		want    string
	}{
		{types.QualityLow, "-ql"},
		{types.QualityMedium, "-qm"},
		{types.QualityHigh, "-qh"},
		{"ultra", "-qm"},
		{"", "-qm"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QualityFlag(tt.quality), string(tt.quality))
	}
}

func TestArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"-qh", "-o", "output/video.mp4", "scenes/main.py", "TrigScene"},
		Args("scenes/main.py", "TrigScene", types.QualityHigh, "output/video.mp4"))
}

func TestContainerRenderer(t *testing.T) {
	rt := &fakeRuntime{}
	r := &ContainerRenderer{Runtime: rt}

	err := r.Render(context.Background(), "/tmp/render-1", "main.py", "TrigScene", types.QualityLow, io.Discard, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, DefaultImage, rt.spec.Image)
	assert.Equal(t, "/manim", rt.spec.Workdir)
	assert.Equal(t, []container.Mount{{Host: "/tmp/render-1", Container: "/manim"}}, rt.spec.Mounts)
	assert.Equal(t, []string{"manim", "-ql", "-o", "/manim/output/video.mp4", "main.py", "TrigScene"}, rt.spec.Args)
}

func TestContainerRendererPropagatesFailure(t *testing.T) {
	r := &ContainerRenderer{Runtime: &fakeRuntime{err: errors.New("exit 1")}, Image: "custom:latest"}
	err := r.Render(context.Background(), t.TempDir(), "main.py", "S", types.QualityMedium, io.Discard, io.Discard)
	assert.Error(t, err)
}

func TestLocalRendererMissingBinary(t *testing.T) {
	r := &LocalRenderer{Binary: "manim-binary-that-does-not-exist"}
	err := r.Render(context.Background(), t.TempDir(), "main.py", "S", types.QualityMedium, io.Discard, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running manim-binary-that-does-not-exist")
}

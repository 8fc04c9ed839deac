// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manim-dataset/pkg/types"
)

const trigScript = `from manim import *

class Helper:
    def construct(self):
        self.play(Write(ignored))

class TrigScene(Scene):
    def construct(self):
        title = Text("Hello", font_size=48)
        circle = Circle(radius=2, color=BLUE)
        # draw the title
        self.play(Write(title), run_time=2)
        self.wait()
        self.play(circle.animate, Create(circle))
        if True:
            self.wait(0.5)
        for i in range(3):
            self.play(FadeOut(title))

    def helper(self):
        self.play(Write(title))

class Plain(Base):
    def construct(self):
        self.play(Write(y))
`

func TestParseSourceStepsFollowTriggerCalls(t *testing.T) {
	res, err := ParseSource([]byte(trigScript), types.AnalyzeConfig{})
	require.NoError(t, err)
	require.Equal(t, []string{"TrigScene"}, res.Order)

	scene := res.Scenes["TrigScene"]
	require.NotNil(t, scene)

	var kinds []types.StepType
	for _, s := range scene.Steps {
		kinds = append(kinds, s.Type)
	}
	assert.Equal(t, []types.StepType{
		types.StepAnimation,
		types.StepWait,
		types.StepAnimation,
		types.StepWait,
		types.StepAnimation,
	}, kinds)
	assert.Len(t, scene.Animations, 3)

	assert.Equal(t, int64(1), scene.Steps[1].Duration)
	assert.Equal(t, 0.5, scene.Steps[3].Duration)

	first := scene.Steps[0].Data
	require.NotNil(t, first)
	assert.Equal(t, map[string]any{"run_time": int64(2)}, first.Kwargs)
	require.Len(t, first.Animations, 1)
	assert.Equal(t, "Write", first.Animations[0].Type)
	assert.Equal(t, []any{"title"}, first.Animations[0].Args)

	second := scene.Steps[2].Data
	require.Len(t, second.Animations, 2)
	assert.Equal(t, types.Animation{
		Type:   types.ObjectAnimationType,
		Object: "circle",
		Method: "animate",
	}, second.Animations[0])
	assert.Equal(t, "Create", second.Animations[1].Type)
}

func TestParseSourceObjects(t *testing.T) {
	res, err := ParseSource([]byte(trigScript), types.AnalyzeConfig{})
	require.NoError(t, err)
	scene := res.Scenes["TrigScene"]

	assert.Equal(t, map[string]types.ObjectInfo{
		"title": {
			Type:   "Text",
			Args:   []any{"Hello"},
			Kwargs: map[string]any{"font_size": int64(48)},
		},
		"circle": {
			Type:   "Circle",
			Args:   []any{},
			Kwargs: map[string]any{"radius": int64(2), "color": "BLUE"},
		},
	}, scene.Objects)
}

func TestParseSourceAssignments(t *testing.T) {
	src := `class S(MovingCameraScene):
    def construct(self):
        a = b = Square()
        c: Square = Square()
        d = self.camera.frame.copy()
        e = 3
        f.g = Dot()
`
	res, err := ParseSource([]byte(src), types.AnalyzeConfig{})
	require.NoError(t, err)
	objs := res.Scenes["S"].Objects

	assert.Contains(t, objs, "a")
	assert.Contains(t, objs, "b")
	assert.NotContains(t, objs, "c")
	assert.NotContains(t, objs, "e")
	assert.Len(t, objs, 3)
	assert.Equal(t, "copy", objs["d"].Type)
}

func TestLiteralValues(t *testing.T) {
	src := `class S(Scene):
    def construct(self):
        obj = Thing(1, 2.5, "a\n", r"\frac", True, None, [1, None], (1, 2), {"k": 1, 2: "v"}, name, g(), -1, f"x{y}", 0x1F)
`
	res, err := ParseSource([]byte(src), types.AnalyzeConfig{})
	require.NoError(t, err)

	got := res.Scenes["S"].Objects["obj"].Args
	assert.Equal(t, []any{
		int64(1),
		2.5,
		"a\n",
		`\frac`,
		true,
		[]any{int64(1), nil},
		[]any{int64(1), int64(2)},
		map[string]any{"k": int64(1), "2": "v"},
		"name",
		"call:g",
		int64(31),
	}, got)
}

func TestParseSourceCustomMarkers(t *testing.T) {
	src := `class Demo(Slide):
    def build(self):
        self.show(Write(x))
        self.pause(2)
`
	cfg := types.AnalyzeConfig{
		SceneMarker:     "Slide",
		ConstructMethod: "build",
		PlayMethod:      "show",
		WaitMethod:      "pause",
	}
	res, err := ParseSource([]byte(src), cfg)
	require.NoError(t, err)
	require.Contains(t, res.Scenes, "Demo")
	assert.Equal(t, 2, res.Scenes["Demo"].StepCount())
}

func TestParseSourceSyntaxError(t *testing.T) {
	src := `class Broken(Scene):
    def construct(self)
        self.play(x)
`
	_, err := ParseSource([]byte(src), types.AnalyzeConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))
}

func TestSourceBlocks(t *testing.T) {
	src := "import x\n\nclass A(Scene):\n    x = 1\n\nclass B(Scene):\n    pass\n"
	tests := []struct {
		name  string
		names map[string]bool
		want  map[string]string
	}{
		{
			name:  "both scenes",
			names: map[string]bool{"A": true, "B": true},
			want: map[string]string{
				"A": "class A(Scene):\n    x = 1\n\n",
				"B": "class B(Scene):\n    pass\n",
			},
		},
		{
			name:  "only requested names",
			names: map[string]bool{"B": true},
			want:  map[string]string{"B": "class B(Scene):\n    pass\n"},
		},
		{
			name:  "unknown name",
			names: map[string]bool{"C": true},
			want:  map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sourceBlocks(src, tt.names))
		})
	}
}

func TestAnalyzePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "trig.py", trigScript)
	writeFile(t, dir, "broken.py", "class Broken(Scene):\n    def construct(self)\n")
	writeFile(t, dir, "notes.txt", "class Ignored(Scene): pass\n")

	var buf bytes.Buffer
	scenes, result, err := AnalyzePath(dir, types.AnalyzeConfig{}, &buf)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Analyzed)
	assert.Equal(t, 1, result.Skipped)
	assert.False(t, result.HasFailures())
	require.Len(t, scenes, 1)
	assert.Equal(t, "TrigScene", scenes[0].SceneName)
	assert.Equal(t, filepath.Join(dir, "trig.py"), scenes[0].File)
	assert.Contains(t, scenes[0].SourceCode, "class TrigScene(Scene):")
	assert.NotContains(t, scenes[0].SourceCode, "class Plain")
	assert.Contains(t, buf.String(), "skipped:")
	assert.Contains(t, buf.String(), "Batch summary:")
}

func TestAnalyzePathRejectsNonPython(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "x")
	_, _, err := AnalyzePath(filepath.Join(dir, "notes.txt"), types.AnalyzeConfig{}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestDetectScenes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", trigScript)
	writeFile(t, dir, "b.py", "class Extra(ThreeDScene):\n    pass\n\nclass TrigScene(Scene):\n    pass\n")
	writeFile(t, dir, "c.py", "class (:\n")

	names, err := DetectScenes(dir, types.AnalyzeConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{"TrigScene", "Extra"}, names)
}

func TestWriteDatasetKeepsNonLiteralWait(t *testing.T) {
	src := "class Pause(Scene):\n    def construct(self):\n        self.wait(a + b)\n"
	res, err := ParseSource([]byte(src), types.AnalyzeConfig{})
	require.NoError(t, err)
	scene := res.Scenes["Pause"]
	require.NotNil(t, scene)
	require.Len(t, scene.Steps, 1)
	assert.Nil(t, scene.Steps[0].Duration)

	path := filepath.Join(t.TempDir(), DatasetFile)
	require.NoError(t, WriteDataset(path, res.List()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"duration": null`)
}

func TestWriteDatasetEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", DatasetFile)
	require.NoError(t, WriteDataset(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	scenes, err := ReadDataset(path)
	require.NoError(t, err)
	assert.Empty(t, scenes)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

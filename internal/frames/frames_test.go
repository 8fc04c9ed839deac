// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package frames

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manim-dataset/pkg/types"
)

// fakeDecoder serves synthetic videos keyed by path.
type fakeDecoder struct {
	videos   map[string]types.VideoInfo
	probeErr error
}

func (f *fakeDecoder) Probe(_ context.Context, path string) (types.VideoInfo, error) {
	if f.probeErr != nil {
		return types.VideoInfo{}, f.probeErr
	}
	info, ok := f.videos[path]
	if !ok {
		return types.VideoInfo{}, errors.New("cannot open")
	}
	return info, nil
}

func (f *fakeDecoder) Decode(_ context.Context, _ string, info types.VideoInfo, fn FrameFunc) error {
	for i := 0; i < info.FrameCount; i++ {
		img := image.NewNRGBA(image.Rect(0, 0, info.Width, info.Height))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = uint8(i)
			img.Pix[p+3] = 0xff
		}
		if err := fn(i, img); err != nil {
			return err
		}
	}
	return nil
}

func clip(fps float64, count int) types.VideoInfo {
	return types.VideoInfo{Width: 8, Height: 8, FPS: fps, FrameCount: count, Duration: float64(count) / fps}
}

func TestInterval(t *testing.T) {
	tests := []struct {
		fps, fraction float64
		want          int
	}{
		{30, 1, 30},
		{30, 2, 15},
		{30, 0.5, 60},
		{24, 100, 1},
		{29.97, 1, 29},
		{30, 0, 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Interval(tt.fps, tt.fraction), "fps=%v fraction=%v", tt.fps, tt.fraction)
	}
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "TrigScene.mp4")
	dec := &fakeDecoder{videos: map[string]types.VideoInfo{video: clip(30, 90)}}
	outDir := FrameDir(video)

	frames, err := Extract(context.Background(), dec, video, outDir, 1, 0, &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, frames, 3)

	assert.Equal(t, []int{0, 30, 60}, []int{frames[0].FrameIndex, frames[1].FrameIndex, frames[2].FrameIndex})
	assert.Equal(t, filepath.Join(dir, "frames_TrigScene", "frame_000030_1.000.jpg"), frames[1].Path)
	assert.InDelta(t, 2.0, frames[2].Timestamp, 1e-9)

	f, err := os.Open(frames[0].Path)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 8, cfg.Width)
}

func TestExtractIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	dec := &fakeDecoder{videos: map[string]types.VideoInfo{video: clip(24, 101)}}

	first, err := Extract(context.Background(), dec, video, FrameDir(video), 3, 0, &bytes.Buffer{})
	require.NoError(t, err)
	second, err := Extract(context.Background(), dec, video, FrameDir(video), 3, 0, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Len(t, first, 13)
	assert.Equal(t, len(first), len(second))

	entries, err := os.ReadDir(FrameDir(video))
	require.NoError(t, err)
	assert.Len(t, entries, 13)
}

func TestExtractProbeFailure(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "broken.mp4")
	dec := &fakeDecoder{probeErr: errors.New("moov atom not found")}

	frames, err := Extract(context.Background(), dec, video, FrameDir(video), 1, 0, &bytes.Buffer{})
	assert.Error(t, err)
	assert.Empty(t, frames)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	mk := func(rel string) string {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		return p
	}
	a := mk("videos/TrigScene/1080/TrigScene.mp4")
	b := mk("videos/TrigScene/partial_movie_files/12_34_56.mp4")
	c := mk("videos/Pythagoras/Pythagoras.mov")
	mk("videos/notes.txt")

	metas, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, metas, 3)

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	// Pythagoras sorts before TrigScene in the walk, so its group comes first.
	assert.Equal(t, []string{c, a, b}, paths)
	assert.Equal(t, "TrigScene", metas[1].PotentialScene)
	assert.Equal(t, "12_34_56", metas[2].UniqueID)
}

func TestDiscoverSingleFile(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "render_1_2_3.mp4")
	require.NoError(t, os.WriteFile(video, []byte("x"), 0o644))

	metas, err := Discover(video)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "1_2_3", metas[0].UniqueID)
	assert.Empty(t, metas[0].PotentialScene)

	_, err = Discover(filepath.Join(dir, "missing.mp4"))
	assert.Error(t, err)
}

func TestPotentialScene(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"media/videos/TrigScene/partial_movie_files", "TrigScene"},
		{"media/videos/trig/_temp/1080", "trig"},
		{"media/videos", ""},
		{"videos/720p30", "720p30"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PotentialScene(filepath.FromSlash(tt.dir)), tt.dir)
	}
}

func TestUniqueID(t *testing.T) {
	hash := strings.Repeat("ab12", 8)
	assert.Equal(t, "1_2_3", UniqueID("clip_1_2_3.mp4"))
	assert.Equal(t, hash, UniqueID("uncached_"+hash+".mp4"))
	assert.Equal(t, "", UniqueID("TrigScene.mp4"))
}

func TestExtractAll(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "TrigScene.mp4")
	bad := filepath.Join(dir, "Broken.mp4")
	dec := &fakeDecoder{videos: map[string]types.VideoInfo{good: clip(10, 30)}}
	videos := []types.VideoMeta{{Path: good}, {Path: bad}}

	for _, workers := range []int{1, 4} {
		var buf bytes.Buffer
		out, result := ExtractAll(context.Background(), dec, videos, types.FramesConfig{Fraction: 1, Workers: workers}, &buf)

		require.Len(t, out, 2)
		assert.Equal(t, good, out[0].Video)
		assert.Len(t, out[0].Frames, 3)
		assert.Empty(t, out[1].Frames)
		assert.Equal(t, 1, result.Extracted)
		assert.True(t, result.HasFailures())
		assert.Contains(t, buf.String(), "failed:  "+bad)
	}
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.Equal(t, 1, Workers(-2))
	assert.GreaterOrEqual(t, Workers(0), 1)
}

func TestDistribute(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	tests := []struct {
		name  string
		items []int
		steps int
		want  [][]int
	}{
		{"even", items[:6], 3, [][]int{{0, 1}, {2, 3}, {4, 5}}},
		{"uneven", items, 3, [][]int{{0, 1, 2}, {3, 4, 5}, {6, 7, 8, 9}}},
		{"fewer items than steps", items[:2], 4, [][]int{{}, {0}, {}, {1}}},
		{"no steps", items, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distribute(tt.items, tt.steps)
			require.Len(t, got, len(tt.want))
			total := 0
			for i := range got {
				assert.ElementsMatch(t, tt.want[i], got[i])
				total += len(got[i])
			}
			if tt.steps > 0 {
				assert.Equal(t, len(tt.items), total)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	scenes := []types.Scene{
		{
			SceneName:  "TrigScene",
			SourceCode: "class TrigScene(Scene): ...",
			Steps: []types.Step{
				{Type: types.StepAnimation, Data: &types.PlayCall{}},
				{Type: types.StepWait, Duration: int64(1)},
			},
		},
		{SceneName: "Lonely", Steps: []types.Step{{Type: types.StepWait}}},
	}
	var frames []types.Frame
	for i := 0; i < 4; i++ {
		frames = append(frames, types.Frame{FrameIndex: i, Path: FrameName(i, float64(i))})
	}
	videos := []VideoFrames{
		{Video: filepath.Join("v", "TrigScene_old.mp4")},
		{Video: filepath.Join("v", "TrigScene.mp4"), Frames: frames},
	}

	var buf bytes.Buffer
	merged := Merge(scenes, videos, 0, &buf)
	require.Len(t, merged, 2)

	assert.Equal(t, filepath.Join("v", "TrigScene.mp4"), merged[0].Video)
	assert.Equal(t, []string{FrameName(0, 0), FrameName(1, 1)}, merged[0].Steps[0].Frames)
	assert.Equal(t, []string{FrameName(2, 2), FrameName(3, 3)}, merged[0].Steps[1].Frames)
	assert.Empty(t, scenes[0].Steps[0].Frames, "input scenes are not modified")

	assert.Empty(t, merged[1].Video)
	assert.Empty(t, merged[1].Steps[0].Frames)
	assert.Contains(t, buf.String(), "unmatched: Lonely")
}

func TestRGBImage(t *testing.T) {
	img := rgbImage([]byte{10, 20, 30, 40, 50, 60}, 2, 1)
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{40, 50, 60, 255}, img.NRGBAAt(1, 0))
}

func TestParseProbe(t *testing.T) {
	out := []byte(`{"format":{"duration":"3.000000"},"streams":[
		{"codec_type":"audio"},
		{"codec_type":"video","width":1920,"height":1080,"r_frame_rate":"60/1","avg_frame_rate":"30/1","nb_frames":"90"}]}`)
	info, err := parseProbe("x.mp4", out)
	require.NoError(t, err)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 30.0, info.FPS)
	assert.Equal(t, 90, info.FrameCount)
	assert.Equal(t, 3.0, info.Duration)

	_, err = parseProbe("x.mp4", []byte(`{"streams":[{"codec_type":"audio"}]}`))
	assert.Error(t, err)
}

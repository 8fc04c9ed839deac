// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package frames

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/pdiddy/manim-dataset/internal/analyze"
	"github.com/pdiddy/manim-dataset/internal/match"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

// MergedDatasetFile is the default name of the merged document.
const MergedDatasetFile = "manim_merged_dataset.json"

// Distribute divides items evenly across steps: step i receives
// items[i*n/steps : (i+1)*n/steps]. Steps may receive nothing when there
// are fewer items than steps.
func Distribute[T any](items []T, steps int) [][]T {
	if steps <= 0 {
		return nil
	}
	n := len(items)
	out := make([][]T, steps)
	for i := range steps {
		start := i * n / steps
		end := (i + 1) * n / steps
		out[i] = items[start:end]
	}
	return out
}

// Merge matches every scene to its best-scoring video and spreads that
// video's frames across the scene's steps. Scenes without a match keep
// steps without frames. The input scenes are not modified.
func Merge(scenes []types.Scene, videos []VideoFrames, threshold int, w io.Writer) []types.MergedScene {
	if threshold <= 0 {
		threshold = match.DefaultThreshold
	}
	paths := make([]string, len(videos))
	byPath := make(map[string][]types.Frame, len(videos))
	for i, v := range videos {
		paths[i] = v.Video
		byPath[v.Video] = v.Frames
	}

	merged := make([]types.MergedScene, 0, len(scenes))
	for _, s := range scenes {
		m := types.MergedScene{
			SceneName:  s.SceneName,
			SourceCode: s.SourceCode,
			Objects:    s.Objects,
			Animations: s.Animations,
			Steps:      append([]types.Step(nil), s.Steps...),
			Frames:     []string{},
		}
		if m.Objects == nil {
			m.Objects = map[string]types.ObjectInfo{}
		}
		if m.Animations == nil {
			m.Animations = []types.PlayCall{}
		}
		if m.Steps == nil {
			m.Steps = []types.Step{}
		}

		ranked := match.Rank(s.SceneName, paths, match.VideoScore)
		best, ok := match.Best(ranked, threshold)
		switch {
		case ok:
			fmt.Fprintf(w, "matched: %s -> %s (score: %d)\n", s.SceneName, filepath.Base(best.Path), best.Score)
			m.Video = best.Path
			assignFrames(m.Steps, byPath[best.Path])
		case len(ranked) > 0:
			fmt.Fprintf(w, "unmatched: %s (best score: %d)\n", s.SceneName, ranked[0].Score)
		default:
			fmt.Fprintf(w, "unmatched: %s (no candidates)\n", s.SceneName)
		}
		merged = append(merged, m)
	}
	return merged
}

func assignFrames(steps []types.Step, frames []types.Frame) {
	if len(steps) == 0 || len(frames) == 0 {
		return
	}
	for i, chunk := range Distribute(frames, len(steps)) {
		paths := make([]string, len(chunk))
		for j, f := range chunk {
			paths[j] = f.Path
		}
		steps[i].Frames = paths
	}
}

// WriteMerged writes the merged document, replacing any existing file.
func WriteMerged(path string, merged []types.MergedScene) error {
	if merged == nil {
		merged = []types.MergedScene{}
	}
	return analyze.WriteJSON(path, merged)
}

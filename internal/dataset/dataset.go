// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset assembles labeled scenes and their frames into an ML
// dataset: a column-oriented metadata document, a store of fixed-size key
// frame images, and shuffled train/validation/test index splits.
package dataset

import (
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pdiddy/manim-dataset/internal/analyze"
	"github.com/pdiddy/manim-dataset/internal/frames"
	"github.com/pdiddy/manim-dataset/internal/label"
	"github.com/pdiddy/manim-dataset/internal/match"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

const (
	// DefaultOutputDir receives the dataset when no directory is configured.
	DefaultOutputDir = "manim_ml_dataset"

	// MetadataFile and SplitsFile are written inside the output directory.
	MetadataFile = "metadata.json"
	SplitsFile   = "data_splits.json"

	// frameDirMarker identifies directories holding extracted frames.
	frameDirMarker = "frames_"

	// matchesPerScene bounds how many frame directories feed one scene.
	matchesPerScene = 3
)

var frameTimestamp = regexp.MustCompile(`_(\d+\.\d+)\.jpg$`)

// Result summarizes a dataset build.
type Result struct {
	BuildID   string
	OutputDir string
	Scenes    int
	Images    int
	Splits    *types.Splits
}

// DefaultSearchDirs returns the directories searched for frames relative
// to the labeled document at datasetPath: media/videos and videos two
// levels up, then the same names relative to the working directory's
// parent.
func DefaultSearchDirs(datasetPath string) []string {
	abs, err := filepath.Abs(datasetPath)
	if err != nil {
		abs = datasetPath
	}
	root := filepath.Dir(filepath.Dir(abs))
	return []string{
		filepath.Join(root, "media", "videos"),
		filepath.Join(root, "videos"),
		filepath.Join("..", "media", "videos"),
		filepath.Join("..", "videos"),
	}
}

// FindFrameDirs walks every existing search directory and returns the
// directories whose path contains frames_, in walk order. A directory
// reachable from two search roots is listed once.
func FindFrameDirs(searchDirs []string) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, base := range searchDirs {
		if _, err := os.Stat(base); err != nil {
			continue
		}
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("skipping unreadable directory")
				return nil
			}
			if !d.IsDir() || !strings.Contains(path, frameDirMarker) {
				return nil
			}
			key := path
			if abs, err := filepath.Abs(path); err == nil {
				key = abs
			}
			if !seen[key] {
				seen[key] = true
				dirs = append(dirs, path)
			}
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Str("dir", base).Msg("walking search directory")
		}
	}
	return dirs
}

// SortFrames orders frame files by the timestamp embedded in their names.
// Files are sorted lexically first; if any name carries a timestamp, only
// timestamped files are kept, ordered by timestamp.
func SortFrames(paths []string) []string {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	type stamped struct {
		path string
		ts   float64
	}
	var withTS []stamped
	for _, p := range sorted {
		if m := frameTimestamp.FindStringSubmatch(p); m != nil {
			if ts, err := strconv.ParseFloat(m[1], 64); err == nil {
				withTS = append(withTS, stamped{p, ts})
			}
		}
	}
	if len(withTS) == 0 {
		return sorted
	}
	sort.SliceStable(withTS, func(i, j int) bool { return withTS[i].ts < withTS[j].ts })
	out := make([]string, len(withTS))
	for i, s := range withTS {
		out[i] = s.path
	}
	return out
}

// KeyFrame returns the middle frame of a step's frames.
func KeyFrame(stepFrames []string) (string, bool) {
	if len(stepFrames) == 0 {
		return "", false
	}
	return stepFrames[len(stepFrames)/2], true
}

// Split shuffles the indices 0..n-1 and cuts them into 70% train, 15%
// validation (both rounded down), and the remainder for test.
func Split(n int, rng *rand.Rand) types.Splits {
	perm := rng.Perm(n)
	train := n * 70 / 100
	val := n * 15 / 100
	return types.Splits{
		Train:      append([]int{}, perm[:train]...),
		Validation: append([]int{}, perm[train:train+val]...),
		Test:       append([]int{}, perm[train+val:]...),
	}
}

// NewRand returns the shuffle source for seed; 0 picks a time-based seed.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Build reads the labeled document at in and writes the dataset to the
// configured output directory, printing progress to w.
func Build(in string, cfg types.DatasetConfig, w io.Writer) (*Result, error) {
	scenes, err := label.ReadLabeled(in)
	if err != nil {
		return nil, err
	}

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = DefaultOutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	threshold := cfg.MinScore
	if threshold <= 0 {
		threshold = match.DefaultThreshold
	}
	searchDirs := cfg.SearchDirs
	if len(searchDirs) == 0 {
		searchDirs = DefaultSearchDirs(in)
	}

	frameDirs := FindFrameDirs(searchDirs)
	fmt.Fprintf(w, "Found %d frame directories\n", len(frameDirs))

	discovered := attachFrames(scenes, frameDirs, threshold, w)

	store, err := NewImageStore(filepath.Join(outDir, ImageFile))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if !anyStepFrames(scenes) && len(discovered) > 0 {
		fmt.Fprintf(w, "No frames found in steps, using %d discovered frames\n", len(discovered))
		sorted := append([]string(nil), discovered...)
		sort.Strings(sorted)
		for _, p := range sorted {
			if _, err := store.Add(p); err != nil {
				fmt.Fprintf(w, "failed:  %s (%v)\n", p, err)
			}
		}
	}

	meta := types.Metadata{
		BuildID:            uuid.NewString(),
		CodeSnippets:       []string{},
		AnimationSequences: [][]types.PlayCall{},
		MathExpressions:    [][]string{},
		Domains:            []string{},
		FramePaths:         [][]string{},
	}
	for i, s := range scenes {
		meta.CodeSnippets = append(meta.CodeSnippets, s.SourceCode)
		meta.AnimationSequences = append(meta.AnimationSequences, animationSequence(s.Steps))
		meta.MathExpressions = append(meta.MathExpressions, expressions(s))
		meta.Domains = append(meta.Domains, s.Domain())

		keyFrames := []string{}
		for _, step := range s.Steps {
			key, ok := KeyFrame(step.Frames)
			if !ok {
				continue
			}
			keyFrames = append(keyFrames, key)
			if _, err := store.Add(key); err != nil {
				fmt.Fprintf(w, "failed:  %s (%v)\n", key, err)
			}
		}
		meta.FramePaths = append(meta.FramePaths, keyFrames)
		if err := store.MarkScene(i, s.SceneName); err != nil {
			return nil, err
		}
	}

	if err := analyze.WriteJSON(filepath.Join(outDir, MetadataFile), meta); err != nil {
		return nil, err
	}

	result := &Result{
		BuildID:   meta.BuildID,
		OutputDir: outDir,
		Scenes:    meta.Len(),
		Images:    store.Len(),
	}

	if meta.Len() == 0 {
		fmt.Fprintln(w, "No samples in dataset, skipping data splits")
	} else {
		splits := Split(meta.Len(), NewRand(cfg.Seed))
		if err := analyze.WriteJSON(filepath.Join(outDir, SplitsFile), splits); err != nil {
			return nil, err
		}
		result.Splits = &splits
		fmt.Fprintf(w, "Train: %d, validation: %d, test: %d\n",
			len(splits.Train), len(splits.Validation), len(splits.Test))
	}

	fmt.Fprintf(w, "\nDataset %s: %d scenes, %d images in %s\n", result.BuildID, result.Scenes, result.Images, outDir)
	return result, nil
}

// attachFrames assigns frames from the best matching frame directories to
// the steps of scenes that have none yet. Scenes whose steps already carry
// frames, as in a merged document, are left as they are. It returns every
// frame file found in a matched directory.
func attachFrames(scenes []types.LabeledScene, frameDirs []string, threshold int, w io.Writer) []string {
	var discovered []string
	for i := range scenes {
		s := &scenes[i]
		ranked := match.Rank(s.SceneName, frameDirs, match.FrameDirScore)
		switch {
		case len(ranked) == 0:
			fmt.Fprintf(w, "unmatched: %s (no candidates)\n", s.SceneName)
			continue
		case ranked[0].Score < threshold:
			fmt.Fprintf(w, "unmatched: %s (best score: %d)\n", s.SceneName, ranked[0].Score)
			continue
		}
		fmt.Fprintf(w, "matched: %s -> %s (score: %d)\n", s.SceneName, ranked[0].Path, ranked[0].Score)
		assigned := hasStepFrames(*s)

		for _, c := range match.Top(ranked, matchesPerScene, threshold) {
			files, err := filepath.Glob(filepath.Join(c.Path, "*.jpg"))
			if err != nil || len(files) == 0 {
				continue
			}
			fmt.Fprintf(w, "frames: %s (%d in %s)\n", s.SceneName, len(files), c.Path)
			discovered = append(discovered, files...)

			if len(s.Steps) == 0 || assigned {
				continue
			}
			for j, chunk := range frames.Distribute(SortFrames(files), len(s.Steps)) {
				s.Steps[j].Frames = append(s.Steps[j].Frames, chunk...)
			}
		}
	}
	return discovered
}

func anyStepFrames(scenes []types.LabeledScene) bool {
	for _, s := range scenes {
		if hasStepFrames(s) {
			return true
		}
	}
	return false
}

func hasStepFrames(s types.LabeledScene) bool {
	for _, step := range s.Steps {
		if len(step.Frames) > 0 {
			return true
		}
	}
	return false
}

func animationSequence(steps []types.Step) []types.PlayCall {
	seq := []types.PlayCall{}
	for _, step := range steps {
		if step.IsAnimation() && step.Data != nil {
			seq = append(seq, *step.Data)
		}
	}
	return seq
}

func expressions(s types.LabeledScene) []string {
	if s.MathLabels == nil || s.MathLabels.Expressions == nil {
		return []string{}
	}
	return s.MathLabels.Expressions
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/manim-dataset/pkg/types"
)

// DatasetFile is the default name of the analysis document.
const DatasetFile = "manim_dataset.json"

// BatchResult holds the outcome of an analysis run.
type BatchResult struct {
	Analyzed int
	Skipped  int
	Failed   int
	Scenes   int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Analyzed + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed to be read.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// AnalyzePath analyzes a single .py file or every .py file below a
// directory, printing per-file status to w. Files with syntax errors are
// skipped; unreadable files count as failures. Scenes whose class block
// cannot be located textually are dropped.
func AnalyzePath(target string, cfg types.AnalyzeConfig, w io.Writer) ([]*types.Scene, BatchResult, error) {
	files, err := pythonFiles(target)
	if err != nil {
		return nil, BatchResult{}, err
	}

	var (
		result BatchResult
		scenes []*types.Scene
	)
	for _, path := range files {
		fmt.Fprintf(w, "processing: %s\n", path)
		found, err := analyzeFile(path, cfg)
		switch {
		case errors.Is(err, ErrSyntax):
			fmt.Fprintf(w, "skipped: %s (%v)\n", path, err)
			result.Skipped++
			continue
		case err != nil:
			fmt.Fprintf(w, "failed:  %s (%v)\n", path, err)
			result.Failed++
			continue
		}
		result.Analyzed++
		result.Scenes += len(found)
		scenes = append(scenes, found...)
	}

	fmt.Fprintf(w, "\nBatch summary: %d analyzed, %d skipped, %d failed (total: %d), %d scenes\n",
		result.Analyzed, result.Skipped, result.Failed, result.Total(), result.Scenes)
	return scenes, result, nil
}

func analyzeFile(path string, cfg types.AnalyzeConfig) ([]*types.Scene, error) {
	res, err := ParseFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if len(res.Order) == 0 {
		return nil, nil
	}

	names := make(map[string]bool, len(res.Order))
	for _, name := range res.Order {
		names[name] = true
	}
	blocks, err := SourceBlocks(path, names)
	if err != nil {
		return nil, err
	}

	var out []*types.Scene
	for _, scene := range res.List() {
		block, ok := blocks[scene.SceneName]
		if !ok {
			log.Debug().Str("file", path).Str("scene", scene.SceneName).Msg("no top-level class block, scene dropped")
			continue
		}
		scene.File = path
		scene.SourceCode = block
		out = append(out, scene)
	}
	return out, nil
}

// pythonFiles resolves target to the list of .py files to analyze, in
// lexical walk order.
func pythonFiles(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("invalid path %s: %w", target, err)
	}
	if !info.IsDir() {
		if !strings.HasSuffix(target, ".py") {
			return nil, fmt.Errorf("invalid path %s: not a .py file", target)
		}
		return []string{target}, nil
	}

	var files []string
	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".py") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", target, err)
	}
	return files, nil
}

// DetectScenes returns the names of all scene classes found in .py files
// below dir, in walk order without duplicates. Files that fail to parse
// are logged and skipped.
func DetectScenes(dir string, cfg types.AnalyzeConfig) ([]string, error) {
	files, err := pythonFiles(dir)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, path := range files {
		res, err := ParseFile(path, cfg)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping file during scene detection")
			continue
		}
		for _, name := range res.Order {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// WriteDataset writes scenes as an indented JSON array, replacing any
// existing file.
func WriteDataset(path string, scenes []*types.Scene) error {
	if scenes == nil {
		scenes = []*types.Scene{}
	}
	return WriteJSON(path, scenes)
}

// ReadDataset loads an analysis document.
func ReadDataset(path string) ([]types.Scene, error) {
	var scenes []types.Scene
	if err := ReadJSON(path, &scenes); err != nil {
		return nil, err
	}
	return scenes, nil
}

// WriteJSON writes v to path as two-space indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadJSON decodes the JSON document at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

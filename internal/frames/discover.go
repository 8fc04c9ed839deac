// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package frames

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/manim-dataset/pkg/types"
)

var videoExts = map[string]bool{".mp4": true, ".avi": true, ".mov": true, ".mkv": true}

// Directory names the renderer uses for its own output layout; they never
// name a scene.
var layoutDirs = map[string]bool{"videos": true, "media": true, "partial_movie_files": true}

var (
	tripleNumberID = regexp.MustCompile(`(\d+_\d+_\d+)`)
	hexID          = regexp.MustCompile(`(?i)([0-9a-f]{32,})`)
)

// IsVideo reports whether path has a recognized video extension.
func IsVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// Discover finds videos under root, or describes root itself when it is a
// single video file. Videos are ordered by their potential scene, groups
// in first-seen order, with videos that have no potential scene last.
func Discover(root string) ([]types.VideoMeta, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("invalid video path %s: %w", root, err)
	}
	if !info.IsDir() {
		if !IsVideo(root) {
			return nil, fmt.Errorf("invalid video path %s: not a video file", root)
		}
		base := filepath.Base(root)
		return []types.VideoMeta{{
			Path:     root,
			Filename: base,
			UniqueID: UniqueID(strings.TrimSuffix(base, filepath.Ext(base))),
		}}, nil
	}

	var (
		groupOrder []string
		groups     = map[string][]types.VideoMeta{}
		ungrouped  []types.VideoMeta
	)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsVideo(d.Name()) {
			return nil
		}
		meta := types.VideoMeta{
			Path:           path,
			Filename:       d.Name(),
			PotentialScene: PotentialScene(filepath.Dir(path)),
			UniqueID:       UniqueID(d.Name()),
		}
		if meta.PotentialScene == "" {
			ungrouped = append(ungrouped, meta)
			return nil
		}
		if _, ok := groups[meta.PotentialScene]; !ok {
			groupOrder = append(groupOrder, meta.PotentialScene)
		}
		groups[meta.PotentialScene] = append(groups[meta.PotentialScene], meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	var out []types.VideoMeta
	for _, name := range groupOrder {
		out = append(out, groups[name]...)
	}
	return append(out, ungrouped...), nil
}

// PotentialScene returns the nearest directory name in dir that could name
// a scene: not hidden behind a leading underscore, not all digits, and not
// one of the renderer's layout directories.
func PotentialScene(dir string) string {
	parts := strings.Split(filepath.ToSlash(dir), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, "_") || isDigits(part) || layoutDirs[part] {
			continue
		}
		return part
	}
	return ""
}

// UniqueID extracts an identifier-looking token from a file name: three
// underscore-joined numbers, or a hex string of 32 or more characters.
func UniqueID(name string) string {
	if m := tripleNumberID.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := hexID.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

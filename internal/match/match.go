// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match scores how well a scene name lines up with a rendered video
// path or a frame directory. Scores are additive integers built from
// substring tests on file and directory names; higher is better.
package match

import (
	"path/filepath"
	"sort"
	"strings"
)

// DefaultThreshold is the minimum score at which a candidate is accepted.
const DefaultThreshold = 10

// partialMovieDir is the renderer's directory for per-animation clips.
const partialMovieDir = "partial_movie_files"

// Candidate is a scored path.
type Candidate struct {
	Path  string
	Score int
}

// ScoreFunc scores a candidate path against a scene name.
type ScoreFunc func(scene, path string) int

// VideoScore scores a video path against a scene name. The filename
// contributes 100 for an exact stem match, else 50 when it contains the
// scene name (case-insensitive), else 10 for each scene word longer than
// two characters that it contains. Each directory segment adds 30 when it
// equals the scene name and 15 when it contains it. Paths under
// partial_movie_files that mention the scene add 40.
func VideoScore(scene, videoPath string) int {
	name := filepath.Base(videoPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	lowerScene := strings.ToLower(scene)
	lowerName := strings.ToLower(name)

	score := 0
	switch {
	case scene == stem:
		score += 100
	case strings.Contains(lowerName, lowerScene):
		score += 50
	default:
		for _, word := range words(scene) {
			if len(word) > 2 && strings.Contains(lowerName, strings.ToLower(word)) {
				score += 10
			}
		}
	}

	for _, part := range strings.Split(filepath.Dir(videoPath), string(filepath.Separator)) {
		lowerPart := strings.ToLower(part)
		switch {
		case lowerPart == lowerScene:
			score += 30
		case strings.Contains(lowerPart, lowerScene):
			score += 15
		}
	}

	if strings.Contains(videoPath, partialMovieDir) && strings.Contains(videoPath, scene) {
		score += 40
	}
	return score
}

// FrameDirScore scores a frame directory against a scene name. The scene
// name (case-insensitive) found in the directory base adds 50, in the
// parent base 30, and anywhere in the path 20. Each scene word shared with
// the directory base adds 5, and with the parent base 3.
func FrameDirScore(scene, dir string) int {
	dir = filepath.Clean(dir)
	base := filepath.Base(dir)
	parent := filepath.Base(filepath.Dir(dir))
	lowerScene := strings.ToLower(scene)

	score := 0
	if strings.Contains(strings.ToLower(base), lowerScene) {
		score += 50
	}
	if strings.Contains(strings.ToLower(parent), lowerScene) {
		score += 30
	}
	if strings.Contains(strings.ToLower(dir), lowerScene) {
		score += 20
	}

	sceneWords := wordSet(scene)
	score += 5 * shared(sceneWords, wordSet(base))
	score += 3 * shared(sceneWords, wordSet(parent))
	return score
}

// Rank scores every candidate and returns those with a positive score,
// highest first. Equal scores keep their input order.
func Rank(scene string, paths []string, score ScoreFunc) []Candidate {
	var ranked []Candidate
	for _, p := range paths {
		if s := score(scene, p); s > 0 {
			ranked = append(ranked, Candidate{Path: p, Score: s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Best returns the top candidate when its score reaches threshold.
func Best(ranked []Candidate, threshold int) (Candidate, bool) {
	if len(ranked) == 0 || ranked[0].Score < threshold {
		return Candidate{}, false
	}
	return ranked[0], true
}

// Top returns up to n leading candidates whose score reaches threshold.
func Top(ranked []Candidate, n, threshold int) []Candidate {
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	var out []Candidate
	for _, c := range ranked {
		if c.Score >= threshold {
			out = append(out, c)
		}
	}
	return out
}

// words splits a name on underscores and whitespace.
func words(name string) []string {
	return strings.Fields(strings.ReplaceAll(name, "_", " "))
}

func wordSet(name string) map[string]bool {
	set := map[string]bool{}
	for _, w := range words(strings.ToLower(name)) {
		set[w] = true
	}
	return set
}

func shared(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}

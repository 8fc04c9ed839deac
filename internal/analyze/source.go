// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	classHeader = regexp.MustCompile(`^class\s+(\w+)\s*\([^)]*\):`)
	classStart  = regexp.MustCompile(`^class\s+`)
)

// SourceBlocks reads path and returns the textual class block of each named
// scene. A block runs from its `class Name(...):` line up to, not
// including, the next line that starts a top-level class. Lines keep their
// line endings.
func SourceBlocks(path string, names map[string]bool) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return sourceBlocks(string(data), names), nil
}

func sourceBlocks(src string, names map[string]bool) map[string]string {
	lines := strings.SplitAfter(src, "\n")
	blocks := map[string]string{}
	for i, line := range lines {
		m := classHeader.FindStringSubmatch(line)
		if m == nil || !names[m[1]] {
			continue
		}
		end := i + 1
		for end < len(lines) && !classStart.MatchString(lines[end]) {
			end++
		}
		blocks[m[1]] = strings.Join(lines[i:end], "")
	}
	return blocks
}

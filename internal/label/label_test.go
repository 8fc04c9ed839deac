// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package label

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manim-dataset/pkg/types"
)

const identityScene = `class Identity(Scene):
    def construct(self):
        # Pythagorean identity
        eq = MathTex(r"\sin^2\theta + \cos^2\theta = 1")
        other = MathTex(r"\tan\theta")
        label = Tex("  ")
        # just a title
        title = Text("Trig")
`

func TestExpressions(t *testing.T) {
	got := Expressions(identityScene)
	assert.Equal(t, []string{`\sin^2\theta + \cos^2\theta = 1`, `\tan\theta`}, got)
	assert.Empty(t, Expressions("x = Text('hi')"))
}

func TestCategorize(t *testing.T) {
	table := DefaultTable()
	tests := []struct {
		name  string
		exprs []string
		want  map[string][]string
	}{
		{
			name:  "integral is calculus",
			exprs: []string{`\int_0^1 x^2 dx`},
			want:  map[string][]string{"calculus": {`\int_0^1 x^2 dx`}},
		},
		{
			name:  "trig only",
			exprs: []string{`\sin\theta`, `\cos\theta`},
			want:  map[string][]string{"trigonometry": {`\sin\theta`, `\cos\theta`}},
		},
		{
			name:  "first category wins",
			exprs: []string{`\vec{v} \cdot \sin\theta`},
			want:  map[string][]string{"linear_algebra": {`\vec{v} \cdot \sin\theta`}},
		},
		{
			name:  "unmatched goes to other",
			exprs: []string{`a^2 + b^2 = c^2`},
			want:  map[string][]string{types.OtherCategory: {`a^2 + b^2 = c^2`}},
		},
		{
			name:  "no expressions",
			exprs: nil,
			want:  map[string][]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats, _ := Categorize(tt.exprs, table)
			assert.Equal(t, tt.want, cats)
		})
	}
}

func TestCategorizeOrder(t *testing.T) {
	_, order := Categorize([]string{`\sin x`, `\int f`, `\cos x`, `a + b`}, DefaultTable())
	assert.Equal(t, []string{"trigonometry", "calculus", types.OtherCategory}, order)
}

func TestPrimaryDomain(t *testing.T) {
	tests := []struct {
		name  string
		cats  map[string][]string
		order []string
		want  string
	}{
		{
			name:  "largest bucket",
			cats:  map[string][]string{"calculus": {"a"}, "trigonometry": {"b", "c"}},
			order: []string{"calculus", "trigonometry"},
			want:  "trigonometry",
		},
		{
			name:  "other ignored when a real bucket exists",
			cats:  map[string][]string{types.OtherCategory: {"a", "b", "c"}, "geometry": {"d"}},
			order: []string{types.OtherCategory, "geometry"},
			want:  "geometry",
		},
		{
			name:  "tie goes to first seen",
			cats:  map[string][]string{"trigonometry": {"a"}, "calculus": {"b"}},
			order: []string{"trigonometry", "calculus"},
			want:  "trigonometry",
		},
		{
			name:  "only other",
			cats:  map[string][]string{types.OtherCategory: {"a"}},
			order: []string{types.OtherCategory},
			want:  types.OtherCategory,
		},
		{
			name: "empty",
			cats: map[string][]string{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrimaryDomain(tt.cats, tt.order))
		})
	}
}

func TestLabelsTieFollowsSourceOrder(t *testing.T) {
	src := "a = MathTex(r\"\\sin x\")\nb = MathTex(r\"\\int f\")\n"
	assert.Equal(t, "trigonometry", Labels(src, DefaultTable()).PrimaryDomain)
}

func TestConcepts(t *testing.T) {
	assert.Equal(t, []string{"Pythagorean identity"}, Concepts(identityScene))
	assert.Empty(t, Concepts("x = 1\n"))
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	content := "categories:\n  - name: sets\n    patterns: ['\\\\cup', '\\\\cap']\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, "sets", table.Classify(`A \cup B`))
	assert.Equal(t, types.OtherCategory, table.Classify(`\int x`))
}

func TestLoadTableErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty table", content: "categories: []\n"},
		{name: "bad pattern", content: "categories:\n  - name: x\n    patterns: ['(']\n"},
		{name: "reserved name", content: "categories:\n  - name: other\n    patterns: ['a']\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadTable(path)
			assert.Error(t, err)
		})
	}
}

func TestEnhance(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "merged.json")
	out := filepath.Join(dir, MathDatasetFile)

	records := []map[string]any{
		{"scene_name": "Identity", "source_code": identityScene, "steps": []any{}, "video": "v/Identity.mp4"},
		{"scene_name": "Blank", "source_code": "class Blank(Scene): pass\n", "steps": []any{}},
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(in, data, 0o644))

	var buf bytes.Buffer
	n, err := Enhance(in, out, DefaultTable(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	scenes, err := ReadLabeled(out)
	require.NoError(t, err)
	require.Len(t, scenes, 2)

	require.NotNil(t, scenes[0].MathLabels)
	assert.Equal(t, "trigonometry", scenes[0].MathLabels.PrimaryDomain)
	assert.Equal(t, "trigonometry", scenes[0].Domain())
	assert.Equal(t, types.UnknownDomain, scenes[1].Domain())

	var raw []map[string]any
	outData, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(outData, &raw))
	assert.Equal(t, "v/Identity.mp4", raw[0]["video"])
}

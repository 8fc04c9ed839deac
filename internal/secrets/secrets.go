// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads render endpoint credentials from a directory of
// plain-text files, one value per file named after its key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/manim-dataset/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Key files understood by the render command.
const (
	// SpaceURL holds the render endpoint's /api/predict URL.
	SpaceURL = "hf-space-url"
	// APIKey holds the bearer token sent to the render endpoint.
	APIKey = "hf-api-key"
)

// Set maps key file names to their trimmed contents.
type Set map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty set. Empty files are ignored; unreadable files are
// logged and skipped.
func Load(dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	set := Set{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			set[name] = value
		}
	}
	return set, nil
}

// Names returns the loaded key names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyRender fills the endpoint URL and API key of cfg from the set when
// flags and the config file left them empty.
func (s Set) ApplyRender(cfg *types.RenderConfig) {
	if cfg.SpaceURL == "" {
		cfg.SpaceURL = s[SpaceURL]
	}
	if cfg.APIKey == "" {
		cfg.APIKey = s[APIKey]
	}
}

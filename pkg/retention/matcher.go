package retention

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Default candidate rules: images are candidates unless they are still being
// written (temp-*) or are derived from another artifact (*_thumb.*).
var (
	DefaultIncludePatterns = []string{"*.{png,jpg,jpeg}"}
	DefaultExcludePatterns = []string{"temp-*", "*" + thumbSuffix + ".*"}
)

const thumbSuffix = "_thumb"

// PatternMatcher decides which file names are retention candidates.
// Exclusions take precedence over inclusions.
type PatternMatcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewPatternMatcher compiles the include and exclude patterns.
func NewPatternMatcher(include, exclude []string) (*PatternMatcher, error) {
	pm := &PatternMatcher{}

	for _, pattern := range include {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern '%s': %w", pattern, err)
		}
		pm.include = append(pm.include, g)
	}

	for _, pattern := range exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
		pm.exclude = append(pm.exclude, g)
	}

	return pm, nil
}

// IsCandidate reports whether the base name of path is subject to retention.
// Matching is case-insensitive.
func (pm *PatternMatcher) IsCandidate(path string) bool {
	name := strings.ToLower(filepath.Base(path))

	for _, g := range pm.exclude {
		if g.Match(name) {
			return false
		}
	}
	for _, g := range pm.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// ThumbnailPath is where the thumbnail derived from artifact is stored.
func ThumbnailPath(artifact string) string {
	ext := filepath.Ext(artifact)
	return strings.TrimSuffix(artifact, ext) + thumbSuffix + ".jpg"
}

// DerivedPaths lists every file derived from artifact by naming convention.
func DerivedPaths(artifact string) []string {
	return []string{ThumbnailPath(artifact)}
}

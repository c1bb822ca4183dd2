// Package retention decides which screenshot artifacts to delete and deletes them.
package retention

import (
	"fmt"
	"sort"
	"time"
)

// Kind names a retention strategy.
type Kind string

const (
	// KindCount keeps the MaxFiles most recently modified artifacts.
	KindCount Kind = "count"
	// KindAge always keeps the MinKeep newest artifacts and deletes the
	// remainder once they are older than MaxAge.
	KindAge Kind = "age"
)

// Policy configures retention. Only the fields of the selected Kind are used.
type Policy struct {
	Kind     Kind          `yaml:"kind" json:"kind"`
	MaxFiles int           `yaml:"max_files" json:"max_files"`
	MinKeep  int           `yaml:"min_keep" json:"min_keep"`
	MaxAge   time.Duration `yaml:"max_age" json:"max_age"`
}

// DefaultPolicy caps the directory at 20 artifacts.
func DefaultPolicy() Policy {
	return Policy{
		Kind:     KindCount,
		MaxFiles: 20,
		MinKeep:  10,
		MaxAge:   7 * 24 * time.Hour,
	}
}

// Validate checks the fields the selected kind relies on.
func (p Policy) Validate() error {
	switch p.Kind {
	case KindCount:
		if p.MaxFiles <= 0 {
			return fmt.Errorf("retention max_files must be positive, got %d", p.MaxFiles)
		}
	case KindAge:
		if p.MinKeep < 0 {
			return fmt.Errorf("retention min_keep must be non-negative, got %d", p.MinKeep)
		}
		if p.MaxAge <= 0 {
			return fmt.Errorf("retention max_age must be positive, got %s", p.MaxAge)
		}
	default:
		return fmt.Errorf("unknown retention kind %q (must be %q or %q)", p.Kind, KindCount, KindAge)
	}
	return nil
}

// Artifact is a candidate file and its modification time.
type Artifact struct {
	Path    string
	ModTime time.Time
}

// Apply splits artifacts into those to keep and those to delete, both
// ordered newest first. It does not touch the filesystem.
func (p Policy) Apply(artifacts []Artifact, now time.Time) (keep, remove []Artifact) {
	sorted := make([]Artifact, len(artifacts))
	copy(sorted, artifacts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ModTime.After(sorted[j].ModTime)
	})

	switch p.Kind {
	case KindAge:
		floor := min(p.MinKeep, len(sorted))
		keep = append(keep, sorted[:floor]...)
		cutoff := now.Add(-p.MaxAge)
		for _, a := range sorted[floor:] {
			if a.ModTime.Before(cutoff) {
				remove = append(remove, a)
			} else {
				keep = append(keep, a)
			}
		}
	default:
		limit := min(p.MaxFiles, len(sorted))
		keep = sorted[:limit]
		remove = sorted[limit:]
	}
	return keep, remove
}

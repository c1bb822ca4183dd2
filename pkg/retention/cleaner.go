package retention

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Result summarises one cleanup run.
type Result struct {
	Deleted int `json:"deleted"`
	Kept    int `json:"kept"`
}

// Cleaner applies a Policy to a directory.
type Cleaner struct {
	policy  Policy
	matcher *PatternMatcher
	now     func() time.Time
	remove  func(string) error
}

// NewCleaner validates policy and builds a cleaner with the default
// candidate patterns.
func NewCleaner(policy Policy) (*Cleaner, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	matcher, err := NewPatternMatcher(DefaultIncludePatterns, DefaultExcludePatterns)
	if err != nil {
		return nil, err
	}
	return &Cleaner{
		policy:  policy,
		matcher: matcher,
		now:     time.Now,
		remove:  os.Remove,
	}, nil
}

// Policy returns the policy in effect.
func (c *Cleaner) Policy() Policy {
	return c.policy
}

// Cleanup lists dir once and deletes what the policy rejects, together with
// derived files. A failure on one file does not stop the others; all
// failures are returned joined.
func (c *Cleaner) Cleanup(dir string) (Result, error) {
	artifacts, err := c.snapshot(dir)
	if err != nil {
		return Result{}, err
	}

	keep, remove := c.policy.Apply(artifacts, c.now())
	res := Result{Kept: len(keep)}

	// x.png and x.jpg share x_thumb.jpg; a kept sibling keeps it alive.
	shared := make(map[string]bool, len(keep))
	for _, a := range keep {
		for _, derived := range DerivedPaths(a.Path) {
			shared[derived] = true
		}
	}

	var errs []error
	for _, a := range remove {
		if err := c.remove(a.Path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("delete %s: %w", filepath.Base(a.Path), err))
			}
			continue
		}
		res.Deleted++

		for _, derived := range DerivedPaths(a.Path) {
			if shared[derived] {
				continue
			}
			if err := c.remove(derived); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("delete %s: %w", filepath.Base(derived), err))
			}
		}
	}
	return res, errors.Join(errs...)
}

// snapshot lists the candidates in dir as they are at this moment. Files
// that vanish between listing and stat are skipped.
func (c *Cleaner) snapshot(dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	artifacts := make([]Artifact, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !c.matcher.IsCandidate(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return artifacts, nil
}

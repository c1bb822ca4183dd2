// Package workspace confines the files the server writes to a set of
// allowed directories. It rejects paths that escape them through ".."
// components or symbolic links.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Guard checks paths against its allowed directories. The first directory
// is the workspace; relative paths are resolved against it.
type Guard struct {
	mu    sync.RWMutex
	roots []string // absolute, symlinks evaluated
}

// NewGuard creates a guard for workspaceDir, which must exist.
func NewGuard(workspaceDir string) (*Guard, error) {
	if workspaceDir == "" {
		return nil, fmt.Errorf("workspace directory cannot be empty")
	}

	absPath, err := filepath.Abs(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace directory: %w", err)
	}
	evalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate workspace directory symlinks: %w", err)
	}

	return &Guard{roots: []string{evalPath}}, nil
}

// WorkspaceDir returns the absolute path of the workspace directory.
func (g *Guard) WorkspaceDir() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.roots[0]
}

// ResolvePath makes path absolute, relative to the workspace, and follows
// symbolic links as far as the path exists. "~" expands to the home
// directory.
func (g *Guard) ResolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand ~: %w", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(g.WorkspaceDir(), path)
	}
	return resolveSymlinks(filepath.Clean(path)), nil
}

// ValidatePath resolves path and fails unless it lies within an allowed
// directory.
func (g *Guard) ValidatePath(path string) (string, error) {
	resolved, err := g.ResolvePath(path)
	if err != nil {
		return "", err
	}
	if !g.IsAllowed(resolved) {
		return "", fmt.Errorf("path '%s' is outside the allowed directories", path)
	}
	return resolved, nil
}

// IsAllowed reports whether absPath is an allowed directory or inside one.
func (g *Guard) IsAllowed(absPath string) bool {
	evalPath := resolveSymlinks(absPath)

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, root := range g.roots {
		if within(evalPath, root) {
			return true
		}
	}
	return false
}

func within(path, root string) bool {
	if path == root {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path+sep, strings.TrimSuffix(root, sep)+sep)
}

// resolveSymlinks evaluates the longest existing prefix of path and appends
// the components that do not exist yet.
func resolveSymlinks(path string) string {
	var missing []string
	current := path

	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved
		}

		dir := filepath.Dir(current)
		if dir == current {
			return filepath.Clean(path)
		}
		missing = append(missing, filepath.Base(current))
		current = dir
	}
}

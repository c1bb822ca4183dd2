package workspace

import (
	"fmt"
	"path/filepath"
)

// AddWhitelist allows writes within dir even though it is outside the
// workspace. dir need not exist yet.
func (g *Guard) AddWhitelist(dir string) error {
	if dir == "" {
		return fmt.Errorf("whitelist directory cannot be empty")
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve whitelist directory: %w", err)
	}
	evalPath := resolveSymlinks(absPath)

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.roots {
		if existing == evalPath {
			return nil
		}
	}
	g.roots = append(g.roots, evalPath)
	return nil
}

// GetWhitelist returns a copy of the directories allowed besides the
// workspace.
func (g *Guard) GetWhitelist() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	whitelist := make([]string, len(g.roots)-1)
	copy(whitelist, g.roots[1:])
	return whitelist
}

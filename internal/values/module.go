package values

import (
	"path/filepath"

	"pyraf/internal/span"
)

// ModuleCache caches evaluated modules by canonical absolute path and
// detects import cycles by tracking modules whose evaluation is still in
// progress, not just modules already finished.
type ModuleCache struct {
	done       map[string]*Environment
	inProgress map[string]bool
	order      []string // path stack for cycle error messages
}

// NewModuleCache creates an empty module cache.
func NewModuleCache() *ModuleCache {
	return &ModuleCache{
		done:       make(map[string]*Environment),
		inProgress: make(map[string]bool),
	}
}

// Canonicalize resolves a raw import path against baseDir to an absolute
// path suitable as a cache key.
func Canonicalize(baseDir, rawPath string) (string, error) {
	p := rawPath
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	return filepath.Abs(p)
}

// Lookup returns the already-finished module environment for path, if any.
func (c *ModuleCache) Lookup(path string) (*Environment, bool) {
	env, ok := c.done[path]
	return env, ok
}

// Enter marks path as in-progress, returning an ImportError if path is
// already being imported higher up the import chain (a real cycle).
func (c *ModuleCache) Enter(path string, s span.Span) error {
	if c.inProgress[path] {
		return NewImportError(s, "import cycle detected: %s", cyclePath(c.order, path))
	}
	c.inProgress[path] = true
	c.order = append(c.order, path)
	return nil
}

// Finish marks path's evaluation complete and caches its resulting
// environment for future imports.
func (c *ModuleCache) Finish(path string, env *Environment) {
	delete(c.inProgress, path)
	c.order = c.order[:len(c.order)-1]
	c.done[path] = env
}

func cyclePath(order []string, closingPath string) string {
	start := 0
	for i, p := range order {
		if p == closingPath {
			start = i
			break
		}
	}
	chain := order[start:]
	out := ""
	for i, p := range chain {
		if i > 0 {
			out += " -> "
		}
		out += p
	}
	return out + " -> " + closingPath
}

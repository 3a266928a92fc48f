package dialect

import (
	"slices"
	"strings"
	"sync"
)

// Dialects are keyed by lowercase name, which matches the adapter type
// of the target they render for.
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
)

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the dialect registered for an adapter type.
func Get(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[key(name)]
	return d, ok
}

// Register adds d under its name, replacing any dialect of the same name.
func Register(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[key(d.Name)] = d
}

// List returns the registered dialect names, sorted.
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

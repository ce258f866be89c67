// Package theme holds the color palettes the client can render with and
// turns the selected one into lipgloss styles.
package theme

import (
	"sort"
	"strings"
	"sync"
)

// Theme is a named palette of hex colors.
type Theme struct {
	Name string

	Foreground string
	Dim        string
	Accent     string
	Border     string
	Title      string

	Unread   string // unread posts and notifications
	Presence string // viewers currently on a page

	StatusOK    string
	StatusWarn  string
	StatusError string

	HelpKey  string
	HelpDesc string
}

var (
	mu       sync.RWMutex
	registry = map[string]Theme{}
)

func init() {
	for _, t := range builtins() {
		Register(t)
	}
}

// Get returns a named theme, falling back to default if not found.
func Get(name string) Theme {
	mu.RLock()
	defer mu.RUnlock()
	if t, ok := registry[strings.ToLower(name)]; ok {
		return t
	}
	return registry["default"]
}

// Lookup is Get without the fallback.
func Lookup(name string) (Theme, bool) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := registry[strings.ToLower(name)]
	return t, ok
}

// Names returns all available theme names sorted alphabetically.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds t under its lowercase name, replacing any theme of the same
// name.
func Register(t Theme) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(t.Name)] = t
}

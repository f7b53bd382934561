package agent

import "sync"

// Plugin extends an agent with a named task handler. Custom-role agents
// dispatch tasks to the plugin matching the task kind.
type Plugin interface {
	TaskHandler
}

// PluginRegistry holds named plugins. Registration is last-write-wins and
// carries no ordering. The registry is constructed explicitly and injected
// into the agent; there is no global instance.
type PluginRegistry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{plugins: make(map[string]Plugin)}
}

// Add registers a plugin under name, replacing any previous registration.
func (r *PluginRegistry) Add(name string, p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[name] = p
}

// Get returns the plugin registered under name.
func (r *PluginRegistry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Names returns the registered plugin names in unspecified order.
func (r *PluginRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	return names
}

package reqconfig

import "sync"

// Registry stores a default request configuration. Writes merge into the stored defaults, reads hand out
// private deep copies, so nothing a caller receives aliases the registry.
//
// Concurrent SetDefaults calls are last-write-wins. A call observes a write only if it read the defaults
// after that write landed.
type Registry struct {
	mu       sync.RWMutex
	defaults RequestConfig
}

// NewRegistry creates an isolated registry seeded from initial, which may be nil.
func NewRegistry(initial RequestConfig) *Registry {
	return &Registry{defaults: CloneConfig(initial)}
}

// SetDefaults merges fragment into the stored defaults using the one-level merge rule.
// The fragment is cloned first and may be reused by the caller afterwards.
func (r *Registry) SetDefaults(fragment RequestConfig) {
	if len(fragment) == 0 {
		return
	}
	incoming := CloneConfig(fragment)
	r.mu.Lock()
	defer r.mu.Unlock()
	MergeInto(r.defaults, incoming)
}

// Defaults returns a deep, independent copy of the stored defaults.
func (r *Registry) Defaults() RequestConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return CloneConfig(r.defaults)
}

// Reset discards every stored default.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.defaults = RequestConfig{}
	r.mu.Unlock()
}

// View returns a live read-only view of the registry.
func (r *Registry) View() *View {
	return &View{registry: r}
}

// View exposes registry defaults without any way to assign to them. It always reflects the latest
// SetDefaults, and every value it returns is a copy.
type View struct {
	registry *Registry
}

// Get returns a copy of the field stored under key.
func (v *View) Get(key string) (any, bool) {
	v.registry.mu.RLock()
	defer v.registry.mu.RUnlock()
	val, ok := v.registry.defaults[key]
	if !ok {
		return nil, false
	}
	return Clone(val), true
}

// URL returns the default url field.
func (v *View) URL() string {
	s, _ := v.get(KeyURL).(string)
	return s
}

// Method returns the default method field.
func (v *View) Method() string {
	return RequestConfig{KeyMethod: v.get(KeyMethod)}.Method()
}

// BaseURL returns the default base URL.
func (v *View) BaseURL() string {
	s, _ := v.get(KeyBaseURL).(string)
	return s
}

// Headers returns a copy of the default headers.
func (v *View) Headers() map[string]any {
	return AsMapping(v.get(KeyHeaders))
}

// Snapshot returns a deep copy of the whole configuration.
func (v *View) Snapshot() RequestConfig {
	return v.registry.Defaults()
}

func (v *View) get(key string) any {
	val, _ := v.Get(key)
	return val
}

var global = NewRegistry(nil)

// Global returns the process-wide registry.
func Global() *Registry {
	return global
}

// SetDefaults merges fragment into the process-wide registry.
func SetDefaults(fragment RequestConfig) {
	global.SetDefaults(fragment)
}

// Defaults returns a private copy of the process-wide defaults.
func Defaults() RequestConfig {
	return global.Defaults()
}

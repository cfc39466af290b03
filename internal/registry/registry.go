package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is wrapped by every lookup failure so callers can
// distinguish unknown names from other errors.
var ErrNotFound = errors.New("unknown service")

// ServiceConfig defines one statically enumerated service. Only the
// auto-restart flag is mutable after construction.
type ServiceConfig struct {
	Name         string   `json:"name" mapstructure:"name"`
	Command      string   `json:"command" mapstructure:"command"`
	WorkDir      string   `json:"work_dir" mapstructure:"workdir"`
	Port         int      `json:"port" mapstructure:"port"`
	HealthURL    string   `json:"health_url" mapstructure:"health_url"`
	Dependencies []string `json:"dependencies" mapstructure:"dependencies"`
	AutoRestart  bool     `json:"auto_restart" mapstructure:"auto_restart"`
	LogPath      string   `json:"log_path" mapstructure:"log_path"`
}

// Registry is the read-mostly table of service definitions.
type Registry struct {
	mu       sync.Mutex
	services map[string]ServiceConfig
}

// New builds a registry from the given configs. Names must be non-empty and
// unique, and every declared dependency must name another registered service.
func New(configs []ServiceConfig) (*Registry, error) {
	m := make(map[string]ServiceConfig, len(configs))
	for _, c := range configs {
		if c.Name == "" {
			return nil, fmt.Errorf("service requires a name")
		}
		if _, dup := m[c.Name]; dup {
			return nil, fmt.Errorf("duplicate service %q", c.Name)
		}
		m[c.Name] = c
	}
	for _, c := range m {
		for _, dep := range c.Dependencies {
			if dep == c.Name {
				return nil, fmt.Errorf("service %q depends on itself", c.Name)
			}
			if _, ok := m[dep]; !ok {
				return nil, fmt.Errorf("service %q depends on %w: %s", c.Name, ErrNotFound, dep)
			}
		}
	}
	return &Registry{services: m}, nil
}

// Get returns the config for name.
func (r *Registry) Get(name string) (ServiceConfig, error) {
	r.mu.Lock()
	c, ok := r.services[name]
	r.mu.Unlock()
	if !ok {
		return ServiceConfig{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return c, nil
}

// List returns all configs sorted by name.
func (r *Registry) List() []ServiceConfig {
	r.mu.Lock()
	out := make([]ServiceConfig, 0, len(r.services))
	for _, c := range r.services {
		out = append(out, c)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetAutoRestart toggles the auto-restart flag, the only mutable field.
func (r *Registry) SetAutoRestart(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.services[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	c.AutoRestart = enabled
	r.services[name] = c
	return nil
}

package dataset

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

// Registry is the lookup table of per-dataset configuration. Reads vastly
// outnumber writes; after startup the registry is effectively immutable.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Config
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Config)}
}

// Register adds or replaces a dataset entry.
func (r *Registry) Register(cfg *Config) error {
	if cfg == nil || cfg.ID == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register",
			"dataset config must have an id")
	}
	r.mu.Lock()
	r.byID[cfg.ID] = cfg
	r.mu.Unlock()
	return nil
}

// Lookup returns the configuration for a dataset id. Datasets without an
// entry flatten with generic defaults, so a missing entry is not an error.
func (r *Registry) Lookup(id string) (*Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.byID[id]
	return cfg, ok
}

// IDs returns all registered dataset ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered datasets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Validate checks every registered entry and aggregates all problems into a
// single error so operators see the complete list at once.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var combined error
	for _, cfg := range r.byID {
		for _, err := range cfg.validate() {
			combined = multierr.Append(combined, err)
		}
	}
	if combined != nil {
		return errors.WrapInvalid(combined, "Registry", "Validate", "dataset configuration")
	}
	return nil
}

// overlayFile is the on-disk YAML shape for dataset overrides.
type overlayFile struct {
	Datasets []*Config `yaml:"datasets"`
}

// LoadFile merges dataset entries from a YAML overlay file into the
// registry. Entries with an id already present replace the built-in entry
// wholesale; partial merges are deliberately not supported to keep overlay
// semantics predictable.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.WrapInvalid(errors.ErrConfigNotFound, "Registry", "LoadFile", path)
		}
		return errors.WrapFatal(err, "Registry", "LoadFile", fmt.Sprintf("reading %s", path))
	}

	var overlay overlayFile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return errors.WrapInvalid(err, "Registry", "LoadFile", fmt.Sprintf("parsing %s", path))
	}

	for _, cfg := range overlay.Datasets {
		if err := r.Register(cfg); err != nil {
			return err
		}
	}
	return r.Validate()
}

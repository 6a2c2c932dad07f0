package plugin

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/errors"
)

// Kind partitions the plugin namespace. The same type name can exist once
// per kind.
type Kind string

const (
	KindInput  Kind = "input"
	KindFilter Kind = "filter"
	KindOutput Kind = "output"
)

// Valid reports whether the kind is one of the known partitions.
func (k Kind) Valid() bool {
	switch k {
	case KindInput, KindFilter, KindOutput:
		return true
	default:
		return false
	}
}

// Factory creates a fresh, unconfigured plugin instance.
type Factory func() Instance

// Registration describes one plugin type.
type Registration struct {
	Kind    Kind
	Name    string
	Factory Factory
	// ConfigSchema optionally holds a JSON schema the element's attributes
	// are validated against before Configure.
	ConfigSchema json.RawMessage
	Description  string
}

// Registry holds the known plugin types by kind and name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]*Registration
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]*Registration{}}
}

func registryKey(kind Kind, name string) string {
	return string(kind) + "/" + name
}

// Register adds a plugin type. Registering the same kind and name twice
// fails.
func (r *Registry) Register(reg Registration) error {
	if err := ValidateTypeName(reg.Name); err != nil {
		return errors.Wrap(err, "Registry", "Register", "type name validation")
	}
	if !reg.Kind.Valid() {
		return errors.WrapInvalid(
			fmt.Errorf("unknown plugin kind '%s'", reg.Kind),
			"Registry", "Register", "kind validation")
	}
	if reg.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "factory validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey(reg.Kind, reg.Name)
	if _, exists := r.factories[key]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%s plugin '%s' is already registered: %w", reg.Kind, reg.Name, errors.ErrDuplicatePlugin),
			"Registry", "Register", "duplicate type check")
	}

	r.factories[key] = &reg
	return nil
}

// Lookup returns the registration for a kind and type name.
func (r *Registry) Lookup(kind Kind, name string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.factories[registryKey(kind, name)]
	return reg, ok
}

// New creates a fresh instance of a registered plugin type.
func (r *Registry) New(kind Kind, name string) (Instance, error) {
	reg, ok := r.Lookup(kind, name)
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("unknown %s plugin '%s': %w", kind, name, errors.ErrUnknownPlugin),
			"Registry", "New", "type lookup")
	}
	inst := reg.Factory()
	if inst == nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("factory for %s plugin '%s' returned nil", kind, name),
			"Registry", "New", "instance creation")
	}
	return inst, nil
}

// Types returns the registered type names of a kind, sorted.
func (r *Registry) Types(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	prefix := string(kind) + "/"
	for key := range r.factories {
		if strings.HasPrefix(key, prefix) {
			names = append(names, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(names)
	return names
}

// ValidateElement checks an element's attributes against the type's config
// schema, when one was registered.
func (r *Registry) ValidateElement(kind Kind, name string, e *config.Element) error {
	reg, ok := r.Lookup(kind, name)
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("unknown %s plugin '%s': %w", kind, name, errors.ErrUnknownPlugin),
			"Registry", "ValidateElement", "type lookup")
	}
	if len(reg.ConfigSchema) == 0 {
		return nil
	}

	doc := make(map[string]any, len(e.Attrs))
	for k, v := range e.Attrs {
		doc[k] = v
	}

	schemaLoader := gojsonschema.NewBytesLoader(reg.ConfigSchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.WrapInvalid(err, "Registry", "ValidateElement", "schema validation")
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return errors.WrapInvalid(
			fmt.Errorf("config for %s plugin '%s' is invalid: %s", kind, name, strings.Join(details, "; ")),
			"Registry", "ValidateElement", "schema validation")
	}
	return nil
}

// ValidateTypeName checks a plugin type name for the allowed characters:
// alphanumeric, dash, underscore, dot.
func ValidateTypeName(name string) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "ValidateTypeName", "empty name")
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.') {
			return errors.WrapInvalid(
				errors.ErrInvalidConfig, "Registry", "ValidateTypeName",
				"invalid name characters")
		}
	}
	return nil
}

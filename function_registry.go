package selections

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Function is a helper callable from override rules.
type Function func(args ...any) (any, error)

// FunctionRegistry stores rule helpers keyed by lower-cased name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// NewBuiltinRegistry returns a registry holding the helpers every override
// rule can use:
//
//	unset(v)          true when v is nil, "" or an empty list
//	one_of(v, c...)   true when v equals one of the candidates
//	size_of(v)        number of values in a selector value
func NewBuiltinRegistry() *FunctionRegistry {
	r := NewFunctionRegistry()
	_ = r.Register("unset", builtinUnset)
	_ = r.Register("one_of", builtinOneOf)
	_ = r.Register("size_of", builtinSizeOf)
	return r
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("selections: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("selections: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("selections: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// withOverrides returns a copy of r where functions of other replace those
// with the same name.
func (r *FunctionRegistry) withOverrides(other *FunctionRegistry) *FunctionRegistry {
	merged := r.Clone()
	if merged == nil {
		merged = NewFunctionRegistry()
	}
	if other == nil {
		return merged
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	for name, fn := range other.functions {
		merged.functions[name] = fn
	}
	return merged
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("selections: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("selections: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry adds the functions of registry to the built-in rule
// helpers. Functions named like a built-in replace it.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *engineConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for override rules.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *engineConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

func builtinUnset(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("unset: want 1 argument, got %d", len(args))
	}
	return sizeOf(args[0]) == 0, nil
}

func builtinOneOf(args ...any) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("one_of: want a value and at least 1 candidate, got %d arguments", len(args))
	}
	for _, candidate := range args[1:] {
		if reflect.DeepEqual(args[0], candidate) {
			return true, nil
		}
	}
	return false, nil
}

func builtinSizeOf(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("size_of: want 1 argument, got %d", len(args))
	}
	return sizeOf(args[0]), nil
}

// sizeOf counts a selector value: nil and "" are empty, lists count their
// elements, any other scalar is one value.
func sizeOf(value any) int {
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		if v == "" {
			return 0
		}
		return 1
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	default:
		return 1
	}
}

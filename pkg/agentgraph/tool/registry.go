package tool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
)

// Sentinel errors for tool registration.
var (
	// ErrEmptyName indicates a tool with no name.
	ErrEmptyName = errors.New("tool name cannot be empty")

	// ErrInvalidName indicates a tool name containing whitespace.
	ErrInvalidName = errors.New("tool name cannot contain whitespace")

	// ErrNilFunc indicates a tool with no implementation.
	ErrNilFunc = errors.New("tool function cannot be nil")

	// ErrDuplicate indicates a tool name registered twice.
	ErrDuplicate = errors.New("duplicate tool name")

	// ErrNotFound indicates a lookup for an unregistered tool.
	ErrNotFound = errors.New("tool not found")
)

// Registry is a thread-safe, name-indexed tool set.
// Registration happens at agent construction time; after that the
// registry is only read, from lookups during tool dispatch.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
// Returns an error for invalid descriptors or duplicate names.
func (r *Registry) Register(t Tool) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("register tool %q: %w", t.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("register tool %q: %w", t.Name, ErrDuplicate)
	}

	r.tools[t.Name] = t
	return nil
}

// RegisterAll adds multiple tools, stopping at the first error.
func (r *Registry) RegisterAll(tools []Tool) error {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the tool for a name and whether it exists.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Has returns true if the name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Schemas returns the tool schemas to advertise to the model,
// ordered by tool name.
func (r *Registry) Schemas() []llm.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	schemas := make([]llm.ToolSchema, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		schemas = append(schemas, llm.ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return schemas
}

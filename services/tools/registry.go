package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services"
)

// Registry manages the closed set of tools available to the generator.
// Tools register once at startup; lookups are concurrent-safe.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register validates a tool's schema and adds it to the registry.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return services.NewDomainError(services.ErrorTypeValidation, "tool cannot be nil", nil)
	}

	schema := tool.Schema()
	if err := validateSchema(schema); err != nil {
		return err
	}
	if schema.Name != tool.Name() {
		return services.NewDomainError(services.ErrorTypeValidation,
			fmt.Sprintf("tool name %q does not match schema name %q", tool.Name(), schema.Name), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[schema.Name]; exists {
		return services.NewDomainError(services.ErrorTypeValidation,
			fmt.Sprintf("tool %q already registered", schema.Name), nil)
	}

	r.tools[schema.Name] = tool
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, services.NewDomainError(services.ErrorTypeNotFound,
			fmt.Sprintf("tool %q not found", name), services.ErrToolNotFound).
			WithDetail("tool", name)
	}
	return tool, nil
}

// Schemas returns all registered schemas sorted by name, for prompt
// assembly and provider requests.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]Schema, 0, len(r.tools))
	for _, tool := range r.tools {
		schemas = append(schemas, tool.Schema())
	}
	sort.Slice(schemas, func(i, j int) bool {
		return schemas[i].Name < schemas[j].Name
	})
	return schemas
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

func validateSchema(schema Schema) error {
	if schema.Name == "" {
		return services.NewDomainError(services.ErrorTypeValidation, "tool schema name cannot be empty", nil)
	}
	if schema.Description == "" {
		return services.NewDomainError(services.ErrorTypeValidation, "tool schema description cannot be empty", nil).
			WithDetail("tool", schema.Name)
	}
	for name, spec := range schema.Parameters {
		switch spec.Type {
		case ParamTypeString, ParamTypeNumber, ParamTypeInteger, ParamTypeBoolean:
		default:
			return services.NewDomainError(services.ErrorTypeValidation,
				fmt.Sprintf("tool %q declares unsupported parameter type %q", schema.Name, spec.Type),
				services.ErrToolInvalidSchema).
				WithDetail("tool", schema.Name).
				WithDetail("parameter", name).
				WithDetail("type", string(spec.Type))
		}
	}
	return nil
}

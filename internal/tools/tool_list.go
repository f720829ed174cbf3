package tools

import (
	"context"
	"sort"

	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/schema"
)

// RegistryTools names the tool set in UnknownEntityError.
const RegistryTools = "tools"

// ToolList is the set of tools offered to the model for one turn.
type ToolList struct {
	tools map[string]schema.Tool
}

// NewToolList returns the analysis tools bound to env.
func NewToolList(env Env, defaults Defaults) *ToolList {
	return NewRegistry(env, defaults).AllTools()
}

// Get returns the tool with the given name, or nil if not found.
func (r *ToolList) Get(name string) schema.Tool {
	return r.tools[name]
}

// Names returns the tool names in sorted order.
func (r *ToolList) Names() []string {
	names := make([]string, 0, len(r.tools))
	for k := range r.tools {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the tool definitions in name order so requests are
// stable across turns.
func (r *ToolList) Definitions() []schema.ToolDefinition {
	names := r.Names()
	list := make([]schema.ToolDefinition, 0, len(names))
	for _, name := range names {
		list = append(list, schema.DefinitionOf(r.tools[name]))
	}
	return list
}

// Execute runs the named tool. An unknown name yields an
// *catalog.UnknownEntityError over the tool set.
func (r *ToolList) Execute(ctx context.Context, name string, params map[string]any) (string, error) {
	t := r.Get(name)
	if t == nil {
		return "", &catalog.UnknownEntityError{Registry: RegistryTools, Key: name, Available: r.Names()}
	}
	if params == nil {
		params = map[string]any{}
	}
	return t.Execute(ctx, params)
}

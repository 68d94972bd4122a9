// Package tools maps named browser operations to callable handlers behind a
// two-tier registry. The basic tier is always active; the advanced tier is
// enabled at most once per process and never disabled again.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/helmlabs/helmsman/internal/logging"
)

// ToolResult is the outcome of a tool execution. Handler failures travel as
// result content, not transport errors, so one bad call degrades gracefully
// inside the agent loop.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Tool is one named operation the model can invoke.
type Tool interface {
	// Name returns the tool's unique name.
	Name() string

	// Description returns a description for the model.
	Description() string

	// Schema returns the JSON schema for the tool's input.
	Schema() json.RawMessage

	// Execute runs the tool with the given input.
	Execute(ctx context.Context, input json.RawMessage) (*ToolResult, error)
}

// Tier is one of the two capability sets.
type Tier int

const (
	TierBasic Tier = iota
	TierAdvanced
)

// Registry holds every registered tool and tracks which tier is active.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	tools    map[string]Tool
	tier     map[string]Tier
	advanced bool
	onEnable []func()
}

// NewRegistry creates an empty registry with only the basic tier active.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
		tier:  make(map[string]Tier),
	}
}

// Register adds a tool under a tier. Registration order is preserved in
// listings.
func (r *Registry) Register(tier Tier, tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Name()
	if _, dup := r.tools[name]; !dup {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
	r.tier[name] = tier
}

// Get returns a tool by name if its tier is active.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok || (r.tier[name] == TierAdvanced && !r.advanced) {
		return nil, false
	}
	return tool, true
}

// Known reports whether name is registered under any tier. Recordings use it
// so a loaded file can reference advanced operations regardless of the tier
// active at load time.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Active returns the tools of the currently active tiers, in registration
// order.
func (r *Registry) Active() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		if r.tier[name] == TierAdvanced && !r.advanced {
			continue
		}
		out = append(out, r.tools[name])
	}
	return out
}

// AdvancedEnabled reports whether the advanced tier is active.
func (r *Registry) AdvancedEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.advanced
}

// EnableAdvanced activates the advanced tier. The switch is monotonic; the
// return value reports whether this call flipped it.
func (r *Registry) EnableAdvanced() bool {
	r.mu.Lock()
	if r.advanced {
		r.mu.Unlock()
		return false
	}
	r.advanced = true
	callbacks := append([]func(){}, r.onEnable...)
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return true
}

// OnEnableAdvanced registers a callback invoked when the advanced tier
// activates. The transport layer uses it to publish the grown tool list.
func (r *Registry) OnEnableAdvanced(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEnable = append(r.onEnable, fn)
}

// Execute runs a tool by name. Unknown or inactive names and handler errors
// all come back as results, never as hard failures.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) *ToolResult {
	tool, ok := r.Get(name)
	if !ok {
		return &ToolResult{Content: fmt.Sprintf("Unknown tool: %s", name), IsError: true}
	}
	result, err := tool.Execute(ctx, input)
	if err != nil {
		logging.Errorf("tool %s failed: %v", name, err)
		return &ToolResult{Content: err.Error(), IsError: true}
	}
	return result
}

// funcTool adapts a closure to the Tool interface. Expected operational
// failures (timeouts, bad locators) come back in the string; the error return
// is for genuine handler faults and sets IsError.
type funcTool struct {
	name        string
	description string
	schema      string
	run         func(ctx context.Context, input json.RawMessage) (string, error)
}

func (t *funcTool) Name() string            { return t.name }
func (t *funcTool) Description() string     { return t.description }
func (t *funcTool) Schema() json.RawMessage { return json.RawMessage(t.schema) }

func (t *funcTool) Execute(ctx context.Context, input json.RawMessage) (*ToolResult, error) {
	content, err := t.run(ctx, input)
	if err != nil {
		return &ToolResult{Content: err.Error(), IsError: true}, nil
	}
	return &ToolResult{Content: content}, nil
}

// unmarshalArgs decodes tool input, treating absent input as all-defaults.
func unmarshalArgs(input json.RawMessage, v any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

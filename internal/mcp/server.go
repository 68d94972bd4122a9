// Package mcp exposes the tool registry over the Model Context Protocol,
// either on stdio or as a streamable HTTP handler.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/helmlabs/helmsman/internal/logging"
	"github.com/helmlabs/helmsman/internal/tools"
)

// Server bridges the tool registry to MCP clients. Only tools of active
// tiers are published; enabling the advanced tier re-syncs the list, which
// notifies connected clients via tools/list_changed.
type Server struct {
	registry *tools.Registry
	server   *mcp.Server

	mu        sync.Mutex
	published map[string]bool
}

// NewServer wraps a registry. The registry's active tools are published
// immediately.
func NewServer(registry *tools.Registry, version string) *Server {
	s := &Server{
		registry:  registry,
		published: make(map[string]bool),
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "helmsman",
		Version: version,
	}, nil)

	s.publishActive()
	registry.OnEnableAdvanced(s.publishActive)
	return s
}

// publishActive adds every active registry tool to the MCP server. AddTool
// replaces existing entries, so re-publication after a tier change is safe.
func (s *Server) publishActive() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tool := range s.registry.Active() {
		name := tool.Name()
		if s.published[name] {
			continue
		}
		var schema map[string]any
		if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
			logging.Errorf("bad schema for tool %s: %v", name, err)
			continue
		}
		s.server.AddTool(&mcp.Tool{
			Name:        name,
			Description: tool.Description(),
			InputSchema: schema,
		}, s.toolHandler(name))
		s.published[name] = true
	}
}

// toolHandler dispatches one named tool through the registry. Panics become
// error results so a misbehaving handler cannot tear down the transport.
func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				logging.Errorf("tool %s panicked: %v", name, r)
				result = &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("tool panicked: %v", r)}},
					IsError: true,
				}
				err = nil
			}
		}()

		input := json.RawMessage(req.Params.Arguments)
		res := s.registry.Execute(ctx, name, input)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.Content}},
			IsError: res.IsError,
		}, nil
	}
}

// RunStdio serves the MCP session over stdin/stdout until the client
// disconnects or ctx is canceled.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler for mounting on a router.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			return s.server
		},
		nil,
	)
}

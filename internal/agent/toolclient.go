package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/helmlabs/helmsman/internal/logging"
)

// ToolDescriptor is one callable operation as presented to the model.
type ToolDescriptor struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolClient is the loop's view of the tool server. Failures here are
// transport failures and abort the current query; per-tool failures travel
// inside the returned content.
type ToolClient interface {
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) ([]string, error)
	Close() error
}

// MCPToolClient speaks MCP to a tool server over stdio or streamable HTTP.
type MCPToolClient struct {
	session *mcp.ClientSession
}

func newClient() *mcp.Client {
	return mcp.NewClient(&mcp.Implementation{
		Name:    "helmsman-agent",
		Version: "1.0.0",
	}, nil)
}

// ConnectCommand spawns the tool server as a subprocess and connects to it
// over stdio.
func ConnectCommand(ctx context.Context, command string, args ...string) (*MCPToolClient, error) {
	transport := &mcp.CommandTransport{Command: exec.Command(command, args...)}
	session, err := newClient().Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to tool server: %w", err)
	}
	logging.Infof("Connected to tool server: %s", command)
	return &MCPToolClient{session: session}, nil
}

// ConnectHTTP connects to a tool server already listening on a streamable
// HTTP endpoint.
func ConnectHTTP(ctx context.Context, endpoint string) (*MCPToolClient, error) {
	transport := &mcp.StreamableClientTransport{Endpoint: endpoint}
	session, err := newClient().Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to tool server at %s: %w", endpoint, err)
	}
	logging.Infof("Connected to tool server at %s", endpoint)
	return &MCPToolClient{session: session}, nil
}

// ListTools fetches the server's current tool list with schema titles
// stripped, since they mean nothing to the model.
func (c *MCPToolClient) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	descriptors := make([]ToolDescriptor, 0, len(result.Tools))
	for _, tool := range result.Tools {
		schema, err := schemaMap(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("bad schema for tool %s: %w", tool.Name, err)
		}
		stripTitles(schema)
		descriptors = append(descriptors, ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			Schema:      schema,
		})
	}
	return descriptors, nil
}

// CallTool invokes a tool and returns its text content parts in order.
func (c *MCPToolClient) CallTool(ctx context.Context, name string, args map[string]any) ([]string, error) {
	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("tool call %s failed: %w", name, err)
	}
	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return parts, nil
}

// Close ends the MCP session.
func (c *MCPToolClient) Close() error {
	return c.session.Close()
}

// schemaMap normalizes whatever schema representation the SDK hands back
// into a plain map.
func schemaMap(schema any) (map[string]any, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// stripTitles removes title fields at every nesting level.
func stripTitles(schema map[string]any) {
	delete(schema, "title")
	for _, value := range schema {
		switch v := value.(type) {
		case map[string]any:
			stripTitles(v)
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					stripTitles(m)
				}
			}
		}
	}
}

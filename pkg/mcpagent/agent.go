// Package mcpagent exposes a single MCP tool as a lookup collaborator: the
// request text goes into one tool argument and the tool's text content is
// the reply.
package mcpagent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultArgument is the tool argument that receives the request text.
const DefaultArgument = "query"

// Agent calls one tool on a connected MCP session.
type Agent struct {
	session  *mcp.ClientSession
	tool     string
	argument string
}

// New wraps an existing session. An empty argument means DefaultArgument.
func New(session *mcp.ClientSession, tool, argument string) *Agent {
	if argument == "" {
		argument = DefaultArgument
	}
	return &Agent{session: session, tool: tool, argument: argument}
}

// Dial connects to a streamable-HTTP MCP server at endpoint.
func Dial(ctx context.Context, endpoint, tool, argument string) (*Agent, error) {
	if tool == "" {
		return nil, errors.New("mcp tool name is required")
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "tickertape", Version: "v0.1.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: endpoint}, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to mcp server %s: %w", endpoint, err)
	}
	return New(session, tool, argument), nil
}

// Ask calls the tool with text and joins the text content of the result.
func (a *Agent) Ask(ctx context.Context, text string) (string, error) {
	res, err := a.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      a.tool,
		Arguments: map[string]any{a.argument: text},
	})
	if err != nil {
		return "", fmt.Errorf("calling tool %s: %w", a.tool, err)
	}

	reply := joinText(res.Content)
	if res.IsError {
		return "", fmt.Errorf("tool %s failed: %s", a.tool, reply)
	}
	return reply, nil
}

// Close ends the MCP session.
func (a *Agent) Close() error {
	return a.session.Close()
}

func joinText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

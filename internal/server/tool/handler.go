// Package tool turns MCP tool calls into catalog endpoint calls.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/brizzai/httpdeco/internal/logger"
	"github.com/brizzai/httpdeco/pkg/transport"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Caller calls a named endpoint with params and a per-call config fragment.
type Caller interface {
	Call(ctx context.Context, name string, params, cfg map[string]any) (*transport.Response, error)
}

// Handler executes tool calls against a Caller.
type Handler struct {
	caller Caller
}

// NewHandler creates a new tool handler.
func NewHandler(caller Caller) *Handler {
	return &Handler{caller: caller}
}

// CreateHandler creates the handler for tool, calling endpoint. The tool arguments become the
// endpoint's params unless the endpoint takes none. Failures are reported as error results.
func (h *Handler) CreateHandler(tool *mcp.Tool, endpoint string, takesParams bool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var params map[string]any
		if takesParams {
			params = maps.Clone(request.GetArguments())
		}

		resp, err := h.caller.Call(ctx, endpoint, params, nil)
		if err != nil {
			logger.Warn("Tool call failed", zap.String("tool", tool.Name), zap.Error(err))
			if te, ok := transport.AsError(err); ok && te.Response != nil {
				return mcp.NewToolResultError(fmt.Sprintf("HTTP Error %d: %s", te.Response.Status, string(te.Response.Body))), nil
			}
			return mcp.NewToolResultError(err.Error()), nil
		}

		text, err := ResultText(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to encode result for tool %s: %w", tool.Name, err)
		}
		return mcp.NewToolResultText(text), nil
	}
}

// ResultText renders a response as tool output: the raw body when there is one, otherwise the decoded
// data.
func ResultText(resp *transport.Response) (string, error) {
	if resp == nil {
		return "", nil
	}
	if len(resp.Body) > 0 {
		return string(resp.Body), nil
	}
	switch data := resp.Data.(type) {
	case nil:
		return "", nil
	case string:
		return data, nil
	}
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

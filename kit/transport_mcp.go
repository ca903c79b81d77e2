package kit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DecodeFunc turns raw tool arguments into an endpoint request.
type DecodeFunc func(args json.RawMessage) (any, error)

// DecodeJSON returns a DecodeFunc that unmarshals the arguments into a new *T.
func DecodeJSON[T any]() DecodeFunc {
	return func(args json.RawMessage) (any, error) {
		v := new(T)
		if len(args) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(args, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// MCPOption configures RegisterMCPTool.
type MCPOption func(*mcpTool)

// WithPublicError replaces every endpoint error with msg in the tool result.
func WithPublicError(msg string) MCPOption {
	return func(t *mcpTool) { t.publicErr = msg }
}

type mcpTool struct {
	endpoint  Endpoint
	decode    DecodeFunc
	publicErr string
}

// RegisterMCPTool exposes endpoint as an MCP tool. The JSON-encoded response
// becomes the tool's text content; endpoint errors become tool errors.
func RegisterMCPTool(srv *mcp.Server, tool *mcp.Tool, endpoint Endpoint, decode DecodeFunc, opts ...MCPOption) {
	t := &mcpTool{endpoint: endpoint, decode: decode}
	for _, o := range opts {
		o(t)
	}
	srv.AddTool(tool, t.handle)
}

func (t *mcpTool) handle(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := t.decode(req.Params.Arguments)
	if err != nil {
		return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	// Transports that carry MCP (mcpquic) tag the context themselves.
	if _, ok := ctx.Value(TransportKey).(string); !ok {
		ctx = WithTransport(ctx, "mcp")
	}
	out, err := t.endpoint(ctx, in)
	if err != nil {
		if t.publicErr != "" {
			err = errors.New(t.publicErr)
		}
		return toolError(err), nil
	}

	data, err := json.Marshal(out)
	if err != nil {
		return toolError(fmt.Errorf("marshal: %w", err)), nil
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

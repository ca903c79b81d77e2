package wardlookup

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/wardfinder/kit"
)

// RegisterMCP registers the wardfinder tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "wardfinder_lookup",
		Description: "Find the Chicago ward and alderperson for a street address, with ward office contact details.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"address": map[string]any{"type": "string", "description": "Chicago street address, e.g. \"121 N LaSalle St\""},
			},
			"required": []string{"address"},
		},
	}

	// Tool errors carry the same generic message as the HTTP surface.
	kit.RegisterMCPTool(srv, tool, s.endpoint, kit.DecodeJSON[LookupRequest](), kit.WithPublicError(ErrorMessage))
}

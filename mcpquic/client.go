package mcpquic

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quic-go/quic-go"
)

// HandshakeTimeout bounds the MCP initialize exchange after dialing.
const HandshakeTimeout = 10 * time.Second

// ErrToolFailed is returned by Lookup when the remote tool reports an error.
var ErrToolFailed = errors.New("mcpquic: tool call failed")

// Client is one MCP session to a remote Listener. `wardfinder -mcp-quic-call`
// uses it to check a deployed listener end to end.
type Client struct {
	conn    *quic.Conn
	session *mcp.ClientSession
}

// Dial connects to addr, sends the preamble and completes the MCP initialize
// handshake. A nil tlsCfg verifies the server certificate.
func Dial(ctx context.Context, addr string, tlsCfg *tls.Config) (*Client, error) {
	if tlsCfg == nil {
		tlsCfg = ClientTLSConfig(false)
	}
	conn, err := quic.DialAddr(ctx, addr, tlsCfg, ProductionQUICConfig())
	if err != nil {
		return nil, fmt.Errorf("mcpquic: dial %s: %w", addr, err)
	}
	stream, err := openSession(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("mcpquic: open session: %w", err)
	}

	hsCtx, cancel := context.WithTimeout(ctx, HandshakeTimeout)
	defer cancel()
	impl := &mcp.Implementation{Name: "wardfinder-quic-client", Version: "1.0.0"}
	session, err := mcp.NewClient(impl, nil).Connect(hsCtx, &streamTransport{stream: stream}, nil)
	if err != nil {
		conn.CloseWithError(ConnErrorProtocolViolation, "initialize")
		return nil, fmt.Errorf("mcpquic: initialize: %w", err)
	}
	return &Client{conn: conn, session: session}, nil
}

// Tools returns the names of the remote tools.
func (c *Client) Tools(ctx context.Context) ([]string, error) {
	res, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.Tools))
	for _, t := range res.Tools {
		names = append(names, t.Name)
	}
	return names, nil
}

// Call invokes a remote tool and returns its concatenated text content.
// A tool-level error is ErrToolFailed carrying that text.
func (c *Client) Call(ctx context.Context, tool string, args map[string]any) (string, error) {
	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	if res.IsError {
		return b.String(), fmt.Errorf("%w: %s", ErrToolFailed, b.String())
	}
	return b.String(), nil
}

// Lookup calls wardfinder_lookup for address.
func (c *Client) Lookup(ctx context.Context, address string) (string, error) {
	return c.Call(ctx, "wardfinder_lookup", map[string]any{"address": address})
}

// Close ends the session and the connection.
func (c *Client) Close() error {
	err := c.session.Close()
	c.conn.CloseWithError(ConnErrorNoError, "client closing")
	return err
}

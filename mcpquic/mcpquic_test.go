package mcpquic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestSendAndValidate_Roundtrip(t *testing.T) {
	var buf bytes.Buffer
	if err := SendMagicBytes(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != MagicBytesMCP {
		t.Fatalf("magic: got %q, want %q", buf.String(), MagicBytesMCP)
	}
	if err := ValidateMagicBytes(&buf); err != nil {
		t.Fatal(err)
	}
}

func TestValidateMagicBytes_Invalid(t *testing.T) {
	err := ValidateMagicBytes(bytes.NewReader([]byte("HTTP")))
	if !errors.Is(err, ErrInvalidMagicBytes) {
		t.Fatalf("expected ErrInvalidMagicBytes, got: %v", err)
	}
}

func TestValidateMagicBytes_TooShort(t *testing.T) {
	if err := ValidateMagicBytes(bytes.NewReader([]byte("MC"))); err == nil {
		t.Fatal("expected error for short input")
	}
}

func TestProductionQUICConfig(t *testing.T) {
	cfg := ProductionQUICConfig()
	if cfg.MaxIdleTimeout != DefaultIdleTimeout {
		t.Fatalf("idle timeout: got %v", cfg.MaxIdleTimeout)
	}
	if cfg.KeepAlivePeriod != DefaultKeepAlive {
		t.Fatalf("keepalive: got %v", cfg.KeepAlivePeriod)
	}
	if cfg.Allow0RTT {
		t.Fatal("0-RTT should be disabled")
	}
}

func TestSelfSignedTLSConfig(t *testing.T) {
	cfg, err := SelfSignedTLSConfig()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Certificates) != 1 {
		t.Fatalf("certs: got %d", len(cfg.Certificates))
	}
	if cfg.MinVersion != 0x0304 { // tls.VersionTLS13
		t.Fatalf("min version: got %x", cfg.MinVersion)
	}
	if len(cfg.NextProtos) != 1 || cfg.NextProtos[0] != ALPNProtocolMCP {
		t.Fatalf("ALPN: got %v", cfg.NextProtos)
	}
}

func TestClientTLSConfig(t *testing.T) {
	if !ClientTLSConfig(true).InsecureSkipVerify {
		t.Fatal("expected InsecureSkipVerify=true")
	}
	if ClientTLSConfig(false).InsecureSkipVerify {
		t.Fatal("expected InsecureSkipVerify=false")
	}
}

func TestConnectionError(t *testing.T) {
	inner := errors.New("timeout")
	ce := &ConnectionError{RemoteAddr: "127.0.0.1:8443", Code: ConnErrorProtocolViolation, Err: inner}

	msg := ce.Error()
	if !strings.Contains(msg, "127.0.0.1:8443") || !strings.Contains(msg, "0x03") {
		t.Fatalf("error message: %s", msg)
	}
	if !errors.Is(ce, inner) {
		t.Fatal("Unwrap should return inner error")
	}
}

func TestDial_NoServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := Dial(ctx, "127.0.0.1:1", ClientTLSConfig(true)); err == nil {
		t.Fatal("expected dial error")
	}
}

func testServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "quic-test", Version: "0"}, nil)
	srv.AddTool(&mcp.Tool{
		Name:        "wardfinder_lookup",
		Description: "echoes the address argument",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{"address": map[string]any{"type": "string"}}},
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Address string `json:"address"`
		}
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, err
		}
		res := &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "ward for " + args.Address}}}
		if args.Address == "" {
			res.Content = []mcp.Content{&mcp.TextContent{Text: "no address"}}
			res.IsError = true
		}
		return res, nil
	})
	return srv
}

func TestListener_Roundtrip(t *testing.T) {
	tlsCfg, err := SelfSignedTLSConfig()
	if err != nil {
		t.Fatal(err)
	}
	var ids atomic.Int32
	l, err := NewListener("127.0.0.1:0", tlsCfg, testServer(), nil, WithSessionIDs(func() string {
		ids.Add(1)
		return "t"
	}))
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go l.Serve(ctx)

	c, err := Dial(ctx, l.Addr().String(), ClientTLSConfig(true))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	tools, err := c.Tools(ctx)
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	if len(tools) != 1 || tools[0] != "wardfinder_lookup" {
		t.Fatalf("tools: got %v", tools)
	}

	got, err := c.Lookup(ctx, "121 N LaSalle St")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != "ward for 121 N LaSalle St" {
		t.Fatalf("result: got %q", got)
	}

	text, err := c.Call(ctx, "wardfinder_lookup", map[string]any{"address": ""})
	if !errors.Is(err, ErrToolFailed) {
		t.Fatalf("tool error: got %v, want ErrToolFailed", err)
	}
	if text != "no address" {
		t.Fatalf("tool error text: got %q", text)
	}
	if n := ids.Load(); n != 1 {
		t.Fatalf("session ids: got %d, want 1", n)
	}
}

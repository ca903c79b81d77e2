package kit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	resp, err := Chain(mw("a"), mw("b"))(base)(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	expected := []string{"a_before", "b_before", "endpoint", "b_after", "a_after"}
	if len(order) != len(expected) {
		t.Fatalf("order length: got %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Fatalf("order[%d]: got %q, want %q", i, order[i], v)
		}
	}
}

func TestChain_Empty(t *testing.T) {
	base := func(_ context.Context, req any) (any, error) { return req, nil }
	resp, err := Chain()(base)(context.Background(), 7)
	if err != nil || resp != 7 {
		t.Fatalf("got %v, %v", resp, err)
	}
}

func TestLogging_Outcome(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	errFail := errors.New("fail")

	ep := Logging(logger, "lookup")(func(context.Context, any) (any, error) { return nil, errFail })
	ctx := WithTraceID(WithTransport(context.Background(), "cli"), "trc_1")
	if _, err := ep(ctx, nil); !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line: %v (%s)", err, buf.String())
	}
	if rec["level"] != "WARN" || rec["endpoint"] != "lookup" || rec["transport"] != "cli" || rec["trace_id"] != "trc_1" {
		t.Fatalf("log record: got %v", rec)
	}
}

func TestContext_Defaults(t *testing.T) {
	ctx := context.Background()
	if v := GetTransport(ctx); v != "http" {
		t.Fatalf("default transport: got %q, want 'http'", v)
	}
	if v := GetRequestID(ctx); v != "" {
		t.Fatalf("request_id default: got %q", v)
	}
	if v := GetTraceID(ctx); v != "" {
		t.Fatalf("trace_id default: got %q", v)
	}
	if v := GetLookupID(ctx); v != "" {
		t.Fatalf("lookup_id default: got %q", v)
	}
}

func TestContext_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req_abc")
	ctx = WithTraceID(ctx, "trc_xyz")
	ctx = WithLookupID(ctx, "lk_1")
	ctx = WithRemoteAddr(ctx, "10.0.0.1")
	ctx = WithTransport(ctx, "mcp")

	if v := GetRequestID(ctx); v != "req_abc" {
		t.Fatalf("request_id: got %q", v)
	}
	if v := GetTraceID(ctx); v != "trc_xyz" {
		t.Fatalf("trace_id: got %q", v)
	}
	if v := GetLookupID(ctx); v != "lk_1" {
		t.Fatalf("lookup_id: got %q", v)
	}
	if v := GetRemoteAddr(ctx); v != "10.0.0.1" {
		t.Fatalf("remote_addr: got %q", v)
	}
	if v := GetTransport(ctx); v != "mcp" {
		t.Fatalf("transport: got %q", v)
	}
}

func TestRegisterMCPTool(t *testing.T) {
	srv := mcp.NewServer(&mcp.Implementation{Name: "kit-test", Version: "0"}, nil)

	var sawTransport string
	type echoArgs struct {
		Text string `json:"text"`
	}
	echo := func(ctx context.Context, req any) (any, error) {
		sawTransport = GetTransport(ctx)
		s := req.(*echoArgs).Text
		if s == "" {
			return nil, errors.New("empty input at offset 0")
		}
		return map[string]string{"echo": strings.ToUpper(s)}, nil
	}
	RegisterMCPTool(srv, &mcp.Tool{
		Name:        "echo",
		Description: "upper-cases its input",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{"text": map[string]any{"type": "string"}}},
	}, echo, DecodeJSON[echoArgs](), WithPublicError("echo failed"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st, ct := mcp.NewInMemoryTransports()
	go func() { _ = srv.Run(ctx, st) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{"text": "ward"}})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	text := res.Content[0].(*mcp.TextContent).Text
	if text != `{"echo":"WARD"}` {
		t.Fatalf("content: got %q", text)
	}
	if sawTransport != "mcp" {
		t.Fatalf("transport: got %q, want mcp", sawTransport)
	}

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{"text": ""}})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for empty input")
	}
	if got := res.Content[0].(*mcp.TextContent).Text; got != "echo failed" {
		t.Fatalf("public error: got %q, want %q", got, "echo failed")
	}
}

func TestDecodeJSON(t *testing.T) {
	type args struct {
		Address string `json:"address"`
	}
	decode := DecodeJSON[args]()

	v, err := decode(json.RawMessage(`{"address":"1 Main St"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := v.(*args).Address; got != "1 Main St" {
		t.Fatalf("address: got %q", got)
	}

	v, err = decode(nil)
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if got := v.(*args).Address; got != "" {
		t.Fatalf("empty args: got %q", got)
	}

	if _, err := decode(json.RawMessage(`{"address":`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestMCPTool_KeepsCallerTransport(t *testing.T) {
	var saw string
	tool := &mcpTool{
		endpoint: func(ctx context.Context, _ any) (any, error) {
			saw = GetTransport(ctx)
			return "ok", nil
		},
		decode: DecodeJSON[struct{}](),
	}
	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(`{}`)}}

	if _, err := tool.handle(WithTransport(context.Background(), "mcp_quic"), req); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if saw != "mcp_quic" {
		t.Fatalf("transport: got %q, want mcp_quic", saw)
	}

	if _, err := tool.handle(context.Background(), req); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if saw != "mcp" {
		t.Fatalf("transport: got %q, want mcp", saw)
	}
}

package mcpquic

import (
	"context"
	"errors"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quic-go/quic-go"
)

// streamTransport runs newline-delimited JSON-RPC over one QUIC stream.
// An empty id keeps the SDK's own session ID.
type streamTransport struct {
	stream *quic.Stream
	id     string
}

func (t *streamTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	conn, err := (&mcp.IOTransport{
		Reader: io.NopCloser(t.stream),
		Writer: streamWriter{t.stream},
	}).Connect(ctx)
	if err != nil || t.id == "" {
		return conn, err
	}
	return namedConn{Connection: conn, id: t.id}, nil
}

type namedConn struct {
	mcp.Connection
	id string
}

func (c namedConn) SessionID() string { return c.id }

type streamWriter struct{ s *quic.Stream }

func (w streamWriter) Write(p []byte) (int, error) { return w.s.Write(p) }
func (w streamWriter) Close() error                { return w.s.Close() }

// acceptSession checks ALPN, accepts the session stream and validates its
// preamble. On failure the connection is already closed with the returned code.
func acceptSession(ctx context.Context, conn *quic.Conn) (*quic.Stream, error) {
	fail := func(code quic.ApplicationErrorCode, err error) (*quic.Stream, error) {
		conn.CloseWithError(code, err.Error())
		return nil, &ConnectionError{RemoteAddr: conn.RemoteAddr().String(), Code: code, Err: err}
	}

	if alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn != ALPNProtocolMCP {
		return fail(ConnErrorUnsupportedALPN, ErrUnsupportedALPN)
	}
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		return fail(ConnErrorProtocolViolation, err)
	}
	if err := ValidateMagicBytes(stream); err != nil {
		stream.CancelRead(StreamErrorProtocolConfusion)
		stream.CancelWrite(StreamErrorProtocolConfusion)
		return fail(ConnErrorProtocolViolation, err)
	}
	return stream, nil
}

// openSession is the client half of acceptSession.
func openSession(ctx context.Context, conn *quic.Conn) (*quic.Stream, error) {
	if alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn != ALPNProtocolMCP {
		conn.CloseWithError(ConnErrorUnsupportedALPN, "unsupported ALPN")
		return nil, errors.Join(ErrUnsupportedALPN, errors.New("negotiated "+alpn))
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(ConnErrorProtocolViolation, "open stream")
		return nil, err
	}
	if err := SendMagicBytes(stream); err != nil {
		stream.Close()
		conn.CloseWithError(ConnErrorProtocolViolation, "preamble")
		return nil, err
	}
	return stream, nil
}

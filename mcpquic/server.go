package mcpquic

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quic-go/quic-go"

	"github.com/hazyhaar/wardfinder/kit"
)

// Listener serves one MCP server to every QUIC connection it accepts.
// Each connection carries exactly one MCP session.
type Listener struct {
	ql     *quic.Listener
	srv    *mcp.Server
	logger *slog.Logger
	newID  func() string

	sessions sync.WaitGroup
}

// Option configures a Listener.
type Option func(*Listener)

// WithSessionIDs sets the session ID generator. IDs are prefixed "quic_".
func WithSessionIDs(gen func() string) Option {
	return func(l *Listener) { l.newID = gen }
}

// NewListener binds addr (UDP). tlsCfg must offer ALPNProtocolMCP.
func NewListener(addr string, tlsCfg *tls.Config, srv *mcp.Server, logger *slog.Logger, opts ...Option) (*Listener, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ql, err := quic.ListenAddr(addr, tlsCfg, ProductionQUICConfig())
	if err != nil {
		return nil, err
	}
	l := &Listener{
		ql:     ql,
		srv:    srv,
		logger: logger,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, o := range opts {
		o(l)
	}
	logger.Info("mcpquic: listening", "addr", ql.Addr().String())
	return l, nil
}

// Addr returns the bound UDP address.
func (l *Listener) Addr() net.Addr { return l.ql.Addr() }

// Serve accepts connections until ctx is done or the listener is closed,
// then waits for open sessions to finish.
func (l *Listener) Serve(ctx context.Context) error {
	defer l.sessions.Wait()
	for {
		conn, err := l.ql.Accept(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, quic.ErrServerClosed):
			return ErrConnectionClosed
		case err != nil:
			l.logger.Warn("mcpquic: accept failed", "error", err)
			continue
		}

		l.sessions.Add(1)
		go func() {
			defer l.sessions.Done()
			l.serveConn(ctx, conn)
		}()
	}
}

func (l *Listener) serveConn(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()
	stream, err := acceptSession(ctx, conn)
	if err != nil {
		l.logger.Warn("mcpquic: session rejected", "remote", remote, "error", err)
		return
	}

	id := "quic_" + l.newID()
	ctx = kit.WithTransport(ctx, "mcp_quic")
	ctx = kit.WithRequestID(ctx, id)
	ctx = kit.WithRemoteAddr(ctx, remote)
	log := l.logger.With("session", id, "remote", remote)

	ss, err := l.srv.Connect(ctx, &streamTransport{stream: stream, id: id}, nil)
	if err != nil {
		log.Error("mcpquic: session setup failed", "error", err)
		stream.Close()
		conn.CloseWithError(ConnErrorInternal, "session setup")
		return
	}
	log.Info("mcpquic: session started")
	if err := ss.Wait(); err != nil {
		log.Debug("mcpquic: session wait", "error", err)
	}
	conn.CloseWithError(ConnErrorNoError, "")
	log.Info("mcpquic: session ended")
}

// Close stops accepting connections.
func (l *Listener) Close() error {
	return l.ql.Close()
}

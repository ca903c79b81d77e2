// CLAUDE:SUMMARY CLI entry point for wardfinder: HTTP server, one-shot lookup, probe dump, MCP over stdio or QUIC.
// Command wardfinder answers "who is my Chicago alderperson".
//
// Usage:
//
//	wardfinder                                  # serve HTTP on server.addr (default :8080)
//	wardfinder -mcp-quic :9444                  # HTTP plus MCP over QUIC
//	wardfinder -address "121 N LaSalle St"      # one lookup, JSON on stdout
//	wardfinder -probe "121 N LaSalle St"        # result page as markdown, for selector drift
//	wardfinder -mcp                             # MCP server on stdio
//	wardfinder -mcp-quic-call host:9444 -address "..."  # call a remote QUIC listener
package main

import (
	"context"
	"crypto/tls"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/wardfinder/kit"
	"github.com/hazyhaar/wardfinder/mcpquic"
	"github.com/hazyhaar/wardfinder/opendata"
	"github.com/hazyhaar/wardfinder/shield"
	"github.com/hazyhaar/wardfinder/wardlookup"
)

//go:embed static
var staticFS embed.FS

const version = "1.0.0"

type options struct {
	configPath  string
	address     string
	probe       string
	mcpStdio    bool
	mcpQUIC     string
	mcpQUICCall string
	tlsCert     string
	tlsKey      string
	insecure    bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to wardfinder.yaml")
	flag.StringVar(&o.address, "address", "", "look up one address and print JSON")
	flag.StringVar(&o.probe, "probe", "", "submit an address and print the result page as markdown")
	flag.BoolVar(&o.mcpStdio, "mcp", false, "serve MCP on stdin/stdout")
	flag.StringVar(&o.mcpQUIC, "mcp-quic", "", "also serve MCP over QUIC on this UDP address")
	flag.StringVar(&o.mcpQUICCall, "mcp-quic-call", "", "call wardfinder_lookup on a remote QUIC listener (with -address)")
	flag.StringVar(&o.tlsCert, "tls-cert", "", "TLS certificate for -mcp-quic (self-signed when empty)")
	flag.StringVar(&o.tlsKey, "tls-key", "", "TLS key for -mcp-quic")
	flag.BoolVar(&o.insecure, "insecure", false, "skip certificate verification for -mcp-quic-call")
	logLevel := flag.String("log-level", env("LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	// stdout carries results and the stdio MCP stream; logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, o); err != nil {
		logger.Error("wardfinder: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	if o.mcpQUICCall != "" {
		return runQUICCall(ctx, o)
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}

	pipeline := wardlookup.NewPipeline(cfg, wardlookup.WithLogger(logger))
	defer pipeline.Close()

	offices := opendata.New(opendata.Options{
		BaseURL:          cfg.OpenData.BaseURL,
		AppToken:         cfg.OpenData.AppToken,
		Timeout:          cfg.OpenData.Timeout,
		BreakerThreshold: cfg.OpenData.BreakerThreshold,
		BreakerReset:     cfg.OpenData.BreakerReset,
		Logger:           logger,
	})
	svc := wardlookup.NewService(pipeline, offices, logger)

	switch {
	case o.probe != "":
		return runProbe(ctx, pipeline, o.probe, os.Stdout)
	case o.address != "":
		return runLookup(ctx, svc, o.address, os.Stdout)
	case o.mcpStdio:
		return newMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
	}
	return serve(ctx, logger, cfg, svc, o)
}

func loadConfig(path string) (*wardlookup.Config, error) {
	cfg := wardlookup.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = wardlookup.LoadConfigFile(path); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	wardlookup.ApplyEnv(cfg)
	return cfg, nil
}

func newMCPServer(svc *wardlookup.Service) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "wardfinder", Version: version}, nil)
	svc.RegisterMCP(srv)
	return srv
}

func runLookup(ctx context.Context, svc *wardlookup.Service, address string, out io.Writer) error {
	ctx = kit.WithTransport(ctx, "cli")
	resp, err := svc.Endpoint()(ctx, &wardlookup.LookupRequest{Address: address})
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err != nil {
		if eerr := enc.Encode(wardlookup.ErrorResponse{Success: false, Error: wardlookup.ErrorMessage}); eerr != nil {
			return errors.Join(err, fmt.Errorf("write error response: %w", eerr))
		}
		return err
	}
	return enc.Encode(resp)
}

func runProbe(ctx context.Context, p *wardlookup.Pipeline, address string, out io.Writer) error {
	md, raw, err := p.Probe(kit.WithTransport(ctx, "cli"), address)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n\n---\nward=%q alderperson=%q office=%q phone=%q found=%v\n",
		md, raw.Ward, raw.Alderperson, raw.OfficeAddress, raw.WardPhone, raw.Found)
	return nil
}

func runQUICCall(ctx context.Context, o options) error {
	if strings.TrimSpace(o.address) == "" {
		return errors.New("-mcp-quic-call needs -address")
	}
	c, err := mcpquic.Dial(ctx, o.mcpQUICCall, mcpquic.ClientTLSConfig(o.insecure))
	if err != nil {
		return err
	}
	defer c.Close()

	text, err := c.Lookup(ctx, o.address)
	fmt.Println(text)
	return err
}

func serve(ctx context.Context, logger *slog.Logger, cfg *wardlookup.Config, svc *wardlookup.Service, o options) error {
	if o.mcpQUIC != "" {
		if err := startQUIC(ctx, logger, svc, o); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(logger, svc),
		ReadHeaderTimeout: 10 * time.Second,
		// A lookup can spend up to navigation+input+results waiting on Chrome.
		WriteTimeout: cfg.Timeouts.Navigation + cfg.Timeouts.Input + cfg.Timeouts.Results + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("wardfinder: listening", "addr", srv.Addr, "target", cfg.Form.TargetURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("wardfinder: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("wardfinder: stopped")
	return nil
}

func newRouter(logger *slog.Logger, svc *wardlookup.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	for _, mw := range shield.DefaultStack(logger) {
		r.Use(mw)
	}

	svc.Routes(r)

	static, _ := fs.Sub(staticFS, "static")
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "index.html")
	})
	r.Handle("/static/*", http.FileServerFS(staticFS))
	return r
}

func startQUIC(ctx context.Context, logger *slog.Logger, svc *wardlookup.Service, o options) error {
	var (
		tlsCfg *tls.Config
		err    error
	)
	if o.tlsCert != "" && o.tlsKey != "" {
		tlsCfg, err = mcpquic.ServerTLSConfig(o.tlsCert, o.tlsKey)
	} else {
		logger.Warn("wardfinder: MCP QUIC using a self-signed certificate")
		tlsCfg, err = mcpquic.SelfSignedTLSConfig()
	}
	if err != nil {
		return fmt.Errorf("mcp quic tls: %w", err)
	}

	l, err := mcpquic.NewListener(o.mcpQUIC, tlsCfg, newMCPServer(svc), logger)
	if err != nil {
		return fmt.Errorf("mcp quic listen: %w", err)
	}
	go func() {
		defer l.Close()
		if err := l.Serve(ctx); err != nil && ctx.Err() == nil {
			logger.Error("wardfinder: MCP QUIC stopped", "error", err)
		}
	}()
	return nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

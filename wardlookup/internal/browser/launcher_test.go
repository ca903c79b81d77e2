package browser

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-rod/rod"
)

func TestNewLauncher_Defaults(t *testing.T) {
	l := NewLauncher(Config{})
	if l.cfg.IdleWindow <= 0 {
		t.Error("idle window default not applied")
	}
	if l.cfg.Logger == nil {
		t.Error("logger default not applied")
	}
}

func TestLauncher_ClosedRemote(t *testing.T) {
	l := NewLauncher(Config{RemoteURL: "ws://127.0.0.1:1/devtools"})
	l.Close()
	if _, err := l.remoteBrowser(t.Context()); err == nil {
		t.Fatal("expected error from closed launcher")
	}
}

type fakeRemote struct {
	incognitoErr error
	closes       int
}

func (f *fakeRemote) Incognito() (*rod.Browser, error) {
	if f.incognitoErr != nil {
		return nil, f.incognitoErr
	}
	return rod.New(), nil
}

func (f *fakeRemote) Close() error {
	f.closes++
	return nil
}

func TestOpenRemote_RedialsDeadConnection(t *testing.T) {
	dead := &fakeRemote{incognitoErr: errors.New("websocket: close 1006")}
	fresh := &fakeRemote{}
	conns := []*fakeRemote{dead, fresh}
	dials := 0

	l := NewLauncher(Config{RemoteURL: "ws://chrome.test/devtools"})
	l.dial = func(context.Context, string) (remoteConn, error) {
		c := conns[dials]
		dials++
		return c, nil
	}

	var s rodSession
	if err := l.openRemote(t.Context(), &s); err != nil {
		t.Fatalf("openRemote: %v", err)
	}
	if s.browser == nil {
		t.Fatal("session has no browser")
	}
	if dials != 2 {
		t.Fatalf("dials: got %d, want 2", dials)
	}
	if dead.closes != 1 {
		t.Fatalf("dead connection closes: got %d, want 1", dead.closes)
	}
	if l.remote != fresh {
		t.Fatal("launcher should keep the redialed connection")
	}

	// The healthy connection is reused.
	if err := l.openRemote(t.Context(), &s); err != nil {
		t.Fatalf("second openRemote: %v", err)
	}
	if dials != 2 {
		t.Fatalf("dials after reuse: got %d, want 2", dials)
	}
}

func TestOpenRemote_GivesUpAfterOneRedial(t *testing.T) {
	dials := 0
	l := NewLauncher(Config{RemoteURL: "ws://chrome.test/devtools"})
	l.dial = func(context.Context, string) (remoteConn, error) {
		dials++
		return &fakeRemote{incognitoErr: errors.New("target closed")}, nil
	}

	var s rodSession
	if err := l.openRemote(t.Context(), &s); err == nil {
		t.Fatal("expected error")
	}
	if dials != 2 {
		t.Fatalf("dials: got %d, want 2", dials)
	}
	if l.remote != nil {
		t.Fatal("failed connection should not be cached")
	}
}

func TestLauncher_CloseReleasesRemote(t *testing.T) {
	conn := &fakeRemote{}
	l := NewLauncher(Config{RemoteURL: "ws://chrome.test/devtools"})
	l.dial = func(context.Context, string) (remoteConn, error) { return conn, nil }

	if _, err := l.remoteBrowser(t.Context()); err != nil {
		t.Fatalf("remoteBrowser: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if conn.closes != 1 {
		t.Fatalf("closes: got %d, want 1", conn.closes)
	}
	if _, err := l.remoteBrowser(t.Context()); err == nil {
		t.Fatal("expected error from closed launcher")
	}
}

type failingCloser struct{}

func (failingCloser) ID() string   { return "partial-1" }
func (failingCloser) Close() error { return errors.New("page already gone") }

func TestDiscard_LogsCloseError(t *testing.T) {
	var buf bytes.Buffer
	l := NewLauncher(Config{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))})

	l.discard(failingCloser{})

	out := buf.String()
	if !strings.Contains(out, "partial-1") || !strings.Contains(out, "page already gone") {
		t.Fatalf("log: got %q", out)
	}
}

func TestDiscard_EmptySession(t *testing.T) {
	var buf bytes.Buffer
	l := NewLauncher(Config{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))})

	l.discard(&rodSession{id: "empty"})

	if buf.Len() != 0 {
		t.Fatalf("closing an empty session should log nothing, got %q", buf.String())
	}
}

// CLAUDE:SUMMARY Opens one isolated Chrome session per lookup via Rod: local launcher process or remote incognito context.
// Package browser owns Chrome for wardfinder. Each lookup gets its own
// session: a freshly launched local Chrome (own process, own user-data dir)
// or, when a remote Chrome is configured, its own incognito context on a
// shared connection. Sessions are never pooled or reused.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/google/uuid"
)

// Config configures the launcher.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome per session.
	RemoteURL string

	// Bin is the Chrome binary. Empty = let the launcher find or fetch one.
	Bin string

	Headless bool

	// Stealth creates pages through go-rod/stealth.
	Stealth bool

	// ResourceBlocking lists resource types to block (images, fonts, media, stylesheets).
	ResourceBlocking []string

	// IdleWindow is how long the network must be quiet for a navigation to
	// count as settled. Default: 500ms.
	IdleWindow time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.IdleWindow <= 0 {
		c.IdleWindow = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// remoteConn is the shared connection to an external Chrome. Close
// releases the connection only; the remote Chrome keeps running.
type remoteConn interface {
	Incognito() (*rod.Browser, error)
	Close() error
}

type wsBrowser struct {
	*rod.Browser
	ws *cdp.WebSocket
}

func (b wsBrowser) Close() error { return b.ws.Close() }

func dialRemote(ctx context.Context, url string) (remoteConn, error) {
	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, url, nil); err != nil {
		return nil, err
	}
	b := rod.New().Client(cdp.New().Start(ws))
	if err := b.Connect(); err != nil {
		ws.Close()
		return nil, err
	}
	return wsBrowser{Browser: b, ws: ws}, nil
}

// Launcher opens Rod-backed sessions. Safe for concurrent use.
type Launcher struct {
	cfg  Config
	dial func(ctx context.Context, url string) (remoteConn, error)

	mu     sync.Mutex
	remote remoteConn // shared connection in remote mode
	closed bool
}

// NewLauncher creates a Launcher. No Chrome is started until Open.
func NewLauncher(cfg Config) *Launcher {
	cfg.defaults()
	return &Launcher{cfg: cfg, dial: dialRemote}
}

// Open starts an isolated browser and opens its single page.
func (l *Launcher) Open(ctx context.Context) (Session, error) {
	s := &rodSession{
		id:         uuid.Must(uuid.NewV7()).String(),
		idleWindow: l.cfg.IdleWindow,
		logger:     l.cfg.Logger,
	}

	var err error
	if l.cfg.RemoteURL != "" {
		err = l.openRemote(ctx, s)
	} else {
		err = l.openLocal(ctx, s)
	}
	if err != nil {
		l.discard(s)
		return nil, err
	}

	if l.cfg.Stealth {
		s.page, err = stealth.Page(s.browser)
	} else {
		s.page, err = s.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		l.discard(s)
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	if len(l.cfg.ResourceBlocking) > 0 {
		router, err := blockResources(s.page, l.cfg.ResourceBlocking)
		if err != nil {
			l.cfg.Logger.Warn("browser: resource blocking failed", "session", s.id, "error", err)
		} else {
			s.router = router
		}
	}

	l.cfg.Logger.Debug("browser: session opened", "session", s.id, "remote", l.cfg.RemoteURL != "")
	return s, nil
}

func (l *Launcher) openLocal(ctx context.Context, s *rodSession) error {
	lnch := launcher.New().Context(ctx).Headless(l.cfg.Headless)
	if l.cfg.Bin != "" {
		lnch = lnch.Bin(l.cfg.Bin)
	}
	// Anti-detection flags.
	lnch = lnch.Set("disable-blink-features", "AutomationControlled")
	s.lnch = lnch

	u, err := lnch.Launch()
	if err != nil {
		return fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b
	return nil
}

// discard closes a session that failed to open.
func (l *Launcher) discard(s interface {
	ID() string
	Close() error
}) {
	if err := s.Close(); err != nil {
		l.cfg.Logger.Debug("browser: close of partial session failed", "session", s.ID(), "error", err)
	}
}

// openRemote creates an incognito context on the shared connection. A
// failure drops the connection and redials once, so a restarted remote
// Chrome is picked up by the next lookup.
func (l *Launcher) openRemote(ctx context.Context, s *rodSession) error {
	for attempt := 1; ; attempt++ {
		root, err := l.remoteBrowser(ctx)
		if err != nil {
			return err
		}
		inc, err := root.Incognito()
		if err == nil {
			s.browser = inc
			return nil
		}
		l.dropRemote(root, err)
		if attempt == 2 {
			return fmt.Errorf("browser: incognito context: %w", err)
		}
	}
}

// remoteBrowser returns the shared remote connection, dialing it on first use.
func (l *Launcher) remoteBrowser(ctx context.Context) (remoteConn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, errors.New("browser: launcher is closed")
	}
	if l.remote != nil {
		return l.remote, nil
	}

	b, err := l.dial(ctx, l.cfg.RemoteURL)
	if err != nil {
		return nil, fmt.Errorf("browser: connect remote %s: %w", l.cfg.RemoteURL, err)
	}
	l.cfg.Logger.Info("browser: connected to remote", "url", l.cfg.RemoteURL)
	l.remote = b
	return b, nil
}

// dropRemote forgets conn if it is still the shared connection and closes it.
// Concurrent lookups that already redialed keep their new connection.
func (l *Launcher) dropRemote(conn remoteConn, cause error) {
	l.mu.Lock()
	if l.remote == conn {
		l.remote = nil
	}
	l.mu.Unlock()

	l.cfg.Logger.Warn("browser: remote connection unusable, redialing", "url", l.cfg.RemoteURL, "error", cause)
	if err := conn.Close(); err != nil {
		l.cfg.Logger.Debug("browser: close of stale remote connection failed", "error", err)
	}
}

// Close releases the shared remote connection, if any. Local sessions own
// their Chrome and are unaffected.
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.remote == nil {
		return nil
	}
	err := l.remote.Close()
	l.remote = nil
	return err
}

// rodSession is one Rod browser (local process or incognito context) with one page.
type rodSession struct {
	id         string
	idleWindow time.Duration
	logger     *slog.Logger

	lnch    *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
}

func (s *rodSession) ID() string { return s.id }

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	waitIdle := p.WaitRequestIdle(s.idleWindow, nil, nil, nil)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load: %w", err)
	}
	waitIdle()
	return ctx.Err()
}

func (s *rodSession) Has(ctx context.Context, q Query) (bool, error) {
	p := s.page.Context(ctx)
	var (
		ok  bool
		err error
	)
	if q.Text != "" {
		ok, _, err = p.HasR(q.Selector, q.Text)
	} else {
		ok, _, err = p.Has(q.Selector)
	}
	return ok, err
}

func (s *rodSession) WaitAny(ctx context.Context, qs []Query) error {
	if len(qs) == 0 {
		return errors.New("browser: wait: no queries")
	}
	race := s.page.Context(ctx).Race()
	for _, q := range qs {
		if q.Text != "" {
			race = race.ElementR(q.Selector, q.Text)
		} else {
			race = race.Element(q.Selector)
		}
	}
	_, err := race.Do()
	return err
}

func (s *rodSession) element(ctx context.Context, q Query) (*rod.Element, error) {
	p := s.page.Context(ctx)
	if q.Text != "" {
		return p.ElementR(q.Selector, q.Text)
	}
	return p.Element(q.Selector)
}

func (s *rodSession) Fill(ctx context.Context, q Query, text string) error {
	el, err := s.element(ctx, q)
	if err != nil {
		return fmt.Errorf("browser: fill %s: %w", q, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("browser: select text: %w", err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("browser: input: %w", err)
	}
	return nil
}

func (s *rodSession) Click(ctx context.Context, q Query) error {
	el, err := s.element(ctx, q)
	if err != nil {
		return fmt.Errorf("browser: click %s: %w", q, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) PressEnter(ctx context.Context) error {
	return s.page.Context(ctx).KeyActions().Press(input.Enter).Do()
}

func (s *rodSession) VisibleText(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", fmt.Errorf("browser: visible text: %w", err)
	}
	return res.Value.Str(), nil
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return html, nil
}

// Close tears down the hijack router, page, browser and launcher process.
// Safe on a partially opened session.
func (s *rodSession) Close() error {
	var errs []error
	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop router: %w", err))
		}
		s.router = nil
	}
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.browser = nil
	}
	if s.lnch != nil {
		// Kill first: Cleanup waits for the process to exit.
		s.lnch.Kill()
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return errors.Join(errs...)
}

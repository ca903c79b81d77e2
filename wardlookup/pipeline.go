// CLAUDE:SUMMARY Resolution pipeline: one guarded browser session per lookup, submit, await, extract, typed failures.
// Package wardlookup resolves Chicago street addresses to wards and
// alderpersons. ResolveWard drives the city's lookup form in a headless
// Chrome; Service adds open-data enrichment and the HTTP and MCP surfaces.
package wardlookup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/wardfinder/kit"
	"github.com/hazyhaar/wardfinder/wardlookup/internal/browser"
	"github.com/hazyhaar/wardfinder/wardlookup/internal/extract"
	"github.com/hazyhaar/wardfinder/wardlookup/internal/form"
	"github.com/hazyhaar/wardfinder/wardlookup/internal/snapshot"
	"github.com/hazyhaar/wardfinder/wardlookup/internal/waiter"
)

// MaxAddressLen bounds an address in bytes.
const MaxAddressLen = 256

// ResolvedWard is a successful resolution. Ward is never empty; the other
// fields are empty when the page did not show them.
type ResolvedWard struct {
	Ward          string `json:"ward"`
	Alderperson   string `json:"alderperson,omitempty"`
	OfficeAddress string `json:"officeAddress,omitempty"`
	WardPhone     string `json:"wardPhone,omitempty"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithOpener replaces the Chrome launcher, e.g. with a fake in tests.
func WithOpener(o browser.Opener) Option {
	return func(p *Pipeline) { p.opener = o }
}

// Pipeline runs lookups. Safe for concurrent use; every call gets its own
// browser session.
type Pipeline struct {
	opener   browser.Opener
	launcher *browser.Launcher // non-nil when the pipeline owns Chrome
	driver   form.Driver
	results  time.Duration
	poll     time.Duration
	logger   *slog.Logger
	newID    func() string
}

// NewPipeline builds a Pipeline from cfg. Without WithOpener it launches
// Chrome according to cfg.Browser.
func NewPipeline(cfg *Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := &Pipeline{
		results: cfg.Timeouts.Results,
		poll:    cfg.Timeouts.Poll,
		logger:  slog.Default(),
		newID:   func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.driver = form.Driver{
		TargetURL:    cfg.Form.TargetURL,
		NavTimeout:   cfg.Timeouts.Navigation,
		InputTimeout: cfg.Timeouts.Input,
		Logger:       p.logger,
	}
	if p.opener == nil {
		p.launcher = browser.NewLauncher(browser.Config{
			RemoteURL:        cfg.Browser.Remote,
			Bin:              cfg.Browser.Bin,
			Headless:         cfg.Browser.IsHeadless(),
			Stealth:          cfg.Browser.Stealth,
			ResourceBlocking: cfg.Browser.ResourceBlocking,
			Logger:           p.logger,
		})
		p.opener = p.launcher
	}
	return p
}

// Close releases a shared remote Chrome connection, if the pipeline owns one.
func (p *Pipeline) Close() error {
	if p.launcher != nil {
		return p.launcher.Close()
	}
	return nil
}

// ValidateAddress trims address and rejects empty or oversized input.
func ValidateAddress(address string) (string, error) {
	a := strings.TrimSpace(address)
	if a == "" {
		return "", fmt.Errorf("wardlookup: empty address: %w", ErrInvalidAddress)
	}
	if len(a) > MaxAddressLen {
		return "", fmt.Errorf("wardlookup: address longer than %d bytes: %w", MaxAddressLen, ErrInvalidAddress)
	}
	return a, nil
}

// ResolveWard submits address to the lookup form and extracts the result.
// Failures match ErrInvalidAddress, ErrWardNotFound or
// ErrUpstreamUnavailable (with ErrNavigationTimeout or ErrElementNotFound
// when that is the cause). There is no retry.
func (p *Pipeline) ResolveWard(ctx context.Context, address string) (*ResolvedWard, error) {
	address, err := ValidateAddress(address)
	if err != nil {
		return nil, err
	}
	ctx, log := p.begin(ctx)
	start := time.Now()

	var raw extract.RawExtraction
	err = browser.WithSession(ctx, p.opener, log, func(ctx context.Context, s browser.Session) error {
		log = log.With("session", s.ID())
		text, html, err := p.submitAndRead(ctx, s, address, log)
		if err != nil {
			return err
		}
		raw = extract.Extract(text, html)
		return nil
	})
	if err != nil {
		log.Warn("wardlookup: lookup failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, withStage(err)
	}

	if !raw.Found || raw.Ward == "" {
		log.Info("wardlookup: no ward in result page",
			"found", raw.Found, "alderperson", raw.Alderperson, "preview", raw.RawText)
		return nil, &StageError{Stage: StageExtract, Err: ErrWardNotFound}
	}

	log.Info("wardlookup: resolved", "ward", raw.Ward, "duration_ms", time.Since(start).Milliseconds())
	return &ResolvedWard{
		Ward:          raw.Ward,
		Alderperson:   raw.Alderperson,
		OfficeAddress: raw.OfficeAddress,
		WardPhone:     raw.WardPhone,
	}, nil
}

// Probe runs the form and the result wait like ResolveWard, then returns a
// markdown rendering of the result page together with what the extractor
// made of it. Used to diagnose label or selector drift.
func (p *Pipeline) Probe(ctx context.Context, address string) (string, extract.RawExtraction, error) {
	var raw extract.RawExtraction
	address, err := ValidateAddress(address)
	if err != nil {
		return "", raw, err
	}
	ctx, log := p.begin(ctx)

	var md string
	err = browser.WithSession(ctx, p.opener, log, func(ctx context.Context, s browser.Session) error {
		text, html, err := p.submitAndRead(ctx, s, address, log)
		if err != nil {
			return err
		}
		raw = extract.Extract(text, html)
		md, err = snapshot.New().Markdown(html, p.driver.TargetURL)
		if err != nil {
			return &StageError{Stage: StageRead, Err: fmt.Errorf("render snapshot: %w", err)}
		}
		return nil
	})
	if err != nil {
		return "", raw, withStage(err)
	}
	return md, raw, nil
}

func (p *Pipeline) begin(ctx context.Context) (context.Context, *slog.Logger) {
	id := kit.GetLookupID(ctx)
	if id == "" {
		id = p.newID()
		ctx = kit.WithLookupID(ctx, id)
	}
	log := p.logger.With("lookup_id", id)
	if tid := kit.GetTraceID(ctx); tid != "" {
		log = log.With("trace_id", tid)
	}
	return ctx, log
}

// submitAndRead drives the form, waits for results and snapshots the page.
// The DOM snapshot is best-effort: without it only the text pass runs.
func (p *Pipeline) submitAndRead(ctx context.Context, page browser.Page, address string, log *slog.Logger) (string, string, error) {
	if err := p.driver.SubmitAddress(ctx, page, address); err != nil {
		return "", "", upstream(StageSubmit, err)
	}

	if !waiter.Await(ctx, page, p.results, p.poll) {
		log.Info("wardlookup: no result marker before timeout, extracting anyway", "timeout", p.results)
	}

	text, err := page.VisibleText(ctx)
	if err != nil {
		return "", "", upstream(StageRead, err)
	}
	html, err := page.HTML(ctx)
	if err != nil {
		log.Warn("wardlookup: DOM snapshot failed, table pass skipped", "error", err)
		html = ""
	}
	return text, html, nil
}

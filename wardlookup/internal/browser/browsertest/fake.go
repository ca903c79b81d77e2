// Package browsertest provides in-memory fakes of browser.Page, Session and
// Opener so lookup stages can be tested without Chrome.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hazyhaar/wardfinder/wardlookup/internal/browser"
)

// Page is a scriptable browser.Page. A query "exists" when its String()
// form is in Present. Zero value is a blank page.
type Page struct {
	mu sync.Mutex

	Present map[string]bool
	HasErr  map[string]error

	NavigateErr    error
	BlockNavigate  bool // Navigate waits for ctx to expire
	FillErr        error
	BlockFill      bool // Fill waits for ctx to expire
	ClickErr       error
	BlockClick     bool // Click waits for ctx to expire
	EnterErr       error
	Text           string
	TextErr        error
	TextFunc       func(call int) (string, error) // overrides Text/TextErr when set
	Doc            string
	HTMLErr        error
	PresentOnEnter map[string]bool // merged into Present after a submit

	Navigated []string
	Probed    []string
	Filled    map[string]string
	Clicked   []string
	Entered   int
	textCalls int
}

// NewPage returns a Page where the given queries exist.
func NewPage(present ...browser.Query) *Page {
	p := &Page{Present: make(map[string]bool)}
	for _, q := range present {
		p.Present[q.String()] = true
	}
	return p
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.Navigated = append(p.Navigated, url)
	block, err := p.BlockNavigate, p.NavigateErr
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (p *Page) Has(ctx context.Context, q browser.Query) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Probed = append(p.Probed, q.String())
	if err := p.HasErr[q.String()]; err != nil {
		return false, err
	}
	return p.Present[q.String()], ctx.Err()
}

func (p *Page) WaitAny(ctx context.Context, qs []browser.Query) error {
	p.mu.Lock()
	for _, q := range qs {
		if p.Present[q.String()] {
			p.mu.Unlock()
			return nil
		}
	}
	p.mu.Unlock()

	<-ctx.Done()
	return ctx.Err()
}

func (p *Page) Fill(ctx context.Context, q browser.Query, text string) error {
	if p.flag(&p.BlockFill) {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FillErr != nil {
		return p.FillErr
	}
	if !p.Present[q.String()] {
		return fmt.Errorf("browsertest: fill: no element for %s", q)
	}
	if p.Filled == nil {
		p.Filled = make(map[string]string)
	}
	// Overwrite, never append.
	p.Filled[q.String()] = text
	return nil
}

func (p *Page) Click(ctx context.Context, q browser.Query) error {
	if p.flag(&p.BlockClick) {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ClickErr != nil {
		return p.ClickErr
	}
	if !p.Present[q.String()] {
		return fmt.Errorf("browsertest: click: no element for %s", q)
	}
	p.Clicked = append(p.Clicked, q.String())
	p.submittedLocked()
	return nil
}

func (p *Page) flag(f *bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *f
}

func (p *Page) PressEnter(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.EnterErr != nil {
		return p.EnterErr
	}
	p.Entered++
	p.submittedLocked()
	return nil
}

func (p *Page) submittedLocked() {
	for k, v := range p.PresentOnEnter {
		if p.Present == nil {
			p.Present = make(map[string]bool)
		}
		p.Present[k] = v
	}
}

func (p *Page) VisibleText(ctx context.Context) (string, error) {
	p.mu.Lock()
	call := p.textCalls
	p.textCalls++
	fn, text, err := p.TextFunc, p.Text, p.TextErr
	p.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	if err != nil {
		return "", err
	}
	return text, ctx.Err()
}

// TextCalls returns how many times VisibleText was called.
func (p *Page) TextCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.textCalls
}

func (p *Page) HTML(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Doc, p.HTMLErr
}

// Session wraps a Page and counts Close calls.
type Session struct {
	*Page
	SessionID string
	CloseErr  error

	mu     sync.Mutex
	closes int
}

func (s *Session) ID() string { return s.SessionID }

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return s.CloseErr
}

// Closes returns how many times Close was called.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Opener hands out sessions built by New and records them.
type Opener struct {
	New     func() *Session
	OpenErr error

	mu       sync.Mutex
	sessions []*Session
}

// NewOpener returns an Opener whose sessions all share page.
func NewOpener(page *Page) *Opener {
	n := 0
	return &Opener{New: func() *Session {
		n++
		return &Session{Page: page, SessionID: fmt.Sprintf("fake-%d", n)}
	}}
}

func (o *Opener) Open(context.Context) (browser.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	if o.New == nil {
		return nil, errors.New("browsertest: opener has no New func")
	}
	s := o.New()
	o.sessions = append(o.sessions, s)
	return s, nil
}

// Sessions returns every session handed out so far.
func (o *Opener) Sessions() []*Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Session(nil), o.sessions...)
}

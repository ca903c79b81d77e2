package wardlookup

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/wardfinder/wardlookup/internal/browser"
	"github.com/hazyhaar/wardfinder/wardlookup/internal/form"
)

// Error kinds of a lookup. Callers test with errors.Is; a stage failure
// matches both ErrUpstreamUnavailable and its specific kind.
var (
	ErrInvalidAddress      = errors.New("invalid address")
	ErrWardNotFound        = errors.New("ward not found")
	ErrNavigationTimeout   = form.ErrNavigationTimeout
	ErrElementNotFound     = form.ErrElementNotFound
	ErrUpstreamUnavailable = browser.ErrUpstreamUnavailable
)

// ErrorMessage is the only failure text shown to end users, whatever the kind.
const ErrorMessage = "could not find ward/alderperson information"

// Stage names used in StageError and logs.
const (
	StageOpen    = "open"
	StageSubmit  = "submit"
	StageRead    = "read"
	StageExtract = "extract"
)

// StageError records which step of a lookup failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("wardlookup: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// upstream tags err as an upstream fault unless it already is one.
func upstream(stage string, err error) error {
	if errors.Is(err, ErrUpstreamUnavailable) {
		return &StageError{Stage: stage, Err: err}
	}
	return &StageError{Stage: stage, Err: fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)}
}

// withStage leaves stage errors alone and files anything else (a failed
// session open) under StageOpen.
func withStage(err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return upstream(StageOpen, err)
}

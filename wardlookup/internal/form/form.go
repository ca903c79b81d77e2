// CLAUDE:SUMMARY Drives the ward lookup form: navigate, wait for the address field, overwrite it, submit (click or Enter fallback).
// Package form drives the third-party lookup form through a browser.Page.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/wardfinder/wardlookup/internal/browser"
	"github.com/hazyhaar/wardfinder/wardlookup/internal/locator"
)

var (
	// ErrNavigationTimeout means the form page did not settle in time.
	ErrNavigationTimeout = errors.New("navigation timeout")
	// ErrElementNotFound means no address field appeared in time.
	ErrElementNotFound = errors.New("element not found")
)

// Driver submits addresses to one target form.
type Driver struct {
	TargetURL    string
	NavTimeout   time.Duration
	InputTimeout time.Duration
	Logger       *slog.Logger
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// SubmitAddress loads the form, writes address into the address field
// (replacing any prefilled text) and submits it. When no submit control
// can be found or clicked within InputTimeout, Enter is pressed instead.
func (d *Driver) SubmitAddress(ctx context.Context, page browser.Page, address string) error {
	log := d.logger()

	if err := d.navigate(ctx, page); err != nil {
		return err
	}

	field, err := d.awaitAddressField(ctx, page)
	if err != nil {
		return err
	}

	if err := d.bounded(ctx, func(ctx context.Context) error {
		return page.Fill(ctx, field, address)
	}); err != nil {
		return fmt.Errorf("form: fill address: %w", err)
	}
	log.Debug("form: address entered", "selector", field.String())

	submit, err := locator.Locate(ctx, page, locator.RoleSubmit, locator.Submit, log)
	switch {
	case err == nil:
		cerr := d.bounded(ctx, func(ctx context.Context) error {
			return page.Click(ctx, submit)
		})
		if cerr == nil {
			log.Debug("form: submitted", "selector", submit.String())
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("form: click submit: %w", ctx.Err())
		}
		log.Warn("form: submit click failed, falling back to enter", "selector", submit.String(), "error", cerr)
	case errors.Is(err, locator.ErrNotFound):
		log.Info("form: no submit control, falling back to enter")
	default:
		return fmt.Errorf("form: locate submit: %w", err)
	}

	if err := d.bounded(ctx, page.PressEnter); err != nil {
		return fmt.Errorf("form: press enter: %w", err)
	}
	return nil
}

// bounded runs one element interaction under InputTimeout. Rod retries
// hidden or disabled elements until its context ends.
func (d *Driver) bounded(ctx context.Context, fn func(context.Context) error) error {
	if d.InputTimeout <= 0 {
		return fn(ctx)
	}
	stepCtx, cancel := context.WithTimeout(ctx, d.InputTimeout)
	defer cancel()
	return fn(stepCtx)
}

func (d *Driver) navigate(ctx context.Context, page browser.Page) error {
	navCtx, cancel := context.WithTimeout(ctx, d.NavTimeout)
	defer cancel()

	err := page.Navigate(navCtx, d.TargetURL)
	if err == nil {
		return nil
	}
	// Only our own deadline is a navigation timeout; a cancelled caller is not.
	if ctx.Err() == nil && errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("form: navigate %s after %s: %w", d.TargetURL, d.NavTimeout, ErrNavigationTimeout)
	}
	return fmt.Errorf("form: navigate %s: %w", d.TargetURL, err)
}

// awaitAddressField waits for any address candidate to exist, then picks
// the highest-priority one present.
func (d *Driver) awaitAddressField(ctx context.Context, page browser.Page) (locator.Candidate, error) {
	inCtx, cancel := context.WithTimeout(ctx, d.InputTimeout)
	defer cancel()

	if err := page.WaitAny(inCtx, locator.AddressInput.Queries()); err != nil {
		if ctx.Err() != nil {
			return locator.Candidate{}, fmt.Errorf("form: wait for address field: %w", ctx.Err())
		}
		return locator.Candidate{}, fmt.Errorf("form: no address field after %s: %w: %w", d.InputTimeout, ErrElementNotFound, err)
	}

	field, err := locator.Locate(ctx, page, locator.RoleAddressInput, locator.AddressInput, d.logger())
	if err != nil {
		if errors.Is(err, locator.ErrNotFound) {
			return locator.Candidate{}, fmt.Errorf("form: %w: %w", ErrElementNotFound, err)
		}
		return locator.Candidate{}, fmt.Errorf("form: locate address field: %w", err)
	}
	return field, nil
}

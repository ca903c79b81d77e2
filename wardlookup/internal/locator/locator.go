// CLAUDE:SUMMARY Ordered first-match selector fallback: probes candidates in priority order against a live page.
// Package locator finds form controls on a page it does not control. A
// role has an ordered list of candidate selectors; the first one that
// matches at least one element wins. There is no scoring.
package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/wardfinder/wardlookup/internal/browser"
)

// ErrNotFound is returned when no candidate matches.
var ErrNotFound = errors.New("locator: no candidate matched")

// Role names what a candidate list is looking for.
type Role string

const (
	RoleAddressInput Role = "address_input"
	RoleSubmit       Role = "submit"
)

// Candidate is one selector pattern.
type Candidate = browser.Query

// Candidates is an ordered priority list.
type Candidates []Candidate

// Queries returns the candidates as browser queries.
func (c Candidates) Queries() []browser.Query { return c }

// AddressInput is the priority list for the address field.
var AddressInput = Candidates{
	{Selector: `input[type="text"]`},
	{Selector: `input[name*="address" i]`},
	{Selector: `#address`},
	{Selector: `input[placeholder*="address" i]`},
}

// Submit is the priority list for the submit control.
var Submit = Candidates{
	{Selector: `input[type="submit"]`},
	{Selector: `button[type="submit"]`},
	{Selector: `input[value*="Search"]`},
	{Selector: `input[value*="Find"]`},
	{Selector: `button`, Text: `/Search|Find/`},
}

// Querier probes the live document. browser.Page satisfies it.
type Querier interface {
	Has(ctx context.Context, q browser.Query) (bool, error)
}

// Locate returns the first candidate, in list order, that matches at least
// one element. A probe error on one candidate counts as no match; an
// expired ctx stops the scan.
func Locate(ctx context.Context, q Querier, role Role, cands Candidates, logger *slog.Logger) (Candidate, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, c := range cands {
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}
		ok, err := q.Has(ctx, c)
		if err != nil {
			logger.Debug("locator: probe failed", "role", role, "selector", c.String(), "error", err)
			continue
		}
		if ok {
			logger.Debug("locator: matched", "role", role, "selector", c.String())
			return c, nil
		}
	}
	return Candidate{}, fmt.Errorf("%w for %s (%d candidates)", ErrNotFound, role, len(cands))
}

// CLAUDE:SUMMARY Socrata client for the Chicago Ward Offices dataset, guarded by a circuit breaker.
// Package opendata looks up ward office records on data.cityofchicago.org.
package opendata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrBreakerOpen is returned without a network call while the dataset is
// considered down.
var ErrBreakerOpen = errors.New("opendata: circuit breaker open")

// WardOffice is one record of the Ward Offices dataset.
type WardOffice struct {
	Ward          string `json:"ward"`
	Alderman      string `json:"alderman"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zipcode       string `json:"zipcode"`
	WardPhone     string `json:"ward_phone"`
	Email         string `json:"email"`
	Website       string `json:"website"`
	CityHallPhone string `json:"city_hall_phone"`
}

// FullAddress joins street, city, state and zip the way the city prints it.
func (w *WardOffice) FullAddress() string {
	if w.Address == "" {
		return ""
	}
	s := w.Address
	if w.City != "" {
		s += ", " + w.City
	}
	if w.State != "" {
		s += ", " + w.State
	}
	if w.Zipcode != "" {
		s += " " + w.Zipcode
	}
	return s
}

// Options configures a Client.
type Options struct {
	BaseURL          string
	AppToken         string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerReset     time.Duration
	Logger           *slog.Logger
}

// Client queries the dataset. Safe for concurrent use.
type Client struct {
	http    *resty.Client
	baseURL string
	breaker *Breaker
	logger  *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	hc := resty.New()
	hc.SetTimeout(opts.Timeout)
	hc.SetHeader("Accept", "application/json")
	hc.SetHeader("User-Agent", "wardfinder/1.0")
	if opts.AppToken != "" {
		hc.SetHeader("X-App-Token", opts.AppToken)
	}

	return &Client{
		http:    hc,
		baseURL: opts.BaseURL,
		breaker: NewBreaker(opts.BreakerThreshold, opts.BreakerReset),
		logger:  opts.Logger,
	}
}

// Breaker exposes the client's breaker for health reporting.
func (c *Client) Breaker() *Breaker { return c.breaker }

// WardOffice returns the office record for ward. A ward with no record
// returns nil, nil.
func (c *Client) WardOffice(ctx context.Context, ward string) (*WardOffice, error) {
	if !c.breaker.Allow() {
		return nil, ErrBreakerOpen
	}
	office, err := c.fetch(ctx, ward)
	// A cancelled caller says nothing about the dataset's health.
	if ctx.Err() == nil {
		c.breaker.Record(err)
	}
	return office, err
}

func (c *Client) fetch(ctx context.Context, ward string) (*WardOffice, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("ward", ward).
		Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("opendata: get ward %s: %w", ward, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("opendata: get ward %s: status %d", ward, res.StatusCode())
	}

	var records []WardOffice
	if err := json.Unmarshal(res.Body(), &records); err != nil {
		return nil, fmt.Errorf("opendata: decode ward %s: %w", ward, err)
	}
	if len(records) == 0 {
		c.logger.Debug("opendata: no office record", "ward", ward)
		return nil, nil
	}
	return &records[0], nil
}

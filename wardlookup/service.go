// CLAUDE:SUMMARY Lookup service: pipeline resolution plus best-effort Ward Offices enrichment, shaped into the public response.
package wardlookup

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hazyhaar/wardfinder/kit"
	"github.com/hazyhaar/wardfinder/opendata"
)

// Resolver resolves an address to a ward. *Pipeline implements it.
type Resolver interface {
	ResolveWard(ctx context.Context, address string) (*ResolvedWard, error)
}

// OfficeFinder looks up a ward's office record. *opendata.Client implements it.
type OfficeFinder interface {
	WardOffice(ctx context.Context, ward string) (*opendata.WardOffice, error)
}

// Contact holds the ward office's contact details from open data.
type Contact struct {
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Website       string `json:"website"`
	CityHallPhone string `json:"cityHallPhone"`
}

// LookupResponse is the success body of every surface.
type LookupResponse struct {
	Success     bool    `json:"success"`
	Alderperson string  `json:"alderperson"`
	Ward        string  `json:"ward"`
	Contact     Contact `json:"contact"`
	Address     string  `json:"address"`
	WardOffice  string  `json:"wardOffice"`
	WardPhone   string  `json:"wardPhone"`
}

// ErrorResponse is the failure body of every surface.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// LookupRequest is the input of the lookup endpoint.
type LookupRequest struct {
	Address string `json:"address"`
}

// Service answers lookups. offices may be nil to disable enrichment.
type Service struct {
	resolver Resolver
	offices  OfficeFinder
	logger   *slog.Logger
	endpoint kit.Endpoint
}

// NewService wires a Service.
func NewService(resolver Resolver, offices OfficeFinder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{resolver: resolver, offices: offices, logger: logger}
	s.endpoint = kit.Chain(kit.Logging(logger, "wardfinder_lookup"))(s.lookupEndpoint)
	return s
}

// Endpoint returns the lookup as a transport-neutral endpoint taking a
// *LookupRequest and returning a *LookupResponse.
func (s *Service) Endpoint() kit.Endpoint { return s.endpoint }

func (s *Service) lookupEndpoint(ctx context.Context, req any) (any, error) {
	r, ok := req.(*LookupRequest)
	if !ok || r == nil {
		return nil, ErrInvalidAddress
	}
	return s.Lookup(ctx, r.Address)
}

// Lookup resolves address and enriches the ward from open data. An
// enrichment failure never fails the lookup; scraped values are used.
func (s *Service) Lookup(ctx context.Context, address string) (*LookupResponse, error) {
	ward, err := s.resolver.ResolveWard(ctx, address)
	if err != nil {
		return nil, err
	}

	resp := &LookupResponse{
		Success:     true,
		Alderperson: ward.Alderperson,
		Ward:        ward.Ward,
		Address:     address,
		WardOffice:  ward.OfficeAddress,
		WardPhone:   ward.WardPhone,
	}

	office := s.office(ctx, ward.Ward)
	if office == nil {
		return resp, nil
	}
	if office.Alderman != "" {
		resp.Alderperson = office.Alderman
	}
	if a := office.FullAddress(); a != "" {
		resp.WardOffice = a
	}
	if office.WardPhone != "" {
		resp.WardPhone = office.WardPhone
	}
	resp.Contact = Contact{
		Email:         office.Email,
		Phone:         office.WardPhone,
		Website:       office.Website,
		CityHallPhone: office.CityHallPhone,
	}
	return resp, nil
}

func (s *Service) office(ctx context.Context, ward string) *opendata.WardOffice {
	if s.offices == nil {
		return nil
	}
	office, err := s.offices.WardOffice(ctx, ward)
	switch {
	case errors.Is(err, opendata.ErrBreakerOpen):
		s.logger.Debug("wardlookup: enrichment skipped, breaker open", "ward", ward)
	case err != nil:
		s.logger.Warn("wardlookup: enrichment failed", "ward", ward, "error", err)
	case office == nil:
		s.logger.Info("wardlookup: no open-data record for ward", "ward", ward)
	}
	if err != nil {
		return nil
	}
	return office
}

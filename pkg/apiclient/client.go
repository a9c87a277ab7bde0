// Package apiclient is the typed HTTP client for the certificate service.
// Write endpoints answer with a success envelope; reads return bare arrays.
package apiclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/certdesk/certdesk/internal/domain/certificate"
	"github.com/certdesk/certdesk/internal/domain/ledger"
	"github.com/certdesk/certdesk/internal/domain/patient"
	"github.com/certdesk/certdesk/pkg/wire"
)

// Client talks to the certificate service over JSON/HTTP.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

// New builds a client against baseURL. Failed calls are reported to the
// caller, never retried.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	c := &Client{
		http:   http,
		logger: logger.With().Str("component", "apiclient").Logger(),
	}
	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if resp.IsError() {
			c.logger.Warn().
				Int("status", resp.StatusCode()).
				Str("method", resp.Request.Method).
				Str("url", resp.Request.URL).
				Msg("request failed")
		}
		return nil
	})
	return c
}

// checkEnvelope turns a non-2xx status or a success:false body into an error.
func checkEnvelope(resp *resty.Response, env *wire.Envelope, op string) error {
	if resp.IsError() {
		if env != nil && env.Message != "" {
			return fmt.Errorf("%s: %s (status %d)", op, env.Message, resp.StatusCode())
		}
		if env != nil && env.Error != "" {
			return fmt.Errorf("%s: %s (status %d)", op, env.Error, resp.StatusCode())
		}
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode())
	}
	if env != nil && !env.Success {
		if env.Error != "" {
			return fmt.Errorf("%s: %s", op, env.Error)
		}
		return fmt.Errorf("%s: server reported failure", op)
	}
	return nil
}

// ListPatients fetches every stored patient row.
func (c *Client) ListPatients(ctx context.Context) ([]*patient.Patient, error) {
	var patients []*patient.Patient
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&patients).
		Get("/patients")
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list patients: unexpected status %d", resp.StatusCode())
	}
	return patients, nil
}

// SavePatient creates or replaces a patient row.
func (c *Client) SavePatient(ctx context.Context, p *patient.Patient) error {
	var env wire.Envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(p).
		SetResult(&env).
		SetError(&env).
		Post("/patients")
	if err != nil {
		return fmt.Errorf("save patient: %w", err)
	}
	return checkEnvelope(resp, &env, "save patient")
}

// DeletePatient removes a patient row and its certificates.
func (c *Client) DeletePatient(ctx context.Context, id string) error {
	var env wire.Envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env).
		Delete("/patients/" + id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return checkEnvelope(resp, &env, "delete patient")
}

// ListCertificates fetches certificate rows, optionally scoped to one
// patient.
func (c *Client) ListCertificates(ctx context.Context, patientID string) ([]*certificate.MedicalCertificate, error) {
	req := c.http.R().SetContext(ctx)
	if patientID != "" {
		req.SetQueryParam("patientId", patientID)
	}

	var certs []*certificate.MedicalCertificate
	resp, err := req.SetResult(&certs).Get("/certificates")
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list certificates: unexpected status %d", resp.StatusCode())
	}
	return certs, nil
}

// CreateCertificate stores a certificate via POST.
func (c *Client) CreateCertificate(ctx context.Context, cert *certificate.MedicalCertificate) error {
	var env wire.Envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(cert).
		SetResult(&env).
		SetError(&env).
		Post("/certificates")
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return checkEnvelope(resp, &env, "create certificate")
}

// UpdateCertificate replaces a certificate via PUT, keyed on its id.
func (c *Client) UpdateCertificate(ctx context.Context, cert *certificate.MedicalCertificate) error {
	var env wire.Envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(cert).
		SetResult(&env).
		SetError(&env).
		Put("/certificates/" + cert.ID)
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	return checkEnvelope(resp, &env, "update certificate")
}

// DeleteCertificate removes a certificate row.
func (c *Client) DeleteCertificate(ctx context.Context, id string) error {
	var env wire.Envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env).
		Delete("/certificates/" + id)
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	return checkEnvelope(resp, &env, "delete certificate")
}

// SaveLifeInsurance stores a life-insurance billing record.
func (c *Client) SaveLifeInsurance(ctx context.Context, rec *ledger.LifeInsuranceRecord) error {
	var env wire.Envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rec).
		SetResult(&env).
		SetError(&env).
		Post("/life-insurance")
	if err != nil {
		return fmt.Errorf("save life-insurance record: %w", err)
	}
	return checkEnvelope(resp, &env, "save life-insurance record")
}

// SaveInsuranceChange stores an insurance-change ledger entry.
func (c *Client) SaveInsuranceChange(ctx context.Context, rec *ledger.InsuranceChangeRecord) error {
	var env wire.Envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rec).
		SetResult(&env).
		SetError(&env).
		Post("/insurance-changes")
	if err != nil {
		return fmt.Errorf("save insurance change: %w", err)
	}
	return checkEnvelope(resp, &env, "save insurance change")
}

// SavePendingClaim stores a pending national-insurance claim.
func (c *Client) SavePendingClaim(ctx context.Context, claim *ledger.PendingClaim) error {
	var env wire.Envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(claim).
		SetResult(&env).
		SetError(&env).
		Post("/pending-claims")
	if err != nil {
		return fmt.Errorf("save pending claim: %w", err)
	}
	return checkEnvelope(resp, &env, "save pending claim")
}

package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/sungwon/recipient-check/internal/address"
	"github.com/sungwon/recipient-check/internal/metrics"
)

const (
	abstractDefaultEndpoint = "https://emailvalidation.abstractapi.com/v1/"
	abstractServiceName     = "abstractapi"
	defaultTimeout          = 10 * time.Second
)

// deliverabilityUnknown is the only deliverability class that fails an
// address on its own.
const deliverabilityUnknown = "UNKNOWN"

// Config holds the validation service settings.
type Config struct {
	// APIKey authenticates against the service.
	APIKey string
	// Endpoint overrides the default API URL (useful for testing).
	Endpoint string
	// Timeout bounds a single validation call.
	Timeout time.Duration
}

// Validate checks that required fields are set and fills defaults.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("validator: api_key is required")
	}
	if c.Endpoint == "" {
		c.Endpoint = abstractDefaultEndpoint
	}
	if _, err := url.Parse(c.Endpoint); err != nil {
		return fmt.Errorf("validator: invalid endpoint: %w", err)
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}

// AbstractClient validates addresses with the AbstractAPI email validation
// service.
type AbstractClient struct {
	apiKey   string
	endpoint string
	timeout  time.Duration
	client   HTTPClient
	log      zerolog.Logger
}

// NewAbstractClient creates a client from cfg. Call cfg.Validate first.
func NewAbstractClient(cfg Config, client HTTPClient, log zerolog.Logger) *AbstractClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = abstractDefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AbstractClient{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		timeout:  timeout,
		client:   client,
		log:      log,
	}
}

// Name returns the service identifier used for usage accounting.
func (a *AbstractClient) Name() string { return abstractServiceName }

// Validate calls the service for addr and maps the response to a verdict.
// Errors are logged and reported as an invalid address.
func (a *AbstractClient) Validate(ctx context.Context, addr string) Verdict {
	start := time.Now()
	resp, err := a.Check(ctx, addr)
	metrics.ValidationRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ValidationRequestsTotal.WithLabelValues("error").Inc()
		a.log.Error().Err(err).
			Str("address", addr).
			Bool("permanent", IsPermanent(err)).
			Bool("rate_limited", IsRateLimited(err)).
			Msg("address validation failed")
		return Verdict{Address: addr}
	}

	v := resp.Verdict(addr)
	outcome := "invalid"
	if v.Valid {
		outcome = "valid"
	}
	metrics.ValidationRequestsTotal.WithLabelValues(outcome).Inc()

	a.log.Debug().
		Str("address", addr).
		Bool("valid", v.Valid).
		Str("deliverability", resp.Deliverability).
		Str("suggestion", v.Suggestion).
		Msg("address validated")

	return v
}

// Check performs the raw service call and decodes the response.
func (a *AbstractClient) Check(ctx context.Context, addr string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.Do(ctx, &HTTPRequest{
		Method: "GET",
		URL:    a.requestURL(addr),
		Headers: map[string]string{
			"Accept": "application/json",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: request: %w", abstractServiceName, err)
	}

	if se := ClassifyHTTPError(abstractServiceName, resp.StatusCode, string(resp.Body)); se != nil {
		return nil, se
	}

	var out Response
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", abstractServiceName, err)
	}
	return &out, nil
}

func (a *AbstractClient) requestURL(addr string) string {
	q := url.Values{}
	q.Set("api_key", a.apiKey)
	q.Set("email", addr)

	u, err := url.Parse(a.endpoint)
	if err != nil {
		return a.endpoint + "?" + q.Encode()
	}
	existing := u.Query()
	for k, vs := range q {
		existing[k] = vs
	}
	u.RawQuery = existing.Encode()
	return u.String()
}

// Response is the subset of the service's JSON response the client uses.
// Pointers distinguish absent fields from false ones.
type Response struct {
	Email          string     `json:"email"`
	Autocorrect    string     `json:"autocorrect"`
	Deliverability string     `json:"deliverability"`
	QualityScore   string     `json:"quality_score"`
	IsValidFormat  *BoolField `json:"is_valid_format"`
	IsFreeEmail    *BoolField `json:"is_free_email"`
	IsDisposable   *BoolField `json:"is_disposable_email"`
	IsRoleEmail    *BoolField `json:"is_role_email"`
	IsCatchall     *BoolField `json:"is_catchall_email"`
	IsMXFound      *BoolField `json:"is_mx_found"`
	IsSMTPValid    *BoolField `json:"is_smtp_valid"`
}

// BoolField is the service's {"value": bool, "text": "..."} wrapper.
type BoolField struct {
	Value *bool  `json:"value"`
	Text  string `json:"text,omitempty"`
}

// is reports whether the field is present and equal to want.
func (f *BoolField) is(want bool) bool {
	return f != nil && f.Value != nil && *f.Value == want
}

// Valid applies the acceptance rule: well-formed, not disposable, MX record
// present, SMTP check passed, and deliverability known. Any absent signal
// fails its condition.
func (r *Response) Valid() bool {
	return r.IsValidFormat.is(true) &&
		r.IsDisposable.is(false) &&
		r.IsMXFound.is(true) &&
		r.IsSMTPValid.is(true) &&
		r.Deliverability != "" &&
		r.Deliverability != deliverabilityUnknown
}

// Suggestion returns the normalized autocorrect value when it differs from
// submitted, or an empty string.
func (r *Response) Suggestion(submitted string) string {
	s := address.NormalizeOne(r.Autocorrect)
	if s == "" || s == address.NormalizeOne(submitted) {
		return ""
	}
	return s
}

// Verdict converts the response into a verdict for submitted.
func (r *Response) Verdict(submitted string) Verdict {
	return Verdict{
		Address:    submitted,
		Valid:      r.Valid(),
		Suggestion: r.Suggestion(submitted),
	}
}

package validator

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockHTTPClient is a flexible mock for HTTP tests.
type mockHTTPClient struct {
	doFn  func(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error)
	calls int
}

func (m *mockHTTPClient) Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	m.calls++
	return m.doFn(ctx, req)
}

func respondWith(status int, body string) *mockHTTPClient {
	return &mockHTTPClient{
		doFn: func(_ context.Context, _ *HTTPRequest) (*HTTPResponse, error) {
			return &HTTPResponse{StatusCode: status, Body: []byte(body)}, nil
		},
	}
}

func newTestClient(client HTTPClient) *AbstractClient {
	return NewAbstractClient(Config{
		APIKey:   "test-key",
		Endpoint: "https://validation.test/v1/",
		Timeout:  time.Second,
	}, client, zerolog.Nop())
}

const deliverableBody = `{
	"email": "jon@example.com",
	"autocorrect": "",
	"deliverability": "DELIVERABLE",
	"quality_score": "0.90",
	"is_valid_format": {"value": true, "text": "TRUE"},
	"is_free_email": {"value": false, "text": "FALSE"},
	"is_disposable_email": {"value": false, "text": "FALSE"},
	"is_role_email": {"value": false, "text": "FALSE"},
	"is_catchall_email": {"value": false, "text": "FALSE"},
	"is_mx_found": {"value": true, "text": "TRUE"},
	"is_smtp_valid": {"value": true, "text": "TRUE"}
}`

func TestAbstractClient_RequestURL(t *testing.T) {
	var captured *HTTPRequest
	client := &mockHTTPClient{
		doFn: func(_ context.Context, req *HTTPRequest) (*HTTPResponse, error) {
			captured = req
			return &HTTPResponse{StatusCode: 200, Body: []byte(deliverableBody)}, nil
		},
	}

	newTestClient(client).Validate(context.Background(), "jon+tag@example.com")

	if captured == nil {
		t.Fatal("expected a request")
	}
	if captured.Method != "GET" {
		t.Errorf("expected GET, got %s", captured.Method)
	}
	u, err := url.Parse(captured.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Host != "validation.test" || u.Path != "/v1/" {
		t.Errorf("unexpected endpoint %s", captured.URL)
	}
	if got := u.Query().Get("api_key"); got != "test-key" {
		t.Errorf("api_key = %q, want test-key", got)
	}
	if got := u.Query().Get("email"); got != "jon+tag@example.com" {
		t.Errorf("email = %q, want jon+tag@example.com", got)
	}
	if !strings.Contains(u.RawQuery, "jon%2Btag%40example.com") {
		t.Errorf("expected email to be query-encoded, got %s", u.RawQuery)
	}
}

func TestAbstractClient_Validate_Deliverable(t *testing.T) {
	v := newTestClient(respondWith(200, deliverableBody)).Validate(context.Background(), "jon@example.com")

	if !v.Valid {
		t.Error("expected valid verdict")
	}
	if v.Address != "jon@example.com" {
		t.Errorf("Address = %q", v.Address)
	}
	if v.HasSuggestion() {
		t.Errorf("unexpected suggestion %q", v.Suggestion)
	}
}

func TestAbstractClient_Validate_Autocorrect(t *testing.T) {
	body := `{"autocorrect":"jon@gmail.com","deliverability":"UNDELIVERABLE",
		"is_valid_format":{"value":true},"is_disposable_email":{"value":false},
		"is_mx_found":{"value":false},"is_smtp_valid":{"value":false}}`

	v := newTestClient(respondWith(200, body)).Validate(context.Background(), "jon@gmial.com")

	if v.Valid {
		t.Error("expected invalid verdict")
	}
	if v.Suggestion != "jon@gmail.com" {
		t.Errorf("Suggestion = %q, want jon@gmail.com", v.Suggestion)
	}
	if !v.HasSuggestion() {
		t.Error("expected HasSuggestion")
	}
}

func TestAbstractClient_Validate_AutocorrectSameAsInput(t *testing.T) {
	tests := []struct {
		name        string
		autocorrect string
	}{
		{"identical", "jon@gmail.com"},
		{"differs only in case", "Jon@Gmail.com"},
		{"differs only in whitespace", " jon@gmail.com "},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"autocorrect":"` + tt.autocorrect + `","deliverability":"DELIVERABLE"}`
			v := newTestClient(respondWith(200, body)).Validate(context.Background(), "jon@gmail.com")
			if v.Suggestion != "" {
				t.Errorf("Suggestion = %q, want none", v.Suggestion)
			}
		})
	}
}

func TestAbstractClient_Validate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		client *mockHTTPClient
	}{
		{
			name: "network error",
			client: &mockHTTPClient{doFn: func(_ context.Context, _ *HTTPRequest) (*HTTPResponse, error) {
				return nil, errors.New("dial tcp: connection refused")
			}},
		},
		{"malformed body", respondWith(200, `{"is_valid_format": {"value": tru`)},
		{"html body", respondWith(200, `<html>gateway</html>`)},
		{"unauthorized", respondWith(401, `{"error":{"message":"invalid api key"}}`)},
		{"rate limited", respondWith(429, `{"error":{"message":"too many requests"}}`)},
		{"server error", respondWith(503, ``)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestClient(tt.client).Validate(context.Background(), "x@example.com")
			if v.Valid {
				t.Error("expected invalid verdict")
			}
			if v.Suggestion != "" {
				t.Errorf("expected no suggestion, got %q", v.Suggestion)
			}
			if v.Address != "x@example.com" {
				t.Errorf("Address = %q", v.Address)
			}
			if tt.client.calls != 1 {
				t.Errorf("expected exactly one call, got %d", tt.client.calls)
			}
		})
	}
}

func TestAbstractClient_Check_ReturnsClassifiedError(t *testing.T) {
	_, err := newTestClient(respondWith(401, "invalid api key")).Check(context.Background(), "x@example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsPermanent(err) {
		t.Error("expected permanent error for 401")
	}

	_, err = newTestClient(respondWith(429, "slow down")).Check(context.Background(), "x@example.com")
	if !IsRateLimited(err) {
		t.Error("expected rate limited error for 429")
	}
}

func TestAbstractClient_Check_UsesTimeout(t *testing.T) {
	client := &mockHTTPClient{
		doFn: func(ctx context.Context, _ *HTTPRequest) (*HTTPResponse, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected request context to carry a deadline")
			}
			return &HTTPResponse{StatusCode: 200, Body: []byte(deliverableBody)}, nil
		},
	}

	if _, err := newTestClient(client).Check(context.Background(), "x@example.com"); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing api key")
	}

	cfg = Config{APIKey: "k"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Endpoint != abstractDefaultEndpoint {
		t.Errorf("Endpoint = %q, want default", cfg.Endpoint)
	}
	if cfg.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, defaultTimeout)
	}
}

func TestFunc(t *testing.T) {
	var v Validator = Func(func(_ context.Context, a string) Verdict {
		return Verdict{Address: a, Valid: true}
	})
	if got := v.Validate(context.Background(), "a@x.io"); !got.Valid {
		t.Error("expected Func to pass through")
	}
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }

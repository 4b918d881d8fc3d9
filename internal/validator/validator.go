// Package validator checks single addresses against a remote email
// validation service.
package validator

import "context"

// Validator produces a verdict for one normalized address. Implementations
// never return an error: any failure to reach or understand the service
// yields an invalid verdict without a suggestion.
type Validator interface {
	Validate(ctx context.Context, address string) Verdict
}

// Func adapts a function to the Validator interface.
type Func func(ctx context.Context, address string) Verdict

// Validate calls f.
func (f Func) Validate(ctx context.Context, address string) Verdict {
	return f(ctx, address)
}

// Verdict is the outcome of validating one address.
type Verdict struct {
	Address string `json:"address"`
	Valid   bool   `json:"valid"`
	// Suggestion is the service's corrected address, normalized. Empty when
	// the service offered none or offered the address itself.
	Suggestion string `json:"suggestion,omitempty"`
}

// HasSuggestion reports whether the verdict carries a correction.
func (v Verdict) HasSuggestion() bool {
	return v.Suggestion != "" && v.Suggestion != v.Address
}

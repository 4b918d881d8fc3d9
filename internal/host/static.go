// Package host provides the sources a Collector reads a composed message's
// recipients from: an API payload, an .eml draft, a message in an mbox file
// and a draft on an IMAP server.
package host

import (
	"context"
	"fmt"

	"github.com/sungwon/recipient-check/internal/collector"
)

// Static serves recipient fields held in memory, typically decoded from an
// API request body.
type Static struct {
	To  []string `json:"to"`
	Cc  []string `json:"cc"`
	Bcc []string `json:"bcc"`
}

// Recipients returns the entries of the requested field.
func (s *Static) Recipients(_ context.Context, g collector.Group) ([]string, error) {
	switch g {
	case collector.GroupTo:
		return s.To, nil
	case collector.GroupCc:
		return s.Cc, nil
	case collector.GroupBcc:
		return s.Bcc, nil
	default:
		return nil, fmt.Errorf("host: unknown recipient group %q", g)
	}
}

// Package collector gathers the recipients of a composed message from its
// host and reduces them to unique, normalized addresses per group.
package collector

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sungwon/recipient-check/internal/address"
	"github.com/sungwon/recipient-check/internal/metrics"
)

// Group identifies one of the three recipient fields of a message.
type Group string

const (
	GroupTo  Group = "to"
	GroupCc  Group = "cc"
	GroupBcc Group = "bcc"
)

// Groups lists the recipient groups in collection and validation order.
var Groups = []Group{GroupTo, GroupCc, GroupBcc}

// Host reads recipient fields from the message being composed. Each entry
// of the returned slice may hold several separator-delimited addresses.
// Any error means the field could not be read for this run.
type Host interface {
	Recipients(ctx context.Context, group Group) ([]string, error)
}

// HostFunc adapts a function to the Host interface.
type HostFunc func(ctx context.Context, group Group) ([]string, error)

// Recipients calls f.
func (f HostFunc) Recipients(ctx context.Context, group Group) ([]string, error) {
	return f(ctx, group)
}

// Sets holds the unique normalized addresses of each group in first-seen
// order.
type Sets struct {
	To  []string `json:"to"`
	Cc  []string `json:"cc"`
	Bcc []string `json:"bcc"`
}

// Group returns the addresses collected for g.
func (s Sets) Group(g Group) []string {
	switch g {
	case GroupTo:
		return s.To
	case GroupCc:
		return s.Cc
	case GroupBcc:
		return s.Bcc
	default:
		return nil
	}
}

// Empty reports whether no group holds any address.
func (s Sets) Empty() bool {
	return len(s.To) == 0 && len(s.Cc) == 0 && len(s.Bcc) == 0
}

// Collector reads and normalizes recipients from a Host.
type Collector struct {
	log zerolog.Logger
}

// New creates a Collector that logs lookup failures to log.
func New(log zerolog.Logger) *Collector {
	return &Collector{log: log}
}

// Collect reads the To, Cc and Bcc fields from host in that order. A group
// whose lookup fails is logged and treated as empty; lookups are not retried.
func (c *Collector) Collect(ctx context.Context, host Host) Sets {
	var sets Sets
	for _, g := range Groups {
		addrs := c.collectGroup(ctx, host, g)
		switch g {
		case GroupTo:
			sets.To = addrs
		case GroupCc:
			sets.Cc = addrs
		case GroupBcc:
			sets.Bcc = addrs
		}
	}
	return sets
}

func (c *Collector) collectGroup(ctx context.Context, host Host, g Group) []string {
	entries, err := host.Recipients(ctx, g)
	if err != nil {
		c.log.Warn().Err(err).Str("group", string(g)).Msg("recipient lookup failed, treating group as empty")
		metrics.RecipientLookupFailuresTotal.WithLabelValues(string(g)).Inc()
		return []string{}
	}

	var all []string
	for _, e := range entries {
		all = append(all, address.Normalize(e)...)
	}
	return address.Unique(all)
}

// CombinedUnique merges the groups into one list without duplicates. Order
// is To, then Cc, then Bcc, each address at its first occurrence.
func CombinedUnique(sets Sets) []string {
	all := make([]string, 0, len(sets.To)+len(sets.Cc)+len(sets.Bcc))
	all = append(all, sets.To...)
	all = append(all, sets.Cc...)
	all = append(all, sets.Bcc...)
	return address.Unique(all)
}

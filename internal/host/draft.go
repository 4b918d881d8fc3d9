package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"

	"github.com/sungwon/recipient-check/internal/address"
	"github.com/sungwon/recipient-check/internal/collector"
)

var headerFields = map[collector.Group]string{
	collector.GroupTo:  "To",
	collector.GroupCc:  "Cc",
	collector.GroupBcc: "Bcc",
}

// Draft serves the address headers of an RFC 5322 message. Only the header
// block is read; the body is ignored.
type Draft struct {
	header mail.Header
}

// ReadDraft parses the header block of a message from r.
func ReadDraft(r io.Reader) (*Draft, error) {
	h, err := textproto.ReadHeader(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("host: read message header: %w", err)
	}
	return &Draft{header: mail.Header{Header: message.Header{Header: h}}}, nil
}

// OpenEML parses the .eml file at path.
func OpenEML(path string) (*Draft, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("host: open eml: %w", err)
	}
	defer f.Close()
	return ReadDraft(f)
}

// Subject returns the decoded Subject header, or the raw value when it
// cannot be decoded.
func (d *Draft) Subject() string {
	s, err := d.header.Subject()
	if err != nil {
		return d.header.Get("Subject")
	}
	return s
}

// Recipients returns the bare addresses of the group's header. A missing
// header yields no entries. A header that is not a strict RFC 5322 address
// list, such as "a@x.com; b@x.com", is split loosely so that no entry is
// dropped; entries that still do not parse are returned as written.
func (d *Draft) Recipients(_ context.Context, g collector.Group) ([]string, error) {
	field, ok := headerFields[g]
	if !ok {
		return nil, fmt.Errorf("host: unknown recipient group %q", g)
	}
	if !d.header.Has(field) {
		return []string{}, nil
	}
	list, err := d.header.AddressList(field)
	if err != nil {
		return d.looseRecipients(field), nil
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Address)
	}
	return out, nil
}

func (d *Draft) looseRecipients(field string) []string {
	raw, err := d.header.Text(field)
	if err != nil {
		raw = d.header.Get(field)
	}
	parts := address.Normalize(raw)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if a, err := mail.ParseAddress(p); err == nil {
			p = a.Address
		}
		out = append(out, p)
	}
	return out
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sungwon/recipient-check/internal/collector"
	"github.com/sungwon/recipient-check/internal/host"
)

// sourceFlags select where the draft's recipients are read from. Exactly
// one of --eml, --mbox, --imap-host or --to/--cc/--bcc must be given.
type sourceFlags struct {
	eml       string
	mbox      string
	mboxIndex int

	imap host.IMAPOptions
	uid  uint32

	to, cc, bcc []string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.eml, "eml", "", "read the draft from an .eml file")
	f.StringVar(&s.mbox, "mbox", "", "read the draft from an mbox file")
	f.IntVar(&s.mboxIndex, "index", host.LastMessage, "zero-based message index in --mbox (-1 for the last message)")

	f.StringVar(&s.imap.Host, "imap-host", "", "IMAP server holding the draft")
	f.IntVar(&s.imap.Port, "imap-port", 0, "IMAP port (default 993 with TLS, 143 without)")
	f.StringVar(&s.imap.Username, "imap-user", "", "IMAP username")
	f.StringVar(&s.imap.Password, "imap-password", "", "IMAP password")
	f.BoolVar(&s.imap.UseTLS, "imap-tls", true, "connect with TLS")
	f.BoolVar(&s.imap.InsecureSkipVerify, "imap-insecure", false, "skip TLS certificate verification")
	f.StringVar(&s.imap.Mailbox, "imap-mailbox", host.DefaultDraftsMailbox, "mailbox holding the draft")
	f.Uint32Var(&s.uid, "imap-uid", 0, "UID of the draft message")

	f.StringSliceVar(&s.to, "to", nil, "To recipients")
	f.StringSliceVar(&s.cc, "cc", nil, "Cc recipients")
	f.StringSliceVar(&s.bcc, "bcc", nil, "Bcc recipients")
}

func (s *sourceFlags) resolve(ctx context.Context) (collector.Host, error) {
	given := 0
	for _, set := range []bool{s.eml != "", s.mbox != "", s.imap.Host != "", len(s.to)+len(s.cc)+len(s.bcc) > 0} {
		if set {
			given++
		}
	}
	switch {
	case given == 0:
		return nil, errors.New("no recipient source: use --eml, --mbox, --imap-host or --to/--cc/--bcc")
	case given > 1:
		return nil, errors.New("recipient sources are mutually exclusive")
	}

	switch {
	case s.eml != "":
		return host.OpenEML(s.eml)
	case s.mbox != "":
		return host.OpenMbox(s.mbox, s.mboxIndex)
	case s.imap.Host != "":
		opts := s.imap
		opts.UID = s.uid
		st, err := host.FetchIMAPDraft(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("fetch draft: %w", err)
		}
		return st, nil
	default:
		return &host.Static{To: s.to, Cc: s.cc, Bcc: s.bcc}, nil
	}
}

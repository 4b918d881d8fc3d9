package host

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// DefaultDraftsMailbox is the mailbox searched when none is configured.
const DefaultDraftsMailbox = "Drafts"

// IMAPOptions locates a draft on an IMAP server.
type IMAPOptions struct {
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	InsecureSkipVerify bool
	Mailbox            string
	UID                uint32
}

func (o IMAPOptions) validate() error {
	if o.Host == "" {
		return errors.New("host: imap host is required")
	}
	if o.UID == 0 {
		return errors.New("host: imap uid is required")
	}
	return nil
}

// FetchIMAPDraft logs in, selects the drafts mailbox read-only and returns
// the envelope recipients of the message with the given UID.
func FetchIMAPDraft(ctx context.Context, opts IMAPOptions) (*Static, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Port == 0 {
		opts.Port = 993
		if !opts.UseTLS {
			opts.Port = 143
		}
	}
	if opts.Mailbox == "" {
		opts.Mailbox = DefaultDraftsMailbox
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	clientOpts := &imapclient.Options{}
	var (
		client *imapclient.Client
		err    error
	)
	if opts.UseTLS {
		clientOpts.TLSConfig = &tls.Config{
			ServerName:         opts.Host,
			InsecureSkipVerify: opts.InsecureSkipVerify,
		}
		client, err = imapclient.DialTLS(addr, clientOpts)
	} else {
		client, err = imapclient.DialInsecure(addr, clientOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("host: dial imap %s: %w", addr, err)
	}
	defer client.Close()

	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	if err := client.Login(opts.Username, opts.Password).Wait(); err != nil {
		return nil, fmt.Errorf("host: imap login: %w", err)
	}
	if _, err := client.Select(opts.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("host: select %s: %w", opts.Mailbox, err)
	}

	msgs, err := client.Fetch(imap.UIDSetNum(imap.UID(opts.UID)), &imap.FetchOptions{Envelope: true}).Collect()
	if err != nil {
		return nil, fmt.Errorf("host: fetch uid %d: %w", opts.UID, err)
	}
	if len(msgs) == 0 || msgs[0].Envelope == nil {
		return nil, fmt.Errorf("host: uid %d in %s: %w", opts.UID, opts.Mailbox, ErrNoMessage)
	}

	_ = client.Logout().Wait()
	return envelopeRecipients(msgs[0].Envelope), nil
}

func envelopeRecipients(env *imap.Envelope) *Static {
	return &Static{
		To:  addrList(env.To),
		Cc:  addrList(env.Cc),
		Bcc: addrList(env.Bcc),
	}
}

// addrList drops group syntax markers, which carry no host.
func addrList(in []imap.Address) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a.Mailbox == "" || a.Host == "" {
			continue
		}
		out = append(out, a.Mailbox+"@"+a.Host)
	}
	return out
}

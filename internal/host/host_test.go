package host

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/rs/zerolog"

	"github.com/sungwon/recipient-check/internal/collector"
)

func recipients(t *testing.T, h collector.Host, g collector.Group) []string {
	t.Helper()
	got, err := h.Recipients(context.Background(), g)
	if err != nil {
		t.Fatalf("Recipients(%s): %v", g, err)
	}
	return got
}

func TestStatic(t *testing.T) {
	s := &Static{To: []string{"a@x.io; b@x.io"}, Bcc: []string{"c@x.io"}}

	if got := recipients(t, s, collector.GroupTo); !reflect.DeepEqual(got, []string{"a@x.io; b@x.io"}) {
		t.Errorf("To = %v", got)
	}
	if got := recipients(t, s, collector.GroupCc); len(got) != 0 {
		t.Errorf("Cc = %v, want empty", got)
	}
	if _, err := s.Recipients(context.Background(), "reply-to"); err == nil {
		t.Error("expected error for unknown group")
	}
}

func TestOpenEML(t *testing.T) {
	d, err := OpenEML("testdata/draft.eml")
	if err != nil {
		t.Fatalf("OpenEML: %v", err)
	}

	if got := recipients(t, d, collector.GroupTo); !reflect.DeepEqual(got, []string{"Alice@Example.com", "bob@example.com"}) {
		t.Errorf("To = %v", got)
	}
	if got := recipients(t, d, collector.GroupCc); !reflect.DeepEqual(got, []string{"carol@example.com"}) {
		t.Errorf("Cc = %v", got)
	}
	if got := recipients(t, d, collector.GroupBcc); len(got) != 0 {
		t.Errorf("Bcc = %v, want empty", got)
	}
	if d.Subject() != "Quarterly numbers" {
		t.Errorf("Subject = %q", d.Subject())
	}
}

func TestDraft_LooseSeparators(t *testing.T) {
	raw := "To: a@x.com; B@x.com\r\n" +
		"Cc: Carol <c@x.com>, \"Bad\" d@@x\r\n" +
		"\r\n"
	d, err := ReadDraft(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadDraft: %v", err)
	}

	if got := recipients(t, d, collector.GroupTo); !reflect.DeepEqual(got, []string{"a@x.com", "b@x.com"}) {
		t.Errorf("To = %v", got)
	}

	sets := collector.New(zerolog.Nop()).Collect(context.Background(), d)
	if !reflect.DeepEqual(sets.To, []string{"a@x.com", "b@x.com"}) {
		t.Errorf("collected To = %v", sets.To)
	}
	if !reflect.DeepEqual(sets.Cc, []string{"c@x.com", `"bad" d@@x`}) {
		t.Errorf("collected Cc = %v", sets.Cc)
	}
	if len(sets.Bcc) != 0 {
		t.Errorf("collected Bcc = %v, want empty", sets.Bcc)
	}
}

func TestDraft_FeedsCollector(t *testing.T) {
	d, err := OpenEML("testdata/draft.eml")
	if err != nil {
		t.Fatalf("OpenEML: %v", err)
	}
	sets := collector.New(zerolog.Nop()).Collect(context.Background(), d)
	want := []string{"alice@example.com", "bob@example.com"}
	if !reflect.DeepEqual(sets.To, want) {
		t.Errorf("To = %v, want %v", sets.To, want)
	}
}

func TestOpenMbox(t *testing.T) {
	tests := []struct {
		name  string
		index int
		to    []string
		cc    []string
		err   error
	}{
		{"first", 0, []string{"first@example.com"}, []string{}, nil},
		{"second", 1, []string{"second@example.com"}, []string{"team@example.com", "lead@example.com"}, nil},
		{"last", LastMessage, []string{"second@example.com"}, []string{"team@example.com", "lead@example.com"}, nil},
		{"out of range", 5, nil, nil, ErrNoMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := OpenMbox("testdata/drafts.mbox", tt.index)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenMbox: %v", err)
			}
			if got := recipients(t, d, collector.GroupTo); !reflect.DeepEqual(got, tt.to) {
				t.Errorf("To = %v, want %v", got, tt.to)
			}
			if got := recipients(t, d, collector.GroupCc); !reflect.DeepEqual(got, tt.cc) {
				t.Errorf("Cc = %v, want %v", got, tt.cc)
			}
		})
	}
}

func TestReadMbox_Empty(t *testing.T) {
	if _, err := ReadMbox(strings.NewReader(""), LastMessage); !errors.Is(err, ErrNoMessage) {
		t.Errorf("err = %v, want ErrNoMessage", err)
	}
	if _, err := ReadMbox(strings.NewReader(""), -2); err == nil {
		t.Error("expected error for negative index")
	}
}

func TestEnvelopeRecipients(t *testing.T) {
	env := &imap.Envelope{
		To: []imap.Address{
			{Name: "Alice", Mailbox: "alice", Host: "example.com"},
			{Mailbox: "undisclosed-recipients"}, // group start
			{},                                  // group end
		},
		Bcc: []imap.Address{{Mailbox: "audit", Host: "example.com"}},
	}

	got := envelopeRecipients(env)
	if !reflect.DeepEqual(got.To, []string{"alice@example.com"}) {
		t.Errorf("To = %v", got.To)
	}
	if len(got.Cc) != 0 {
		t.Errorf("Cc = %v, want empty", got.Cc)
	}
	if !reflect.DeepEqual(got.Bcc, []string{"audit@example.com"}) {
		t.Errorf("Bcc = %v", got.Bcc)
	}
}

func TestFetchIMAPDraft_RequiresHostAndUID(t *testing.T) {
	if _, err := FetchIMAPDraft(context.Background(), IMAPOptions{UID: 1}); err == nil {
		t.Error("expected error without host")
	}
	if _, err := FetchIMAPDraft(context.Background(), IMAPOptions{Host: "imap.example.com"}); err == nil {
		t.Error("expected error without uid")
	}
}

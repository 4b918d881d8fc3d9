package host

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/emersion/go-mbox"
)

// LastMessage selects the final message of an mbox file.
const LastMessage = -1

// ErrNoMessage is returned when the requested mbox message does not exist.
var ErrNoMessage = errors.New("host: no such message in mbox")

// ReadMbox returns the draft at the zero-based index in the mbox stream r.
// LastMessage picks the final message, which is where mail clients append
// newly saved drafts.
func ReadMbox(r io.Reader, index int) (*Draft, error) {
	if index < LastMessage {
		return nil, fmt.Errorf("host: invalid mbox index %d", index)
	}

	mr := mbox.NewReader(r)
	var last []byte
	for i := 0; ; i++ {
		msg, err := mr.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("host: read mbox message %d: %w", i, err)
		}
		raw, err := io.ReadAll(msg)
		if err != nil {
			return nil, fmt.Errorf("host: read mbox message %d: %w", i, err)
		}
		if i == index {
			return ReadDraft(bytes.NewReader(raw))
		}
		last = raw
	}

	if index == LastMessage && last != nil {
		return ReadDraft(bytes.NewReader(last))
	}
	return nil, ErrNoMessage
}

// OpenMbox reads the message at index from the mbox file at path.
func OpenMbox(path string, index int) (*Draft, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("host: open mbox: %w", err)
	}
	defer f.Close()
	return ReadMbox(f, index)
}

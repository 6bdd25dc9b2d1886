package message

import (
	"errors"
	"io"
	"strings"
)

// ErrAlreadyOpened is returned by Open when the message bytes have already
// been handed out. Sources are not restartable.
var ErrAlreadyOpened = errors.New("message source has already been opened")

// Envelope holds the SMTP envelope of a message: the address to send it from
// and the addresses to deliver it to.
type Envelope struct {
	From string
	To   []string
}

// String returns the envelope in a form suitable for logging.
func (e Envelope) String() string {
	return "<" + e.From + "> -> <" + strings.Join(e.To, ">, <") + ">"
}

// Source is the interface a message must implement to be sent by a transport.
type Source interface {
	// Envelope returns the envelope the message is to be delivered with.
	Envelope() Envelope

	// MessageID returns the Message-ID of the message. It returns the same
	// value every time it is called.
	MessageID() string

	// Open returns the bytes of the message. It may only be called once. Read
	// errors are reported by the returned io.ReadCloser.
	Open() (io.ReadCloser, error)
}

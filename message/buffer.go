package message

import (
	"bytes"
	"io"
)

// Buffer builds a message in memory. Write the message bytes to it, set the
// envelope, and hand it to a transport. It implements Source.
//
// A Buffer may not be written to after it has been opened.
type Buffer struct {
	buf      bytes.Buffer
	envelope Envelope
	id       string
	opened   bool
}

// Write implements io.Writer. It returns ErrAlreadyOpened if the Buffer has
// been opened.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.opened {
		return 0, ErrAlreadyOpened
	}
	return b.buf.Write(p)
}

// SetEnvelope sets the envelope returned by Envelope.
func (b *Buffer) SetEnvelope(env Envelope) {
	b.envelope = env
}

// Envelope returns the envelope set with SetEnvelope.
func (b *Buffer) Envelope() Envelope {
	return b.envelope
}

// SetMessageID sets the Message-ID returned by MessageID. It does not add a
// Message-ID field to the message.
func (b *Buffer) SetMessageID(id string) {
	b.id = id
}

// MessageID returns the Message-ID set with SetMessageID. If none was set, one
// is generated and kept.
func (b *Buffer) MessageID() string {
	if b.id == "" {
		b.id = GenerateMessageID()
	}
	return b.id
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return b.buf.Len()
}

// Open returns a reader over the bytes written to the Buffer. It returns
// ErrAlreadyOpened if called a second time.
func (b *Buffer) Open() (io.ReadCloser, error) {
	if b.opened {
		return nil, ErrAlreadyOpened
	}
	b.opened = true
	return io.NopCloser(bytes.NewReader(b.buf.Bytes())), nil
}

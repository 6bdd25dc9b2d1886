package message

import (
	"io"
	"sync"
	"time"
)

// Opaque is a message whose header has been parsed but whose bytes are
// otherwise left alone. It implements Source. Create one with Parse.
type Opaque struct {
	// Header holds the fields of the message header.
	Header

	prefix []byte
	body   io.Reader

	idOnce sync.Once
	id     string
	opened bool
}

// Envelope returns the envelope built from the Sender, From, To, Cc, and Bcc
// fields of the header.
func (m *Opaque) Envelope() Envelope {
	return m.Header.Envelope()
}

// MessageID returns the Message-ID field of the header. A message without one
// is given a generated Message-ID, which is returned from then on. The header
// and the message bytes are not changed.
func (m *Opaque) MessageID() string {
	m.idOnce.Do(func() {
		if id, err := m.Get(MessageID); err == nil && id != "" {
			m.id = id
			return
		}
		m.id = GenerateMessageID()
	})
	return m.id
}

// Date returns the parsed Date field of the header.
func (m *Opaque) Date() (time.Time, error) {
	return m.GetTime(Date)
}

// Open returns the message bytes: the bytes already read while parsing the
// header, followed by the unread remainder of the input. Closing the returned
// io.ReadCloser closes the input if it is an io.Closer.
//
// It returns ErrAlreadyOpened if called a second time.
func (m *Opaque) Open() (io.ReadCloser, error) {
	if m.opened {
		return nil, ErrAlreadyOpened
	}
	m.opened = true

	rem := &remainder{prefix: m.prefix, r: m.body}
	m.prefix, m.body = nil, nil
	return rem, nil
}

// remainder returns the prefix bytes and then reads from r.
type remainder struct {
	prefix []byte
	r      io.Reader
}

// Read reads from the prefix until it is used up and from the nested reader
// after that.
func (r *remainder) Read(p []byte) (int, error) {
	if len(r.prefix) > 0 {
		n := copy(p, r.prefix)
		r.prefix = r.prefix[n:]
		return n, nil
	}

	if r.r == nil {
		return 0, io.EOF
	}
	return r.r.Read(p)
}

// Close passes the call on to the nested reader if it is an io.Closer.
func (r *remainder) Close() error {
	r.prefix = nil
	if c, isCloser := r.r.(io.Closer); isCloser {
		return c.Close()
	}
	return nil
}

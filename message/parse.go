package message

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const (
	// DefaultChunkSize is the default size of the chunks read from the input
	// while looking for the end of the header.
	DefaultChunkSize = 16_384

	// DefaultMaxHeaderLength is the default maximum number of bytes to read
	// before giving up on finding the end of the header.
	DefaultMaxHeaderLength = bufio.MaxScanTokenSize
)

// ErrLargeHeader is returned by Parse when the header is longer than the
// configured WithMaxHeaderLength option (or the default,
// DefaultMaxHeaderLength).
var ErrLargeHeader = errors.New("the header exceeds the maximum parse length")

// splits are the header/body separators, most likely first.
var splits = [][]byte{
	[]byte("\x0d\x0a\x0d\x0a"), // \r\n\r\n
	[]byte("\x0a\x0a"),         // \n\n
	[]byte("\x0d\x0d"),         // \r\r
}

type parser struct {
	maxHeaderLen int
	chunkSize    int
}

// ParseOption modifies how Parse works.
type ParseOption func(pr *parser)

// WithMaxHeaderLength is a ParseOption that sets how long the header may be,
// counting the blank line that ends it, before Parse fails with ErrLargeHeader.
// Body bytes read along with the header do not count. A value less than or
// equal to 0 means there is no limit.
func WithMaxHeaderLength(n int) ParseOption {
	return func(pr *parser) { pr.maxHeaderLen = n }
}

// WithChunkSize is a ParseOption that sets how many bytes are read from the
// input at a time.
func WithChunkSize(n int) ParseOption {
	return func(pr *parser) { pr.chunkSize = n }
}

// searchForSplit returns the position just past the first header/body
// separator in buf along with the line break it is made of, or -1 if there is
// no separator.
func searchForSplit(buf []byte) (int, []byte) {
	pos, crlf := -1, []byte(nil)
	for _, s := range splits {
		if testPos := bytes.Index(buf, s); testPos > -1 && (pos < 0 || testPos < pos) {
			pos, crlf = testPos, s[:len(s)/2]
		}
	}

	if pos < 0 {
		return -1, nil
	}
	return pos + 2*len(crlf), crlf
}

// guessBreak picks a line break for a header that has no body after it.
func guessBreak(buf []byte) []byte {
	for _, s := range splits {
		crlf := s[:len(s)/2]
		if bytes.Contains(buf, crlf) {
			return crlf
		}
	}
	return []byte("\x0a")
}

// readHeader reads chunks from r until the end of the header is found. It
// returns every byte read so far, the length of the header within those bytes,
// and the line break the header uses. Only the header, separator included,
// counts toward the maximum header length.
func (pr *parser) readHeader(r io.Reader) ([]byte, int, []byte, error) {
	p := make([]byte, pr.chunkSize)
	buf := &bytes.Buffer{}
	searched := 0
	for {
		n, err := r.Read(p)
		buf.Write(p[:n])

		if pos, crlf := searchForSplit(buf.Bytes()[searched:]); pos >= 0 {
			if pr.tooLong(searched + pos) {
				return nil, 0, nil, ErrLargeHeader
			}
			return buf.Bytes(), searched + pos, crlf, nil
		}

		if errors.Is(err, io.EOF) {
			if pr.tooLong(buf.Len()) {
				return nil, 0, nil, ErrLargeHeader
			}
			return buf.Bytes(), buf.Len(), guessBreak(buf.Bytes()), nil
		} else if err != nil {
			return nil, 0, nil, err
		}

		// no separator yet, so the header is longer than what has been read
		if pr.tooLong(buf.Len() + 1) {
			return nil, 0, nil, ErrLargeHeader
		}

		// a separator may straddle this chunk and the next
		searched = buf.Len() - 3
		if searched < 0 {
			searched = 0
		}
	}
}

func (pr *parser) tooLong(n int) bool {
	return pr.maxHeaderLen > 0 && n > pr.maxHeaderLen
}

// Parse reads the header of the message in r and returns an *Opaque for it.
// The input is read a chunk at a time until a blank line, in any of the usual
// line break styles, marks the end of the header. The rest of r is left unread
// until the Opaque is opened. When no blank line is found, the whole input is
// taken to be header.
//
// If the header is longer than the WithMaxHeaderLength option allows, Parse
// fails with ErrLargeHeader and r is left partially read.
func Parse(r io.Reader, opts ...ParseOption) (*Opaque, error) {
	pr := &parser{
		maxHeaderLen: DefaultMaxHeaderLength,
		chunkSize:    DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(pr)
	}
	if pr.chunkSize <= 0 {
		pr.chunkSize = DefaultChunkSize
	}

	read, hdrLen, crlf, err := pr.readHeader(r)
	if err != nil {
		return nil, err
	}

	return &Opaque{
		Header: *parseHeader(read[:hdrLen], crlf),
		prefix: read,
		body:   r,
	}, nil
}

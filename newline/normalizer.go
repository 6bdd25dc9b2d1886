package newline

import (
	"bytes"
	"errors"
)

// ErrFinished is returned by Process and Finish when they are called after
// Finish has already been called. It always means the caller has a bug.
var ErrFinished = errors.New("newline normalizer is already finished")

// lineEndings are the bytes that begin a line ending.
const lineEndings = "\r\n"

// Normalizer rewrites line endings in a sequence of chunks. A Normalizer holds
// state between chunks, so each stream needs its own. It is not safe for
// concurrent use.
type Normalizer struct {
	target    []byte
	pendingCR bool
	finished  bool
}

// NewNormalizer returns a Normalizer that replaces every line ending with the
// given Break.
func NewNormalizer(brk Break) *Normalizer {
	return &Normalizer{target: brk.Bytes()}
}

// Pending returns true if the last chunk processed ended in a "\r" that has
// not been written yet.
func (n *Normalizer) Pending() bool {
	return n.pendingCR
}

// Process appends the normalized form of chunk to dst and returns the extended
// slice. A "\r" at the very end of chunk is held back until the next call to
// Process or Finish, since the following byte decides whether it is a line
// ending by itself or the start of "\r\n".
//
// An empty chunk is allowed and changes nothing.
func (n *Normalizer) Process(dst, chunk []byte) ([]byte, error) {
	if n.finished {
		return dst, ErrFinished
	}

	if len(chunk) == 0 {
		return dst, nil
	}

	i := 0
	if n.pendingCR {
		n.pendingCR = false
		dst = append(dst, n.target...)
		if chunk[0] == '\n' {
			i = 1
		}
	}

	for i < len(chunk) {
		j := bytes.IndexAny(chunk[i:], lineEndings)
		if j < 0 {
			dst = append(dst, chunk[i:]...)
			break
		}

		dst = append(dst, chunk[i:i+j]...)
		i += j

		if chunk[i] == '\r' {
			if i+1 == len(chunk) {
				n.pendingCR = true
				break
			}

			if chunk[i+1] == '\n' {
				i++
			}
		}
		i++

		dst = append(dst, n.target...)
	}

	return dst, nil
}

// Finish appends a line break for a held back "\r", if there is one, and marks
// the Normalizer finished. It must be called once after the final chunk or the
// last line ending of the stream may be lost.
func (n *Normalizer) Finish(dst []byte) ([]byte, error) {
	if n.finished {
		return dst, ErrFinished
	}

	n.finished = true
	if n.pendingCR {
		n.pendingCR = false
		dst = append(dst, n.target...)
	}

	return dst, nil
}

// Normalize returns a copy of b with every line ending replaced by brk.
func Normalize(b []byte, brk Break) []byte {
	n := NewNormalizer(brk)
	out := make([]byte, 0, len(b))
	out, _ = n.Process(out, b)
	out, _ = n.Finish(out)
	return out
}

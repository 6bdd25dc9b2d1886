package newline

import (
	"bytes"

	"golang.org/x/text/transform"
)

// Transformer rewrites line endings as a transform.Transformer, so it can be
// chained with other transforms or used with transform.NewReader and
// transform.NewWriter. It keeps no state between calls. A "\r" at the end of
// src is left unconsumed, with transform.ErrShortSrc, until more input or EOF
// settles what it is.
type Transformer struct {
	transform.NopResetter
	target []byte
}

// NewTransformer returns a Transformer that replaces every line ending with
// brk.
func NewTransformer(brk Break) *Transformer {
	return &Transformer{target: brk.Bytes()}
}

// Transform implements transform.Transformer.
func (t *Transformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		j := bytes.IndexAny(src[nSrc:], lineEndings)
		if j < 0 {
			j = len(src) - nSrc
		}

		if j > 0 {
			n := copy(dst[nDst:], src[nSrc:nSrc+j])
			nDst += n
			nSrc += n
			if n < j {
				return nDst, nSrc, transform.ErrShortDst
			}
			continue
		}

		width := 1
		if src[nSrc] == '\r' {
			switch {
			case nSrc+1 < len(src):
				if src[nSrc+1] == '\n' {
					width = 2
				}
			case !atEOF:
				return nDst, nSrc, transform.ErrShortSrc
			}
		}

		if len(dst)-nDst < len(t.target) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], t.target)
		nSrc += width
	}

	return nDst, nSrc, nil
}

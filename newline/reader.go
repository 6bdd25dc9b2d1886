package newline

import (
	"errors"
	"io"
)

// DefaultChunkSize is the number of bytes a Reader asks of its source at a
// time, unless created with NewReaderSize.
const DefaultChunkSize = 16_384

// Reader normalizes the line endings of the bytes read from a source
// io.Reader. It reads the source one chunk at a time, so only a single chunk
// and its normalized form are ever held in memory.
type Reader struct {
	r    io.Reader
	norm *Normalizer

	in  []byte
	out []byte
	off int

	err error
}

// NewReader returns a Reader that reads from r and replaces every line ending
// with brk.
func NewReader(r io.Reader, brk Break) *Reader {
	return NewReaderSize(r, brk, DefaultChunkSize)
}

// NewReaderSize is just like NewReader, but reads chunks of the given size
// from r. A size less than or equal to 0 means DefaultChunkSize.
func NewReaderSize(r io.Reader, brk Break, size int) *Reader {
	if size <= 0 {
		size = DefaultChunkSize
	}

	return &Reader{
		r:    r,
		norm: NewNormalizer(brk),
		in:   make([]byte, size),
		out:  make([]byte, 0, size+size/8),
	}
}

// fill reads the next chunk from the source and normalizes it. When the source
// reports io.EOF, the held back "\r", if any, is flushed. Any other source
// error is kept and returned once the normalized bytes before it are read.
func (r *Reader) fill() {
	r.out = r.out[:0]
	r.off = 0

	n, err := r.r.Read(r.in)
	if n > 0 {
		r.out, r.err = r.norm.Process(r.out, r.in[:n])
		if r.err != nil {
			return
		}
	}

	switch {
	case errors.Is(err, io.EOF):
		r.out, r.err = r.norm.Finish(r.out)
		if r.err == nil {
			r.err = io.EOF
		}
	case err != nil:
		r.err = err
	}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for r.off >= len(r.out) {
		if r.err != nil {
			return 0, r.err
		}
		r.fill()
	}

	n := copy(p, r.out[r.off:])
	r.off += n
	return n, nil
}

// WriteTo implements io.WriterTo, which lets io.Copy skip the intermediate
// buffer. It returns nil on reaching the end of the source.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		if r.off < len(r.out) {
			n, err := w.Write(r.out[r.off:])
			r.off += n
			total += int64(n)
			if err != nil {
				return total, err
			}
			if r.off < len(r.out) {
				return total, io.ErrShortWrite
			}
		}

		if r.err != nil {
			if errors.Is(r.err, io.EOF) {
				return total, nil
			}
			return total, r.err
		}

		r.fill()
	}
}

// Close closes the source if it is an io.Closer. Otherwise, it does nothing.
func (r *Reader) Close() error {
	if c, isCloser := r.r.(io.Closer); isCloser {
		return c.Close()
	}
	return nil
}

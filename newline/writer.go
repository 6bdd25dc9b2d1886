package newline

import "io"

// Writer normalizes the line endings of everything written to it before
// passing the bytes on to the nested io.Writer. Close must be called when
// writing is done to flush a trailing "\r".
type Writer struct {
	w    io.Writer
	norm *Normalizer
	buf  []byte
}

// NewWriter returns a Writer that replaces every line ending with brk and
// writes the result to w.
func NewWriter(w io.Writer, brk Break) *Writer {
	return &Writer{
		w:    w,
		norm: NewNormalizer(brk),
	}
}

// Write implements io.Writer. On success it reports all of p as written, even
// though the number of bytes passed on to the nested io.Writer may differ.
func (w *Writer) Write(p []byte) (int, error) {
	var err error
	w.buf, err = w.norm.Process(w.buf[:0], p)
	if err != nil {
		return 0, err
	}

	if err := w.flush(); err != nil {
		return 0, err
	}

	return len(p), nil
}

// Close writes a line break for a held back "\r". It does not close the nested
// io.Writer. Calling Close a second time returns ErrFinished.
func (w *Writer) Close() error {
	var err error
	w.buf, err = w.norm.Finish(w.buf[:0])
	if err != nil {
		return err
	}

	return w.flush()
}

func (w *Writer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}

	n, err := w.w.Write(w.buf)
	if err != nil {
		return err
	}
	if n < len(w.buf) {
		return io.ErrShortWrite
	}
	return nil
}

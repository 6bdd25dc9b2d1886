// Package newline rewrites the line endings of a byte stream. Every line
// ending found in the input, whether it is "\n", "\r\n", or a bare "\r", is
// replaced with exactly one copy of a target Break. No other byte is touched.
//
// The work is done by a Normalizer, which is fed the input a chunk at a time
// and remembers a trailing "\r" until it can tell whether the next chunk starts
// with the "\n" that completes the pair. Reader and Writer wrap a Normalizer
// around an io.Reader or an io.Writer for the common cases:
//
//	r := newline.NewReader(msg, newline.CRLF)
//	_, err := io.Copy(conn, r)
//
// The output is the same no matter where the chunk boundaries fall. A
// Transformer does the same job for code built on golang.org/x/text/transform.
package newline

// Package mailstream is a transport for email messages that does not send them
// anywhere. Instead, it hands back the bytes of each message with every line
// ending rewritten to one style, either Unix ("\n") or Windows ("\r\n"). This
// is useful for writing messages to disk, piping them to sendmail-like
// programs, or checking what a message looks like before it goes out on the
// wire.
//
// The code is split up by job. The newline package holds the Normalizer, which
// rewrites line endings in a stream of chunks no matter where the chunk
// boundaries fall, along with an io.Reader and an io.Writer built on it. The
// message package provides message sources: an Opaque parsed from an
// existing message and a Buffer for building one in memory. The transport
// package ties the two together. A Transport opens a message source, runs it
// through a Normalizer, and returns the result either as a stream or, in
// buffer mode, as a single []byte.
//
// Other than line endings, the bytes of a message are never changed. The
// message is not parsed as MIME and nothing is encoded or decoded.
package mailstream

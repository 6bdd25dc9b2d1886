// Package message provides the message sources a transport sends. A Source
// reports the Envelope to deliver the message to, the Message-ID of the
// message, and opens the raw bytes of the message exactly once.
//
// Two sources are provided. An Opaque is parsed from an existing message with
// Parse. Only the header is read up front so the envelope and the Message-ID
// can be found; the body is left unread until the message is opened. A Buffer
// is written to like any io.Writer and has its envelope set by the caller:
//
//	buf := &message.Buffer{}
//	buf.SetEnvelope(message.Envelope{
//	  From: "sender@example.com",
//	  To:   []string{"rcpt@example.com"},
//	})
//	_, _ = fmt.Fprint(buf, "Subject: hello\r\n\r\nHello World\r\n")
//
// Neither source interprets the message beyond its header. The bytes returned
// by Open are exactly the bytes that went in.
package message

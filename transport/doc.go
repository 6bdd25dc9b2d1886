// Package transport delivers messages as normalized bytes instead of sending
// them anywhere. A Transport takes a message.Source, rewrites every line
// ending of the message to the configured newline.Style, and hands the result
// back either as a stream to be read at the caller's pace or as a single
// buffer once the whole message has been read.
//
//	t, err := transport.New(transport.Config{Newline: newline.Windows})
//	if err != nil {
//	  panic(err)
//	}
//
//	res, err := t.Send(ctx, &transport.Request{Message: msg})
//	if err != nil {
//	  panic(err)
//	}
//	defer res.Stream.Close()
//	_, err = io.Copy(conn, res.Stream)
//
// Each call to Send uses its own newline.Normalizer, so one Transport may be
// used by any number of goroutines at once.
package transport

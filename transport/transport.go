package transport

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/coreos/go-semver/semver"
	"github.com/rs/zerolog"

	"github.com/zostay/go-mailstream/message"
	"github.com/zostay/go-mailstream/newline"
)

// Name is the name the transport reports for itself.
const Name = "stream"

const version = "1.0.0"

// ErrNoMessage is returned by Send when the request carries no message.
var ErrNoMessage = errors.New("send request has no message")

// Request is a single message to send.
type Request struct {
	// Data is carried along for the caller's use. The transport ignores it.
	Data any

	// Message is the message to send.
	Message message.Source
}

// Result is a sent message. Exactly one of Stream and Buffer is set,
// depending on whether the Transport is in buffer mode.
type Result struct {
	// Envelope is the envelope reported by the message source.
	Envelope message.Envelope

	// MessageID is the Message-ID reported by the message source.
	MessageID string

	// Stream returns the normalized message in stream mode. Errors from the
	// message source, or the cancellation of the context given to Send, are
	// returned from Read. Close it to stop reading early.
	Stream io.ReadCloser

	// Buffer holds the whole normalized message in buffer mode.
	Buffer []byte
}

// Buffered returns true if the message is in Buffer rather than Stream.
func (r *Result) Buffered() bool {
	return r.Stream == nil
}

// Transport sends messages by normalizing their line endings. It holds no
// state between sends and is safe for concurrent use.
type Transport struct {
	style     newline.Style
	brk       newline.Break
	buffer    bool
	chunkSize int
	logger    zerolog.Logger
}

// New returns a Transport for the given Config. It fails with an error wrapping
// newline.ErrUnknownStyle for an unrecognized Newline and with ErrChunkSize for
// a ChunkSize that is negative or above MaxChunkSize.
func New(c Config) (*Transport, error) {
	style, err := newline.ParseStyle(string(c.Newline))
	if err != nil {
		return nil, err
	}

	if err := CheckChunkSize(int64(c.ChunkSize)); err != nil {
		return nil, err
	}

	chunkSize := c.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}

	logger := zerolog.Nop()
	if c.Logger != nil {
		logger = c.Logger.With().Str("transport", Name).Logger()
	}

	return &Transport{
		style:     style,
		brk:       style.Break(),
		buffer:    c.Buffer,
		chunkSize: chunkSize,
		logger:    logger,
	}, nil
}

// Name returns the name of the transport.
func (t *Transport) Name() string {
	return Name
}

// Version returns the version of the transport.
func (t *Transport) Version() *semver.Version {
	return semver.New(version)
}

// Send normalizes the line endings of the message in req.
//
// In stream mode, Send returns as soon as the message has been opened and the
// message is normalized as Result.Stream is read. If the message cannot be
// opened, the error from Open is returned by the first read of Result.Stream.
// In buffer mode, Send reads the whole message first. If the message source
// fails or ctx is cancelled, no Result is returned in buffer mode and nothing of
// the message is kept. A failure to open is returned from Send as is.
//
// Either way, the envelope and Message-ID are read from the source before the
// message is opened.
func (t *Transport) Send(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || req.Message == nil {
		return nil, ErrNoMessage
	}

	env := req.Message.Envelope()
	id := req.Message.MessageID()

	t.logger.Debug().
		Str("messageId", id).
		Str("from", env.From).
		Strs("to", env.To).
		Str("newline", t.style.String()).
		Bool("buffer", t.buffer).
		Msg("sending message")

	src, err := req.Message.Open()
	if err != nil {
		t.logger.Error().
			Err(err).
			Str("messageId", id).
			Msg("unable to open message")
		if t.buffer {
			return nil, err
		}
		return &Result{
			Envelope:  env,
			MessageID: id,
			Stream:    &failedStream{err: err},
		}, nil
	}

	in := &sourceReader{
		ctx:    ctx,
		src:    src,
		id:     id,
		logger: &t.logger,
	}

	res := &Result{
		Envelope:  env,
		MessageID: id,
	}

	if !t.buffer {
		res.Stream = newline.NewReaderSize(in, t.brk, t.chunkSize)
		return res, nil
	}

	res.Buffer, err = t.drain(in)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// drain reads the whole source through a newline.Writer and closes it.
func (t *Transport) drain(in *sourceReader) ([]byte, error) {
	buf := &bytes.Buffer{}
	nw := newline.NewWriter(buf, t.brk)

	_, err := io.CopyBuffer(nw, in, make([]byte, t.chunkSize))
	closeErr := in.Close()
	if err != nil {
		return nil, err
	}

	err = nw.Close()
	if err != nil {
		return nil, err
	}

	if closeErr != nil {
		return nil, closeErr
	}

	return buf.Bytes(), nil
}

// SendFunc works like Send, but reports the outcome by calling done exactly
// once, either with an error or with the Result.
func (t *Transport) SendFunc(ctx context.Context, req *Request, done func(error, *Result)) {
	res, err := t.Send(ctx, req)
	if err != nil {
		done(err, nil)
		return
	}
	done(nil, res)
}

// sourceReader reads the opened message, stopping once the context is done.
type sourceReader struct {
	ctx    context.Context
	src    io.ReadCloser
	id     string
	logger *zerolog.Logger
}

// Read implements io.Reader.
func (r *sourceReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := r.src.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		r.logger.Error().
			Err(err).
			Str("messageId", r.id).
			Msg("message source failed")
	}
	return n, err
}

// Close closes the message source.
func (r *sourceReader) Close() error {
	return r.src.Close()
}

// failedStream is the Result.Stream of a message that could not be opened.
type failedStream struct {
	err error
}

// Read always returns the error from opening the message.
func (f *failedStream) Read([]byte) (int, error) {
	return 0, f.err
}

// Close does nothing, since there is no open source.
func (f *failedStream) Close() error {
	return nil
}

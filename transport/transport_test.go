package transport_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zostay/go-mailstream/message"
	"github.com/zostay/go-mailstream/newline"
	"github.com/zostay/go-mailstream/transport"
)

var testEnvelope = message.Envelope{
	From: "test@valid.sender",
	To:   []string{"test@valid.recipient"},
}

// mockSource hands out its chunks one Read at a time and then fails with err,
// or reports io.EOF when err is nil.
type mockSource struct {
	envelope message.Envelope
	id       string
	chunks   []string
	err      error
	openErr  error

	calls  []string
	closed bool
}

func newMockSource(msg string) *mockSource {
	return &mockSource{
		envelope: testEnvelope,
		id:       "<test>",
		chunks:   []string{msg},
	}
}

func (m *mockSource) Envelope() message.Envelope {
	m.calls = append(m.calls, "envelope")
	return m.envelope
}

func (m *mockSource) MessageID() string {
	m.calls = append(m.calls, "messageId")
	return m.id
}

func (m *mockSource) Open() (io.ReadCloser, error) {
	m.calls = append(m.calls, "open")
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m, nil
}

func (m *mockSource) Read(p []byte) (int, error) {
	if len(m.chunks) == 0 {
		if m.err != nil {
			return 0, m.err
		}
		return 0, io.EOF
	}

	n := copy(p, m.chunks[0])
	m.chunks[0] = m.chunks[0][n:]
	if m.chunks[0] == "" {
		m.chunks = m.chunks[1:]
	}
	return n, nil
}

func (m *mockSource) Close() error {
	m.closed = true
	return nil
}

func mustNew(t *testing.T, c transport.Config) *transport.Transport {
	t.Helper()
	tr, err := transport.New(c)
	require.NoError(t, err)
	return tr
}

func TestTransport_NameVersion(t *testing.T) {
	t.Parallel()

	tr := mustNew(t, transport.Config{})
	assert.Equal(t, "stream", tr.Name())
	require.NotNil(t, tr.Version())
	assert.Equal(t, "1.0.0", tr.Version().String())
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := transport.New(transport.Config{Newline: "mac"})
	assert.ErrorIs(t, err, newline.ErrUnknownStyle)

	_, err = transport.New(transport.Config{ChunkSize: -1})
	assert.ErrorIs(t, err, transport.ErrChunkSize)

	_, err = transport.New(transport.Config{ChunkSize: transport.MaxChunkSize + 1})
	assert.ErrorIs(t, err, transport.ErrChunkSize)

	_, err = transport.New(transport.Config{ChunkSize: transport.MaxChunkSize})
	assert.NoError(t, err)

	_, err = transport.New(transport.Config{Newline: newline.Windows, Buffer: true, ChunkSize: 1})
	assert.NoError(t, err)
}

func TestSend_StreamUnix(t *testing.T) {
	t.Parallel()

	msg := strings.Repeat("teretere\r\nvana kere\r\n", 99)
	tr := mustNew(t, transport.Config{})

	res, err := tr.Send(context.Background(), &transport.Request{
		Data:    map[string]string{},
		Message: newMockSource(msg),
	})
	require.NoError(t, err)

	assert.Equal(t, testEnvelope, res.Envelope)
	assert.Equal(t, "<test>", res.MessageID)
	assert.False(t, res.Buffered())
	assert.Nil(t, res.Buffer)

	body, err := io.ReadAll(res.Stream)
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(msg, "\r\n", "\n"), string(body))
}

func TestSend_StreamWindows(t *testing.T) {
	t.Parallel()

	msg := strings.Repeat("teretere\nvana kere\n", 99)
	tr := mustNew(t, transport.Config{Newline: newline.Windows})

	res, err := tr.Send(context.Background(), &transport.Request{
		Message: newMockSource(msg),
	})
	require.NoError(t, err)

	body, err := io.ReadAll(res.Stream)
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(msg, "\n", "\r\n"), string(body))
}

func TestSend_BufferUnix(t *testing.T) {
	t.Parallel()

	msg := strings.Repeat("teretere\r\nvana kere\r\n", 99)
	tr := mustNew(t, transport.Config{Buffer: true})

	src := newMockSource(msg)
	res, err := tr.Send(context.Background(), &transport.Request{Message: src})
	require.NoError(t, err)

	assert.True(t, res.Buffered())
	assert.Nil(t, res.Stream)
	assert.Equal(t, testEnvelope, res.Envelope)
	assert.Equal(t, "<test>", res.MessageID)
	assert.Equal(t, strings.ReplaceAll(msg, "\r\n", "\n"), string(res.Buffer))
	assert.True(t, src.closed)
}

func TestSend_BufferWindows(t *testing.T) {
	t.Parallel()

	msg := strings.Repeat("teretere\nvana kere\n", 99)
	tr := mustNew(t, transport.Config{Newline: newline.Windows, Buffer: true})

	res, err := tr.Send(context.Background(), &transport.Request{
		Message: newMockSource(msg),
	})
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(msg, "\n", "\r\n"), string(res.Buffer))
}

func TestSend_SplitBoundary(t *testing.T) {
	t.Parallel()

	for _, buffered := range []bool{false, true} {
		src := newMockSource("")
		src.chunks = []string{"abc\r", "\ndef"}

		tr := mustNew(t, transport.Config{Buffer: buffered})
		res, err := tr.Send(context.Background(), &transport.Request{Message: src})
		require.NoError(t, err)

		out := res.Buffer
		if !buffered {
			out, err = io.ReadAll(res.Stream)
			require.NoError(t, err)
		}
		assert.Equal(t, "abc\ndef", string(out), "buffered %t", buffered)
	}
}

func TestSend_ModeEquivalence(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"a\rb",
		"trailing\r",
		"\r\r\n\n\r",
		strings.Repeat("line one\r\nline two\nline three\r", 500),
	}

	for _, style := range []newline.Style{newline.Unix, newline.Windows} {
		for _, chunkSize := range []int{1, 3, 0} {
			for _, in := range inputs {
				stream := mustNew(t, transport.Config{Newline: style, ChunkSize: chunkSize})
				buffer := mustNew(t, transport.Config{Newline: style, ChunkSize: chunkSize, Buffer: true})

				sres, err := stream.Send(context.Background(), &transport.Request{Message: newMockSource(in)})
				require.NoError(t, err)
				streamed, err := io.ReadAll(sres.Stream)
				require.NoError(t, err)

				bres, err := buffer.Send(context.Background(), &transport.Request{Message: newMockSource(in)})
				require.NoError(t, err)

				assert.Equal(t, string(bres.Buffer), string(streamed),
					"style %s chunk size %d input %q", style, chunkSize, in)
				assert.Equal(t, string(newline.Normalize([]byte(in), style.Break())), string(bres.Buffer))
			}
		}
	}
}

func TestSend_MetadataOrder(t *testing.T) {
	t.Parallel()

	src := newMockSource("x")
	src.envelope = message.Envelope{From: "a@example.com", To: []string{"b@example.com", "c@example.com"}}
	src.id = "<odd id>"

	tr := mustNew(t, transport.Config{})
	res, err := tr.Send(context.Background(), &transport.Request{Message: src})
	require.NoError(t, err)

	assert.Equal(t, []string{"envelope", "messageId", "open"}, src.calls)
	assert.Equal(t, src.envelope, res.Envelope)
	assert.Equal(t, "<odd id>", res.MessageID)
}

func TestSend_NoMessage(t *testing.T) {
	t.Parallel()

	tr := mustNew(t, transport.Config{})

	_, err := tr.Send(context.Background(), nil)
	assert.ErrorIs(t, err, transport.ErrNoMessage)

	_, err = tr.Send(context.Background(), &transport.Request{})
	assert.ErrorIs(t, err, transport.ErrNoMessage)
}

func TestSend_OpenError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := newMockSource("x")
	src.openErr = boom

	tr := mustNew(t, transport.Config{Buffer: true})
	res, err := tr.Send(context.Background(), &transport.Request{Message: src})
	assert.Equal(t, boom, err)
	assert.Nil(t, res)

	tr = mustNew(t, transport.Config{})
	res, err = tr.Send(context.Background(), &transport.Request{Message: src})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "<test>", res.MessageID)
	assert.Equal(t, testEnvelope, res.Envelope)

	n, err := res.Stream.Read(make([]byte, 8))
	assert.Equal(t, 0, n)
	assert.Equal(t, boom, err)

	_, err = io.ReadAll(res.Stream)
	assert.Equal(t, boom, err)
	assert.NoError(t, res.Stream.Close())
}

func TestSend_StreamSourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := newMockSource("")
	src.chunks = []string{"first\r\n", "second\r"}
	src.err = boom

	tr := mustNew(t, transport.Config{})
	res, err := tr.Send(context.Background(), &transport.Request{Message: src})
	require.NoError(t, err)

	body, err := io.ReadAll(res.Stream)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "first\nsecond", string(body))
}

func TestSend_BufferSourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := newMockSource("")
	src.chunks = []string{"first\r\n", "second\r\n"}
	src.err = boom

	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)

	tr := mustNew(t, transport.Config{Buffer: true, Logger: &logger})
	res, err := tr.Send(context.Background(), &transport.Request{Message: src})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res)
	assert.True(t, src.closed)

	assert.Contains(t, logs.String(), `"message":"message source failed"`)
	assert.Contains(t, logs.String(), `"error":"boom"`)
}

func TestSend_Cancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := mustNew(t, transport.Config{Buffer: true})
	res, err := tr.Send(ctx, &transport.Request{Message: newMockSource("abc\n")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)

	ctx, cancel = context.WithCancel(context.Background())
	src := newMockSource("")
	src.chunks = []string{"one\n", "two\n"}

	tr = mustNew(t, transport.Config{ChunkSize: 4})
	res, err = tr.Send(ctx, &transport.Request{Message: src})
	require.NoError(t, err)

	p := make([]byte, 4)
	n, err := res.Stream.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(p[:n]))

	cancel()
	_, err = res.Stream.Read(p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSend_StreamClose(t *testing.T) {
	t.Parallel()

	src := newMockSource("abc\n")
	tr := mustNew(t, transport.Config{})
	res, err := tr.Send(context.Background(), &transport.Request{Message: src})
	require.NoError(t, err)

	assert.NoError(t, res.Stream.Close())
	assert.True(t, src.closed)
}

func TestSend_Concurrent(t *testing.T) {
	t.Parallel()

	tr := mustNew(t, transport.Config{Newline: newline.Windows, ChunkSize: 7})

	const sends = 20
	var wg sync.WaitGroup
	outs := make([]string, sends)
	errs := make([]error, sends)
	for i := 0; i < sends; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			msg := strings.Repeat("line\r\nline\nline\r", i+1)
			res, err := tr.Send(context.Background(), &transport.Request{Message: newMockSource(msg)})
			if err != nil {
				errs[i] = err
				return
			}

			body, err := io.ReadAll(res.Stream)
			outs[i], errs[i] = string(body), err
		}(i)
	}
	wg.Wait()

	for i := 0; i < sends; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, strings.Repeat("line\r\nline\r\nline\r\n", i+1), outs[i])
	}
}

func TestSendFunc(t *testing.T) {
	t.Parallel()

	tr := mustNew(t, transport.Config{Buffer: true})

	calls := 0
	tr.SendFunc(context.Background(), &transport.Request{Message: newMockSource("a\rb")},
		func(err error, res *transport.Result) {
			calls++
			assert.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, "a\nb", string(res.Buffer))
		})
	assert.Equal(t, 1, calls)

	calls = 0
	tr.SendFunc(context.Background(), &transport.Request{},
		func(err error, res *transport.Result) {
			calls++
			assert.ErrorIs(t, err, transport.ErrNoMessage)
			assert.Nil(t, res)
		})
	assert.Equal(t, 1, calls)
}

func TestSend_Logging(t *testing.T) {
	t.Parallel()

	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)

	tr := mustNew(t, transport.Config{Newline: newline.Windows, Logger: &logger})
	_, err := tr.Send(context.Background(), &transport.Request{Message: newMockSource("x")})
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"transport":"stream"`)
	assert.Contains(t, out, `"messageId":"<test>"`)
	assert.Contains(t, out, `"to":["test@valid.recipient"]`)
	assert.Contains(t, out, `"newline":"windows"`)
	assert.Contains(t, out, `"message":"sending message"`)
}

func TestSend_ParsedMessage(t *testing.T) {
	t.Parallel()

	const msg = "From: sender@example.com\n" +
		"To: rcpt@example.com\n" +
		"Message-ID: <parsed@example.com>\n" +
		"\n" +
		"Hello\rWorld\n"

	m, err := message.Parse(strings.NewReader(msg), message.WithChunkSize(8))
	require.NoError(t, err)

	tr := mustNew(t, transport.Config{Newline: newline.Windows, Buffer: true})
	res, err := tr.Send(context.Background(), &transport.Request{Message: m})
	require.NoError(t, err)

	assert.Equal(t, message.Envelope{
		From: "sender@example.com",
		To:   []string{"rcpt@example.com"},
	}, res.Envelope)
	assert.Equal(t, "<parsed@example.com>", res.MessageID)
	assert.Equal(t, strings.ReplaceAll(strings.ReplaceAll(msg, "\r", "\n"), "\n", "\r\n"), string(res.Buffer))
}

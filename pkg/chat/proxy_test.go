package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/shopchat/pkg/apperr"
	"github.com/ilkoid/shopchat/pkg/catalog"
	"github.com/ilkoid/shopchat/pkg/llm"
	"github.com/ilkoid/shopchat/pkg/prompt"
)

type fakeCatalog struct {
	cat   catalog.Catalog
	calls int
}

func (f *fakeCatalog) Get(context.Context) catalog.Catalog {
	f.calls++
	return f.cat
}

// scriptedStream отдаёт заранее заданные куски, затем err (или io.EOF).
type scriptedStream struct {
	mu     sync.Mutex
	chunks []string
	err    error
	closed bool
}

func (s *scriptedStream) Recv() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.chunks) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return []byte(c), nil
}

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *scriptedStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ctxStream отдаёт один кусок, затем ждёт отмены ctx.
type ctxStream struct {
	ctx  context.Context
	sent bool
}

func (s *ctxStream) Recv() ([]byte, error) {
	if !s.sent {
		s.sent = true
		return []byte("data: {\"response\":\"Hal\"}\n\n"), nil
	}
	<-s.ctx.Done()
	return nil, s.ctx.Err()
}

func (s *ctxStream) Close() error { return nil }

type fakeBackend struct {
	calls    int
	messages []llm.Message
	ctx      context.Context

	stream llm.Stream
	err    error
	// blockOpen - ждать отмены ctx внутри OpenStream
	blockOpen bool
	// ctxStream - вернуть поток, привязанный к ctx
	ctxStream bool
}

func (f *fakeBackend) OpenStream(ctx context.Context, messages []llm.Message, _ ...llm.GenerateOption) (llm.Stream, error) {
	f.calls++
	f.messages = messages
	f.ctx = ctx
	if f.blockOpen {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.ctxStream {
		return &ctxStream{ctx: ctx}, nil
	}
	return f.stream, nil
}

type bufferSink struct {
	buf      bytes.Buffer
	started  int
	flushes  int
	writeErr error
}

func (b *bufferSink) Start() { b.started++ }

func (b *bufferSink) Write(p []byte) (int, error) {
	if b.writeErr != nil {
		return 0, b.writeErr
	}
	return b.buf.Write(p)
}

func (b *bufferSink) Flush() { b.flushes++ }

func testCatalog() catalog.Catalog {
	return catalog.Catalog{Products: []catalog.Product{
		{ID: "masker-3d", Title: "Masker 3D", Description: "Bordir", Price: "25000", Discount: "20000", Stock: "10"},
		{ID: "tas-kain", Title: "Tas Kain", Description: "Tote bag", Price: "50000", Discount: "45000", Stock: "3"},
	}}
}

const relayedSSE = "data: {\"response\":\"Halo\"}\n\n"

func TestOpen_ValidationSkipsCatalogAndBackend(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"empty message", Request{}},
		{"whitespace message", Request{Message: " \t\n "}},
		{"unknown role", Request{Message: "hi", ConversationHistory: []llm.Message{{Role: "tool", Content: "x"}}}},
		{"empty role", Request{Message: "hi", ConversationHistory: []llm.Message{{Content: "x"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := &fakeCatalog{cat: testCatalog()}
			backend := &fakeBackend{}
			proxy := NewProxy(cat, backend)

			_, err := proxy.Open(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Zero(t, cat.calls)
			assert.Zero(t, backend.calls)
		})
	}
}

func TestOpen_MessageOrder(t *testing.T) {
	cat := &fakeCatalog{cat: testCatalog()}
	backend := &fakeBackend{stream: &scriptedStream{}}
	proxy := NewProxy(cat, backend)

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "ada masker?"},
		{Role: llm.RoleAssistant, Content: "Ada, Masker 3D."},
	}
	stream, err := proxy.Open(context.Background(), Request{Message: "beli 2", ConversationHistory: history})
	require.NoError(t, err)
	defer stream.Close()

	want := []llm.Message{
		{Role: llm.RoleSystem, Content: prompt.BuildSystemPrompt(testCatalog())},
		history[0],
		history[1],
		{Role: llm.RoleUser, Content: "beli 2"},
	}
	assert.Equal(t, want, backend.messages)
	assert.Equal(t, 1, cat.calls)
	assert.Equal(t, 1, backend.calls)
}

func TestOpen_CustomComposer(t *testing.T) {
	backend := &fakeBackend{stream: &scriptedStream{}}
	composer := prompt.NewComposer("a craft shop in Bandung", "IDR")
	proxy := NewProxy(&fakeCatalog{cat: testCatalog()}, backend, WithComposer(composer))

	_, err := proxy.Open(context.Background(), Request{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, composer.Build(testCatalog()), backend.messages[0].Content)
}

func TestOpen_BackendError(t *testing.T) {
	backend := &fakeBackend{err: apperr.Upstream("workersai.open", errors.New("status 502"))}
	proxy := NewProxy(&fakeCatalog{cat: testCatalog()}, backend)

	_, err := proxy.Open(context.Background(), Request{Message: "hi"})
	assert.ErrorIs(t, err, apperr.ErrUpstreamFetch)

	backend.err = errors.New("dial tcp: connection refused")
	_, err = proxy.Open(context.Background(), Request{Message: "hi"})
	assert.ErrorIs(t, err, apperr.ErrUpstreamFetch)
}

func TestOpen_Timeout(t *testing.T) {
	backend := &fakeBackend{blockOpen: true}
	proxy := NewProxy(&fakeCatalog{cat: testCatalog()}, backend, WithOpenTimeout(30*time.Millisecond))

	start := time.Now()
	_, err := proxy.Open(context.Background(), Request{Message: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOpen_TimeoutDoesNotCancelOpenedStream(t *testing.T) {
	stream := &scriptedStream{}
	backend := &fakeBackend{stream: stream}
	proxy := NewProxy(&fakeCatalog{cat: testCatalog()}, backend, WithOpenTimeout(20*time.Millisecond))

	opened, err := proxy.Open(context.Background(), Request{Message: "hi"})
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	assert.NoError(t, backend.ctx.Err(), "open timeout must not fire after headers arrived")

	require.NoError(t, opened.Close())
	assert.Error(t, backend.ctx.Err(), "closing the stream releases its context")
	assert.True(t, stream.isClosed())
}

func TestHandleChat_RelaysBytesExactly(t *testing.T) {
	chunks := []string{
		"data: {\"response\":\"Ha",
		"lo\"}\n\ndata: {\"response\":\" [ADD_TO_CART:masker-3d:2]\"}\n\n",
		"data: [DONE]\n\n",
	}
	stream := &scriptedStream{chunks: append([]string(nil), chunks...)}
	proxy := NewProxy(&fakeCatalog{cat: testCatalog()}, &fakeBackend{stream: stream})

	sink := &bufferSink{}
	stats, err := proxy.HandleChat(context.Background(), Request{Message: "hi"}, sink)
	require.NoError(t, err)

	assert.Equal(t, chunks[0]+chunks[1]+chunks[2], sink.buf.String())
	assert.Equal(t, 1, sink.started)
	assert.Equal(t, 3, sink.flushes)
	assert.Equal(t, 3, stats.Chunks)
	assert.EqualValues(t, sink.buf.Len(), stats.Bytes)
	assert.True(t, stats.Completed)
	assert.True(t, stream.isClosed())
}

func TestHandleChat_OpenErrorLeavesSinkUntouched(t *testing.T) {
	proxy := NewProxy(&fakeCatalog{cat: testCatalog()}, &fakeBackend{})
	sink := &bufferSink{}

	_, err := proxy.HandleChat(context.Background(), Request{Message: ""}, sink)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, sink.started)
	assert.Zero(t, sink.buf.Len())
}

func TestHandleChat_MidStreamFailureTruncates(t *testing.T) {
	stream := &scriptedStream{chunks: []string{relayedSSE}, err: io.ErrUnexpectedEOF}
	proxy := NewProxy(&fakeCatalog{cat: testCatalog()}, &fakeBackend{stream: stream})

	sink := &bufferSink{}
	stats, err := proxy.HandleChat(context.Background(), Request{Message: "hi"}, sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstreamFetch)

	assert.Equal(t, relayedSSE, sink.buf.String())
	assert.NotContains(t, sink.buf.String(), "[DONE]")
	assert.Equal(t, 1, stats.Chunks)
	assert.False(t, stats.Completed)
	assert.True(t, stream.isClosed())
}

func TestHandleChat_StreamTimeout(t *testing.T) {
	proxy := NewProxy(&fakeCatalog{cat: testCatalog()}, &fakeBackend{ctxStream: true},
		WithStreamTimeout(40*time.Millisecond))

	sink := &bufferSink{}
	stats, err := proxy.HandleChat(context.Background(), Request{Message: "hi"}, sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTimeout)
	assert.Equal(t, 1, sink.started)
	assert.Equal(t, 1, stats.Chunks)
	assert.NotContains(t, sink.buf.String(), "[DONE]")
}

func TestRelay_SinkFailureClosesStream(t *testing.T) {
	stream := &scriptedStream{chunks: []string{relayedSSE, relayedSSE}}
	sink := &bufferSink{writeErr: errors.New("broken pipe")}

	stats, err := Relay(context.Background(), stream, sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSinkClosed)
	assert.Zero(t, stats.Chunks)
	assert.True(t, stream.isClosed())
}

func TestRelay_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := &scriptedStream{chunks: []string{relayedSSE}}
	sink := &bufferSink{}
	_, err := Relay(ctx, stream, sink)
	require.Error(t, err)
	assert.Zero(t, sink.buf.Len())
	assert.True(t, stream.isClosed())
}

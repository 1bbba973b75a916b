// Package chat - прокси чата: каталог + системный промпт + история → стрим модели.
//
// Жизненный цикл одного запроса:
//
//	Open:  валидация → каталог → промпт → OpenStream (ограничен open timeout)
//	Relay: Recv → Write → Flush, пока поток не закончится
//
// До первого байта все ошибки типизированы (apperr) и превращаются в JSON
// ответ. После начала стрима ошибка означает оборванный поток без [DONE].
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ilkoid/shopchat/pkg/apperr"
	"github.com/ilkoid/shopchat/pkg/catalog"
	"github.com/ilkoid/shopchat/pkg/llm"
	"github.com/ilkoid/shopchat/pkg/prompt"
	"github.com/ilkoid/shopchat/pkg/utils"
)

// DefaultOpenTimeout ограничивает фазу открытия стрима.
const DefaultOpenTimeout = 30 * time.Second

// Request - тело POST /api/chat.
type Request struct {
	Message             string        `json:"message"`
	ConversationHistory []llm.Message `json:"conversationHistory"`
}

// CatalogProvider возвращает актуальный каталог. Никогда не падает.
type CatalogProvider interface {
	Get(ctx context.Context) catalog.Catalog
}

// Proxy собирает запрос к модели и ретранслирует её поток.
//
// Состояния между запросами не хранит.
type Proxy struct {
	catalog       CatalogProvider
	backend       llm.StreamingProvider
	composer      prompt.Composer
	openTimeout   time.Duration
	streamTimeout time.Duration
}

// Option настраивает Proxy.
type Option func(*Proxy)

// WithComposer задаёт шаблон системного промпта.
func WithComposer(c prompt.Composer) Option {
	return func(p *Proxy) {
		p.composer = c
	}
}

// WithOpenTimeout задаёт таймаут открытия стрима (0 - по умолчанию).
func WithOpenTimeout(d time.Duration) Option {
	return func(p *Proxy) {
		if d > 0 {
			p.openTimeout = d
		}
	}
}

// WithStreamTimeout ограничивает весь ответ целиком (0 - без ограничения).
func WithStreamTimeout(d time.Duration) Option {
	return func(p *Proxy) {
		p.streamTimeout = d
	}
}

// NewProxy создаёт прокси.
func NewProxy(cat CatalogProvider, backend llm.StreamingProvider, opts ...Option) *Proxy {
	p := &Proxy{
		catalog:     cat,
		backend:     backend,
		composer:    prompt.DefaultComposer(),
		openTimeout: DefaultOpenTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validate проверяет запрос без обращения к каталогу и модели.
func (r Request) Validate() error {
	const op = "chat.validate"

	if strings.TrimSpace(r.Message) == "" {
		return apperr.Validation(op, "Message is required")
	}
	for i, turn := range r.ConversationHistory {
		if !llm.ValidRole(turn.Role) {
			return apperr.Validation(op, fmt.Sprintf("invalid role in conversationHistory[%d]: %q", i, turn.Role))
		}
	}
	return nil
}

// Messages собирает сообщения для модели: system, история как есть, user.
func (p *Proxy) Messages(ctx context.Context, req Request) []llm.Message {
	cat := p.catalog.Get(ctx)
	if ids := prompt.AmbiguousIDs(cat); len(ids) > 0 {
		utils.Warn("Catalog IDs contain directive delimiters", "ids", strings.Join(ids, ","))
	}

	messages := make([]llm.Message, 0, len(req.ConversationHistory)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: p.composer.Build(cat)})
	messages = append(messages, req.ConversationHistory...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.Message})
	return messages
}

// Open валидирует запрос и открывает стрим модели.
//
// Ошибки: Validation (без обращения к каталогу и модели), Timeout (истёк
// open timeout), UpstreamFetch (модель недоступна или вернула не-2xx).
// Open timeout действует только до получения заголовков: дальше поток
// живёт в ctx вызывающего.
func (p *Proxy) Open(ctx context.Context, req Request) (llm.Stream, error) {
	const op = "chat.open"

	if err := req.Validate(); err != nil {
		return nil, err
	}

	messages := p.Messages(ctx, req)

	streamCtx, cancel := context.WithCancel(ctx)
	var timedOut atomic.Bool
	timer := time.AfterFunc(p.openTimeout, func() {
		timedOut.Store(true)
		cancel()
	})

	stream, err := p.backend.OpenStream(streamCtx, messages)
	stopped := timer.Stop()

	if err != nil {
		cancel()
		if timedOut.Load() {
			return nil, apperr.Timeout(op, err)
		}
		return nil, apperr.FromContext(op, err)
	}
	if !stopped {
		// Таймер успел сработать до Stop: поток уже отменён
		stream.Close()
		cancel()
		return nil, apperr.Timeout(op, context.DeadlineExceeded)
	}

	return &cancelOnClose{Stream: stream, cancel: cancel}, nil
}

// cancelOnClose освобождает контекст стрима вместе с потоком.
type cancelOnClose struct {
	llm.Stream
	cancel context.CancelFunc
}

func (s *cancelOnClose) Close() error {
	err := s.Stream.Close()
	s.cancel()
	return err
}

// HandleChat - Open + Relay. Весь ответ ограничен stream timeout, если он задан.
//
// Если ошибка вернулась, а sink не был запущен (Start), клиент ещё ничего
// не получил и ему можно отдать JSON ошибку.
func (p *Proxy) HandleChat(ctx context.Context, req Request, sink Sink) (RelayStats, error) {
	if p.streamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.streamTimeout)
		defer cancel()
	}

	stream, err := p.Open(ctx, req)
	if err != nil {
		return RelayStats{}, err
	}

	stats, err := Relay(ctx, stream, sink)
	if err != nil {
		utils.Warn("Chat stream truncated",
			"error", err,
			"chunks", stats.Chunks,
			"bytes", stats.Bytes,
			"duration_ms", stats.Duration.Milliseconds())
		return stats, err
	}

	utils.Info("Chat stream finished",
		"chunks", stats.Chunks,
		"bytes", stats.Bytes,
		"duration_ms", stats.Duration.Milliseconds())
	return stats, nil
}


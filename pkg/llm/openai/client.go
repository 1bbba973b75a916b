// Package openai реализует llm.StreamingProvider для OpenAI-совместимых API.
//
// SDK отдаёт дельты текста, а клиенты магазина ждут поток в формате
// Workers AI, поэтому каждая дельта перекодируется через pkg/sse:
// "data: {"response":"..."}" и в конце "data: [DONE]".
package openai

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ilkoid/shopchat/pkg/apperr"
	"github.com/ilkoid/shopchat/pkg/config"
	"github.com/ilkoid/shopchat/pkg/llm"
	"github.com/ilkoid/shopchat/pkg/sse"
	"github.com/ilkoid/shopchat/pkg/utils"
)

// Client реализует llm.StreamingProvider поверх go-openai.
type Client struct {
	api      *openai.Client
	defaults llm.GenerateOptions
}

// NewClient создает OpenAI клиент на основе конфигурации модели.
//
// Поддержка custom BaseURL для non-OpenAI провайдеров (Zai, DeepSeek и т.д.)
func NewClient(modelDef config.ModelDef) *Client {
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}

	return &Client{
		api: openai.NewClientWithConfig(cfg),
		defaults: llm.GenerateOptions{
			Model:       modelDef.ModelName,
			Temperature: modelDef.Temperature,
			MaxTokens:   modelDef.MaxTokens,
		},
	}
}

// OpenStream открывает стрим chat completions.
//
// Ошибки SDK (не-2xx, сеть) - UpstreamFetch, истёкший ctx - Timeout.
func (c *Client) OpenStream(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Stream, error) {
	const op = "openai.open"
	startTime := time.Now()

	o := llm.ApplyOptions(c.defaults, opts...)

	req := openai.ChatCompletionRequest{
		Model:       o.Model,
		Messages:    mapToOpenAI(messages),
		MaxTokens:   o.MaxTokens,
		Temperature: float32(o.Temperature),
		Stream:      true,
	}

	utils.Debug("LLM stream request started",
		"model", o.Model,
		"messages_count", len(messages))

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", o.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return nil, apperr.FromContext(op, err)
	}

	return &reframedStream{stream: stream}, nil
}

// mapToOpenAI конвертирует наши сообщения в формат SDK.
func mapToOpenAI(messages []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// reframedStream превращает дельты SDK в SSE кадры Workers AI.
type reframedStream struct {
	stream    *openai.ChatCompletionStream
	doneSent  bool
	closeOnce sync.Once
}

func (s *reframedStream) Recv() ([]byte, error) {
	if s.doneSent {
		return nil, io.EOF
	}

	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.doneSent = true
			return sse.DoneFrame(), nil
		}
		if err != nil {
			return nil, err
		}

		var delta string
		for _, choice := range resp.Choices {
			delta += choice.Delta.Content
		}
		if delta == "" {
			// служебные чанки (роль, finish_reason)
			continue
		}
		return sse.DeltaFrame(delta), nil
	}
}

func (s *reframedStream) Close() error {
	s.closeOnce.Do(func() {
		s.stream.Close()
	})
	return nil
}

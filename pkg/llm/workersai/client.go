// Package workersai реализует llm.StreamingProvider для Cloudflare Workers AI.
//
// Запрос: POST {base_url}/{model} с телом {"messages":[...],"stream":true}.
// Ответ уже в формате SSE ("data: {"response":"..."}" ... "data: [DONE]"),
// поэтому поток отдаётся клиенту байт в байт, без перекодирования.
package workersai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ilkoid/shopchat/pkg/apperr"
	"github.com/ilkoid/shopchat/pkg/config"
	"github.com/ilkoid/shopchat/pkg/llm"
	"github.com/ilkoid/shopchat/pkg/utils"
)

// DefaultModel - модель исходного магазина.
const DefaultModel = "@cf/meta/llama-3-8b-instruct"

// chunkSize - размер буфера одного Recv.
const chunkSize = 4096

// errorExcerptBytes - сколько байт тела ошибки попадает в сообщение.
const errorExcerptBytes = 512

// HTTPClient интерфейс для выполнения HTTP запросов.
//
// Стандартный *http.Client реализует этот интерфейс.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client - клиент Workers AI REST API.
type Client struct {
	baseURL    string
	apiKey     string
	defaults   llm.GenerateOptions
	httpClient HTTPClient
}

// NewClient создает клиент на основе конфигурации модели.
//
// Таймаут у http.Client не ставится: длительность стрима ограничивает ctx.
func NewClient(modelDef config.ModelDef) *Client {
	model := modelDef.ModelName
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL: strings.TrimRight(modelDef.BaseURL, "/"),
		apiKey:  modelDef.APIKey,
		defaults: llm.GenerateOptions{
			Model:       model,
			Temperature: modelDef.Temperature,
			MaxTokens:   modelDef.MaxTokens,
		},
		httpClient: &http.Client{},
	}
}

// WithHTTPClient подменяет HTTP клиент (тесты, прокси).
func (c *Client) WithHTTPClient(hc HTTPClient) *Client {
	c.httpClient = hc
	return c
}

type runRequest struct {
	Messages    []llm.Message `json:"messages"`
	Stream      bool          `json:"stream"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// OpenStream отправляет запрос и возвращает поток после получения заголовков.
//
// Не-2xx ответ - UpstreamFetch с началом тела ответа в тексте ошибки.
func (c *Client) OpenStream(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Stream, error) {
	const op = "workersai.open"
	startTime := time.Now()

	o := llm.ApplyOptions(c.defaults, opts...)

	body, err := json.Marshal(runRequest{
		Messages:    messages,
		Stream:      true,
		MaxTokens:   o.MaxTokens,
		Temperature: o.Temperature,
	})
	if err != nil {
		return nil, apperr.Parse(op, err)
	}

	url := c.baseURL + "/" + strings.TrimLeft(o.Model, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	utils.Debug("Workers AI request started",
		"model", o.Model,
		"messages_count", len(messages))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		utils.Error("Workers AI request failed",
			"error", err,
			"model", o.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return nil, apperr.FromContext(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errorExcerptBytes))
		resp.Body.Close()
		utils.Error("Workers AI returned error status",
			"status", resp.StatusCode,
			"model", o.Model)
		return nil, apperr.Upstream(op, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt))))
	}

	utils.Debug("Workers AI stream opened",
		"model", o.Model,
		"duration_ms", time.Since(startTime).Milliseconds())

	return &bodyStream{body: resp.Body}, nil
}

// bodyStream отдаёт тело ответа кусками как есть.
type bodyStream struct {
	body      io.ReadCloser
	closeOnce sync.Once
	closeErr  error
}

func (s *bodyStream) Recv() ([]byte, error) {
	buf := make([]byte, chunkSize)
	for {
		n, err := s.body.Read(buf)
		if n > 0 {
			// Ошибку вернёт следующий вызов
			return buf[:n], nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (s *bodyStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

// Package storeclient - Go клиент HTTP API магазина.
//
// Используется терминальной витриной (cmd/shopchat): загрузка каталога,
// чат с потоковым ответом и разбор директивы корзины из собранного ответа.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ilkoid/shopchat/pkg/catalog"
	"github.com/ilkoid/shopchat/pkg/chat"
	"github.com/ilkoid/shopchat/pkg/directive"
	"github.com/ilkoid/shopchat/pkg/llm"
	"github.com/ilkoid/shopchat/pkg/sse"
)

// HTTPClient интерфейс для выполнения HTTP запросов.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError - не-2xx ответ сервера с JSON телом {"error","details"}.
type APIError struct {
	Status  int
	Message string `json:"error"`
	Details string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Message, e.Details, e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Reply - собранный ответ ассистента.
type Reply struct {
	// Raw - текст как его прислала модель
	Raw string
	// Display - текст без директивы корзины
	Display string
	// Directive заполнена, если HasDirective
	Directive    directive.CartDirective
	HasDirective bool
	// Truncated - поток оборвался до [DONE]
	Truncated bool
}

// Client - клиент API магазина.
type Client struct {
	baseURL    string
	httpClient HTTPClient
}

// New создаёт клиент. Таймаут не задан: длительность чата ограничивает ctx.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// WithHTTPClient подменяет HTTP клиент.
func (c *Client) WithHTTPClient(hc HTTPClient) *Client {
	c.httpClient = hc
	return c
}

// Products загружает каталог.
func (c *Client) Products(ctx context.Context) (catalog.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/products", nil)
	if err != nil {
		return catalog.Catalog{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return catalog.Catalog{}, fmt.Errorf("load products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return catalog.Catalog{}, decodeAPIError(resp)
	}

	var cat catalog.Catalog
	if err := json.NewDecoder(resp.Body).Decode(&cat); err != nil {
		return catalog.Catalog{}, fmt.Errorf("decode products: %w", err)
	}
	return cat, nil
}

// Chat отправляет сообщение с историей и собирает потоковый ответ.
//
// onDelta (может быть nil) получает текст по мере прихода.
// Оборванный поток не ошибка: Reply.Truncated = true, текст частичный.
func (c *Client) Chat(ctx context.Context, message string, history []llm.Message, onDelta func(string)) (Reply, error) {
	body, err := json.Marshal(chat.Request{Message: message, ConversationHistory: history})
	if err != nil {
		return Reply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("send chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Reply{}, decodeAPIError(resp)
	}

	raw, err := sse.Collect(resp.Body, onDelta)
	reply := Reply{Raw: raw, Display: raw}
	if err != nil {
		if ctx.Err() != nil {
			return reply, ctx.Err()
		}
		reply.Truncated = true
	}

	if d, display, ok := directive.Extract(raw); ok {
		reply.Directive = d
		reply.Display = display
		reply.HasDirective = true
	}
	return reply, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}

// IsValidation сообщает, что сервер отклонил запрос как некорректный.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}

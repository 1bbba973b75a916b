package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/ilkoid/shopchat/pkg/apperr"
	"github.com/ilkoid/shopchat/pkg/config"
	"github.com/ilkoid/shopchat/pkg/s3storage"
)

// Source - удалённый источник каталога.
type Source interface {
	Fetch(ctx context.Context) (Catalog, error)
}

// HTTPClient интерфейс для выполнения HTTP запросов.
//
// Позволяет мокировать HTTP клиент в тестах.
// Стандартный *http.Client реализует этот интерфейс.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxCatalogBytes ограничивает размер документа каталога.
const maxCatalogBytes = 8 << 20

// HTTPSource загружает каталог GET запросом по фиксированному URL.
//
// Одна попытка на вызов, без retry: при неудаче Provider уходит в fallback.
// Лимитер сглаживает всплеск одновременных cache miss (single-flight нет).
type HTTPSource struct {
	url        string
	userAgent  string
	httpClient HTTPClient
	limiter    *rate.Limiter
}

// NewHTTPSource создаёт источник из конфигурации.
// Поля с нулевыми значениями используют дефолты CatalogConfig.GetDefaults().
func NewHTTPSource(cfg config.CatalogConfig) *HTTPSource {
	cfg = cfg.GetDefaults()

	// rateLimit в запросах/минуту → rate.Limit в запросах/секунду
	ratePerSec := float64(cfg.RateLimit) / 60.0

	return &HTTPSource{
		url:        cfg.URL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), cfg.BurstLimit),
	}
}

// WithHTTPClient подменяет HTTP клиент (тесты, прокси).
func (s *HTTPSource) WithHTTPClient(c HTTPClient) *HTTPSource {
	s.httpClient = c
	return s
}

// Fetch выполняет один запрос к фиду.
//
// Ошибки классифицированы: Timeout, UpstreamFetch (сеть, не-2xx), Parse.
func (s *HTTPSource) Fetch(ctx context.Context) (Catalog, error) {
	const op = "catalog.fetch"

	// Ждем разрешения от лимитера (блокирует горутину, если превысили лимит)
	if err := s.limiter.Wait(ctx); err != nil {
		return Catalog{}, classifyError(op, fmt.Errorf("rate limiter wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Catalog{}, apperr.Upstream(op, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Catalog{}, classifyError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Тело не читаем целиком: фид может отдать HTML страницу ошибки
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Catalog{}, apperr.Upstream(op, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return Catalog{}, classifyError(op, fmt.Errorf("read body: %w", err))
	}

	return Decode(body)
}

// classifyError сводит сетевые ошибки к таксономии apperr.
//
//   - context.DeadlineExceeded, net.Error.Timeout() → Timeout
//   - всё остальное → UpstreamFetch
func classifyError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout(op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.Timeout(op, err)
	}
	return apperr.Upstream(op, err)
}

// S3Source читает тот же JSON документ из S3-совместимого бакета.
type S3Source struct {
	client s3storage.Downloader
	key    string
}

// NewS3Source создаёт источник поверх s3storage клиента.
func NewS3Source(client s3storage.Downloader, key string) *S3Source {
	if key == "" {
		key = "products.json"
	}
	return &S3Source{client: client, key: key}
}

// Fetch скачивает объект и разбирает его как каталог.
func (s *S3Source) Fetch(ctx context.Context) (Catalog, error) {
	raw, err := s.client.DownloadFile(ctx, s.key)
	if err != nil {
		return Catalog{}, classifyError("catalog.s3", err)
	}
	return Decode(raw)
}

// NewSource выбирает источник по catalog.source.
func NewSource(cfg *config.AppConfig) (Source, error) {
	catCfg := cfg.Catalog.GetDefaults()

	switch catCfg.Source {
	case config.SourceHTTP:
		return NewHTTPSource(catCfg), nil
	case config.SourceS3:
		client, err := s3storage.New(cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewS3Source(client, catCfg.S3Key), nil
	default:
		return nil, fmt.Errorf("unknown catalog source: %s", catCfg.Source)
	}
}

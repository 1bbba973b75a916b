package app

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/shopchat/pkg/config"
	"github.com/ilkoid/shopchat/pkg/llm/workersai"
)

const feed = `{"product":[{"id":"tas-kain","title":"Tas Kain","description":"Tote bag","price":"50.000","discount":"45.000","stok":"Tersedia"}]}`

const sseBody = "data: {\"response\":\"Ada!\"}\n\ndata: [DONE]\n\n"

func testConfig(t *testing.T, catalogURL, aiURL, cacheDriver string) *config.AppConfig {
	t.Helper()
	raw := fmt.Sprintf(`
catalog:
  url: %s
  timeout: 2s
cache:
  driver: %s
  path: %s
chat:
  open_timeout: 2s
models:
  default_chat: llama
  definitions:
    llama:
      provider: workers-ai
      model_name: "@cf/meta/llama-3-8b-instruct"
      base_url: %s
      timeout: 10s
`, catalogURL, cacheDriver, filepath.Join(t.TempDir(), "cache.db"), aiURL)

	cfg, err := config.Parse([]byte(raw))
	require.NoError(t, err)
	return cfg
}

func TestInitialize_EndToEnd(t *testing.T) {
	for _, driver := range []string{config.CacheMemory, config.CacheSQLite} {
		t.Run(driver, func(t *testing.T) {
			var feedCalls atomic.Int32
			feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				feedCalls.Add(1)
				_, _ = io.WriteString(w, feed)
			}))
			defer feedSrv.Close()

			var prompt string
			aiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				prompt = string(body)
				_, _ = io.WriteString(w, sseBody)
			}))
			defer aiSrv.Close()

			components, err := Initialize(testConfig(t, feedSrv.URL, aiSrv.URL, driver))
			require.NoError(t, err)
			defer components.Close()

			assert.IsType(t, &workersai.Client{}, components.Backend)

			// Каталог
			rec := httptest.NewRecorder()
			components.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `"title":"Tas Kain"`)

			// Чат: каталог из кэша, поток без изменений
			rec = httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"ada tas?"}`))
			components.Handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, sseBody, rec.Body.String())
			assert.Contains(t, prompt, "Tas Kain (ID: tas-kain)")

			assert.EqualValues(t, 1, feedCalls.Load(), "second request is served from cache")
		})
	}
}

func TestInitialize_FallbackWhenFeedDown(t *testing.T) {
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer feedSrv.Close()

	components, err := Initialize(testConfig(t, feedSrv.URL, "http://127.0.0.1:1", config.CacheMemory))
	require.NoError(t, err)
	defer components.Close()

	rec := httptest.NewRecorder()
	components.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Masker 3D Bordir")
}

func TestNewHTTPServer(t *testing.T) {
	components, err := Initialize(testConfig(t, "http://127.0.0.1:1", "http://127.0.0.1:1", config.CacheMemory))
	require.NoError(t, err)
	defer components.Close()

	srv := components.NewHTTPServer()
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadHeaderTimeout)
	assert.NotNil(t, srv.Handler)
}

// Package server - HTTP поверхность магазина: страница, каталог и чат.
//
// Маршруты:
//
//	OPTIONS *              204, CORS заголовки
//	GET  /, /index.html    встроенная страница
//	GET  /api/products     {"product":[...]}
//	POST /api/chat         text/event-stream
//
// Всё остальное, включая неверный метод на известном пути, - 404 "Not found".
package server

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ilkoid/shopchat/pkg/catalog"
	"github.com/ilkoid/shopchat/pkg/chat"
)

//go:embed web/index.html
var indexHTML []byte

// CatalogProvider возвращает актуальный каталог.
type CatalogProvider interface {
	Get(ctx context.Context) catalog.Catalog
}

// ChatHandler - Open + Relay одного запроса чата.
type ChatHandler interface {
	HandleChat(ctx context.Context, req chat.Request, sink chat.Sink) (chat.RelayStats, error)
}

// Server держит зависимости обработчиков. Состояния между запросами нет.
type Server struct {
	catalog CatalogProvider
	chat    ChatHandler
}

// New создаёт сервер.
func New(cat CatalogProvider, chatHandler ChatHandler) *Server {
	return &Server{catalog: cat, chat: chatHandler}
}

// Router собирает chi маршрутизатор со всеми middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(cors)

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/", s.index)
	r.Get("/index.html", s.index)
	r.Get("/api/products", s.products)
	r.Post("/api/chat", s.handleChat)

	return r
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html;charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Not found"))
}

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ilkoid/shopchat/pkg/apperr"
	"github.com/ilkoid/shopchat/pkg/chat"
	"github.com/ilkoid/shopchat/pkg/utils"
)

// maxChatBody ограничивает тело POST /api/chat.
const maxChatBody = 1 << 20

// errorBody - JSON ответ об ошибке.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respond пишет JSON ответ. Кодирование в буфер, чтобы при ошибке
// не отправить половину тела с кодом 200.
func respond(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
	return nil
}

func respondError(w http.ResponseWriter, status int, msg, details string) {
	_ = respond(w, status, errorBody{Error: msg, Details: details})
}

func (s *Server) products(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog.Get(r.Context())
	if err := respond(w, http.StatusOK, cat); err != nil {
		utils.Error("Failed to encode products",
			"request_id", RequestID(r.Context()),
			"error", err)
		respondError(w, http.StatusInternalServerError, "Failed to load products", err.Error())
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r.Context())

	var req chat.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	sink := newHTTPSink(w)
	_, err := s.chat.HandleChat(r.Context(), req, sink)
	if err == nil {
		// Пустой, но штатно завершённый поток
		sink.Start()
		return
	}

	if sink.started {
		// Заголовки уже ушли: клиент увидит оборванный поток без [DONE]
		utils.Error("Chat stream truncated", "request_id", reqID, "error", err)
		return
	}

	status := apperr.HTTPStatus(err)
	if status == http.StatusBadRequest {
		msg := "Invalid request"
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Msg != "" {
			msg = ae.Msg
		}
		utils.Warn("Chat request rejected", "request_id", reqID, "error", err)
		respondError(w, status, msg, "")
		return
	}

	utils.Error("Chat request failed", "request_id", reqID, "error", err)
	respondError(w, http.StatusInternalServerError, "Internal server error", err.Error())
}

// httpSink пишет поток в http.ResponseWriter.
type httpSink struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

func newHTTPSink(w http.ResponseWriter) *httpSink {
	return &httpSink{w: w, rc: http.NewResponseController(w)}
}

// Start отправляет заголовки SSE. Повторный вызов ничего не делает.
func (s *httpSink) Start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
	s.Flush()
}

func (s *httpSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *httpSink) Flush() {
	// ResponseWriter без Flusher: данные уйдут при завершении ответа
	_ = s.rc.Flush()
}

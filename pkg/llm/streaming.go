// Package llm предоставляет типы и интерфейсы для работы с LLM провайдерами.
//
// Этот файл определяет абстракцию потокового ответа.
package llm

import "context"

// Stream - открытый поток ответа модели в формате SSE.
//
// Recv возвращает очередной кусок байт в том виде, в котором его надо
// отдать клиенту. io.EOF - поток завершён штатно, любая другая ошибка -
// обрыв. Close освобождает соединение и безопасен для повторного вызова.
type Stream interface {
	Recv() ([]byte, error)
	Close() error
}

// StreamingProvider - контракт для бэкенда чата.
//
// OpenStream возвращает управление, как только бэкенд принял запрос
// (получены заголовки ответа). Ошибки на этом этапе - это ошибки
// открытия. ctx продолжает ограничивать чтение из потока.
type StreamingProvider interface {
	OpenStream(ctx context.Context, messages []Message, opts ...GenerateOption) (Stream, error)
}

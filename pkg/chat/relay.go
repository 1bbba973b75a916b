package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ilkoid/shopchat/pkg/apperr"
	"github.com/ilkoid/shopchat/pkg/llm"
)

// Sink - получатель потока (HTTP ответ, буфер в тестах).
//
// Start вызывается один раз после открытия стрима, до первого Write.
type Sink interface {
	Start()
	Write(p []byte) (int, error)
	Flush()
}

// ErrSinkClosed - клиент перестал принимать данные.
var ErrSinkClosed = errors.New("client sink closed")

// RelayStats - итоги ретрансляции.
type RelayStats struct {
	Chunks   int
	Bytes    int64
	Duration time.Duration
	// Completed - поток модели завершился штатно (io.EOF)
	Completed bool
}

// Relay копирует поток модели в sink без изменений.
//
// Цикл строго последовательный: прочитать кусок, записать, сбросить буфер,
// и только потом читать следующий. Поток закрывается всегда.
// Ошибка означает, что клиент получил неполный ответ.
func Relay(ctx context.Context, stream llm.Stream, sink Sink) (RelayStats, error) {
	const op = "chat.relay"
	startTime := time.Now()
	var stats RelayStats

	defer stream.Close()

	sink.Start()

	for {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(startTime)
			return stats, apperr.FromContext(op, err)
		}

		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			stats.Completed = true
			stats.Duration = time.Since(startTime)
			return stats, nil
		}
		if err != nil {
			stats.Duration = time.Since(startTime)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, apperr.FromContext(op, ctxErr)
			}
			return stats, apperr.Upstream(op, err)
		}

		if _, err := sink.Write(chunk); err != nil {
			stats.Duration = time.Since(startTime)
			return stats, fmt.Errorf("%s: %w: %v", op, ErrSinkClosed, err)
		}
		sink.Flush()

		stats.Chunks++
		stats.Bytes += int64(len(chunk))
	}
}

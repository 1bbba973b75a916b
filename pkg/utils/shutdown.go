// Package utils предоставляет вспомогательные функции для graceful shutdown.
//
// Graceful Shutdown - корректное завершение сервера при получении сигнала:
//   - SIGINT (Ctrl+C)
//   - SIGTERM (kill)
//
// Активные стримы получают shutdownTimeout на завершение, после чего
// соединения рвутся.
package utils

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalContext возвращает контекст, отменяемый по SIGINT/SIGTERM.
//
// Использование:
//
//	ctx, stop := utils.SignalContext(context.Background())
//	defer stop()
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// ServeUntilDone запускает srv и останавливает его при отмене ctx.
//
// Возвращает nil при штатной остановке.
func ServeUntilDone(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		Warn("Graceful shutdown incomplete, closing connections", "error", err)
		return srv.Close()
	}
	return nil
}

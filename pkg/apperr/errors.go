// Package apperr - таксономия ошибок магазина.
//
// Четыре вида ошибок:
//   - Validation: пустой или некорректный ввод клиента (HTTP 400)
//   - UpstreamFetch: удалённый каталог или модель недоступны / вернули не-2xx
//   - Parse: битый JSON каталога или директивы
//   - Timeout: истёк таймаут загрузки каталога или открытия стрима
//
// Все ошибки поддерживают errors.Is() с соответствующим sentinel.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel ошибки для errors.Is().
var (
	ErrValidation    = errors.New("validation error")
	ErrUpstreamFetch = errors.New("upstream fetch error")
	ErrParse         = errors.New("parse error")
	ErrTimeout       = errors.New("timeout")
)

// Kind определяет вид ошибки.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUpstreamFetch
	KindParse
	KindTimeout
)

// String возвращает строковое представление вида ошибки.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindUpstreamFetch:
		return "upstream_fetch_error"
	case KindParse:
		return "parse_error"
	case KindTimeout:
		return "timeout_error"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindUpstreamFetch:
		return ErrUpstreamFetch
	case KindParse:
		return ErrParse
	case KindTimeout:
		return ErrTimeout
	default:
		return nil
	}
}

// Error - ошибка с видом и операцией.
//
// Op - короткое имя места ("catalog.fetch", "chat.open").
// Err - исходная причина, может быть nil.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	default:
		return msg
	}
}

// Unwrap возвращает исходную причину.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is проверяет совпадение с sentinel своего вида.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Validation создаёт ошибку валидации ввода.
func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// Upstream оборачивает сбой удалённого сервиса.
func Upstream(op string, err error) error {
	return &Error{Kind: KindUpstreamFetch, Op: op, Err: err}
}

// Parse оборачивает ошибку разбора.
func Parse(op string, err error) error {
	return &Error{Kind: KindParse, Op: op, Err: err}
}

// Timeout оборачивает истёкший таймаут.
func Timeout(op string, err error) error {
	return &Error{Kind: KindTimeout, Op: op, Err: err}
}

// FromContext превращает ошибку отмены контекста в Timeout,
// остальные ошибки оборачивает как Upstream.
//
// Уже классифицированные ошибки возвращаются как есть.
func FromContext(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(op, err)
	}
	return Upstream(op, err)
}

// KindOf возвращает вид ошибки (0 для неклассифицированных).
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// HTTPStatus сопоставляет ошибку HTTP статусу.
//
// Validation → 400, всё остальное → 500.
func HTTPStatus(err error) int {
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

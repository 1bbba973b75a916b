// Package sse - кадрирование server-sent events в формате Workers AI.
//
// Каждое событие - строка "data: <payload>" и пустая строка:
//
//	data: {"response":"Hel"}
//
//	data: {"response":"lo"}
//
//	data: [DONE]
//
// Encoder нужен бэкендам, которые отдают не SSE, а дельты (OpenAI SDK).
// Reader - клиентам, которые собирают ответ из потока.
package sse

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// DoneSentinel - payload последнего события.
const DoneSentinel = "[DONE]"

const dataPrefix = "data: "

// Event - payload текстового события.
type Event struct {
	Response string `json:"response"`
}

// DeltaFrame кадрирует одну текстовую дельту.
func DeltaFrame(delta string) []byte {
	// Marshal структуры из одной строки не падает
	payload, _ := json.Marshal(Event{Response: delta})
	return Frame(payload)
}

// DoneFrame - завершающий кадр "data: [DONE]\n\n".
func DoneFrame() []byte {
	return Frame([]byte(DoneSentinel))
}

// Frame оборачивает payload в "data: ...\n\n".
func Frame(payload []byte) []byte {
	out := make([]byte, 0, len(dataPrefix)+len(payload)+2)
	out = append(out, dataPrefix...)
	out = append(out, payload...)
	out = append(out, '\n', '\n')
	return out
}

// ErrTruncated - поток закончился без data: [DONE].
var ErrTruncated = errors.New("sse stream ended without [DONE]")

// Reader читает дельты из SSE потока.
//
// Строки без префикса "data: " пропускаются, payload с битым JSON тоже
// (так делает браузерный клиент).
type Reader struct {
	scanner *bufio.Scanner
	done    bool
}

// NewReader создаёт Reader поверх тела ответа.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: sc}
}

// Next возвращает следующую дельту.
//
// io.EOF - получен [DONE]. ErrTruncated - поток оборвался раньше.
func (r *Reader) Next() (string, error) {
	if r.done {
		return "", io.EOF
	}

	for r.scanner.Scan() {
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		data := strings.TrimPrefix(line, dataPrefix)
		if data == DoneSentinel {
			r.done = true
			return "", io.EOF
		}

		var ev Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		if ev.Response == "" {
			continue
		}
		return ev.Response, nil
	}

	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", ErrTruncated
}

// Collect читает поток до конца и склеивает дельты.
//
// onDelta (может быть nil) вызывается для каждой дельты по мере прихода.
// При обрыве возвращает накопленный текст и ошибку.
func Collect(r io.Reader, onDelta func(string)) (string, error) {
	reader := NewReader(r)
	var sb strings.Builder

	for {
		delta, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
}

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/muesli/reflow/wrap"
)

// Transcript - лог чата поверх viewport.
//
// Хранит исходные строки без переноса: при изменении ширины всё
// переносится заново. Прокрутка вниз сохраняется, только если
// пользователь уже был внизу.
type Transcript struct {
	viewport viewport.Model
	lines    []string
}

// NewTranscript создаёт пустой лог. Размеры придут с WindowSizeMsg.
func NewTranscript() *Transcript {
	return &Transcript{viewport: viewport.New(0, 0)}
}

// Resize меняет размеры и переносит строки под новую ширину.
func (t *Transcript) Resize(width, height int) {
	if height < 1 {
		height = 1
	}
	if width < 20 {
		width = 20
	}

	// wasAtBottom считаем до смены высоты
	wasAtBottom := t.atBottom()
	t.viewport.Width = width
	t.viewport.Height = height
	t.render(wasAtBottom)
}

// Append добавляет строку в конец.
func (t *Transcript) Append(line string) {
	wasAtBottom := t.atBottom()
	t.lines = append(t.lines, line)
	t.render(wasAtBottom)
}

// ReplaceLast заменяет последнюю строку (потоковый ответ).
func (t *Transcript) ReplaceLast(line string) {
	if len(t.lines) == 0 {
		t.Append(line)
		return
	}
	wasAtBottom := t.atBottom()
	t.lines[len(t.lines)-1] = line
	t.render(wasAtBottom)
}

// Clear удаляет все строки.
func (t *Transcript) Clear() {
	t.lines = nil
	t.viewport.SetContent("")
	t.viewport.GotoTop()
}

// Lines возвращает исходные строки.
func (t *Transcript) Lines() []string {
	return append([]string(nil), t.lines...)
}

// View рендерит видимую часть.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// Scroll прокручивает на полстраницы: dir < 0 вверх, dir > 0 вниз.
func (t *Transcript) Scroll(dir int) {
	step := max(t.viewport.Height/2, 1)
	if dir < 0 {
		t.viewport.LineUp(step)
	} else {
		t.viewport.LineDown(step)
	}
}

func (t *Transcript) atBottom() bool {
	return t.viewport.YOffset+t.viewport.Height >= t.viewport.TotalLineCount()
}

func (t *Transcript) render(gotoBottom bool) {
	var wrapped []string
	for _, line := range t.lines {
		if t.viewport.Width > 0 {
			line = wrap.String(line, t.viewport.Width)
		}
		wrapped = append(wrapped, strings.Split(line, "\n")...)
	}
	t.viewport.SetContent(strings.Join(wrapped, "\n"))

	if gotoBottom {
		t.viewport.GotoBottom()
		return
	}
	maxOffset := t.viewport.TotalLineCount() - t.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if t.viewport.YOffset > maxOffset {
		t.viewport.YOffset = maxOffset
	}
}

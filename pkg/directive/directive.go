// Package directive разбирает встроенный протокол корзины.
//
// Модель вставляет в свободный текст токен вида
//
//	[ADD_TO_CART:<product_id>:<quantity>]
//
// Грамматика: \[ADD_TO_CART:[^:\]]+:[0-9]+\]. Учитывается только первое
// вхождение; распознанный токен вырезается из показываемого текста.
// Разбор выполняется по полностью накопленному ответу: токен может
// прийти разорванным между чанками стрима.
package directive

import (
	"regexp"
	"strconv"
)

// Pattern - грамматика директивы.
var Pattern = regexp.MustCompile(`\[ADD_TO_CART:([^:\]]+):([0-9]+)\]`)

// CartDirective - намерение добавить товар в корзину.
type CartDirective struct {
	ProductID string `json:"id"`
	Quantity  int    `json:"quantity"`
}

// Match - первое вхождение директивы в тексте.
type Match struct {
	Directive CartDirective
	Start     int // байтовое смещение начала токена
	End       int // смещение сразу за токеном
}

// Find возвращает первое вхождение без изменения текста.
//
// ok == false если вхождения нет или оно некорректно (количество 0 или
// не помещается в int). Следующие вхождения не рассматриваются.
func Find(text string) (Match, bool) {
	loc := Pattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return Match{}, false
	}

	id := text[loc[2]:loc[3]]
	qty, err := strconv.Atoi(text[loc[4]:loc[5]])
	if err != nil || qty <= 0 {
		return Match{}, false
	}

	return Match{
		Directive: CartDirective{ProductID: id, Quantity: qty},
		Start:     loc[0],
		End:       loc[1],
	}, true
}

// Extract ищет директиву и возвращает текст для показа пользователю.
//
// При успехе из текста удаляется ровно найденный токен (пробелы вокруг
// не трогаются). Без директивы текст возвращается без изменений.
func Extract(text string) (CartDirective, string, bool) {
	m, ok := Find(text)
	if !ok {
		return CartDirective{}, text, false
	}
	return m.Directive, text[:m.Start] + text[m.End:], true
}

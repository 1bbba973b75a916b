// Package cart - корзина терминального клиента.
//
// Корзина живёт только в памяти клиента: сервер её не хранит.
// Повторное добавление товара складывает количества.
package cart

import (
	"strconv"
	"strings"
	"sync"

	"github.com/ilkoid/shopchat/pkg/catalog"
	"github.com/ilkoid/shopchat/pkg/directive"
)

// Item - позиция корзины.
type Item struct {
	ProductID string
	Title     string
	// UnitPrice - цена за штуку в минимальных единицах валюты, 0 если неизвестна
	UnitPrice int64
	Quantity  int
}

// Subtotal возвращает сумму позиции.
func (i Item) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Cart - корзина. Безопасна для конкурентного использования.
type Cart struct {
	mu    sync.RWMutex
	items []Item
}

// New создаёт пустую корзину.
func New() *Cart {
	return &Cart{}
}

// Add добавляет товар. Товара может не быть в каталоге: модель знает только
// идентификатор, тогда позиция сохраняется без названия и цены.
//
// Возвращает итоговую позицию. Количество <= 0 игнорируется.
func (c *Cart) Add(cat catalog.Catalog, productID string, quantity int) (Item, bool) {
	if productID == "" || quantity <= 0 {
		return Item{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity += quantity
			return c.items[i], true
		}
	}

	item := Item{ProductID: productID, Title: productID, Quantity: quantity}
	if p, ok := cat.Find(productID); ok {
		item.Title = p.Title
		item.UnitPrice = EffectivePrice(p)
	}
	c.items = append(c.items, item)
	return item, true
}

// Apply добавляет товар из директивы модели.
func (c *Cart) Apply(cat catalog.Catalog, d directive.CartDirective) (Item, bool) {
	return c.Add(cat, d.ProductID, d.Quantity)
}

// Items возвращает копию позиций в порядке добавления.
func (c *Cart) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Item(nil), c.items...)
}

// Count - общее количество штук.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Total - сумма по известным ценам.
func (c *Cart) Total() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for _, it := range c.items {
		total += it.Subtotal()
	}
	return total
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// EffectivePrice возвращает цену со скидкой, если она есть, иначе обычную.
func EffectivePrice(p catalog.Product) int64 {
	if v := ParsePrice(p.Discount); v > 0 {
		return v
	}
	return ParsePrice(p.Price)
}

// ParsePrice разбирает отображаемую цену ("30.000", "Rp 25,000") по цифрам.
// Нет цифр - 0.
func ParsePrice(s string) int64 {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseInt(sb.String(), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatPrice форматирует сумму с разделителем тысяч "." ("30.000").
func FormatPrice(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var out []byte
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

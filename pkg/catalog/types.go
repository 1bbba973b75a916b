// Package catalog - каталог товаров магазина и его провайдер.
//
// Provider.Get никогда не падает: кэш → удалённый источник → встроенный fallback.
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/ilkoid/shopchat/pkg/apperr"
)

// CacheKey - ключ записи каталога в кэше.
const CacheKey = "products"

// Style - вариант товара (цвет / расцветка).
type Style struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	ImagePath string `json:"image_path"`
}

// Product - товар в формате удалённого фида.
//
// Цены и наличие - строки для отображения ("30.000", "Tersedia"), не числа.
type Product struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Category    string  `json:"category"`
	URL         string  `json:"url"`
	SKU         string  `json:"sku"`
	Price       string  `json:"price"`
	Discount    string  `json:"discount"`
	Stock       string  `json:"stok"`
	Description string  `json:"description"`
	Narrative   string  `json:"narrative,omitempty"`
	Image       string  `json:"image"`
	Styles      []Style `json:"styles"`
}

// Catalog - упорядоченный список товаров.
//
// JSON форма совпадает с фидом и ответом GET /api/products: {"product": [...]}.
type Catalog struct {
	Products []Product `json:"product"`
}

// Len возвращает количество товаров.
func (c Catalog) Len() int { return len(c.Products) }

// Find ищет товар по идентификатору.
func (c Catalog) Find(id string) (Product, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Decode разбирает JSON документ каталога.
//
// Пустой список товаров тоже ошибка разбора: такой каталог нельзя ни
// кэшировать, ни отдавать в промпт.
func Decode(raw []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return Catalog{}, apperr.Parse("catalog.decode", err)
	}
	if len(c.Products) == 0 {
		return Catalog{}, apperr.Parse("catalog.decode", fmt.Errorf("catalog has no products"))
	}
	return c, nil
}

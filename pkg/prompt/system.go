// Системный промпт магазина - рендер каталога через text/template.

package prompt

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/ilkoid/shopchat/pkg/catalog"
)

// Значения по умолчанию - исходный магазин.
const (
	DefaultStoreDescription = "an online store in Indonesia"
	DefaultCurrency         = "Rp"
)

// systemTemplate - текст промпта. Строка товара:
//
//	- <title> (ID: <id>): <description> (Normal price: <cur> <price>, ...)
//
// Все поля кроме ID проходят через esc.
const systemTemplate = `You are a friendly and helpful e-commerce assistant for {{.Store}}. Your role is to help customers find products, answer questions, and assist with shopping.

AVAILABLE PRODUCTS:
{{range .Products -}}
- {{esc .Title}} (ID: {{.ID}}): {{esc .Description}} (Normal price: {{$.Currency}} {{esc .Price}}, Discount price: {{$.Currency}} {{esc .Discount}}, Stock: {{esc .Stock}})
{{end}}
IMPORTANT GUIDELINES:
1. Be friendly, helpful, and speak in a conversational tone
2. Understand user queries about products and provide accurate information
3. If user asks about a product that matches available items, provide details about price, description, and stock
4. If user request is unclear or missing information, politely ask for clarification
5. You can suggest adding items to cart when user expresses interest
6. Always respond in the same language as the user
7. Keep responses concise but helpful

CART MANAGEMENT:
- When user clearly wants to add an item to cart, include exactly one token of the form [ADD_TO_CART:<product_id>:<quantity>] in your response, for example [ADD_TO_CART:{{.ExampleID}}:1]
- Use the product ID shown in parentheses and a positive whole number as the quantity
- When user asks about cart, provide summary of items

RESPONSE FORMAT:
- Use natural, conversational language
- Focus on assisting with product selection and purchases
- Be enthusiastic about helping customers`

var systemTmpl = template.Must(template.New("system").
	Funcs(template.FuncMap{"esc": escapeField}).
	Parse(systemTemplate))

// Composer рендерит системный промпт. Чистая функция от каталога.
type Composer struct {
	StoreDescription string
	Currency         string
}

// DefaultComposer возвращает Composer исходного магазина.
func DefaultComposer() Composer {
	return Composer{StoreDescription: DefaultStoreDescription, Currency: DefaultCurrency}
}

// NewComposer заполняет пустые поля значениями по умолчанию.
func NewComposer(storeDescription, currency string) Composer {
	c := DefaultComposer()
	if storeDescription != "" {
		c.StoreDescription = storeDescription
	}
	if currency != "" {
		c.Currency = currency
	}
	return c
}

type systemData struct {
	Store     string
	Currency  string
	ExampleID string
	Products  []catalog.Product
}

// Build возвращает системный промпт для каталога.
//
// Детерминирован: одинаковый каталог → одинаковая строка.
func (c Composer) Build(cat catalog.Catalog) string {
	data := systemData{
		Store:     escapeField(c.StoreDescription),
		Currency:  escapeField(c.Currency),
		ExampleID: "PRODUCT_ID",
		Products:  cat.Products,
	}
	if len(cat.Products) > 0 {
		data.ExampleID = cat.Products[0].ID
	}

	var buf bytes.Buffer
	// Шаблон статичен, esc не возвращает ошибок, запись в bytes.Buffer не падает.
	_ = systemTmpl.Execute(&buf, data)
	return buf.String()
}

// BuildSystemPrompt рендерит промпт с настройками по умолчанию.
func BuildSystemPrompt(cat catalog.Catalog) string {
	return DefaultComposer().Build(cat)
}

// fieldEscaper убирает скобки директивы из текста каталога:
// описание товара не должно собрать валидный [ADD_TO_CART:...].
var fieldEscaper = strings.NewReplacer("[", "(", "]", ")")

func escapeField(s string) string {
	return fieldEscaper.Replace(s)
}

// AmbiguousIDs возвращает идентификаторы, содержащие разделители директивы.
//
// Такие ID встраиваются как есть (модель должна повторить их дословно),
// но разбор директивы для них неоднозначен - вызывающий логирует предупреждение.
func AmbiguousIDs(cat catalog.Catalog) []string {
	var out []string
	for _, p := range cat.Products {
		if strings.ContainsAny(p.ID, "[]:") {
			out = append(out, p.ID)
		}
	}
	return out
}

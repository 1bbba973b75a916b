// Рендер
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ilkoid/shopchat/pkg/cart"
)

func (m MainModel) View() string {
	if !m.ready {
		return "Initializing UI..."
	}

	// Формируем строку статуса (Header)
	status := fmt.Sprintf(" SHOP: %s | PRODUCTS: %d | CART: %d (Rp %s) ",
		m.server,
		m.catalog.Len(),
		m.cart.Count(),
		cart.FormatPrice(m.cart.Total()),
	)
	if m.busy {
		status += m.spinner.View() + " typing"
	}

	// Растягиваем хедер на всю ширину
	header := headerStyle.
		Width(m.width).
		Render(status)

	// Разделительная линия
	border := lipgloss.NewStyle().
		Foreground(grayColor).
		Width(m.width).
		Render(strings.Repeat("─", max(m.width, 1)))

	// Header + Transcript + Border + Input + Help
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		header,
		m.transcript.View(),
		border,
		m.textarea.View(),
		m.help.View(m.keys),
	)
}

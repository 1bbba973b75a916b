// Логика - Обрабатывает нажатия клавиш, команды и поток ответа.

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/shopchat/pkg/cart"
	"github.com/ilkoid/shopchat/pkg/catalog"
	"github.com/ilkoid/shopchat/pkg/llm"
)

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	// 1. Изменение размера окна терминала
	case tea.WindowSizeMsg:
		headerHeight := 1
		footerHeight := m.textarea.Height() + 3 // граница + help

		m.transcript.Resize(msg.Width, msg.Height-headerHeight-footerHeight)
		m.textarea.SetWidth(msg.Width)
		m.width = msg.Width
		m.ready = true
		return m, nil

	// 2. Клавиши
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.ScrollUp):
			m.transcript.Scroll(-1)
			return m, nil

		case key.Matches(msg, m.keys.ScrollDown):
			m.transcript.Scroll(1)
			return m, nil

		case key.Matches(msg, m.keys.Send):
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			return m.submit(input)
		}

	// 3. Каталог загружен
	case productsMsg:
		if msg.err != nil {
			m.transcript.Append(errorMsgStyle("ERROR: ") + "failed to load products: " + msg.err.Error())
			return m, nil
		}
		m.catalog = msg.catalog
		m.transcript.Append(systemMsgStyle(fmt.Sprintf("Catalog loaded: %d products. Type /products to list them.", m.catalog.Len())))
		return m, nil

	// 4. Поток ответа ассистента
	case chatEvent:
		return m.handleChatEvent(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit обрабатывает ввод: команда витрины или сообщение ассистенту.
func (m MainModel) submit(input string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(input, "/") {
		return m.runCommand(input)
	}

	if m.busy {
		m.transcript.Append(dimStyle("Assistant is still answering, please wait..."))
		return m, nil
	}

	m.transcript.Append(userMsgStyle("YOU > ") + input)
	m.transcript.Append(assistantMsgStyle("SHOP > ") + dimStyle("..."))

	m.busy = true
	m.pending = input
	m.partial = ""
	m.events = startChat(m.api, input, m.history)
	return m, waitForEvent(m.events)
}

// runCommand выполняет slash-команду витрины.
func (m MainModel) runCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/exit":
		return m, tea.Quit

	case "/products":
		m.transcript.Append(renderProducts(m.catalog))

	case "/cart":
		m.transcript.Append(renderCart(m.cart))

	case "/clear":
		m.history = nil
		m.transcript.Clear()
		m.transcript.Append(systemMsgStyle("Conversation cleared. Cart is kept."))

	case "/help":
		m.transcript.Append(systemMsgStyle("Commands: /products, /cart, /clear, /quit"))

	default:
		m.transcript.Append(errorMsgStyle("ERROR: ") + fmt.Sprintf("unknown command '%s'. Try /help", fields[0]))
	}
	return m, nil
}

// handleChatEvent применяет дельту или итог ответа.
func (m MainModel) handleChatEvent(ev chatEvent) (tea.Model, tea.Cmd) {
	if !ev.done {
		m.partial += ev.delta
		m.transcript.ReplaceLast(assistantMsgStyle("SHOP > ") + m.partial)
		return m, waitForEvent(m.events)
	}

	m.busy = false
	m.events = nil

	if ev.err != nil {
		m.transcript.ReplaceLast(errorMsgStyle("ERROR: ") + ev.err.Error())
		m.pending = ""
		return m, nil
	}

	reply := ev.reply
	m.transcript.ReplaceLast(assistantMsgStyle("SHOP > ") + reply.Display)

	if reply.HasDirective {
		if item, ok := m.cart.Apply(m.catalog, reply.Directive); ok {
			m.transcript.Append(systemMsgStyle(fmt.Sprintf("🛒 Added %d × %s (cart: %d items)",
				reply.Directive.Quantity, item.Title, m.cart.Count())))
		}
	}
	if reply.Truncated {
		m.transcript.Append(dimStyle("(response was cut off)"))
	}

	// В историю идёт текст без директивы, как его видел пользователь
	m.history = append(m.history,
		llm.Message{Role: llm.RoleUser, Content: m.pending},
		llm.Message{Role: llm.RoleAssistant, Content: reply.Display},
	)
	m.pending = ""
	m.partial = ""
	return m, nil
}

// History возвращает историю диалога.
func (m MainModel) History() []llm.Message {
	return append([]llm.Message(nil), m.history...)
}

func renderProducts(cat catalog.Catalog) string {
	if cat.Len() == 0 {
		return dimStyle("Catalog is not loaded yet.")
	}

	var sb strings.Builder
	sb.WriteString(systemMsgStyle("PRODUCTS"))
	for _, p := range cat.Products {
		sb.WriteString(fmt.Sprintf("\n  • %s [%s]  Rp %s", p.Title, p.ID, p.Discount))
		if p.Price != "" && p.Price != p.Discount {
			sb.WriteString(dimStyle(" (was Rp " + p.Price + ")"))
		}
		if p.Stock != "" {
			sb.WriteString(dimStyle(" · " + p.Stock))
		}
	}
	return sb.String()
}

func renderCart(c *cart.Cart) string {
	items := c.Items()
	if len(items) == 0 {
		return dimStyle("Cart is empty.")
	}

	var sb strings.Builder
	sb.WriteString(systemMsgStyle("CART"))
	for _, it := range items {
		sb.WriteString(fmt.Sprintf("\n  • %s × %d", it.Title, it.Quantity))
		if it.UnitPrice > 0 {
			sb.WriteString("  Rp " + cart.FormatPrice(it.Subtotal()))
		}
	}
	sb.WriteString(fmt.Sprintf("\n  Total: %d items, Rp %s", c.Count(), cart.FormatPrice(c.Total())))
	return sb.String()
}

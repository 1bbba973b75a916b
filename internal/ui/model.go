// Package ui реализует Model компонент Bubble Tea TUI.
//
// Терминальная витрина магазина: каталог, чат с потоковым ответом и
// корзина, которую пополняют директивы модели.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/shopchat/pkg/cart"
	"github.com/ilkoid/shopchat/pkg/catalog"
	"github.com/ilkoid/shopchat/pkg/llm"
	"github.com/ilkoid/shopchat/pkg/storeclient"
)

// chatTimeout ограничивает один обмен сообщениями.
const chatTimeout = 2 * time.Minute

// StoreAPI - то, что витрине нужно от сервера.
// *storeclient.Client реализует этот интерфейс.
type StoreAPI interface {
	Products(ctx context.Context) (catalog.Catalog, error)
	Chat(ctx context.Context, message string, history []llm.Message, onDelta func(string)) (storeclient.Reply, error)
}

// productsMsg - результат загрузки каталога.
type productsMsg struct {
	catalog catalog.Catalog
	err     error
}

// chatEvent - дельта ответа или его завершение.
type chatEvent struct {
	delta string
	done  bool
	reply storeclient.Reply
	err   error
}

// MainModel представляет главную модель UI (Bubble Tea Model).
//
// Cart и Transcript хранятся указателями: Update работает по значению.
type MainModel struct {
	transcript *Transcript
	textarea   textarea.Model
	spinner    spinner.Model
	help       help.Model
	keys       KeyMap

	api     StoreAPI
	server  string
	cart    *cart.Cart
	catalog catalog.Catalog
	history []llm.Message

	// Текущий обмен
	busy    bool
	pending string
	partial string
	events  chan chatEvent

	// ready флаг для первой инициализации размеров
	ready bool
	width int
}

// InitialModel создает начальное состояние UI.
func InitialModel(api StoreAPI, server string) MainModel {
	ta := textarea.New()
	ta.Placeholder = "Tanya tentang produk... (/products, /cart, /clear, /quit)"
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 500
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	tr := NewTranscript()
	tr.Append(systemMsgStyle("Shop assistant connected to " + server))
	tr.Append(systemMsgStyle("Type a question or /help."))

	return MainModel{
		transcript: tr,
		textarea:   ta,
		spinner:    sp,
		help:       help.New(),
		keys:       DefaultKeyMap(),
		api:        api,
		server:     server,
		cart:       cart.New(),
	}
}

// Init запускается один раз при старте Bubble Tea программы.
func (m MainModel) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		loadProducts(m.api),
	)
}

// Cart возвращает корзину витрины.
func (m MainModel) Cart() *cart.Cart {
	return m.cart
}

func loadProducts(api StoreAPI) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cat, err := api.Products(ctx)
		return productsMsg{catalog: cat, err: err}
	}
}

// startChat запускает обмен в горутине и возвращает канал событий.
//
// История копируется: модель может изменить свой срез до конца запроса.
func startChat(api StoreAPI, message string, history []llm.Message) chan chatEvent {
	events := make(chan chatEvent, 64)
	snapshot := append([]llm.Message(nil), history...)

	go func() {
		defer close(events)
		ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
		defer cancel()

		reply, err := api.Chat(ctx, message, snapshot, func(delta string) {
			events <- chatEvent{delta: delta}
		})
		events <- chatEvent{done: true, reply: reply, err: err}
	}()

	return events
}

// waitForEvent читает одно событие обмена.
func waitForEvent(events chan chatEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return ev
	}
}

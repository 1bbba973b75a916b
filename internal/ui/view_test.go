// Package ui тесты для витрины
package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/shopchat/pkg/cart"
	"github.com/ilkoid/shopchat/pkg/catalog"
	"github.com/ilkoid/shopchat/pkg/directive"
	"github.com/ilkoid/shopchat/pkg/llm"
	"github.com/ilkoid/shopchat/pkg/storeclient"
)

type fakeAPI struct {
	cat       catalog.Catalog
	deltas    []string
	reply     storeclient.Reply
	err       error
	histories [][]llm.Message
}

func (f *fakeAPI) Products(context.Context) (catalog.Catalog, error) { return f.cat, nil }

func (f *fakeAPI) Chat(_ context.Context, _ string, history []llm.Message, onDelta func(string)) (storeclient.Reply, error) {
	f.histories = append(f.histories, history)
	for _, d := range f.deltas {
		onDelta(d)
	}
	return f.reply, f.err
}

func testCatalog() catalog.Catalog {
	return catalog.Catalog{Products: []catalog.Product{
		{ID: "masker-3d", Title: "Masker 3D Bordir", Price: "30.000", Discount: "25.000", Stock: "Tersedia"},
	}}
}

func newReadyModel(t *testing.T, api StoreAPI) MainModel {
	t.Helper()
	m := InitialModel(api, "http://localhost:8080")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m = updated.(MainModel)
	updated, _ = m.Update(productsMsg{catalog: testCatalog()})
	return updated.(MainModel)
}

// drain прогоняет события обмена через Update до завершения.
func drain(t *testing.T, m MainModel) MainModel {
	t.Helper()
	for i := 0; m.busy && i < 100; i++ {
		msg := waitForEvent(m.events)()
		require.NotNil(t, msg)
		updated, _ := m.Update(msg)
		m = updated.(MainModel)
	}
	require.False(t, m.busy)
	return m
}

func TestChatExchange_AddsToCart(t *testing.T) {
	raw := "Siap! [ADD_TO_CART:masker-3d:2] Sudah."
	d, display, ok := directive.Extract(raw)
	require.True(t, ok)

	api := &fakeAPI{
		cat:    testCatalog(),
		deltas: []string{"Siap! ", "[ADD_TO_CART:masker-3d:2] Sudah."},
		reply:  storeclient.Reply{Raw: raw, Display: display, Directive: d, HasDirective: true},
	}
	m := newReadyModel(t, api)

	updated, cmd := m.submit("mau 2 masker")
	require.NotNil(t, cmd)
	m = drain(t, updated.(MainModel))

	assert.Equal(t, 2, m.Cart().Count())
	assert.EqualValues(t, 50000, m.Cart().Total())
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "mau 2 masker"},
		{Role: llm.RoleAssistant, Content: "Siap!  Sudah."},
	}, m.History())

	transcript := strings.Join(m.transcript.Lines(), "\n")
	assert.Contains(t, transcript, "Siap!  Sudah.")
	assert.NotContains(t, transcript, "[ADD_TO_CART")
	assert.Contains(t, transcript, "Added 2 × Masker 3D Bordir")

	// Второй обмен получает историю первого
	api.reply = storeclient.Reply{Raw: "Ok", Display: "Ok"}
	api.deltas = []string{"Ok"}
	updated, _ = m.submit("terima kasih")
	m = drain(t, updated.(MainModel))
	require.Len(t, api.histories, 2)
	assert.Len(t, api.histories[1], 2)
	assert.Len(t, m.History(), 4)
}

func TestChatExchange_Error(t *testing.T) {
	api := &fakeAPI{cat: testCatalog(), err: errors.New("Message is required (HTTP 400)")}
	m := newReadyModel(t, api)

	updated, _ := m.submit("halo")
	m = drain(t, updated.(MainModel))

	assert.Empty(t, m.History())
	assert.Zero(t, m.Cart().Count())
	assert.Contains(t, strings.Join(m.transcript.Lines(), "\n"), "Message is required")
}

func TestCommands(t *testing.T) {
	m := newReadyModel(t, &fakeAPI{cat: testCatalog()})

	updated, _ := m.submit("/products")
	m = updated.(MainModel)
	assert.Contains(t, lastLine(m), "Masker 3D Bordir [masker-3d]")

	updated, _ = m.submit("/cart")
	m = updated.(MainModel)
	assert.Contains(t, lastLine(m), "Cart is empty.")

	updated, _ = m.submit("/nope")
	m = updated.(MainModel)
	assert.Contains(t, lastLine(m), "unknown command '/nope'")

	m.history = []llm.Message{{Role: llm.RoleUser, Content: "x"}}
	updated, _ = m.submit("/clear")
	m = updated.(MainModel)
	assert.Empty(t, m.History())
	assert.Len(t, m.transcript.Lines(), 1)

	_, cmd := m.submit("/quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRenderCart(t *testing.T) {
	c := cart.New()
	c.Add(testCatalog(), "masker-3d", 2)
	c.Add(testCatalog(), "ghost", 1)

	out := renderCart(c)
	assert.Contains(t, out, "Masker 3D Bordir × 2  Rp 50.000")
	assert.Contains(t, out, "ghost × 1")
	assert.Contains(t, out, "Total: 3 items, Rp 50.000")
}

func TestView(t *testing.T) {
	m := InitialModel(&fakeAPI{}, "http://localhost:8080")
	assert.Equal(t, "Initializing UI...", m.View())

	m = newReadyModel(t, &fakeAPI{cat: testCatalog()})
	view := m.View()
	assert.Contains(t, view, "SHOP: http://localhost:8080")
	assert.Contains(t, view, "PRODUCTS: 1")
	assert.Contains(t, view, "CART: 0")
}

func TestTranscriptWrapsAndReplaces(t *testing.T) {
	tr := NewTranscript()
	tr.Resize(20, 5)
	tr.Append("short")
	tr.Append(strings.Repeat("word ", 10))

	assert.Len(t, tr.Lines(), 2)
	assert.Greater(t, strings.Count(tr.View(), "\n"), 1, "long line is wrapped")

	tr.ReplaceLast("done")
	assert.Equal(t, []string{"short", "done"}, tr.Lines())

	tr.Clear()
	assert.Empty(t, tr.Lines())
	tr.ReplaceLast("first")
	assert.Equal(t, []string{"first"}, tr.Lines())
}

func lastLine(m MainModel) string {
	lines := m.transcript.Lines()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

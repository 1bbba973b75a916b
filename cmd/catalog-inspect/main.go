// catalog-inspect - просмотр каталога из настроенного источника (http или s3).
//
// Грузит каталог в обход кэша и показывает товары, идентификаторы с
// разделителями директивы и размер системного промпта.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ilkoid/shopchat/pkg/catalog"
	"github.com/ilkoid/shopchat/pkg/config"
	"github.com/ilkoid/shopchat/pkg/prompt"
)

// --- Стили ---
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")). // Зеленый
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")) // Розовый

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))
)

// --- Сообщения (Messages) ---
type errMsg error
type contentMsg catalog.Catalog

// --- Модель ---
type model struct {
	source   catalog.Source
	origin   string
	timeout  time.Duration
	spinner  spinner.Model
	viewport viewport.Model

	loading bool
	err     error
	ready   bool
}

func initialModel(source catalog.Source, origin string, timeout time.Duration) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		source:  source,
		origin:  origin,
		timeout: timeout,
		spinner: s,
		loading: true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchCatalog(m.source, m.timeout),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case errMsg:
		m.err = msg
		m.loading = false
		return m, nil

	case contentMsg:
		m.loading = false
		m.viewport.SetContent(formatCatalog(catalog.Catalog(msg)))
		return m, nil

	case tea.WindowSizeMsg:
		headerHeight := 2
		verticalMarginHeight := 2

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-verticalMarginHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - verticalMarginHeight
		}
	}

	if m.loading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("\n❌ Error: %v\n\nPress 'q' to quit.", m.err)
	}

	header := titleStyle.Render("🛍️ Catalog Inspector: " + m.origin)

	if m.loading {
		return fmt.Sprintf("\n %s Fetching catalog...\n\n", m.spinner.View())
	}

	return fmt.Sprintf("%s\n%s\n\n(Press 'q' to quit, arrows to scroll)", header, m.viewport.View())
}

func fetchCatalog(source catalog.Source, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		cat, err := source.Fetch(ctx)
		if err != nil {
			return errMsg(err)
		}
		return contentMsg(cat)
	}
}

func formatCatalog(cat catalog.Catalog) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Total Products: %d\n", cat.Len()))
	b.WriteString(fmt.Sprintf("System prompt: %d bytes\n\n", len(prompt.BuildSystemPrompt(cat))))

	for _, p := range cat.Products {
		b.WriteString(fmt.Sprintf("%s  %-20s  %-12s  %s (%d styles)\n",
			itemStyle.Render("•"),
			p.ID,
			p.Discount,
			p.Title,
			len(p.Styles),
		))
	}

	if ids := prompt.AmbiguousIDs(cat); len(ids) > 0 {
		b.WriteString("\n" + warnStyle.Render("⚠️ IDs with [ ] or : cannot be parsed back from cart directives:") + "\n")
		for _, id := range ids {
			b.WriteString("   " + id + "\n")
		}
	}
	return b.String()
}

func main() {
	configFlag := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, _, err := config.Initialize(&config.DefaultPathFinder{ConfigFlag: *configFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config Error: %v\n", err)
		os.Exit(1)
	}

	source, err := catalog.NewSource(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Source Error: %v\n", err)
		os.Exit(1)
	}

	origin := cfg.Catalog.URL
	if cfg.Catalog.Source == config.SourceS3 {
		origin = fmt.Sprintf("s3://%s/%s", cfg.S3.Bucket, cfg.Catalog.S3Key)
	}

	p := tea.NewProgram(
		initialModel(source, origin, cfg.Catalog.Timeout),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}

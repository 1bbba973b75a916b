// shopchat - терминальная витрина магазина.
//
// Подключается к запущенному shopchat-server:
//
//	go run ./cmd/shopchat -server http://localhost:8080
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/ilkoid/shopchat/internal/ui"
	"github.com/ilkoid/shopchat/pkg/storeclient"
	"github.com/ilkoid/shopchat/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	defaultServer := os.Getenv("SHOPCHAT_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	serverURL := flag.String("server", defaultServer, "shopchat-server base URL")
	flag.Parse()

	// TUI занимает терминал: лог только в файл
	if err := utils.InitLogger(utils.DefaultLogFileName()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}
	defer utils.Close()

	utils.Info("Storefront started", "server", *serverURL)

	client := storeclient.New(*serverURL)
	p := tea.NewProgram(
		ui.InitialModel(client, *serverURL),
		// Без AltScreen - позволяет выделять текст мышкой и копировать в буфер обмена
	)

	if _, err := p.Run(); err != nil {
		utils.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	utils.Info("Storefront exited normally")
	return nil
}

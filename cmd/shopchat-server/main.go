// shopchat-server - HTTP сервер чат-ассистента магазина.
//
// Использование:
//
//	go run ./cmd/shopchat-server -config config.yaml
//
// Переменные окружения (можно положить в .env):
//
//	CF_ACCOUNT_ID, CF_API_TOKEN - Workers AI
//	OPENAI_API_KEY              - если default_chat указывает на openai
//	S3_ACCESS_KEY, S3_SECRET_KEY - если catalog.source: s3
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ilkoid/shopchat/pkg/app"
	"github.com/ilkoid/shopchat/pkg/config"
	"github.com/ilkoid/shopchat/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// 1. Конфигурация (.env + config.yaml)
	cfg, cfgPath, err := config.Initialize(&config.DefaultPathFinder{ConfigFlag: *configFlag})
	if err != nil {
		return err
	}

	// 2. Логгер: stderr или файл из app.log_file
	if err := utils.InitLogger(cfg.App.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}
	defer utils.Close()
	utils.SetDebug(cfg.App.Debug)

	utils.Info("Config loaded", "path", cfgPath, "default_model", cfg.Models.DefaultChat)
	logKeysInfo(cfg)

	// 3. Компоненты
	components, err := app.Initialize(cfg)
	if err != nil {
		utils.Error("Initialization failed", "error", err)
		return err
	}
	defer components.Close()

	// 4. HTTP сервер до SIGINT/SIGTERM
	ctx, stop := utils.SignalContext(context.Background())
	defer stop()

	srv := components.NewHTTPServer()
	utils.Info("Server listening", "addr", srv.Addr)
	fmt.Fprintf(os.Stderr, "shopchat listening on %s\n", srv.Addr)

	if err := utils.ServeUntilDone(ctx, srv, cfg.Server.ShutdownTimeout); err != nil {
		utils.Error("Server error", "error", err)
		return fmt.Errorf("server error: %w", err)
	}

	utils.Info("Server stopped")
	return nil
}

// maskKey показывает первые 8 символов ключа для идентификации.
func maskKey(key string) string {
	if key == "" {
		return "NOT SET"
	}
	if len(key) <= 8 {
		return key + "..."
	}
	return key[:8] + "..."
}

// logKeysInfo логирует информацию о загруженных ключах.
func logKeysInfo(cfg *config.AppConfig) {
	if modelDef, ok := cfg.GetChatModel(""); ok {
		utils.Info("Model key", "provider", modelDef.Provider, "api_key", maskKey(modelDef.APIKey))
	}
	if cfg.Catalog.Source == config.SourceS3 {
		utils.Info("S3 keys",
			"access_key", maskKey(cfg.S3.AccessKey),
			"secret_key", maskKey(cfg.S3.SecretKey))
	}
}

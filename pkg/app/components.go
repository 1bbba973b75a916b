// Package app собирает компоненты сервера магазина из конфигурации.
//
// Используется cmd/shopchat-server и тестами сборки: одна точка, где
// кэш, источник каталога, бэкенд модели и HTTP роутер связываются вместе.
package app

import (
	"fmt"
	"net/http"

	"github.com/ilkoid/shopchat/internal/server"
	"github.com/ilkoid/shopchat/pkg/cache"
	"github.com/ilkoid/shopchat/pkg/catalog"
	"github.com/ilkoid/shopchat/pkg/chat"
	"github.com/ilkoid/shopchat/pkg/config"
	"github.com/ilkoid/shopchat/pkg/factory"
	"github.com/ilkoid/shopchat/pkg/llm"
	"github.com/ilkoid/shopchat/pkg/prompt"
	"github.com/ilkoid/shopchat/pkg/utils"
)

// Components содержит все компоненты сервера.
type Components struct {
	Config   *config.AppConfig
	Cache    cache.Store
	Catalog  *catalog.Provider
	Backend  llm.StreamingProvider
	Proxy    *chat.Proxy
	Handler  http.Handler
	ModelDef config.ModelDef
}

// Initialize создаёт компоненты. При ошибке уже открытые ресурсы закрываются.
func Initialize(cfg *config.AppConfig) (*Components, error) {
	utils.Info("Initializing components",
		"catalog_source", cfg.Catalog.Source,
		"cache_driver", cfg.Cache.Driver,
		"default_model", cfg.Models.DefaultChat)

	// 1. Кэш каталога
	store, err := cache.New(cfg.Cache)
	if err != nil {
		utils.Error("Cache creation failed", "error", err)
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	// 2. Источник и провайдер каталога
	source, err := catalog.NewSource(cfg)
	if err != nil {
		store.Close()
		utils.Error("Catalog source creation failed", "error", err)
		return nil, fmt.Errorf("failed to create catalog source: %w", err)
	}
	provider := catalog.NewProvider(store, source, cfg.Catalog.CacheTTL, cfg.Catalog.Timeout)
	utils.Info("Catalog provider initialized",
		"source", cfg.Catalog.Source,
		"ttl", cfg.Catalog.CacheTTL.String())

	// 3. Бэкенд модели
	modelDef, ok := cfg.GetChatModel(cfg.Models.DefaultChat)
	if !ok {
		store.Close()
		utils.Error("Default chat model not found", "model", cfg.Models.DefaultChat)
		return nil, fmt.Errorf("default_chat model '%s' not found in definitions", cfg.Models.DefaultChat)
	}

	backend, err := factory.NewStreamingProvider(modelDef)
	if err != nil {
		store.Close()
		utils.Error("LLM provider creation failed", "error", err)
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	utils.Info("LLM provider created", "provider", modelDef.Provider, "model", modelDef.ModelName)

	// 4. Прокси чата и роутер
	proxy := chat.NewProxy(provider, backend,
		chat.WithComposer(prompt.NewComposer(cfg.Prompt.StoreDescription, cfg.Prompt.Currency)),
		chat.WithOpenTimeout(cfg.Chat.OpenTimeout),
		chat.WithStreamTimeout(modelDef.Timeout),
	)

	return &Components{
		Config:   cfg,
		Cache:    store,
		Catalog:  provider,
		Backend:  backend,
		Proxy:    proxy,
		Handler:  server.New(provider, proxy).Router(),
		ModelDef: modelDef,
	}, nil
}

// Close освобождает ресурсы (соединение SQLite).
func (c *Components) Close() error {
	if c.Cache == nil {
		return nil
	}
	return c.Cache.Close()
}

// NewHTTPServer создаёт http.Server с таймаутами из конфигурации.
//
// WriteTimeout не ставится: стрим может идти дольше любого фиксированного лимита,
// его ограничивает models.definitions.<m>.timeout.
func (c *Components) NewHTTPServer() *http.Server {
	srvCfg := c.Config.Server.GetDefaults()
	return &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           c.Handler,
		ReadHeaderTimeout: srvCfg.ReadHeaderTimeout,
	}
}

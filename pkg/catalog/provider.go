package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ilkoid/shopchat/pkg/cache"
	"github.com/ilkoid/shopchat/pkg/utils"
)

// Provider разрешает текущий каталог.
//
// Порядок источников:
//  1. кэш по ключу CacheKey (пока не истёк TTL)
//  2. Source.Fetch с таймаутом; удачный результат пишется в кэш
//  3. Fallback() - в кэш не пишется, следующий вызов снова пойдёт в Source
type Provider struct {
	cache    cache.Store
	source   Source
	ttl      time.Duration
	timeout  time.Duration
	fallback func() Catalog
}

// NewProvider создаёт провайдера.
//
// ttl - время жизни записи в кэше, timeout - ограничение на одну загрузку
// (0 - только контекст вызывающего).
func NewProvider(store cache.Store, source Source, ttl, timeout time.Duration) *Provider {
	return &Provider{
		cache:    store,
		source:   source,
		ttl:      ttl,
		timeout:  timeout,
		fallback: Fallback,
	}
}

// Get возвращает каталог. Никогда не возвращает ошибку или пустой каталог.
func (p *Provider) Get(ctx context.Context) Catalog {
	if c, ok := p.fromCache(ctx); ok {
		return c
	}

	fetchCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	started := time.Now()
	c, err := p.source.Fetch(fetchCtx)
	if err != nil {
		utils.Warn("Catalog fetch failed, using fallback",
			"error", err,
			"duration_ms", time.Since(started).Milliseconds())
		return p.fallback()
	}

	utils.Info("Catalog fetched",
		"products", c.Len(),
		"duration_ms", time.Since(started).Milliseconds())

	p.toCache(ctx, c)
	return c
}

func (p *Provider) fromCache(ctx context.Context) (Catalog, bool) {
	if p.cache == nil {
		return Catalog{}, false
	}

	raw, ok, err := p.cache.Get(ctx, CacheKey)
	if err != nil {
		utils.Warn("Catalog cache read failed", "error", err)
		return Catalog{}, false
	}
	if !ok {
		return Catalog{}, false
	}

	c, err := Decode(raw)
	if err != nil {
		// Битую запись не удаляем: следующий удачный fetch её перезапишет
		utils.Warn("Catalog cache entry unreadable", "error", err)
		return Catalog{}, false
	}

	utils.Debug("Catalog served from cache", "products", c.Len())
	return c, true
}

func (p *Provider) toCache(ctx context.Context, c Catalog) {
	if p.cache == nil {
		return
	}

	raw, err := json.Marshal(c)
	if err != nil {
		utils.Error("Catalog encode failed", "error", err)
		return
	}

	if err := p.cache.Put(ctx, CacheKey, raw, p.ttl); err != nil {
		utils.Warn("Catalog cache write failed", "error", err)
	}
}

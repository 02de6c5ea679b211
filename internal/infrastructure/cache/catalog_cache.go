package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"digiwallet/internal/model"

	"github.com/go-redis/redis/v8"
)

const (
	keyServices      = "catalog:services"
	keyServicePrefix = "catalog:service:"
	keyBanners       = "catalog:banners"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// CatalogCache 服务目录缓存，JSON 序列化存储
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl}
}

func (c *CatalogCache) GetServices(ctx context.Context) ([]model.Service, error) {
	var services []model.Service
	if err := c.get(ctx, keyServices, &services); err != nil {
		return nil, err
	}
	return services, nil
}

func (c *CatalogCache) SetServices(ctx context.Context, services []model.Service) error {
	return c.set(ctx, keyServices, services)
}

func (c *CatalogCache) GetService(ctx context.Context, code string) (*model.Service, error) {
	var service model.Service
	if err := c.get(ctx, keyServicePrefix+code, &service); err != nil {
		return nil, err
	}
	return &service, nil
}

func (c *CatalogCache) SetService(ctx context.Context, service *model.Service) error {
	return c.set(ctx, keyServicePrefix+service.ServiceCode, service)
}

func (c *CatalogCache) GetBanners(ctx context.Context) ([]model.Banner, error) {
	var banners []model.Banner
	if err := c.get(ctx, keyBanners, &banners); err != nil {
		return nil, err
	}
	return banners, nil
}

func (c *CatalogCache) SetBanners(ctx context.Context, banners []model.Banner) error {
	return c.set(ctx, keyBanners, banners)
}

func (c *CatalogCache) get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (c *CatalogCache) set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"digiwallet/internal/model"
	"digiwallet/internal/repository"
)

type CatalogStore interface {
	ListServices(ctx context.Context) ([]model.Service, error)
	GetServiceByCode(ctx context.Context, code string) (*model.Service, error)
	ListBanners(ctx context.Context) ([]model.Banner, error)
}

// CatalogCache 目录缓存，由 cache.CatalogCache 实现
type CatalogCache interface {
	GetServices(ctx context.Context) ([]model.Service, error)
	SetServices(ctx context.Context, services []model.Service) error
	GetService(ctx context.Context, code string) (*model.Service, error)
	SetService(ctx context.Context, service *model.Service) error
	GetBanners(ctx context.Context) ([]model.Banner, error)
	SetBanners(ctx context.Context, banners []model.Banner) error
}

// CatalogService 服务目录与横幅
// 配置了缓存时先读缓存，缓存出错不影响结果，直接回源
type CatalogService struct {
	store CatalogStore
	cache CatalogCache
}

func NewCatalogService(store CatalogStore, cache CatalogCache) *CatalogService {
	return &CatalogService{store: store, cache: cache}
}

func (s *CatalogService) ListServices(ctx context.Context) ([]model.Service, error) {
	if s.cache != nil {
		if services, err := s.cache.GetServices(ctx); err == nil {
			return services, nil
		}
	}

	services, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if s.cache != nil {
		if err := s.cache.SetServices(ctx, services); err != nil {
			log.Printf("[Catalog] 写入服务缓存失败: %v", err)
		}
	}
	return services, nil
}

// GetService 按编码查询，供支付使用
func (s *CatalogService) GetService(ctx context.Context, code string) (*model.Service, error) {
	if s.cache != nil {
		if svc, err := s.cache.GetService(ctx, code); err == nil {
			return svc, nil
		}
	}

	svc, err := s.store.GetServiceByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if s.cache != nil {
		if err := s.cache.SetService(ctx, svc); err != nil {
			log.Printf("[Catalog] 写入服务缓存失败: code=%s, err=%v", code, err)
		}
	}
	return svc, nil
}

func (s *CatalogService) ListBanners(ctx context.Context) ([]model.Banner, error) {
	if s.cache != nil {
		if banners, err := s.cache.GetBanners(ctx); err == nil {
			return banners, nil
		}
	}

	banners, err := s.store.ListBanners(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if s.cache != nil {
		if err := s.cache.SetBanners(ctx, banners); err != nil {
			log.Printf("[Catalog] 写入横幅缓存失败: %v", err)
		}
	}
	return banners, nil
}

package repository

import (
	"context"
	"errors"

	"digiwallet/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository 服务目录与横幅，只读
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	var services []model.Service
	err := r.db.WithContext(ctx).Order("id ASC").Find(&services).Error
	return services, err
}

func (r *CatalogRepository) GetServiceByCode(ctx context.Context, code string) (*model.Service, error) {
	var service model.Service
	err := r.db.WithContext(ctx).Where("service_code = ?", code).First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &service, nil
}

func (r *CatalogRepository) ListBanners(ctx context.Context) ([]model.Banner, error) {
	var banners []model.Banner
	err := r.db.WithContext(ctx).Order("id ASC").Find(&banners).Error
	return banners, err
}

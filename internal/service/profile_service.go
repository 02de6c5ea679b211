package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"digiwallet/internal/infrastructure/storage"
	"digiwallet/internal/model"
	"digiwallet/internal/repository"
)

// ImageStore 头像存储，由 storage.LocalImageStore 实现
type ImageStore interface {
	Save(r io.Reader) (string, error)
}

type ProfileService struct {
	users  UserStore
	images ImageStore
}

func NewProfileService(users UserStore, images ImageStore) *ProfileService {
	return &ProfileService{users: users, images: images}
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return user, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*model.User, error) {
	if err := s.users.UpdateName(ctx, userID, req.FirstName, req.LastName); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s.GetProfile(ctx, userID)
}

// UpdateProfileImage 保存头像并更新用户资料
func (s *ProfileService) UpdateProfileImage(ctx context.Context, userID int64, file io.Reader) (*model.User, error) {
	url, err := s.images.Save(file)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) || errors.Is(err, storage.ErrImageTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return nil, err
	}

	if err := s.users.UpdateProfileImage(ctx, userID, url); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s.GetProfile(ctx, userID)
}

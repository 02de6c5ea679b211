package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"digiwallet/internal/model"
	"digiwallet/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateName(ctx context.Context, id int64, firstName, lastName string) error
	UpdateProfileImage(ctx context.Context, id int64, imageURL string) error
}

// TokenIssuer 签发访问令牌，由 token.Manager 实现
type TokenIssuer interface {
	Issue(userID int64, email string) (string, error)
}

type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	cost   int
}

func NewAuthService(users UserStore, tokens TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
	}
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) error {
	email := strings.TrimSpace(req.Email)
	if !validEmail(email) {
		return ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}

	user := &model.User{
		Email:        email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return ErrEmailTaken
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	log.Printf("[Auth] 注册成功: userID=%d, email=%s", user.ID, user.Email)
	return nil
}

// Login 校验密码并签发令牌
// 用户不存在与密码错误返回同一个错误
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (string, error) {
	email := strings.TrimSpace(req.Email)
	if !validEmail(email) {
		return "", ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return tok, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

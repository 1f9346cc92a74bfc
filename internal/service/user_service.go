package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront-service/internal/auth"
	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/repository"
)

type TokenIssuer interface {
	Issue(u *domain.User) (string, error)
}

type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	images ImageStore
	logger *log.Entry
}

// NewUserService builds the account service. images may be nil, in which case
// accounts are registered without an avatar.
func NewUserService(users repository.UserRepository, tokens TokenIssuer, images ImageStore, logger *log.Entry) *UserService {
	if logger == nil {
		logger = log.WithField("component", "user-service")
	}
	return &UserService{
		users:  users,
		tokens: tokens,
		images: images,
		logger: logger,
	}
}

// Register creates an account and returns it with a fresh token. avatar is
// optional. A failed avatar upload is logged and the account is created
// without one.
func (s *UserService) Register(ctx context.Context, reg domain.Registration, avatar *Image) (*domain.User, string, error) {
	reg.Normalize()
	if err := reg.Validate(); err != nil {
		return nil, "", err
	}
	if avatar != nil && !strings.HasPrefix(avatar.ContentType, "image/") {
		return nil, "", fmt.Errorf("%w: avatar must be an image", domain.ErrValidation)
	}

	// Nothing is uploaded for an address that is already registered.
	_, err := s.users.GetUserByEmail(ctx, reg.Email)
	if err == nil {
		return nil, "", domain.ErrEmailTaken
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, "", err
	}

	u := &domain.User{
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Avatar:       s.uploadAvatar(ctx, avatar),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	s.logger.WithField("user_id", u.ID).Info("user registered")
	return u, token, nil
}

func (s *UserService) uploadAvatar(ctx context.Context, avatar *Image) string {
	if avatar == nil {
		return ""
	}
	if s.images == nil {
		s.logger.Warn("avatar ignored, image uploads are not configured")
		return ""
	}

	key := avatarKey(avatar.Filename)
	url, err := s.images.Upload(ctx, key, avatar.ContentType, avatar.Body, avatar.Size)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("avatar upload failed")
		return ""
	}
	return url
}

// Login checks credentials. Unknown emails and wrong passwords both yield
// domain.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", domain.ErrUnauthorized
	}
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *UserService) CurrentUser(ctx context.Context, id domain.Identity) (*domain.User, error) {
	u, err := s.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return u, nil
}

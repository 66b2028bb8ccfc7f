package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"snapgram/internal/auth"
	"snapgram/internal/domain"
	"snapgram/internal/policy"
	"snapgram/internal/repository"
	"snapgram/internal/storage"
)

const minPasswordLength = 8

// dummyHash keeps login timing flat when the email is unknown.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("snapgram-timing-guard"), bcrypt.DefaultCost)

// Registration is the writable shape of a new account.
type Registration struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// TokenIssuer is the credential issuer the auth boundary relies on.
type TokenIssuer interface {
	Issue(user *domain.User) (auth.TokenPair, error)
	Refresh(refreshToken string) (string, time.Time, error)
}

// UserService describes user lifecycle and authentication operations.
type UserService interface {
	Register(ctx context.Context, reg Registration) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (auth.TokenPair, error)
	RefreshAccess(ctx context.Context, refreshToken string) (string, time.Time, error)
	Current(ctx context.Context, actor domain.Actor) (*domain.User, error)
	List(ctx context.Context, req PageRequest) (Paged[domain.User], error)
	SetProfilePic(ctx context.Context, actor domain.Actor, upload storage.Object) (*domain.User, error)
	DeleteAccount(ctx context.Context, actor domain.Actor) error
}

type userService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	media  storage.Service
	pager  Pager
}

func NewUserService(users repository.UserRepository, tokens TokenIssuer, media storage.Service, pager Pager) UserService {
	if media == nil {
		media = storage.Unconfigured{}
	}
	return &userService{
		users:  users,
		tokens: tokens,
		media:  media,
		pager:  pager,
	}
}

func (s *userService) Register(ctx context.Context, reg Registration) (*domain.User, error) {
	if err := policy.Can(domain.Actor{}, policy.Register, policy.Resource{}); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(reg.Username)
	email := strings.TrimSpace(reg.Email)

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: email is not a valid address", domain.ErrValidation)
	}
	if reg.Password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	if reg.Password != reg.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", domain.ErrValidation)
	}
	if len(reg.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	if err := s.ensureAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email or username is already taken", domain.ErrValidation)
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) ensureAvailable(ctx context.Context, email, username string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: email is already taken", domain.ErrValidation)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return fmt.Errorf("%w: username is already taken", domain.ErrValidation)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	if err := policy.Can(domain.Actor{}, policy.IssueToken, policy.Resource{}); err != nil {
		return auth.TokenPair{}, err
	}
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return auth.TokenPair{}, err
	}
	return s.tokens.Issue(user)
}

func (s *userService) RefreshAccess(ctx context.Context, refreshToken string) (string, time.Time, error) {
	if err := policy.Can(domain.Actor{}, policy.RefreshToken, policy.Resource{}); err != nil {
		return "", time.Time{}, err
	}
	return s.tokens.Refresh(strings.TrimSpace(refreshToken))
}

func (s *userService) Current(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if err := policy.Can(actor, policy.ReadSelf, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.byActor(ctx, actor)
}

func (s *userService) List(ctx context.Context, req PageRequest) (Paged[domain.User], error) {
	page, err := paginate(ctx, s.pager, req, s.users.Count, s.users.List)
	if err != nil {
		return Paged[domain.User]{}, err
	}
	for i := range page.Items {
		page.Items[i] = *sanitizeUser(&page.Items[i])
	}
	return page, nil
}

func (s *userService) SetProfilePic(ctx context.Context, actor domain.Actor, upload storage.Object) (*domain.User, error) {
	if err := policy.Can(actor, policy.UpdateSelf, policy.Resource{}); err != nil {
		return nil, err
	}
	upload.Kind = storage.KindAvatar
	url, err := s.media.Store(ctx, upload)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, fmt.Errorf("%w: media uploads are not enabled", domain.ErrValidation)
		}
		return nil, fmt.Errorf("store profile picture: %w", err)
	}
	if err := s.users.UpdateProfilePic(ctx, actor.UserID, url); err != nil {
		return nil, actorGone(err)
	}
	return s.byActor(ctx, actor)
}

func (s *userService) DeleteAccount(ctx context.Context, actor domain.Actor) error {
	if err := policy.Can(actor, policy.DeleteSelf, policy.Resource{}); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, actor.UserID); err != nil {
		return actorGone(err)
	}
	return nil
}

func (s *userService) byActor(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, actorGone(err)
	}
	return sanitizeUser(user), nil
}

// actorGone covers a valid token whose account has since been deleted.
func actorGone(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: account no longer exists", domain.ErrUnauthenticated)
	}
	return err
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:         user.ID,
		Email:      user.Email,
		Username:   user.Username,
		ProfilePic: user.ProfilePic,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/internal/auth"
	"agora/internal/models"
	"agora/internal/store"
)

// AuthResult is returned by register and login.
type AuthResult struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

// UserSummary is the admin listing view; it never carries the password hash.
type UserSummary struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	Karma     int       `json:"karma"`
	CreatedAt time.Time `json:"created_at"`
}

// UserPublic is what anyone may see about a user.
type UserPublic struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Karma int    `json:"karma"`
}

type UserService struct {
	users  store.Users
	policy *Policy
	tokens *auth.TokenManager
	logger *slog.Logger
}

func NewUserService(users store.Users, policy *Policy, tokens *auth.TokenManager, logger *slog.Logger) *UserService {
	return &UserService{users: users, policy: policy, tokens: tokens, logger: ResolveLogger(logger)}
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	if blank(name) || blank(email) || blank(password) {
		return nil, ErrMissingFields
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hash,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		// lost a race with a concurrent registration of the same email
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("user registered",
		"event", "user_registered",
		"module", "internal/services",
		"user_id", user.ID,
	)
	return s.issue(user)
}

// Login fails with the same error whether the email is unknown or the
// password is wrong.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if blank(email) || blank(password) {
		return nil, ErrMissingFields
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(auth.Identity{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Karma:     user.Karma,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Name: user.Name, Token: token}, nil
}

func (s *UserService) List(ctx context.Context, actor *Actor) ([]UserSummary, error) {
	if _, err := s.policy.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			IsAdmin:   u.IsAdmin,
			Karma:     u.Karma,
			CreatedAt: u.CreatedAt,
		})
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*UserPublic, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserPublic{ID: user.ID, Name: user.Name, Karma: user.Karma}, nil
}

// Delete removes the user record only. Posts and comments the user authored
// keep their owner_id.
func (s *UserService) Delete(ctx context.Context, actor *Actor, id string) error {
	if err := s.authorizeSelf(ctx, actor, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info("user deleted",
		"event", "user_deleted",
		"module", "internal/services",
		"user_id", id,
		"actor_id", actor.ID,
	)
	return nil
}

// Update runs the same checks as Delete. Which profile fields are editable is
// still undecided, so it stops there.
func (s *UserService) Update(ctx context.Context, actor *Actor, id string) error {
	if err := s.authorizeSelf(ctx, actor, id); err != nil {
		return err
	}
	return ErrNotImplemented
}

func (s *UserService) authorizeSelf(ctx context.Context, actor *Actor, id string) error {
	if _, err := s.policy.RequireAuthenticated(ctx, actor); err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	_, err := s.policy.RequireOwnerOrAdmin(ctx, actor, id)
	return err
}

func (s *UserService) find(ctx context.Context, id string) (*models.User, error) {
	if blank(id) {
		return nil, ErrUserNotFound
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

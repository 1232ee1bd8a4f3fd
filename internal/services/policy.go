package services

import (
	"context"
	"errors"

	"agora/internal/auth"
	"agora/internal/models"
	"agora/internal/store"
)

// Actor is whoever issued the current request. It lives for one request: the
// user record it resolves is cached here and nowhere else, so a deleted or
// demoted user loses access on their next request even with a valid token.
type Actor struct {
	ID   string
	user *models.User
}

// NewActor builds the actor for a request; a nil identity means anonymous.
func NewActor(id *auth.Identity) *Actor {
	if id == nil {
		return &Actor{}
	}
	return &Actor{ID: id.ID}
}

func (a *Actor) Anonymous() bool {
	return a == nil || a.ID == ""
}

// Policy answers who may do what. Every check re-reads the actor's user
// record instead of trusting token claims.
type Policy struct {
	users store.Users
}

func NewPolicy(users store.Users) *Policy {
	return &Policy{users: users}
}

// RequireAuthenticated resolves the actor to a live user record.
func (p *Policy) RequireAuthenticated(ctx context.Context, a *Actor) (*models.User, error) {
	if a.Anonymous() {
		return nil, ErrUnauthenticated
	}
	if a.user != nil {
		return a.user, nil
	}
	user, err := p.users.FindByID(ctx, a.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	a.user = user
	return user, nil
}

func (p *Policy) RequireAdmin(ctx context.Context, a *Actor) (*models.User, error) {
	user, err := p.RequireAuthenticated(ctx, a)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, ErrForbidden
	}
	return user, nil
}

func (p *Policy) RequireOwnerOrAdmin(ctx context.Context, a *Actor, ownerID string) (*models.User, error) {
	user, err := p.RequireAuthenticated(ctx, a)
	if err != nil {
		return nil, err
	}
	if !OwnerOrAdmin(user, ownerID) {
		return nil, ErrForbidden
	}
	return user, nil
}

// OwnerOrAdmin is the ownership rule on its own, without any lookups.
func OwnerOrAdmin(user *models.User, ownerID string) bool {
	if user == nil {
		return false
	}
	return user.IsAdmin || (ownerID != "" && user.ID == ownerID)
}

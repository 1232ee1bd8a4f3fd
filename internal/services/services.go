// Package services holds the forum's business rules: who may do what to
// users, posts and comments, and how the three stay consistent.
package services

import (
	"log/slog"

	"agora/internal/auth"
	"agora/internal/store"
)

// Services bundles the resource services that share one store and policy.
type Services struct {
	Users    *UserService
	Posts    *PostService
	Comments *CommentService
}

func New(st store.Store, tokens *auth.TokenManager, logger *slog.Logger) *Services {
	logger = ResolveLogger(logger)
	policy := NewPolicy(st.Users())
	posts := NewPostService(st.Posts(), st.Comments(), policy, logger)
	return &Services{
		Users:    NewUserService(st.Users(), policy, tokens, logger),
		Posts:    posts,
		Comments: NewCommentService(st.Comments(), posts, policy, logger),
	}
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agora/internal/models"
	"agora/internal/store"
)

type CommentService struct {
	comments store.Comments
	posts    *PostService
	policy   *Policy
	logger   *slog.Logger
	now      func() time.Time
}

func NewCommentService(comments store.Comments, posts *PostService, policy *Policy, logger *slog.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		policy:   policy,
		logger:   ResolveLogger(logger),
		now:      time.Now,
	}
}

func (s *CommentService) List(ctx context.Context) ([]models.Comment, error) {
	return s.comments.List(ctx)
}

func (s *CommentService) Get(ctx context.Context, id string) (*models.Comment, error) {
	if blank(id) {
		return nil, ErrCommentNotFound
	}
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// Create stores the comment and appends it to its post. The response is the
// parent post, not the comment.
func (s *CommentService) Create(ctx context.Context, actor *Actor, postID, content string) (*models.Post, error) {
	user, err := s.policy.RequireAuthenticated(ctx, actor)
	if err != nil {
		return nil, err
	}
	if blank(postID) {
		return nil, ErrMissingPostID
	}
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	if blank(content) {
		return nil, ErrMissingFields
	}

	comment := &models.Comment{
		OwnerID: user.ID,
		PostID:  postID,
		Content: content,
		Rating:  0,
	}
	if err := s.comments.Insert(ctx, comment); err != nil {
		return nil, err
	}

	post, err := s.posts.linkComment(ctx, postID, comment.ID, true)
	if err != nil {
		// the post went away between the check and the append
		if errors.Is(err, ErrPostNotFound) {
			if delErr := s.comments.Delete(ctx, comment.ID); delErr != nil && !errors.Is(delErr, store.ErrNotFound) {
				s.logger.Warn("orphan comment left behind",
					"event", "comment_orphaned",
					"module", "internal/services",
					"comment_id", comment.ID,
					"post_id", postID,
					"error", delErr.Error(),
				)
			}
		}
		return nil, err
	}
	return post, nil
}

func (s *CommentService) Update(ctx context.Context, actor *Actor, id, content string) (*models.Comment, error) {
	if _, err := s.policy.RequireAuthenticated(ctx, actor); err != nil {
		return nil, err
	}
	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.RequireOwnerOrAdmin(ctx, actor, comment.OwnerID); err != nil {
		return nil, err
	}
	if blank(content) {
		return nil, ErrMissingFields
	}

	comment.Content = content
	edited := s.now()
	comment.EditedAt = &edited
	if err := s.comments.Update(ctx, comment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// Delete unlinks the comment from its post before removing it. A missing
// parent is not an error.
func (s *CommentService) Delete(ctx context.Context, actor *Actor, id string) (*models.Comment, error) {
	if _, err := s.policy.RequireAuthenticated(ctx, actor); err != nil {
		return nil, err
	}
	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.RequireOwnerOrAdmin(ctx, actor, comment.OwnerID); err != nil {
		return nil, err
	}

	if _, err := s.posts.linkComment(ctx, comment.PostID, comment.ID, false); err != nil && !errors.Is(err, ErrPostNotFound) {
		return nil, err
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

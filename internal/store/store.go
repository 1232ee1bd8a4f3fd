// Package store is the persistence boundary for users, posts and comments.
//
// Two adapters implement it: Gorm (PostgreSQL or SQLite) and Mongo. Both work
// on the shared structs in internal/models and generate string UUID ids, so a
// caller cannot tell which backend it talks to.
package store

import (
	"context"
	"errors"

	"agora/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

type Users interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Insert(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type Posts interface {
	FindByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	Insert(ctx context.Context, post *models.Post) error
	// Update writes title, description, content and edited_at only. Rating and
	// the comment list have their own atomic operations.
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	// IncrementRating adds delta to the rating in a single atomic step and
	// returns the resulting value.
	IncrementRating(ctx context.Context, id string, delta int) (int, error)
	AddCommentRef(ctx context.Context, postID, commentID string) (*models.Post, error)
	RemoveCommentRef(ctx context.Context, postID, commentID string) (*models.Post, error)
}

type Comments interface {
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	List(ctx context.Context) ([]models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
	Insert(ctx context.Context, comment *models.Comment) error
	// Update writes content and edited_at only.
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

type Store interface {
	Users() Users
	Posts() Posts
	Comments() Comments
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func normalizePost(p *models.Post) {
	if p.Comments == nil {
		p.Comments = []string{}
	}
}

func normalizePosts(posts []models.Post) []models.Post {
	if posts == nil {
		return []models.Post{}
	}
	for i := range posts {
		normalizePost(&posts[i])
	}
	return posts
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

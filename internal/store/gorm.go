package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps users, posts and comments in one SQL database.
type GormStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewGorm(db *gorm.DB, logger *slog.Logger) *GormStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormStore{db: db, logger: logger}
}

// Migrate creates or updates the tables for all three collections.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
	)
}

func (s *GormStore) Users() Users       { return gormUsers{s} }
func (s *GormStore) Posts() Posts       { return gormPosts{s} }
func (s *GormStore) Comments() Comments { return gormComments{s} }

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "internal/store",
		"layer", "adapter",
		"driver", s.db.Dialector.Name(),
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	s.logger.Error("store operation failed", fields...)
	return err
}

// forUpdate row-locks the selected rows on PostgreSQL. SQLite serializes
// writers on its own and has no FOR UPDATE.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func newID() string {
	return uuid.NewString()
}

// ---- users

type gormUsers struct{ s *GormStore }

func (r gormUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, r.s.logError("store_user_find_failed", err, "user_id", id)
	}
	return &user, nil
}

func (r gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, r.s.logError("store_user_find_by_email_failed", err)
	}
	return &user, nil
}

func (r gormUsers) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, r.s.logError("store_user_list_failed", err)
	}
	return users, nil
}

func (r gormUsers) Insert(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if err := r.s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return r.s.logError("store_user_insert_failed", err, "user_id", user.ID)
	}
	return nil
}

func (r gormUsers) Delete(ctx context.Context, id string) error {
	res := r.s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return r.s.logError("store_user_delete_failed", res.Error, "user_id", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- posts

type gormPosts struct{ s *GormStore }

func (r gormPosts) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.s.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, r.s.logError("store_post_find_failed", err, "post_id", id)
	}
	normalizePost(&post)
	return &post, nil
}

func (r gormPosts) List(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := r.s.db.WithContext(ctx).Order("created_at ASC").Find(&posts).Error; err != nil {
		return nil, r.s.logError("store_post_list_failed", err)
	}
	return normalizePosts(posts), nil
}

func (r gormPosts) Insert(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = newID()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	normalizePost(post)
	if err := r.s.db.WithContext(ctx).Create(post).Error; err != nil {
		return r.s.logError("store_post_insert_failed", err, "post_id", post.ID)
	}
	return nil
}

func (r gormPosts) Update(ctx context.Context, post *models.Post) error {
	res := r.s.db.WithContext(ctx).
		Model(post).
		Select("title", "description", "content", "edited_at").
		Updates(post)
	if res.Error != nil {
		return r.s.logError("store_post_update_failed", res.Error, "post_id", post.ID)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r gormPosts) Delete(ctx context.Context, id string) error {
	res := r.s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		return r.s.logError("store_post_delete_failed", res.Error, "post_id", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r gormPosts) IncrementRating(ctx context.Context, id string, delta int) (int, error) {
	var post models.Post
	err := r.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Where("id = ?", id).
			UpdateColumn("rating", gorm.Expr("rating + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		// Same transaction: the row is still locked by the update above.
		return tx.Select("rating").Where("id = ?", id).First(&post).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, r.s.logError("store_post_rating_failed", err, "post_id", id, "delta", delta)
	}
	return post.Rating, nil
}

func (r gormPosts) AddCommentRef(ctx context.Context, postID, commentID string) (*models.Post, error) {
	return r.mutateComments(ctx, postID, "store_post_add_comment_failed", func(ids []string) []string {
		return append(ids, commentID)
	})
}

func (r gormPosts) RemoveCommentRef(ctx context.Context, postID, commentID string) (*models.Post, error) {
	return r.mutateComments(ctx, postID, "store_post_remove_comment_failed", func(ids []string) []string {
		return removeID(ids, commentID)
	})
}

func (r gormPosts) mutateComments(ctx context.Context, postID, event string, fn func([]string) []string) (*models.Post, error) {
	var post models.Post
	err := r.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("id = ?", postID).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		normalizePost(&post)
		post.Comments = fn(post.Comments)
		return tx.Model(&post).Select("comments").Updates(&post).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, r.s.logError(event, err, "post_id", postID)
	}
	return &post, nil
}

// ---- comments

type gormComments struct{ s *GormStore }

func (r gormComments) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.s.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, r.s.logError("store_comment_find_failed", err, "comment_id", id)
	}
	return &comment, nil
}

func (r gormComments) List(ctx context.Context) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := r.s.db.WithContext(ctx).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, r.s.logError("store_comment_list_failed", err)
	}
	return comments, nil
}

func (r gormComments) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := r.s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, r.s.logError("store_comment_list_by_post_failed", err, "post_id", postID)
	}
	return comments, nil
}

func (r gormComments) Insert(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = newID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	if err := r.s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return r.s.logError("store_comment_insert_failed", err, "comment_id", comment.ID)
	}
	return nil
}

func (r gormComments) Update(ctx context.Context, comment *models.Comment) error {
	res := r.s.db.WithContext(ctx).
		Model(comment).
		Select("content", "edited_at").
		Updates(comment)
	if res.Error != nil {
		return r.s.logError("store_comment_update_failed", res.Error, "comment_id", comment.ID)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r gormComments) Delete(ctx context.Context, id string) error {
	res := r.s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return r.s.logError("store_comment_delete_failed", res.Error, "comment_id", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r gormComments) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{})
	if res.Error != nil {
		return 0, r.s.logError("store_comment_delete_many_failed", res.Error, "count", len(ids))
	}
	return res.RowsAffected, nil
}

var _ Store = (*GormStore)(nil)

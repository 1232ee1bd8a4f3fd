package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"agora/internal/models"
	"agora/internal/store"
	"agora/internal/utils"
)

const (
	lightCacheKey  = "posts:light"
	lightCacheTTL  = time.Minute
	lightCacheSize = 16
)

// PostSummary is the light projection: no content, no comment ids.
type PostSummary struct {
	ID          string     `json:"_id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Rating      int        `json:"rating"`
	CreatedAt   time.Time  `json:"created_at"`
	EditedAt    *time.Time `json:"edited_at"`
}

type PostInput struct {
	Title       string
	Description string
	Content     string
}

// PostPatch holds optional replacements; empty strings are left untouched.
type PostPatch struct {
	Title       string
	Description string
	Content     string
}

func (p PostPatch) empty() bool {
	return blank(p.Title) && blank(p.Description) && blank(p.Content)
}

// Rating is the vote response body.
type Rating struct {
	Rating int `json:"rating"`
}

type PostService struct {
	posts    store.Posts
	comments store.Comments
	policy   *Policy
	cache    *utils.Cache[[]PostSummary]
	// cacheMu orders cache fills against invalidations; cacheGen counts the
	// invalidations so a fill that read the store before a write is dropped.
	cacheMu  sync.Mutex
	cacheGen uint64
	logger   *slog.Logger
	now      func() time.Time
}

func NewPostService(posts store.Posts, comments store.Comments, policy *Policy, logger *slog.Logger) *PostService {
	cache, err := utils.NewCache[[]PostSummary](lightCacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &PostService{
		posts:    posts,
		comments: comments,
		policy:   policy,
		cache:    cache,
		logger:   ResolveLogger(logger),
		now:      time.Now,
	}
}

func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	return s.posts.List(ctx)
}

func (s *PostService) ListLight(ctx context.Context) ([]PostSummary, error) {
	if cached, ok := s.cache.Get(lightCacheKey); ok {
		return cached, nil
	}
	s.cacheMu.Lock()
	gen := s.cacheGen
	s.cacheMu.Unlock()

	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	light := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		light = append(light, PostSummary{
			ID:          p.ID,
			OwnerID:     p.OwnerID,
			Title:       p.Title,
			Description: p.Description,
			Rating:      p.Rating,
			CreatedAt:   p.CreatedAt,
			EditedAt:    p.EditedAt,
		})
	}

	s.cacheMu.Lock()
	if s.cacheGen == gen {
		s.cache.Set(lightCacheKey, light, lightCacheTTL)
	}
	s.cacheMu.Unlock()
	return light, nil
}

func (s *PostService) Create(ctx context.Context, actor *Actor, in PostInput) (*models.Post, error) {
	user, err := s.policy.RequireAuthenticated(ctx, actor)
	if err != nil {
		return nil, err
	}
	if blank(in.Title) || blank(in.Description) || blank(in.Content) {
		return nil, ErrMissingFields
	}

	post := &models.Post{
		OwnerID:     user.ID,
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Rating:      0,
		Comments:    []string{},
		EditedAt:    nil,
	}
	if err := s.posts.Insert(ctx, post); err != nil {
		return nil, err
	}
	s.invalidate()
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	if blank(id) {
		return nil, ErrPostNotFound
	}
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, actor *Actor, id string, patch PostPatch) (*models.Post, error) {
	if _, err := s.policy.RequireAuthenticated(ctx, actor); err != nil {
		return nil, err
	}
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.RequireOwnerOrAdmin(ctx, actor, post.OwnerID); err != nil {
		return nil, err
	}
	if patch.empty() {
		return nil, ErrEmptyPatch
	}

	if !blank(patch.Title) {
		post.Title = patch.Title
	}
	if !blank(patch.Description) {
		post.Description = patch.Description
	}
	if !blank(patch.Content) {
		post.Content = patch.Content
	}
	edited := s.now()
	post.EditedAt = &edited

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	s.invalidate()
	return post, nil
}

// Delete removes the post's comments first and the post last, so a failure
// part way never leaves comments pointing at a post that is already gone.
func (s *PostService) Delete(ctx context.Context, actor *Actor, id string) (*models.Post, error) {
	if _, err := s.policy.RequireAuthenticated(ctx, actor); err != nil {
		return nil, err
	}
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.RequireOwnerOrAdmin(ctx, actor, post.OwnerID); err != nil {
		return nil, err
	}

	ids, err := s.commentIDs(ctx, post)
	if err != nil {
		return nil, err
	}
	removed, err := s.comments.DeleteMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	s.invalidate()

	s.logger.Info("post deleted",
		"event", "post_deleted",
		"module", "internal/services",
		"post_id", post.ID,
		"actor_id", actor.ID,
		"comments_removed", removed,
	)
	return post, nil
}

// commentIDs is the post's own list plus any comment that names the post as
// parent but never made it into the list (a lost concurrent append).
func (s *PostService) commentIDs(ctx context.Context, post *models.Post) ([]string, error) {
	seen := make(map[string]bool, len(post.Comments))
	ids := make([]string, 0, len(post.Comments))
	for _, id := range post.Comments {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	children, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if !seen[c.ID] {
			seen[c.ID] = true
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (s *PostService) Upvote(ctx context.Context, actor *Actor, id string) (*Rating, error) {
	return s.vote(ctx, actor, id, 1)
}

func (s *PostService) Downvote(ctx context.Context, actor *Actor, id string) (*Rating, error) {
	return s.vote(ctx, actor, id, -1)
}

// vote applies delta atomically in the store. Any authenticated user may vote
// any number of times.
func (s *PostService) vote(ctx context.Context, actor *Actor, id string, delta int) (*Rating, error) {
	if _, err := s.policy.RequireAuthenticated(ctx, actor); err != nil {
		return nil, err
	}
	if blank(id) {
		return nil, ErrPostNotFound
	}
	rating, err := s.posts.IncrementRating(ctx, id, delta)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	s.invalidate()
	return &Rating{Rating: rating}, nil
}

// linkComment is the only place a post's comment list is changed.
func (s *PostService) linkComment(ctx context.Context, postID, commentID string, attach bool) (*models.Post, error) {
	var (
		post *models.Post
		err  error
	)
	if attach {
		post, err = s.posts.AddCommentRef(ctx, postID, commentID)
	} else {
		post, err = s.posts.RemoveCommentRef(ctx, postID, commentID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	s.invalidate()
	return post, nil
}

func (s *PostService) invalidate() {
	s.cacheMu.Lock()
	s.cacheGen++
	s.cache.Delete(lightCacheKey)
	s.cacheMu.Unlock()
}

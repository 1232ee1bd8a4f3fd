package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agora/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	postsCollection    = "posts"
	commentsCollection = "comments"
)

// MongoStore keeps each resource in its own collection. Single-document
// updates ($inc, $push, $pull) are atomic; nothing spans documents.
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	posts    *mongo.Collection
	comments *mongo.Collection
	logger   *slog.Logger
}

func NewMongo(client *mongo.Client, database string, logger *slog.Logger) *MongoStore {
	if logger == nil {
		logger = slog.Default()
	}
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		users:    db.Collection(usersCollection),
		posts:    db.Collection(postsCollection),
		comments: db.Collection(commentsCollection),
		logger:   logger,
	}
}

// EnsureIndexes creates the unique email index and the post_id lookup index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return s.logError("store_users_index_failed", err)
	}
	if _, err := s.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post_id", Value: 1}},
	}); err != nil {
		return s.logError("store_comments_index_failed", err)
	}
	return nil
}

func (s *MongoStore) Users() Users       { return mongoUsers{s} }
func (s *MongoStore) Posts() Posts       { return mongoPosts{s} }
func (s *MongoStore) Comments() Comments { return mongoComments{s} }

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "internal/store",
		"layer", "adapter",
		"driver", "mongodb",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	s.logger.Error("store operation failed", fields...)
	return err
}

func byID(id string) bson.M {
	return bson.M{"_id": id}
}

// ---- users

type mongoUsers struct{ s *MongoStore }

func (r mongoUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, byID(id), "store_user_find_failed")
}

func (r mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, "store_user_find_by_email_failed")
}

func (r mongoUsers) findOne(ctx context.Context, filter bson.M, event string) (*models.User, error) {
	var user models.User
	if err := r.s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, r.s.logError(event, err)
	}
	return &user, nil
}

func (r mongoUsers) List(ctx context.Context) ([]models.User, error) {
	cur, err := r.s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, r.s.logError("store_user_list_failed", err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, r.s.logError("store_user_list_decode_failed", err)
	}
	return users, nil
}

func (r mongoUsers) Insert(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if _, err := r.s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return r.s.logError("store_user_insert_failed", err, "user_id", user.ID)
	}
	return nil
}

func (r mongoUsers) Delete(ctx context.Context, id string) error {
	res, err := r.s.users.DeleteOne(ctx, byID(id))
	if err != nil {
		return r.s.logError("store_user_delete_failed", err, "user_id", id)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- posts

type mongoPosts struct{ s *MongoStore }

func (r mongoPosts) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.s.posts.FindOne(ctx, byID(id)).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, r.s.logError("store_post_find_failed", err, "post_id", id)
	}
	normalizePost(&post)
	return &post, nil
}

func (r mongoPosts) List(ctx context.Context) ([]models.Post, error) {
	cur, err := r.s.posts.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, r.s.logError("store_post_list_failed", err)
	}
	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, r.s.logError("store_post_list_decode_failed", err)
	}
	return normalizePosts(posts), nil
}

func (r mongoPosts) Insert(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = newID()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	normalizePost(post)
	if _, err := r.s.posts.InsertOne(ctx, post); err != nil {
		return r.s.logError("store_post_insert_failed", err, "post_id", post.ID)
	}
	return nil
}

func (r mongoPosts) Update(ctx context.Context, post *models.Post) error {
	res, err := r.s.posts.UpdateOne(ctx, byID(post.ID), bson.M{"$set": bson.M{
		"title":       post.Title,
		"description": post.Description,
		"content":     post.Content,
		"edited_at":   post.EditedAt,
	}})
	if err != nil {
		return r.s.logError("store_post_update_failed", err, "post_id", post.ID)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r mongoPosts) Delete(ctx context.Context, id string) error {
	res, err := r.s.posts.DeleteOne(ctx, byID(id))
	if err != nil {
		return r.s.logError("store_post_delete_failed", err, "post_id", id)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r mongoPosts) IncrementRating(ctx context.Context, id string, delta int) (int, error) {
	post, err := r.findOneAndUpdate(ctx, id, bson.M{"$inc": bson.M{"rating": delta}}, "store_post_rating_failed")
	if err != nil {
		return 0, err
	}
	return post.Rating, nil
}

func (r mongoPosts) AddCommentRef(ctx context.Context, postID, commentID string) (*models.Post, error) {
	return r.findOneAndUpdate(ctx, postID, bson.M{"$push": bson.M{"comments": commentID}}, "store_post_add_comment_failed")
}

func (r mongoPosts) RemoveCommentRef(ctx context.Context, postID, commentID string) (*models.Post, error) {
	return r.findOneAndUpdate(ctx, postID, bson.M{"$pull": bson.M{"comments": commentID}}, "store_post_remove_comment_failed")
}

func (r mongoPosts) findOneAndUpdate(ctx context.Context, id string, update bson.M, event string) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	if err := r.s.posts.FindOneAndUpdate(ctx, byID(id), update, opts).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, r.s.logError(event, err, "post_id", id)
	}
	normalizePost(&post)
	return &post, nil
}

// ---- comments

type mongoComments struct{ s *MongoStore }

func (r mongoComments) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.s.comments.FindOne(ctx, byID(id)).Decode(&comment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, r.s.logError("store_comment_find_failed", err, "comment_id", id)
	}
	return &comment, nil
}

func (r mongoComments) List(ctx context.Context) ([]models.Comment, error) {
	return r.find(ctx, bson.M{}, "store_comment_list_failed")
}

func (r mongoComments) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	return r.find(ctx, bson.M{"post_id": postID}, "store_comment_list_by_post_failed")
}

func (r mongoComments) find(ctx context.Context, filter bson.M, event string) ([]models.Comment, error) {
	cur, err := r.s.comments.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, r.s.logError(event, err)
	}
	comments := []models.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, r.s.logError(event, err)
	}
	return comments, nil
}

func (r mongoComments) Insert(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = newID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	if _, err := r.s.comments.InsertOne(ctx, comment); err != nil {
		return r.s.logError("store_comment_insert_failed", err, "comment_id", comment.ID)
	}
	return nil
}

func (r mongoComments) Update(ctx context.Context, comment *models.Comment) error {
	res, err := r.s.comments.UpdateOne(ctx, byID(comment.ID), bson.M{"$set": bson.M{
		"content":   comment.Content,
		"edited_at": comment.EditedAt,
	}})
	if err != nil {
		return r.s.logError("store_comment_update_failed", err, "comment_id", comment.ID)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r mongoComments) Delete(ctx context.Context, id string) error {
	res, err := r.s.comments.DeleteOne(ctx, byID(id))
	if err != nil {
		return r.s.logError("store_comment_delete_failed", err, "comment_id", id)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r mongoComments) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.s.comments.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, r.s.logError("store_comment_delete_many_failed", err, "count", len(ids))
	}
	return res.DeletedCount, nil
}

var _ Store = (*MongoStore)(nil)

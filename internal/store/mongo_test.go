package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"agora/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const mockDB = "agora"

func newMockStore(mt *mtest.T) *MongoStore {
	return NewMongo(mt.Client, mockDB, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMongoPosts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("find missing maps to ErrNotFound", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockDB+".posts", mtest.FirstBatch))

		if _, err := st.Posts().FindByID(ctx, "p1"); !errors.Is(err, ErrNotFound) {
			mt.Errorf("FindByID missing: got %v, want ErrNotFound", err)
		}
	})

	mt.Run("find normalizes a document without comments", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockDB+".posts", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "p1"},
			{Key: "title", Value: "Hello"},
			{Key: "rating", Value: 2},
		}))

		post, err := st.Posts().FindByID(ctx, "p1")
		if err != nil {
			mt.Fatalf("FindByID failed: %v", err)
		}
		if post.Title != "Hello" || post.Rating != 2 {
			mt.Errorf("unexpected post: %+v", post)
		}
		if post.Comments == nil || len(post.Comments) != 0 {
			mt.Errorf("comments = %#v, want empty list", post.Comments)
		}
	})

	mt.Run("list normalizes every document", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockDB+".posts", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "p1"}},
			bson.D{{Key: "_id", Value: "p2"}, {Key: "comments", Value: bson.A{"c1"}}},
		))

		posts, err := st.Posts().List(ctx)
		if err != nil {
			mt.Fatalf("List failed: %v", err)
		}
		if len(posts) != 2 {
			mt.Fatalf("expected 2 posts, got %d", len(posts))
		}
		if posts[0].Comments == nil || len(posts[1].Comments) != 1 {
			mt.Errorf("unexpected comments: %#v / %#v", posts[0].Comments, posts[1].Comments)
		}
	})

	mt.Run("list of an empty collection is an empty slice", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockDB+".posts", mtest.FirstBatch))

		posts, err := st.Posts().List(ctx)
		if err != nil || posts == nil || len(posts) != 0 {
			mt.Errorf("List on empty collection: %#v, %v", posts, err)
		}
	})

	mt.Run("rating on missing post maps to ErrNotFound", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		if _, err := st.Posts().IncrementRating(ctx, "p1", 1); !errors.Is(err, ErrNotFound) {
			mt.Errorf("IncrementRating missing: got %v, want ErrNotFound", err)
		}
	})

	mt.Run("rating returns the updated value", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "p1"},
			{Key: "rating", Value: 3},
		}}))

		rating, err := st.Posts().IncrementRating(ctx, "p1", 1)
		if err != nil || rating != 3 {
			mt.Errorf("IncrementRating = %d, %v; want 3", rating, err)
		}
	})

	mt.Run("comment ref append normalizes the returned post", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "p1"},
		}}))

		post, err := st.Posts().AddCommentRef(ctx, "p1", "c1")
		if err != nil {
			mt.Fatalf("AddCommentRef failed: %v", err)
		}
		if post.Comments == nil {
			mt.Error("comments should be an empty list, not nil")
		}
	})

	mt.Run("comment ref removal on missing post maps to ErrNotFound", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		if _, err := st.Posts().RemoveCommentRef(ctx, "p1", "c1"); !errors.Is(err, ErrNotFound) {
			mt.Errorf("RemoveCommentRef missing: got %v, want ErrNotFound", err)
		}
	})

	mt.Run("update with no match maps to ErrNotFound", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		if err := st.Posts().Update(ctx, &models.Post{ID: "p1", Title: "t"}); !errors.Is(err, ErrNotFound) {
			mt.Errorf("Update missing: got %v, want ErrNotFound", err)
		}
	})

	mt.Run("delete with no match maps to ErrNotFound", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := st.Posts().Delete(ctx, "p1"); !errors.Is(err, ErrNotFound) {
			mt.Errorf("Delete missing: got %v, want ErrNotFound", err)
		}
	})
}

func TestMongoUsers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("duplicate email maps to ErrDuplicate", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: agora.users index: email_1",
		}))

		user := &models.User{Name: "alice", Email: "alice@example.com", Password: "hash"}
		if err := st.Users().Insert(ctx, user); !errors.Is(err, ErrDuplicate) {
			mt.Errorf("Insert duplicate: got %v, want ErrDuplicate", err)
		}
		if user.ID == "" || user.CreatedAt.IsZero() {
			mt.Errorf("Insert should assign id and timestamp: %+v", user)
		}
	})

	mt.Run("insert succeeds", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := st.Users().Insert(ctx, &models.User{Name: "bob", Email: "bob@example.com"}); err != nil {
			mt.Errorf("Insert failed: %v", err)
		}
	})

	mt.Run("find by email missing maps to ErrNotFound", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockDB+".users", mtest.FirstBatch))

		if _, err := st.Users().FindByEmail(ctx, "ghost@example.com"); !errors.Is(err, ErrNotFound) {
			mt.Errorf("FindByEmail missing: got %v, want ErrNotFound", err)
		}
	})

	mt.Run("delete with no match maps to ErrNotFound", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := st.Users().Delete(ctx, "u1"); !errors.Is(err, ErrNotFound) {
			mt.Errorf("Delete missing: got %v, want ErrNotFound", err)
		}
	})
}

func TestMongoComments(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("find missing maps to ErrNotFound", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockDB+".comments", mtest.FirstBatch))

		if _, err := st.Comments().FindByID(ctx, "c1"); !errors.Is(err, ErrNotFound) {
			mt.Errorf("FindByID missing: got %v, want ErrNotFound", err)
		}
	})

	mt.Run("delete many skips the round trip for no ids", func(mt *mtest.T) {
		st := newMockStore(mt)

		n, err := st.Comments().DeleteMany(ctx, nil)
		if err != nil || n != 0 {
			mt.Errorf("DeleteMany(nil) = %d, %v", n, err)
		}
	})

	mt.Run("delete many reports the removed count", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		n, err := st.Comments().DeleteMany(ctx, []string{"c1", "c2", "c3"})
		if err != nil || n != 2 {
			mt.Errorf("DeleteMany = %d, %v; want 2", n, err)
		}
	})

	mt.Run("update with no match maps to ErrNotFound", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		if err := st.Comments().Update(ctx, &models.Comment{ID: "c1", Content: "x"}); !errors.Is(err, ErrNotFound) {
			mt.Errorf("Update missing: got %v, want ErrNotFound", err)
		}
	})
}

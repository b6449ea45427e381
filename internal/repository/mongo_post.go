package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"postboard/internal/model"
)

const postsCollection = "posts"

// mongoPostRepository stores posts as single documents with embedded likes and
// comments. Each mutation is one atomic update operator, so no locking is needed.
type mongoPostRepository struct {
	coll *mongo.Collection
}

// NewMongoPostRepository creates a post repository over the "posts" collection.
func NewMongoPostRepository(db *mongo.Database) PostRepository {
	return &mongoPostRepository{coll: db.Collection(postsCollection)}
}

// EnsureMongoPostIndexes indexes posts by author for the per-user listings.
func EnsureMongoPostIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(postsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create post indexes: %w", err)
	}
	return nil
}

func (r *mongoPostRepository) Create(ctx context.Context, post *model.Post) error {
	post.ID = bson.NewObjectID().Hex()
	post.Normalize()
	if _, err := r.coll.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *mongoPostRepository) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	var post model.Post
	err := r.coll.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	post.Normalize()
	return &post, nil
}

func (r *mongoPostRepository) List(ctx context.Context) ([]model.Post, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoPostRepository) ListByUser(ctx context.Context, userID string) ([]model.Post, error) {
	return r.find(ctx, bson.M{"user": userID})
}

// find returns matching posts in insertion order. Hex ObjectIDs start with the
// creation timestamp, so sorting on _id follows insertion.
func (r *mongoPostRepository) find(ctx context.Context, filter bson.M) ([]model.Post, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts := []model.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	for i := range posts {
		posts[i].Normalize()
	}
	return posts, nil
}

// AddLike pushes the like to the front of the list only when the user has not
// liked the post yet. The duplicate check and the write are one operation.
func (r *mongoPostRepository) AddLike(ctx context.Context, postID string, like model.Like) (*model.Post, error) {
	if like.ID == "" {
		like.ID = bson.NewObjectID().Hex()
	}

	filter := bson.M{"_id": postID, "likes.user": bson.M{"$ne": like.User}}
	update := bson.M{"$push": bson.M{"likes": prepend(like)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post model.Post
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if ok, existsErr := r.exists(ctx, postID); existsErr != nil {
			return nil, existsErr
		} else if !ok {
			return nil, model.ErrPostNotFound
		}
		return nil, model.ErrAlreadyLiked
	}
	if err != nil {
		return nil, fmt.Errorf("like post: %w", err)
	}
	post.Normalize()
	return &post, nil
}

func (r *mongoPostRepository) AddComment(ctx context.Context, postID string, comment model.Comment) (*model.Comment, error) {
	if comment.ID == "" {
		comment.ID = bson.NewObjectID().Hex()
	}
	if comment.Likes == nil {
		comment.Likes = []model.Like{}
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": prepend(comment)}},
	)
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, model.ErrPostNotFound
	}
	return &comment, nil
}

// AddCommentLike pushes onto the matched comment through the positional operator.
func (r *mongoPostRepository) AddCommentLike(ctx context.Context, postID, commentID string, like model.Like) error {
	if like.ID == "" {
		like.ID = bson.NewObjectID().Hex()
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": postID, "comments._id": commentID},
		bson.M{"$push": bson.M{"comments.$.likes": prepend(like)}},
	)
	if err != nil {
		return fmt.Errorf("like comment: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	ok, err := r.exists(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrPostNotFound
	}
	return model.ErrCommentNotFound
}

func (r *mongoPostRepository) exists(ctx context.Context, postID string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": postID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count post: %w", err)
	}
	return n > 0, nil
}

// prepend builds a $push modifier that inserts v at the head of the array.
func prepend(v any) bson.M {
	return bson.M{"$each": []any{v}, "$position": 0}
}

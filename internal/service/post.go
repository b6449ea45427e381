package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"postboard/internal/model"
	"postboard/internal/queue"
	"postboard/internal/repository"
	"postboard/internal/validation"
)

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	activity *queue.Activity
	now      func() time.Time
}

// NewPostService wires the post and user stores. activity may be nil.
func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	activity *queue.Activity,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		activity: activity,
		now:      time.Now,
	}
}

// Create stores a post by userID. The author's first name and avatar are
// copied into the post as they are now.
func (s *PostService) Create(ctx context.Context, userID string, req *model.CreatePostRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	post := &model.Post{
		User:       user.ID,
		FirstName:  user.FirstName,
		Avatar:     user.Avatar,
		Date:       s.now(),
		TextOfPost: req.TextOfPost,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	log.Printf("[PostService] created post=%s user=%s", post.ID, userID)
	s.activity.Emit(ctx, queue.NewPostCreatedEvent(post.ID, userID))
	return nil
}

// List returns every post in insertion order.
func (s *PostService) List(ctx context.Context) ([]model.Post, error) {
	return s.postRepo.List(ctx)
}

// ListSorted returns every post ordered by one of the Sort* keys. Ties keep
// insertion order.
func (s *PostService) ListSorted(ctx context.Context, order string) ([]model.Post, error) {
	less, ok := postOrderings[order]
	if !ok {
		return nil, fmt.Errorf("unknown post ordering %q", order)
	}

	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool { return less(&posts[i], &posts[j]) })
	return posts, nil
}

var postOrderings = map[string]func(a, b *model.Post) bool{
	model.SortMostRecent:    func(a, b *model.Post) bool { return a.Date.After(b.Date) },
	model.SortMostLiked:     func(a, b *model.Post) bool { return len(a.Likes) > len(b.Likes) },
	model.SortMostCommented: func(a, b *model.Post) bool { return len(a.Comments) > len(b.Comments) },
}

func (s *PostService) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

// ListByUser returns the posts written by userID.
func (s *PostService) ListByUser(ctx context.Context, userID string) ([]model.Post, error) {
	return s.postRepo.ListByUser(ctx, userID)
}

// Search returns the posts whose text equals the query once both are
// lower-cased and stripped of spaces.
func (s *PostService) Search(ctx context.Context, req *model.SearchPostRequest) ([]model.Post, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	query := normalizeSearch(req.SearchInput)
	matches := []model.Post{}
	for _, p := range posts {
		if normalizeSearch(p.TextOfPost) == query {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Like adds userID to the post's likes and returns the updated post.
// A second like from the same user fails with ErrAlreadyLiked.
func (s *PostService) Like(ctx context.Context, userID, postID string) (*model.Post, error) {
	post, err := s.postRepo.AddLike(ctx, postID, model.Like{User: userID})
	if err != nil {
		return nil, err
	}

	s.activity.Emit(ctx, queue.NewPostLikedEvent(postID, userID))
	return post, nil
}

// AddComment puts a comment by userID at the head of the post's comments.
func (s *PostService) AddComment(ctx context.Context, userID, postID string, req *model.AddCommentRequest) (*model.Comment, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var (
		user *model.User
		post *model.Post
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.userRepo.GetByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		post, err = s.postRepo.GetByID(gctx, postID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	comment, err := s.postRepo.AddComment(ctx, post.ID, model.Comment{
		User:          user.ID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Avatar:        user.Avatar,
		Date:          s.now(),
		TextOfComment: req.TextOfComment,
	})
	if err != nil {
		return nil, err
	}

	s.activity.Emit(ctx, queue.NewCommentAddedEvent(postID, comment.ID, userID))
	return comment, nil
}

// LikeComment adds userID to a comment's likes. Unlike post likes, repeated
// likes from the same user are all kept.
func (s *PostService) LikeComment(ctx context.Context, userID, postID, commentID string) error {
	if err := s.postRepo.AddCommentLike(ctx, postID, commentID, model.Like{User: userID}); err != nil {
		return err
	}

	s.activity.Emit(ctx, queue.NewCommentLikedEvent(postID, commentID, userID))
	return nil
}

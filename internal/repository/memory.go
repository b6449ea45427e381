package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"postboard/internal/model"
)

// MemoryStore keeps users and posts in process memory. It backs STORE_DRIVER=memory
// and the handler tests. A single RWMutex guards both collections; every read
// returns copies so callers cannot modify stored documents.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]model.User
	userOrder []string
	posts     map[string]model.Post
	postOrder []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]model.User),
		posts: make(map[string]model.Post),
	}
}

// Users returns the store's UserRepository view.
func (m *MemoryStore) Users() UserRepository {
	return memoryUsers{m}
}

// Posts returns the store's PostRepository view.
func (m *MemoryStore) Posts() PostRepository {
	return memoryPosts{m}
}

type memoryUsers struct{ m *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *model.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if err := r.m.checkUniqueLocked(user); err != nil {
		return err
	}
	user.ID = uuid.NewString()
	r.m.users[user.ID] = *user
	r.m.userOrder = append(r.m.userOrder, user.ID)
	return nil
}

func (r memoryUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	u, ok := r.m.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r memoryUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r memoryUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.UserName == username })
}

func (r memoryUsers) find(match func(*model.User) bool) (*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, id := range r.m.userOrder {
		u := r.m.users[id]
		if match(&u) {
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r memoryUsers) List(ctx context.Context) ([]model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	users := make([]model.User, 0, len(r.m.userOrder))
	for _, id := range r.m.userOrder {
		users = append(users, r.m.users[id])
	}
	return users, nil
}

// memoryUserFields are the setters UpdateField applies.
var memoryUserFields = map[string]func(*model.User, string){
	model.FieldFirstName: func(u *model.User, v string) { u.FirstName = v },
	model.FieldLastName:  func(u *model.User, v string) { u.LastName = v },
	model.FieldUserName:  func(u *model.User, v string) { u.UserName = v },
	model.FieldEmail:     func(u *model.User, v string) { u.Email = v },
	model.FieldAvatar:    func(u *model.User, v string) { u.Avatar = v },
	model.FieldPassword:  func(u *model.User, v string) { u.Password = v },
}

func (r memoryUsers) UpdateField(ctx context.Context, id, field, value string) error {
	set, ok := memoryUserFields[field]
	if !ok {
		return fmt.Errorf("unknown user field %q", field)
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	set(&u, value)
	if err := r.m.checkUniqueLocked(&u); err != nil {
		return err
	}
	r.m.users[id] = u
	return nil
}

// checkUniqueLocked mirrors the unique indexes on email and userName.
func (m *MemoryStore) checkUniqueLocked(user *model.User) error {
	for id, other := range m.users {
		if id == user.ID {
			continue
		}
		if other.Email == user.Email {
			return model.ErrEmailTaken
		}
		if other.UserName == user.UserName {
			return model.ErrUsernameTaken
		}
	}
	return nil
}

type memoryPosts struct{ m *MemoryStore }

func (r memoryPosts) Create(ctx context.Context, post *model.Post) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	post.ID = uuid.NewString()
	post.Normalize()
	r.m.posts[post.ID] = clonePost(*post)
	r.m.postOrder = append(r.m.postOrder, post.ID)
	return nil
}

func (r memoryPosts) GetByID(ctx context.Context, id string) (*model.Post, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	p, ok := r.m.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	out := clonePost(p)
	return &out, nil
}

func (r memoryPosts) List(ctx context.Context) ([]model.Post, error) {
	return r.filter(func(*model.Post) bool { return true }), nil
}

func (r memoryPosts) ListByUser(ctx context.Context, userID string) ([]model.Post, error) {
	return r.filter(func(p *model.Post) bool { return p.User == userID }), nil
}

func (r memoryPosts) filter(match func(*model.Post) bool) []model.Post {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	posts := []model.Post{}
	for _, id := range r.m.postOrder {
		p := r.m.posts[id]
		if match(&p) {
			posts = append(posts, clonePost(p))
		}
	}
	return posts
}

func (r memoryPosts) AddLike(ctx context.Context, postID string, like model.Like) (*model.Post, error) {
	return r.mutate(postID, func(p *model.Post) error {
		return prependLike(p, like)
	})
}

func (r memoryPosts) AddComment(ctx context.Context, postID string, comment model.Comment) (*model.Comment, error) {
	var added model.Comment
	_, err := r.mutate(postID, func(p *model.Post) error {
		added = prependComment(p, comment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

func (r memoryPosts) AddCommentLike(ctx context.Context, postID, commentID string, like model.Like) error {
	_, err := r.mutate(postID, func(p *model.Post) error {
		return prependCommentLike(p, commentID, like)
	})
	return err
}

func (r memoryPosts) mutate(postID string, fn func(*model.Post) error) (*model.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stored, ok := r.m.posts[postID]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	p := clonePost(stored)
	if err := fn(&p); err != nil {
		return nil, err
	}
	r.m.posts[postID] = p

	out := clonePost(p)
	return &out, nil
}

// clonePost copies the post's slices so stored and returned documents never share memory.
func clonePost(p model.Post) model.Post {
	p.Likes = append([]model.Like{}, p.Likes...)
	comments := make([]model.Comment, len(p.Comments))
	for i, c := range p.Comments {
		c.Likes = append([]model.Like{}, c.Likes...)
		comments[i] = c
	}
	p.Comments = comments
	return p
}

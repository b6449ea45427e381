package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"postboard/internal/model"
)

func newTestUser(userName, email string) *model.User {
	return &model.User{
		FirstName: "Ada",
		LastName:  "Lovelace",
		UserName:  userName,
		Email:     email,
		Date:      time.Now(),
	}
}

func TestMemoryUsers_CreateAndLookup(t *testing.T) {
	users := NewMemoryStore().Users()
	ctx := context.Background()

	u := newTestUser("ada", "ada@example.com")
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected Create to assign an ID")
	}

	byID, err := users.GetByID(ctx, u.ID)
	if err != nil || byID.UserName != "ada" {
		t.Fatalf("GetByID = %v, %v", byID, err)
	}
	byEmail, err := users.GetByEmail(ctx, "ada@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("GetByEmail = %v, %v", byEmail, err)
	}
	byName, err := users.GetByUsername(ctx, "ada")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("GetByUsername = %v, %v", byName, err)
	}

	if _, err := users.GetByID(ctx, "missing"); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("GetByID(missing) error = %v, want %v", err, model.ErrUserNotFound)
	}
}

func TestMemoryUsers_Uniqueness(t *testing.T) {
	users := NewMemoryStore().Users()
	ctx := context.Background()

	if err := users.Create(ctx, newTestUser("ada", "ada@example.com")); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name    string
		user    *model.User
		wantErr error
	}{
		{"duplicate email", newTestUser("other", "ada@example.com"), model.ErrEmailTaken},
		{"duplicate username", newTestUser("ada", "other@example.com"), model.ErrUsernameTaken},
		{"unique", newTestUser("grace", "grace@example.com"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.Create(ctx, tt.user)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMemoryUsers_UpdateField(t *testing.T) {
	users := NewMemoryStore().Users()
	ctx := context.Background()

	ada := newTestUser("ada", "ada@example.com")
	grace := newTestUser("grace", "grace@example.com")
	_ = users.Create(ctx, ada)
	_ = users.Create(ctx, grace)

	if err := users.UpdateField(ctx, ada.ID, model.FieldFirstName, "Augusta"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := users.UpdateField(ctx, ada.ID, model.FieldAvatar, "a.jpg"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := users.GetByID(ctx, ada.ID)
	if got.FirstName != "Augusta" || got.Avatar != "a.jpg" || got.LastName != "Lovelace" {
		t.Errorf("user = %+v", got)
	}

	tests := []struct {
		name    string
		id      string
		field   string
		value   string
		wantErr error
	}{
		{"taken username", ada.ID, model.FieldUserName, "grace", model.ErrUsernameTaken},
		{"taken email", ada.ID, model.FieldEmail, "grace@example.com", model.ErrEmailTaken},
		{"missing user", "missing", model.FieldLastName, "x", model.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := users.UpdateField(ctx, tt.id, tt.field, tt.value); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if err := users.UpdateField(ctx, ada.ID, "_id", "x"); err == nil {
		t.Error("expected an error for an unknown field")
	}

	got, _ = users.GetByID(ctx, ada.ID)
	if got.UserName != "ada" || got.Email != "ada@example.com" {
		t.Errorf("rejected updates were stored: %+v", got)
	}
}

func TestMemoryPosts_ListOrderAndIsolation(t *testing.T) {
	posts := NewMemoryStore().Posts()
	ctx := context.Background()

	first := &model.Post{User: "u1", TextOfPost: "first", Date: time.Now()}
	second := &model.Post{User: "u2", TextOfPost: "second", Date: time.Now()}
	_ = posts.Create(ctx, first)
	_ = posts.Create(ctx, second)

	all, err := posts.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != first.ID || all[1].ID != second.ID {
		t.Fatalf("List order = %+v", all)
	}
	if all[0].Likes == nil || all[0].Comments == nil {
		t.Error("expected empty collections, got nil")
	}

	// Mutating a returned copy must not reach the store.
	all[0].TextOfPost = "changed"
	again, _ := posts.GetByID(ctx, first.ID)
	if again.TextOfPost != "first" {
		t.Errorf("stored post was modified through a returned copy")
	}

	mine, _ := posts.ListByUser(ctx, "u2")
	if len(mine) != 1 || mine[0].ID != second.ID {
		t.Errorf("ListByUser = %+v", mine)
	}
	none, _ := posts.ListByUser(ctx, "nobody")
	if none == nil || len(none) != 0 {
		t.Errorf("ListByUser(nobody) = %#v, want empty slice", none)
	}
}

func TestMemoryPosts_AddLike(t *testing.T) {
	posts := NewMemoryStore().Posts()
	ctx := context.Background()

	post := &model.Post{User: "author", TextOfPost: "hello"}
	_ = posts.Create(ctx, post)

	updated, err := posts.AddLike(ctx, post.ID, model.Like{User: "u1"})
	if err != nil {
		t.Fatalf("first like: %v", err)
	}
	updated, err = posts.AddLike(ctx, post.ID, model.Like{User: "u2"})
	if err != nil {
		t.Fatalf("second like: %v", err)
	}
	if len(updated.Likes) != 2 || updated.Likes[0].User != "u2" {
		t.Fatalf("likes = %+v, want newest first", updated.Likes)
	}
	if updated.Likes[0].ID == "" {
		t.Error("expected like to get an ID")
	}

	if _, err := posts.AddLike(ctx, post.ID, model.Like{User: "u1"}); !errors.Is(err, model.ErrAlreadyLiked) {
		t.Errorf("duplicate like error = %v, want %v", err, model.ErrAlreadyLiked)
	}
	if _, err := posts.AddLike(ctx, "missing", model.Like{User: "u1"}); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("like missing post error = %v, want %v", err, model.ErrPostNotFound)
	}
}

func TestMemoryPosts_ConcurrentLikesAreNotLost(t *testing.T) {
	posts := NewMemoryStore().Posts()
	ctx := context.Background()

	post := &model.Post{User: "author", TextOfPost: "hello"}
	_ = posts.Create(ctx, post)

	const likers = 50
	var wg sync.WaitGroup
	for i := 0; i < likers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = posts.AddLike(ctx, post.ID, model.Like{User: string(rune('A' + i))})
		}(i)
	}
	wg.Wait()

	got, _ := posts.GetByID(ctx, post.ID)
	if len(got.Likes) != likers {
		t.Errorf("likes = %d, want %d", len(got.Likes), likers)
	}
}

func TestMemoryPosts_Comments(t *testing.T) {
	posts := NewMemoryStore().Posts()
	ctx := context.Background()

	post := &model.Post{User: "author", TextOfPost: "hello"}
	_ = posts.Create(ctx, post)

	c1, err := posts.AddComment(ctx, post.ID, model.Comment{User: "u1", TextOfComment: "one"})
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	c2, _ := posts.AddComment(ctx, post.ID, model.Comment{User: "u2", TextOfComment: "two"})

	got, _ := posts.GetByID(ctx, post.ID)
	if len(got.Comments) != 2 || got.Comments[0].ID != c2.ID {
		t.Fatalf("comments = %+v, want newest first", got.Comments)
	}

	// Comment likes carry no duplicate check.
	for i := 0; i < 2; i++ {
		if err := posts.AddCommentLike(ctx, post.ID, c1.ID, model.Like{User: "u3"}); err != nil {
			t.Fatalf("like comment: %v", err)
		}
	}
	got, _ = posts.GetByID(ctx, post.ID)
	if n := len(got.FindComment(c1.ID).Likes); n != 2 {
		t.Errorf("comment likes = %d, want 2", n)
	}

	if err := posts.AddCommentLike(ctx, post.ID, "missing", model.Like{User: "u3"}); !errors.Is(err, model.ErrCommentNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrCommentNotFound)
	}
	if err := posts.AddCommentLike(ctx, "missing", c1.ID, model.Like{User: "u3"}); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrPostNotFound)
	}
	if _, err := posts.AddComment(ctx, "missing", model.Comment{User: "u1"}); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrPostNotFound)
	}
}

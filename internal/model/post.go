package model

import (
	"errors"
	"time"
)

// Like marks a user's like on a post or a comment.
type Like struct {
	ID   string `bson:"_id" json:"_id"`
	User string `bson:"user" json:"user"`
}

// Comment is embedded in its post. Author fields are a snapshot taken when the comment was written.
type Comment struct {
	ID            string    `bson:"_id" json:"_id"`
	User          string    `bson:"user" json:"user"`
	FirstName     string    `bson:"firstName" json:"firstName"`
	LastName      string    `bson:"lastName" json:"lastName"`
	Avatar        string    `bson:"avatar" json:"avatar"`
	Date          time.Time `bson:"date" json:"date"`
	TextOfComment string    `bson:"textOfComment" json:"textOfComment"`
	Likes         []Like    `bson:"likes" json:"likes"`
}

// Post is a user's post document. Likes and comments are kept newest first.
type Post struct {
	ID         string    `bson:"_id" json:"_id"`
	User       string    `bson:"user" json:"user"`
	FirstName  string    `bson:"firstName" json:"firstName"`
	LastName   string    `bson:"lastName,omitempty" json:"lastName,omitempty"`
	UserName   string    `bson:"userName,omitempty" json:"userName,omitempty"`
	Avatar     string    `bson:"avatar" json:"avatar"`
	Date       time.Time `bson:"date" json:"date"`
	TextOfPost string    `bson:"textOfPost" json:"textOfPost"`
	Likes      []Like    `bson:"likes" json:"likes"`
	Comments   []Comment `bson:"comments" json:"comments"`
}

// Normalize replaces nil collections with empty ones so they encode as [] instead of null.
func (p *Post) Normalize() {
	if p.Likes == nil {
		p.Likes = []Like{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	for i := range p.Comments {
		if p.Comments[i].Likes == nil {
			p.Comments[i].Likes = []Like{}
		}
	}
}

// LikedBy reports whether userID already appears in the post's like list.
func (p *Post) LikedBy(userID string) bool {
	for _, like := range p.Likes {
		if like.User == userID {
			return true
		}
	}
	return false
}

// FindComment returns a pointer into p.Comments, or nil.
func (p *Post) FindComment(commentID string) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i]
		}
	}
	return nil
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	TextOfPost string `json:"textOfPost" validate:"required" msg:"Text is required!"`
}

// SearchPostRequest is the request body for the post search.
type SearchPostRequest struct {
	SearchInput string `json:"searchInput" validate:"required" msg:"Search is empty"`
}

// AddCommentRequest is the request body for commenting on a post.
type AddCommentRequest struct {
	TextOfComment string `json:"textOfComment" validate:"required" msg:"Comment is empty"`
}

// Post orderings for the sorted listings.
const (
	SortMostRecent    = "most_recent"
	SortMostLiked     = "most_liked"
	SortMostCommented = "most_commented"
)

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrAlreadyLiked    = errors.New("you have already liked this post")
)

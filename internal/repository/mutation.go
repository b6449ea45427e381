package repository

import (
	"github.com/google/uuid"

	"postboard/internal/model"
)

// The helpers below apply post mutations in memory. Stores that cannot express
// them as a single native update call them while holding a lock on the document.

func prependLike(post *model.Post, like model.Like) error {
	if post.LikedBy(like.User) {
		return model.ErrAlreadyLiked
	}
	if like.ID == "" {
		like.ID = uuid.NewString()
	}
	post.Likes = append([]model.Like{like}, post.Likes...)
	return nil
}

func prependComment(post *model.Post, comment model.Comment) model.Comment {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.Likes == nil {
		comment.Likes = []model.Like{}
	}
	post.Comments = append([]model.Comment{comment}, post.Comments...)
	return comment
}

func prependCommentLike(post *model.Post, commentID string, like model.Like) error {
	comment := post.FindComment(commentID)
	if comment == nil {
		return model.ErrCommentNotFound
	}
	if like.ID == "" {
		like.ID = uuid.NewString()
	}
	comment.Likes = append([]model.Like{like}, comment.Likes...)
	return nil
}

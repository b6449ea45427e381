package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"postboard/internal/model"
	"postboard/internal/queue"
)

// AvatarMirror copies a user's Gravatar into object storage.
type AvatarMirror interface {
	MirrorGravatar(ctx context.Context, email string) (*model.UploadResult, error)
}

// AvatarUpdater stores a new avatar URL on the user.
type AvatarUpdater interface {
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error
}

// Handler processes activity events from the queue.
type Handler struct {
	mirror  AvatarMirror // nil when object storage is not configured
	avatars AvatarUpdater
}

// NewHandler creates a new event handler. mirror may be nil, in which case
// registrations keep their Gravatar URL.
func NewHandler(mirror AvatarMirror, avatars AvatarUpdater) *Handler {
	return &Handler{mirror: mirror, avatars: avatars}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ActivityEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventUserRegistered:
		err = h.handleUserRegistered(ctx, event)
	case queue.EventPostCreated, queue.EventPostLiked, queue.EventCommentAdded, queue.EventCommentLiked:
		log.Printf("[Worker] Activity: type=%s actor=%s post=%s comment=%s",
			event.Type, event.ActorID, event.PostID, event.CommentID)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}
	return nil
}

// handleUserRegistered replaces the new user's Gravatar link with a mirrored copy.
func (h *Handler) handleUserRegistered(ctx context.Context, event queue.ActivityEvent) error {
	if h.mirror == nil || h.avatars == nil {
		return nil
	}
	if event.Email == "" {
		return fmt.Errorf("user_registered event for %s has no email", event.ActorID)
	}

	upload, err := h.mirror.MirrorGravatar(ctx, event.Email)
	if err != nil {
		return fmt.Errorf("mirror avatar: %w", err)
	}
	if err := h.avatars.UpdateAvatar(ctx, event.ActorID, upload.URL); err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}

	log.Printf("[Worker] UserRegistered DONE: user=%s avatar=%s", event.ActorID, upload.Key)
	return nil
}

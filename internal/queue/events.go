package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the activity stream
const (
	EventUserRegistered = "user_registered"
	EventPostCreated    = "post_created"
	EventPostLiked      = "post_liked"
	EventCommentAdded   = "comment_added"
	EventCommentLiked   = "comment_liked"
)

// Stream names
const (
	StreamActivity = "stream:activity"
)

// Consumer group name for activity workers
const (
	ConsumerGroupActivity = "activity_workers"
)

// ActivityEvent is one entry of the activity stream. ActorID is the user who
// acted; the other IDs are set when the event refers to them.
type ActivityEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	ActorID   string `json:"actor_id"`
	PostID    string `json:"post_id,omitempty"`
	CommentID string `json:"comment_id,omitempty"`

	// Email is carried by user_registered so the avatar worker can find the Gravatar.
	Email string `json:"email,omitempty"`
}

func newEvent(eventType, actorID string) ActivityEvent {
	return ActivityEvent{Type: eventType, Timestamp: time.Now().Unix(), ActorID: actorID}
}

func NewUserRegisteredEvent(userID, email string) ActivityEvent {
	e := newEvent(EventUserRegistered, userID)
	e.Email = email
	return e
}

func NewPostCreatedEvent(postID, authorID string) ActivityEvent {
	e := newEvent(EventPostCreated, authorID)
	e.PostID = postID
	return e
}

func NewPostLikedEvent(postID, userID string) ActivityEvent {
	e := newEvent(EventPostLiked, userID)
	e.PostID = postID
	return e
}

func NewCommentAddedEvent(postID, commentID, userID string) ActivityEvent {
	e := newEvent(EventCommentAdded, userID)
	e.PostID = postID
	e.CommentID = commentID
	return e
}

func NewCommentLikedEvent(postID, commentID, userID string) ActivityEvent {
	e := newEvent(EventCommentLiked, userID)
	e.PostID = postID
	e.CommentID = commentID
	return e
}

// ToMap converts the event to XADD field-value pairs. The full event is JSON in "data".
func (e ActivityEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseActivityEvent parses an ActivityEvent from Redis stream message values.
func ParseActivityEvent(values map[string]interface{}) (ActivityEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ActivityEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ActivityEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ActivityEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}

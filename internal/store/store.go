package store

import (
	"errors"
	"fmt"

	"github.com/zentrais/zentrais-api/internal/models"
)

// ErrNotFound is returned when an operation references a topic or post id
// that does not exist. Reads report it as a value, not a panic; the HTTP
// layer maps it to 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the acting user does not own the resource
// they are trying to delete.
var ErrForbidden = errors.New("forbidden")

// ValidationError reports a missing required field on a create operation.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// Store is the data layer behind the debate API. The canonical implementation
// is the in-memory Memory store; Gorm provides the same contract over a real
// database so persistence can be swapped in without touching callers.
type Store interface {
	// ListTopics returns all topics, most recent first.
	ListTopics() ([]models.Topic, error)
	// GetTopic returns ErrNotFound for a missing id.
	GetTopic(id string) (*models.Topic, error)
	// CreateTopic validates title, description and author, assigns an id and
	// timestamp, and inserts the topic at the head of the collection.
	CreateTopic(title, description string, author models.User, tags []string) (*models.Topic, error)

	// ListPosts returns a thread's posts oldest first. An unknown thread
	// yields an empty slice, not an error.
	ListPosts(threadID string) ([]models.Post, error)
	// CreatePost validates content and author, defaults position to neutral,
	// and appends the post to its thread.
	CreatePost(threadID, content string, author models.User, position models.Position) (*models.Post, error)
	// DeletePost removes a post if actingUserID is its author.
	DeletePost(postID, actingUserID string) error

	// CastVote records a user's choice on a subject. Re-casting the same
	// choice is a no-op; switching reverses the old contribution before
	// applying the new one. Returns the subject's resulting tally.
	CastVote(kind models.SubjectKind, subjectID, voterID string, choice models.Choice) (*models.Tally, error)
	// GetUserVote reports the recorded choice, if any. Never mutates.
	GetUserVote(kind models.SubjectKind, subjectID, voterID string) (models.Choice, bool, error)
}

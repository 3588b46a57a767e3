package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zentrais/zentrais-api/internal/models"
)

type voteKey struct {
	kind      models.SubjectKind
	subjectID string
	voterID   string
}

// Memory is the canonical in-memory Store. All state is owned by the struct
// (no package globals) and every operation runs under a single mutex hold, so
// the ledger's read-modify-write cannot interleave across concurrent requests
// and each operation is all-or-nothing.
type Memory struct {
	mu     sync.Mutex
	topics []*models.Topic // newest first
	posts  map[string][]*models.Post
	byID   map[string]*models.Post
	votes  map[voteKey]models.Choice
}

func NewMemory() *Memory {
	return &Memory{
		posts: make(map[string][]*models.Post),
		byID:  make(map[string]*models.Post),
		votes: make(map[voteKey]models.Choice),
	}
}

func (m *Memory) ListTopics() ([]models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Topic, 0, len(m.topics))
	for _, t := range m.topics {
		out = append(out, copyTopic(t))
	}
	return out, nil
}

func (m *Memory) GetTopic(id string) (*models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.findTopic(id)
	if t == nil {
		return nil, ErrNotFound
	}
	c := copyTopic(t)
	return &c, nil
}

func (m *Memory) CreateTopic(title, description string, author models.User, tags []string) (*models.Topic, error) {
	if err := validateTopicInput(title, description, author); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	topic := &models.Topic{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Author:      author,
		Tags:        append([]string(nil), tags...),
		CreatedAt:   time.Now().UTC(),
	}
	m.topics = append([]*models.Topic{topic}, m.topics...)

	c := copyTopic(topic)
	return &c, nil
}

func (m *Memory) ListPosts(threadID string) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.posts[threadID]
	out := make([]models.Post, 0, len(list))
	for _, p := range list {
		out = append(out, *p)
	}
	return out, nil
}

func (m *Memory) CreatePost(threadID, content string, author models.User, position models.Position) (*models.Post, error) {
	if err := validatePostInput(content, author); err != nil {
		return nil, err
	}
	if position == "" {
		position = models.PositionNeutral
	}
	if !position.Valid() {
		return nil, &ValidationError{Field: "position"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findTopic(threadID) == nil {
		return nil, ErrNotFound
	}

	post := &models.Post{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Content:   content,
		Author:    author,
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}
	m.posts[threadID] = append(m.posts[threadID], post)
	m.byID[post.ID] = post

	c := *post
	return &c, nil
}

func (m *Memory) DeletePost(postID, actingUserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.byID[postID]
	if !ok {
		return ErrNotFound
	}
	if post.Author.ID != actingUserID {
		return ErrForbidden
	}

	list := m.posts[post.ThreadID]
	for i, p := range list {
		if p.ID == postID {
			m.posts[post.ThreadID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	delete(m.byID, postID)
	return nil
}

func (m *Memory) CastVote(kind models.SubjectKind, subjectID, voterID string, choice models.Choice) (*models.Tally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	support, counter, ok := m.counters(kind, subjectID)
	if !ok {
		return nil, ErrNotFound
	}

	key := voteKey{kind: kind, subjectID: subjectID, voterID: voterID}
	prev, voted := m.votes[key]
	switch {
	case voted && prev == choice:
		// Re-casting the same choice is idempotent.
	case voted:
		decrement(support, counter, prev)
		increment(support, counter, choice)
		m.votes[key] = choice
	default:
		increment(support, counter, choice)
		m.votes[key] = choice
	}

	return &models.Tally{
		Kind:         kind,
		SubjectID:    subjectID,
		SupportCount: *support,
		CounterCount: *counter,
	}, nil
}

func (m *Memory) GetUserVote(kind models.SubjectKind, subjectID, voterID string) (models.Choice, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	choice, ok := m.votes[voteKey{kind: kind, subjectID: subjectID, voterID: voterID}]
	return choice, ok, nil
}

// findTopic must be called with the mutex held.
func (m *Memory) findTopic(id string) *models.Topic {
	for _, t := range m.topics {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// counters resolves a subject to its live tally fields. Mutex must be held.
func (m *Memory) counters(kind models.SubjectKind, subjectID string) (support, counter *int, ok bool) {
	switch kind {
	case models.SubjectTopic:
		if t := m.findTopic(subjectID); t != nil {
			return &t.SupportCount, &t.CounterCount, true
		}
	case models.SubjectPost:
		if p, found := m.byID[subjectID]; found {
			return &p.SupportCount, &p.CounterCount, true
		}
	}
	return nil, nil, false
}

func increment(support, counter *int, choice models.Choice) {
	if choice == models.ChoiceSupport {
		*support++
	} else {
		*counter++
	}
}

// decrement floors at zero so no operation sequence can drive a count negative.
func decrement(support, counter *int, choice models.Choice) {
	target := counter
	if choice == models.ChoiceSupport {
		target = support
	}
	if *target > 0 {
		*target--
	}
}

func copyTopic(t *models.Topic) models.Topic {
	c := *t
	c.Tags = append([]string(nil), t.Tags...)
	return c
}

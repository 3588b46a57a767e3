package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zentrais/zentrais-api/internal/models"
)

// Gorm implements Store over a relational database, for deployments that
// outgrow the in-memory demo store. The vote ledger's read-modify-write runs
// inside a transaction with the subject row locked, which preserves the
// at-most-one-vote invariant under concurrent requests.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// Migrate creates or updates the backing tables.
func (g *Gorm) Migrate() error {
	return g.db.AutoMigrate(&models.Topic{}, &models.Post{}, &models.Vote{})
}

func (g *Gorm) ListTopics() ([]models.Topic, error) {
	var topics []models.Topic
	if err := g.db.Order("created_at desc").Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

func (g *Gorm) GetTopic(id string) (*models.Topic, error) {
	var topic models.Topic
	if err := g.db.First(&topic, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &topic, nil
}

func (g *Gorm) CreateTopic(title, description string, author models.User, tags []string) (*models.Topic, error) {
	if err := validateTopicInput(title, description, author); err != nil {
		return nil, err
	}

	topic := models.Topic{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Author:      author,
		Tags:        append([]string(nil), tags...),
		CreatedAt:   time.Now().UTC(),
	}
	if err := g.db.Create(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (g *Gorm) ListPosts(threadID string) ([]models.Post, error) {
	var posts []models.Post
	if err := g.db.Where("thread_id = ?", threadID).Order("created_at asc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (g *Gorm) CreatePost(threadID, content string, author models.User, position models.Position) (*models.Post, error) {
	if err := validatePostInput(content, author); err != nil {
		return nil, err
	}
	if position == "" {
		position = models.PositionNeutral
	}
	if !position.Valid() {
		return nil, &ValidationError{Field: "position"}
	}

	var count int64
	if err := g.db.Model(&models.Topic{}).Where("id = ?", threadID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	post := models.Post{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Content:   content,
		Author:    author,
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}
	if err := g.db.Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (g *Gorm) DeletePost(postID, actingUserID string) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if post.Author.ID != actingUserID {
			return ErrForbidden
		}
		return tx.Delete(&post).Error
	})
}

func (g *Gorm) CastVote(kind models.SubjectKind, subjectID, voterID string, choice models.Choice) (*models.Tally, error) {
	var tally models.Tally

	err := g.db.Transaction(func(tx *gorm.DB) error {
		support, counter, err := lockSubject(tx, kind, subjectID)
		if err != nil {
			return err
		}

		var vote models.Vote
		err = tx.Where("kind = ? AND subject_id = ? AND voter_id = ?", kind, subjectID, voterID).First(&vote).Error
		switch {
		case err == nil && vote.Choice == choice:
			// Idempotent re-vote: counts and ledger entry stay as they are.
		case err == nil:
			support, counter = adjust(support, counter, vote.Choice, -1)
			support, counter = adjust(support, counter, choice, +1)
			if err := tx.Model(&vote).Update("choice", choice).Error; err != nil {
				return err
			}
			if err := writeCounts(tx, kind, subjectID, support, counter); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			support, counter = adjust(support, counter, choice, +1)
			entry := models.Vote{Kind: kind, SubjectID: subjectID, VoterID: voterID, Choice: choice}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			if err := writeCounts(tx, kind, subjectID, support, counter); err != nil {
				return err
			}
		default:
			return err
		}

		tally = models.Tally{Kind: kind, SubjectID: subjectID, SupportCount: support, CounterCount: counter}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tally, nil
}

func (g *Gorm) GetUserVote(kind models.SubjectKind, subjectID, voterID string) (models.Choice, bool, error) {
	var vote models.Vote
	err := g.db.Where("kind = ? AND subject_id = ? AND voter_id = ?", kind, subjectID, voterID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return vote.Choice, true, nil
}

// lockSubject loads the subject's current counts under a row lock. SQLite
// has no FOR UPDATE; its single-writer model serializes the transaction
// anyway.
func lockSubject(tx *gorm.DB, kind models.SubjectKind, subjectID string) (support, counter int, err error) {
	locked := tx
	if tx.Dialector.Name() == "postgres" {
		locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	switch kind {
	case models.SubjectTopic:
		var topic models.Topic
		err = locked.First(&topic, "id = ?", subjectID).Error
		support, counter = topic.SupportCount, topic.CounterCount
	case models.SubjectPost:
		var post models.Post
		err = locked.First(&post, "id = ?", subjectID).Error
		support, counter = post.SupportCount, post.CounterCount
	default:
		return 0, 0, ErrNotFound
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, 0, ErrNotFound
	}
	return support, counter, err
}

func writeCounts(tx *gorm.DB, kind models.SubjectKind, subjectID string, support, counter int) error {
	columns := map[string]any{"support_count": support, "counter_count": counter}
	if kind == models.SubjectTopic {
		return tx.Model(&models.Topic{}).Where("id = ?", subjectID).UpdateColumns(columns).Error
	}
	return tx.Model(&models.Post{}).Where("id = ?", subjectID).UpdateColumns(columns).Error
}

// adjust applies a signed contribution to the tally, flooring at zero.
func adjust(support, counter int, choice models.Choice, delta int) (int, int) {
	if choice == models.ChoiceSupport {
		support += delta
		if support < 0 {
			support = 0
		}
		return support, counter
	}
	counter += delta
	if counter < 0 {
		counter = 0
	}
	return support, counter
}

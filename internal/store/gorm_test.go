package store

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zentrais/zentrais-api/internal/models"
)

func newGormStore(t *testing.T) *Gorm {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection would see a different in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	g := NewGorm(db)
	require.NoError(t, g.Migrate())
	return g
}

func TestGormTopicRoundTrip(t *testing.T) {
	g := newGormStore(t)

	created, err := g.CreateTopic("T1", "D1", alice, []string{"x", "y"})
	require.NoError(t, err)

	fetched, err := g.GetTopic(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "T1", fetched.Title)
	assert.Equal(t, alice.ID, fetched.Author.ID)
	assert.Equal(t, []string{"x", "y"}, fetched.Tags)
	assert.Equal(t, 0, fetched.SupportCount)

	_, err = g.GetTopic("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormListTopicsNewestFirst(t *testing.T) {
	g := newGormStore(t)

	first, err := g.CreateTopic("first", "d", alice, nil)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := g.CreateTopic("second", "d", bob, nil)
	require.NoError(t, err)

	topics, err := g.ListTopics()
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, second.ID, topics[0].ID)
	assert.Equal(t, first.ID, topics[1].ID)
}

func TestGormValidation(t *testing.T) {
	g := newGormStore(t)

	var verr *ValidationError
	_, err := g.CreateTopic("", "d", alice, nil)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = g.CreatePost("whatever", " ", alice, "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)
}

func TestGormPostLifecycle(t *testing.T) {
	g := newGormStore(t)

	topic, err := g.CreateTopic("T1", "D1", alice, nil)
	require.NoError(t, err)

	_, err = g.CreatePost("missing-thread", "hello", carol, "")
	assert.ErrorIs(t, err, ErrNotFound)

	post, err := g.CreatePost(topic.ID, "hello", carol, "")
	require.NoError(t, err)
	assert.Equal(t, models.PositionNeutral, post.Position)

	posts, err := g.ListPosts(topic.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.ErrorIs(t, g.DeletePost(post.ID, bob.ID), ErrForbidden)
	require.NoError(t, g.DeletePost(post.ID, carol.ID))
	assert.ErrorIs(t, g.DeletePost(post.ID, carol.ID), ErrNotFound)

	posts, err = g.ListPosts(topic.ID)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestGormVoteLedger(t *testing.T) {
	g := newGormStore(t)

	topic, err := g.CreateTopic("T1", "D1", alice, nil)
	require.NoError(t, err)

	_, err = g.CastVote(models.SubjectTopic, "missing", bob.ID, models.ChoiceSupport)
	assert.ErrorIs(t, err, ErrNotFound)

	tally, err := g.CastVote(models.SubjectTopic, topic.ID, bob.ID, models.ChoiceSupport)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.SupportCount)
	assert.Equal(t, 0, tally.CounterCount)

	// Idempotent re-vote.
	tally, err = g.CastVote(models.SubjectTopic, topic.ID, bob.ID, models.ChoiceSupport)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.SupportCount)

	// Switching conserves the total.
	tally, err = g.CastVote(models.SubjectTopic, topic.ID, bob.ID, models.ChoiceCounter)
	require.NoError(t, err)
	assert.Equal(t, 0, tally.SupportCount)
	assert.Equal(t, 1, tally.CounterCount)

	choice, ok, err := g.GetUserVote(models.SubjectTopic, topic.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.ChoiceCounter, choice)

	_, ok, err = g.GetUserVote(models.SubjectTopic, topic.ID, "stranger")
	require.NoError(t, err)
	assert.False(t, ok)

	fresh, err := g.GetTopic(topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.SupportCount)
	assert.Equal(t, 1, fresh.CounterCount)
}

package http

import (
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"

	"github.com/zentrais/zentrais-api/internal/emitter"
	"github.com/zentrais/zentrais-api/internal/models"
	"github.com/zentrais/zentrais-api/internal/store"
)

const (
	maxTitleLength   = 200
	maxContentLength = 4000
	rateLimitRPS     = 1.0 / 2.0 // 1 write every 2 seconds per IP
	rateLimitBurst   = 3
)

// User-supplied text is stripped of all markup before it enters the store.
var sanitizer = bluemonday.StrictPolicy()

// --- Request binding ---

type AuthorInput struct {
	ID     string `json:"id" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Avatar string `json:"avatar"`
}

func (a AuthorInput) user() models.User {
	return models.User{ID: a.ID, Name: sanitizer.Sanitize(a.Name), Avatar: a.Avatar}
}

type CreateTopicInput struct {
	Title       string      `json:"title" binding:"required,min=1,max=200"`
	Description string      `json:"description" binding:"required,min=1,max=4000"`
	Author      AuthorInput `json:"author" binding:"required"`
	Tags        []string    `json:"tags" binding:"max=8,dive,max=32"`
}

type CreatePostInput struct {
	Content  string      `json:"content" binding:"required,min=1,max=4000"`
	Author   AuthorInput `json:"author" binding:"required"`
	Position string      `json:"position" binding:"omitempty,oneof=support counter neutral"`
}

type VoteInput struct {
	UserID string `json:"userId" binding:"required"`
	Type   string `json:"type" binding:"required,oneof=support counter"`
	PostID string `json:"postId"`
}

// --- Response shapes ---

// Consensus is derived on every read and never stored, so it rides along as a
// computed field rather than living on the model.
type topicResponse struct {
	models.Topic
	Consensus float64 `json:"consensus"`
}

type postResponse struct {
	models.Post
	Consensus float64 `json:"consensus"`
}

type tallyResponse struct {
	models.Tally
	Consensus float64 `json:"consensus"`
}

// --- Rate limiter ---

type IPRateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*rate.Limiter),
		rps:      r,
		burst:    b,
	}
}

func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, exists := rl.visitors[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.rps, rl.burst)
		rl.visitors[ip] = limiter
	}
	return limiter
}

// Sweep drops limiters that have refilled, so the visitor map does not grow
// without bound. Called periodically from a janitor goroutine.
func (rl *IPRateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if v.Tokens() >= float64(rl.burst) {
			delete(rl.visitors, ip)
		}
	}
}

func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please wait."})
			return
		}
		c.Next()
	}
}

// --- Handlers ---

// Env carries the handler dependencies: the data store, the event bus that
// fans writes out to live clients, and the acting-user resolver.
type Env struct {
	Store   store.Store
	Emitter *emitter.Emitter
	Users   CurrentUserProvider
}

func (e *Env) ListTopics(c *gin.Context) {
	topics, err := e.Store.ListTopics()
	if err != nil {
		e.storeError(c, err)
		return
	}
	out := make([]topicResponse, 0, len(topics))
	for _, t := range topics {
		out = append(out, topicResponse{Topic: t, Consensus: t.Consensus()})
	}
	c.JSON(http.StatusOK, out)
}

func (e *Env) GetTopic(c *gin.Context) {
	topic, err := e.Store.GetTopic(c.Param("id"))
	if err != nil {
		e.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, topicResponse{Topic: *topic, Consensus: topic.Consensus()})
}

func (e *Env) CreateTopic(c *gin.Context) {
	var input CreateTopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	tags := make([]string, 0, len(input.Tags))
	for _, tag := range input.Tags {
		if clean := sanitizer.Sanitize(tag); clean != "" {
			tags = append(tags, clean)
		}
	}

	topic, err := e.Store.CreateTopic(
		sanitizer.Sanitize(input.Title),
		sanitizer.Sanitize(input.Description),
		input.Author.user(),
		tags,
	)
	if err != nil {
		e.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, topicResponse{Topic: *topic, Consensus: topic.Consensus()})
}

func (e *Env) ListPosts(c *gin.Context) {
	posts, err := e.Store.ListPosts(c.Param("id"))
	if err != nil {
		e.storeError(c, err)
		return
	}
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, postResponse{Post: p, Consensus: p.Consensus()})
	}
	c.JSON(http.StatusOK, out)
}

func (e *Env) CreatePost(c *gin.Context) {
	var input CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	threadID := c.Param("id")
	post, err := e.Store.CreatePost(
		threadID,
		sanitizer.Sanitize(input.Content),
		input.Author.user(),
		models.Position(input.Position),
	)
	if err != nil {
		e.storeError(c, err)
		return
	}

	e.Emitter.BroadcastNewPost(threadID, post)
	c.JSON(http.StatusCreated, postResponse{Post: *post, Consensus: post.Consensus()})
}

func (e *Env) Vote(c *gin.Context) {
	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	threadID := c.Param("id")
	kind, subjectID := models.SubjectTopic, threadID
	if input.PostID != "" {
		kind, subjectID = models.SubjectPost, input.PostID
	}

	tally, err := e.Store.CastVote(kind, subjectID, input.UserID, models.Choice(input.Type))
	if err != nil {
		e.storeError(c, err)
		return
	}

	e.Emitter.BroadcastVoteUpdate(threadID, tally)
	c.JSON(http.StatusOK, tallyResponse{Tally: *tally, Consensus: tally.Consensus()})
}

func (e *Env) GetUserVote(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId query parameter is required"})
		return
	}

	kind, subjectID := models.SubjectTopic, c.Param("id")
	if postID := c.Query("postId"); postID != "" {
		kind, subjectID = models.SubjectPost, postID
	}

	choice, ok, err := e.Store.GetUserVote(kind, subjectID, userID)
	if err != nil {
		e.storeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"vote": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vote": choice})
}

func (e *Env) DeletePost(c *gin.Context) {
	user, ok := e.Users.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Acting user identity required"})
		return
	}

	if err := e.Store.DeletePost(c.Param("id"), user.ID); err != nil {
		e.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// storeError maps the store's error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a server fault and gets logged.
func (e *Env) storeError(c *gin.Context, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, store.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this resource"})
	default:
		log.Printf("store error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

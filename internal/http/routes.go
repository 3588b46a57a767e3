package http

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/zentrais/zentrais-api/internal/emitter"
	"github.com/zentrais/zentrais-api/internal/store"
	"github.com/zentrais/zentrais-api/internal/ws"
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, st store.Store, em *emitter.Emitter, hub *ws.Hub) {

	env := &Env{Store: st, Emitter: em, Users: HeaderUserProvider{}}

	// --- Middleware ---

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "*" // Default to allow all for local dev
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-User-Name"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// --- Rate limiter ---

	limiter := NewIPRateLimiter(rate.Limit(rateLimitRPS), rateLimitBurst)
	go func() {
		for {
			time.Sleep(10 * time.Minute)
			limiter.Sweep()
		}
	}()

	// --- API routes ---

	api := router.Group("/api")
	{
		api.GET("/topics", env.ListTopics)
		api.GET("/topics/:id", env.GetTopic)
		api.POST("/topics", RateLimitMiddleware(limiter), env.CreateTopic)

		api.GET("/threads/:id/posts", env.ListPosts)
		api.POST("/threads/:id/posts", RateLimitMiddleware(limiter), env.CreatePost)

		api.POST("/threads/:id/vote", env.Vote)
		api.GET("/threads/:id/vote", env.GetUserVote)

		api.DELETE("/posts/:id", env.DeletePost)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// --- WebSocket feed ---

	router.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(hub, c.Writer, c.Request)
	})
}

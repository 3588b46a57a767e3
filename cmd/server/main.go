package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/zentrais/zentrais-api/internal/db"
	"github.com/zentrais/zentrais-api/internal/emitter"
	routes "github.com/zentrais/zentrais-api/internal/http"
	"github.com/zentrais/zentrais-api/internal/models"
	"github.com/zentrais/zentrais-api/internal/store"
	"github.com/zentrais/zentrais-api/internal/ws"
)

func main() {
	// Load .env first so every later os.Getenv sees it. Absence is fine: in
	// production the environment is set directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	// 1. Pick the store. The in-memory store is the default; DATABASE_URL
	// swaps in the GORM-backed one without changing anything downstream.
	st, err := buildStore()
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	// 2. WebSocket hub for the live feed.
	hub := ws.NewHub()
	go hub.Run()

	// 3. Event bus. Demo activity simulation is off unless explicitly asked
	// for; when on, the activity callback votes through the real store so
	// synthetic events stay consistent with stored state.
	var em *emitter.Emitter
	cfg := emitter.Config{}
	if os.Getenv("SIMULATE_ACTIVITY") == "1" {
		cfg.Interval = 6 * time.Second
		cfg.Activity = func() { simulateVote(st, em) }
		log.Println("Simulated demo activity enabled")
	}
	em = emitter.New(cfg)
	ws.BridgeEmitter(em, hub)
	em.Connect()

	// 4. Router.
	router := gin.New()
	routes.SetupRoutes(router, st, em, hub)

	// 5. Start server with graceful shutdown.
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	// Stop the activity timer before the listener so nothing writes during
	// shutdown.
	em.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func buildStore() (store.Store, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		database, err := db.Open(url)
		if err != nil {
			return nil, err
		}
		gs := store.NewGorm(database)
		log.Println("Running database migrations...")
		if err := gs.Migrate(); err != nil {
			return nil, err
		}
		log.Println("Migrations complete.")
		return gs, nil
	}

	log.Println("DATABASE_URL not set, using in-memory store")
	mem := store.NewMemory()
	if os.Getenv("SEED_DEMO") == "1" {
		if err := store.Seed(mem); err != nil {
			return nil, err
		}
		log.Println("Seeded demo topics")
	}
	return mem, nil
}

// simulateVote casts one random demo vote and broadcasts the result, giving
// the live feed something to show even with a single visitor.
func simulateVote(st store.Store, em *emitter.Emitter) {
	topics, err := st.ListTopics()
	if err != nil || len(topics) == 0 {
		return
	}
	topic := topics[rand.Intn(len(topics))]
	voter := store.DemoUsers[rand.Intn(len(store.DemoUsers))]
	choice := models.ChoiceSupport
	if rand.Intn(2) == 0 {
		choice = models.ChoiceCounter
	}

	tally, err := st.CastVote(models.SubjectTopic, topic.ID, voter.ID, choice)
	if err != nil {
		log.Printf("simulated vote failed: %v", err)
		return
	}
	em.BroadcastVoteUpdate(topic.ID, tally)
}

// Command main runs the database seeder for eventhub.
package main

import (
	"context"
	"flag"
	"log"

	"eventhub/internal/config"
	"eventhub/internal/database"
	"eventhub/internal/notifications"
	"eventhub/internal/repository"
	"eventhub/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of regular users to create")
	numHosts := flag.Int("hosts", defaults.NumHosts, "Number of event hosts to create")
	numEvents := flag.Int("events", defaults.NumEvents, "Number of events to create")
	postsPerEvent := flag.Int("posts", defaults.PostsPerEvent, "Posts per accepted event")
	commentsPerPost := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	globalPosts := flag.Int("global-posts", defaults.GlobalPosts, "Posts on the global feed")
	randSeed := flag.Int64("seed", 0, "Random seed (0 = time based)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Seeding records in-app notifications but never sends web push.
	dispatcher := notifications.NewDispatcher(repository.NewStore(db), notifications.NoopPusher{}, nil, notifications.Options{})

	s := seed.NewSeeder(db, dispatcher, seed.Options{
		NumUsers:        *numUsers,
		NumHosts:        *numHosts,
		NumEvents:       *numEvents,
		PostsPerEvent:   *postsPerEvent,
		CommentsPerPost: *commentsPerPost,
		GlobalPosts:     *globalPosts,
		RandSeed:        *randSeed,
	})

	ctx := context.Background()
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if _, err := s.Run(ctx); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Println("✨ All done! Mint a token with: go run ./cmd/admin token <user_id>")
}

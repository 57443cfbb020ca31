// Command main provisions the admin account, starter posts and optional demo data.
package main

import (
	"context"
	"flag"
	"log"

	"snapfeed/internal/config"
	"snapfeed/internal/database"
	"snapfeed/internal/repository"
	"snapfeed/internal/seed"
)

func main() {
	demo := flag.Int("demo", 0, "Number of fake demo users to create (with posts, likes, comments and follows)")
	fakerSeed := flag.Int64("faker-seed", 0, "Seed for reproducible demo data (0 uses the clock)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	store := repository.NewPostStore(db, cfg.FeedStoreMode)
	if err := store.EnsureInfrastructure(ctx); err != nil {
		log.Fatalf("Feed store provisioning failed: %v", err)
	}

	report, err := seed.Run(ctx, db, store, seed.Options{
		AdminEmail:    cfg.AdminEmail,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		DemoUsers:     *demo,
		FakerSeed:     *fakerSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Admin ready at %s (starter posts: %d)", report.Admin.Email, report.StarterPosts)
	if *demo > 0 {
		d := report.Demo
		log.Printf("Demo data: %d users, %d posts, %d likes, %d comments, %d follows",
			d.Users, d.Posts, d.Likes, d.Comments, d.Follows)
		log.Printf("All demo users have the password: %s", seed.DemoPassword)
	}
}

// Command main runs the database seeder for the Sensive blog.
package main

import (
	"context"
	"flag"
	"log"

	"sensive/internal/config"
	"sensive/internal/database"
	"sensive/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	numUsers := flag.Int("users", defaults.Users, "Number of readers to create")
	numAuthors := flag.Int("authors", defaults.Authors, "Number of staff authors to create")
	numPosts := flag.Int("posts", defaults.Posts, "Number of posts to create")
	numTags := flag.Int("tags", defaults.Tags, "Size of the tag pool")
	maxLikes := flag.Int("max-likes", defaults.MaxLikes, "Maximum likes per post")
	maxComments := flag.Int("max-comments", defaults.MaxComments, "Maximum comments per post")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	shouldClean := flag.Bool("clean", false, "Delete existing blog data before seeding")
	fast := flag.Bool("fast", false, "Store plain-text passwords (dev only)")
	fixtures := flag.String("fixtures", "", "Load a YAML fixture file instead of generating data")
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
	opts := defaults
	opts.Users = *numUsers
	opts.Authors = *numAuthors
	opts.Posts = *numPosts
	opts.Tags = *numTags
	opts.MaxLikes = *maxLikes
	opts.MaxComments = *maxComments
	opts.Seed = *randSeed
	opts.SkipBcrypt = *fast
	opts.Clean = *shouldClean

	if *fixtures != "" {
		fx, err := seed.LoadFixture(*fixtures)
		if err != nil {
			log.Fatalf("Failed to load fixtures: %v", err)
		}
		if opts.Clean {
			if err := seed.ClearAll(ctx, db); err != nil {
				log.Fatalf("Cleanup failed: %v", err)
			}
		}
		if err := seed.ApplyFixture(ctx, db, fx, opts); err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
		log.Printf("Loaded %d users and %d posts from %s", len(fx.Users), len(fx.Posts), *fixtures)
		return
	}

	res, err := seed.Seed(ctx, db, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Created %d authors, %d readers, %d posts, %d tags, %d likes, %d comments",
		res.Authors, res.Users, res.Posts, res.Tags, res.Likes, res.Comments)
	log.Printf("All generated users have the password: %s", seed.DefaultPassword)
}

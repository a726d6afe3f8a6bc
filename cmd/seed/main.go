// Command seed populates a fresh database with starter content so the site
// renders with something to look at: one published post per resource type and
// the default feature flags.
package main

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/waveline/waveline-backend/internal/config"
	"github.com/waveline/waveline-backend/internal/content"
	"github.com/waveline/waveline-backend/internal/database"
	"github.com/waveline/waveline-backend/internal/settings"
)

var collections = map[string]string{
	"blog":         "blogposts",
	"case-studies": "casestudies",
	"portfolio":    "portfolioitems",
	"podcasts":     "podcasts",
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.MongoDB.URI == "" {
		log.Fatal("MONGODB_URI is required")
	}

	ctx := context.Background()
	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	db := client.Database(cfg.MongoDB.Database)

	for resource, collection := range collections {
		repo := content.NewMongoRepository(db.Collection(collection))
		svc := content.NewService(repo)

		// idempotent: skip when the sample slug already exists
		if taken, err := repo.SlugTaken(ctx, "welcome-to-"+resource, primitive.NilObjectID); err != nil {
			log.Fatalf("%s: slug probe failed: %v", resource, err)
		} else if taken {
			log.Printf("%s: sample entry already present, skipping", resource)
			continue
		}

		item, err := svc.Create(ctx, map[string]any{
			"title":     "Welcome to " + resource,
			"excerpt":   "Placeholder entry created by the seed tool.",
			"tags":      "sample, seed",
			"published": true,
		})
		if err != nil {
			log.Fatalf("%s: seed failed: %v", resource, err)
		}
		log.Printf("%s: created %q (slug %s)", resource, item.Title, item.Slug)
	}

	flags := settings.NewMongoRepository(db.Collection("settings"))
	for _, key := range []string{"showTestimonials", "showPodcasts"} {
		if _, err := flags.Upsert(ctx, key, true); err != nil {
			log.Fatalf("settings: upsert %s: %v", key, err)
		}
		log.Printf("settings: %s = true", key)
	}
}

// Seed inserts a few demo users and tasks for local development.
//
// Usage: MONGODB_URI=... [MONGODB_DB=...] go run ./scripts
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/bgggggh/cs409-mp3/internal/config"
	dom "github.com/bgggggh/cs409-mp3/internal/domain"
	"github.com/bgggggh/cs409-mp3/internal/repo"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(cfg.Mongo.Database)
	users := repo.NewMongoUserRepo(db)
	tasks := repo.NewMongoTaskRepo(db)

	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatalf("ensure indexes: %v", err)
	}

	alice, err := users.Insert(ctx, dom.User{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		log.Fatalf("insert user: %v", err)
	}
	bob, err := users.Insert(ctx, dom.User{Name: "Bob", Email: "bob@example.com"})
	if err != nil {
		log.Fatalf("insert user: %v", err)
	}

	deadline := time.Now().UTC().Add(7 * 24 * time.Hour)
	seedTasks := []dom.Task{
		{Name: "Write report", Description: "Quarterly numbers", Deadline: deadline, AssignedUser: &alice.ID, AssignedUserName: alice.Name},
		{Name: "Review PRs", Deadline: deadline.Add(24 * time.Hour), AssignedUser: &bob.ID, AssignedUserName: bob.Name},
		{Name: "Plan retro", Deadline: deadline.Add(48 * time.Hour), AssignedUserName: dom.UnassignedName},
	}

	for _, t := range seedTasks {
		created, err := tasks.Insert(ctx, t)
		if err != nil {
			log.Fatalf("insert task: %v", err)
		}
		if created.Pending() {
			if err := users.AddPendingTask(ctx, *created.AssignedUser, created.ID); err != nil {
				log.Fatalf("add pending task: %v", err)
			}
		}
		log.Printf("seeded task %s (%s)", created.Name, created.ID.Hex())
	}

	log.Printf("seeded users %s, %s", alice.ID.Hex(), bob.ID.Hex())
}

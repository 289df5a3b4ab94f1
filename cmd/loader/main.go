// Command loader is a one-shot dev-data tool:
//
//	go run ./cmd/loader --import   # bulk insert seed records
//	go run ./cmd/loader --delete   # wipe the collections
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"tours-api/config"
	"tours-api/models"
	"tours-api/store"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	models.User
	Password string `json:"password"`
}

func main() {
	importFlag := flag.Bool("import", false, "bulk insert seed records")
	deleteFlag := flag.Bool("delete", false, "wipe the tours, users and reviews collections")
	dataDir := flag.String("data", "dev-data/data", "directory holding the seed JSON files")
	flag.Parse()

	if *importFlag == *deleteFlag {
		log.Fatal("use exactly one of --import or --delete")
	}

	_ = godotenv.Load("config.env", ".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal("mongodb:", err)
	}
	defer db.Disconnect(context.Background())

	if *deleteFlag {
		for _, name := range []string{"tours", "users", "reviews"} {
			if _, err := db.Database.Collection(name).DeleteMany(ctx, map[string]interface{}{}); err != nil {
				log.Fatalf("wipe %s: %v", name, err)
			}
		}
		log.Println("data deleted successfully")
		return
	}

	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal("indexes:", err)
	}
	importTours(ctx, db, filepath.Join(*dataDir, "tours.json"))
	importUsers(ctx, db, filepath.Join(*dataDir, "users.json"))
	importReviews(ctx, db, filepath.Join(*dataDir, "reviews.json"))
	log.Println("data loaded successfully")
}

func importTours(ctx context.Context, db *store.DB, path string) {
	var tours []models.Tour
	if !readSeed(path, &tours) {
		return
	}
	now := time.Now()
	for i := range tours {
		tours[i].ApplyDefaults(now)
		if _, err := db.Tours.InsertOne(ctx, &tours[i]); err != nil {
			log.Fatalf("insert tour %q: %v", tours[i].Name, err)
		}
	}
	log.Printf("imported %d tours", len(tours))
}

func importUsers(ctx context.Context, db *store.DB, path string) {
	var users []seedUser
	if !readSeed(path, &users) {
		return
	}
	for i := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(users[i].Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password for %q: %v", users[i].Email, err)
		}
		u := users[i].User
		u.Password = string(hash)
		if u.Role == "" {
			u.Role = models.RoleUser
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now()
		}
		if _, err := db.Users.InsertOne(ctx, &u); err != nil {
			log.Fatalf("insert user %q: %v", u.Email, err)
		}
	}
	log.Printf("imported %d users", len(users))
}

func importReviews(ctx context.Context, db *store.DB, path string) {
	var reviews []models.Review
	if !readSeed(path, &reviews) {
		return
	}
	for i := range reviews {
		if reviews[i].CreatedAt.IsZero() {
			reviews[i].CreatedAt = time.Now()
		}
		if _, err := db.Reviews.InsertOne(ctx, &reviews[i]); err != nil {
			log.Fatalf("insert review: %v", err)
		}
	}
	// One pass over the affected tours keeps the aggregates consistent.
	seen := map[string]bool{}
	for i := range reviews {
		key := reviews[i].Tour.Hex()
		if seen[key] {
			continue
		}
		seen[key] = true
		if err := db.Reviews.CalcAverageRatings(ctx, reviews[i].Tour); err != nil {
			log.Fatalf("recompute ratings for tour %s: %v", key, err)
		}
	}
	log.Printf("imported %d reviews", len(reviews))
}

// readSeed returns false when the file is absent, which just skips that
// resource.
func readSeed(path string, out interface{}) bool {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("skip %s (not found)", path)
		return false
	}
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}
	return true
}

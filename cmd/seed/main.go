// Command seed imports or deletes tour fixture data, independent of the
// running server.
//
//	go run ./cmd/seed -file dev-data/tours-simple.json -import
//	go run ./cmd/seed -delete
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"wayfarer/config"
	"wayfarer/db"
	"wayfarer/models"

	"go.mongodb.org/mongo-driver/bson"
)

func main() {
	var (
		file     = flag.String("file", "dev-data/tours-simple.json", "path to the JSON fixture")
		doImport = flag.Bool("import", false, "import the fixture into the database")
		doDelete = flag.Bool("delete", false, "delete all tours from the database")
	)
	flag.Parse()

	if *doImport == *doDelete {
		log.Fatal("specify exactly one of -import or -delete")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	collections, err := db.Connect(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer collections.Close(ctx)

	if *doDelete {
		res, err := collections.Tours.DeleteMany(ctx, bson.M{})
		if err != nil {
			log.Fatalf("delete failed: %v", err)
		}
		log.Printf("successfully deleted %d tours", res.DeletedCount)
		return
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read fixture: %v", err)
	}

	var fixtures []models.Tour
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		log.Fatalf("parse fixture: %v", err)
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(fixtures))
	for i := range fixtures {
		tour := &fixtures[i]
		tour.PrepareForInsert(now)
		if err := tour.Validate(); err != nil {
			log.Fatalf("fixture %q invalid: %v", tour.Name, err)
		}
		docs = append(docs, tour)
	}

	if _, err := collections.Tours.InsertMany(ctx, docs); err != nil {
		log.Fatalf("import failed: %v", err)
	}
	log.Printf("data successfully loaded: %d tours", len(docs))
}

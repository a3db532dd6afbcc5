package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections bundles the collection handles the application works with.
type Collections struct {
	Client *mongo.Client
	Tours  *mongo.Collection
	Users  *mongo.Collection
}

// Connect establishes the MongoDB connection and returns the collection
// handles. Unique indexes are ensured up front so duplicate writes fail at
// the database rather than by racy pre-checks.
func Connect(ctx context.Context, uri, dbName string) (*Collections, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	database := client.Database(dbName)
	c := &Collections{
		Client: client,
		Tours:  database.Collection("tours"),
		Users:  database.Collection("users"),
	}

	if err := c.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collections) ensureIndexes(ctx context.Context) error {
	_, err := c.Tours.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = c.Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

// Close disconnects the client, used during graceful shutdown.
func (c *Collections) Close(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}

package users

import (
	"context"

	"wayfarer/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store resolves user documents; it backs both the user endpoints and the
// authentication middleware's subject lookup.
type Store struct {
	Coll *mongo.Collection
}

func NewStore(coll *mongo.Collection) *Store {
	return &Store{Coll: coll}
}

// UserByID loads a user by the hex id carried in a token subject.
func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.Coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Package mongodb provides MongoDB infrastructure components including index management.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionUsers holds one document per account, images included.
const CollectionUsers = "users"

// Index names on the users collection. Duplicate key errors name the
// violated index, which is how writes tell the unique keys apart.
const (
	IndexUsersID       = "idx_users_id_unique"
	IndexUsersEmail    = "idx_users_email_unique"
	IndexUsersUsername = "idx_users_username_unique"
	IndexUsersTagID    = "idx_users_tag_id_unique"
	IndexUsersCreated  = "idx_users_created_at"
)

// IndexDefinition describes a MongoDB index to be created.
type IndexDefinition struct {
	Collection string
	Name       string
	Keys       bson.D
	Unique     bool
}

func (d IndexDefinition) model() mongo.IndexModel {
	opts := options.Index().SetName(d.Name)
	if d.Unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: d.Keys, Options: opts}
}

// CreateAllIndexes creates all necessary indexes for the application.
// This function is idempotent - calling it multiple times is safe.
func CreateAllIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idx := range GetAllIndexDefinitions() {
		_, err := db.Collection(idx.Collection).Indexes().CreateOne(ctx, idx.model())
		if err != nil {
			return fmt.Errorf("failed to create index %s on collection %s: %w",
				idx.Name, idx.Collection, err)
		}
	}
	return nil
}

// GetAllIndexDefinitions returns all index definitions for all collections.
func GetAllIndexDefinitions() []IndexDefinition {
	return GetUserIndexes()
}

// GetUserIndexes returns index definitions for the users collection.
func GetUserIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionUsers,
			Name:       IndexUsersID,
			Keys:       bson.D{{Key: "user_id", Value: 1}},
			Unique:     true,
		},
		{
			Collection: CollectionUsers,
			Name:       IndexUsersEmail,
			Keys:       bson.D{{Key: "email", Value: 1}},
			Unique:     true,
		},
		{
			Collection: CollectionUsers,
			Name:       IndexUsersUsername,
			Keys:       bson.D{{Key: "username", Value: 1}},
			Unique:     true,
		},
		{
			Collection: CollectionUsers,
			Name:       IndexUsersTagID,
			Keys:       bson.D{{Key: "tag_id", Value: 1}},
			Unique:     true,
		},
		{
			Collection: CollectionUsers,
			Name:       IndexUsersCreated,
			Keys:       bson.D{{Key: "created_at", Value: -1}},
		},
	}
}

package mongodb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/lllypuk/rollcall/internal/infrastructure/mongodb"
	"github.com/lllypuk/rollcall/internal/testutil"
)

func TestGetUserIndexes(t *testing.T) {
	t.Parallel()

	indexes := mongodb.GetUserIndexes()
	require.Len(t, indexes, 5)

	unique := map[string]bool{}
	for _, idx := range indexes {
		assert.Equal(t, mongodb.CollectionUsers, idx.Collection)
		unique[idx.Name] = idx.Unique
	}

	assert.True(t, unique[mongodb.IndexUsersID])
	assert.True(t, unique[mongodb.IndexUsersEmail])
	assert.True(t, unique[mongodb.IndexUsersUsername])
	assert.True(t, unique[mongodb.IndexUsersTagID])
	assert.False(t, unique[mongodb.IndexUsersCreated])
}

func TestCreateAllIndexes(t *testing.T) {
	t.Parallel()

	db := testutil.SetupTestMongoDB(t)
	ctx := context.Background()

	require.NoError(t, mongodb.CreateAllIndexes(ctx, db))
	// idempotent
	require.NoError(t, mongodb.CreateAllIndexes(ctx, db))

	indexes := getCollectionIndexes(ctx, t, db, mongodb.CollectionUsers)
	// _id plus ours
	assert.Len(t, indexes, 1+len(mongodb.GetUserIndexes()))

	tagIdx := findIndexInDBByName(indexes, mongodb.IndexUsersTagID)
	require.NotNil(t, tagIdx)
	assert.Equal(t, true, tagIdx["unique"])
}

func TestIndexesIntegration_UniqueTag(t *testing.T) {
	t.Parallel()

	db := testutil.SetupTestMongoDB(t)
	ctx := context.Background()
	require.NoError(t, mongodb.CreateAllIndexes(ctx, db))

	users := db.Collection(mongodb.CollectionUsers)

	_, err := users.InsertOne(ctx, bson.M{
		"user_id": "u-1", "email": "a@example.com", "username": "alice", "tag_id": 1234567,
	})
	require.NoError(t, err)

	_, err = users.InsertOne(ctx, bson.M{
		"user_id": "u-2", "email": "b@example.com", "username": "bob", "tag_id": 1234567,
	})
	require.Error(t, err)
	assert.True(t, mongo.IsDuplicateKeyError(err))
	assert.Contains(t, err.Error(), mongodb.IndexUsersTagID)
}

func getCollectionIndexes(ctx context.Context, t *testing.T, db *mongo.Database, collName string) []bson.M {
	t.Helper()

	cursor, err := db.Collection(collName).Indexes().List(ctx)
	require.NoError(t, err)

	var indexes []bson.M
	require.NoError(t, cursor.All(ctx, &indexes))
	return indexes
}

func findIndexInDBByName(indexes []bson.M, name string) bson.M {
	for _, idx := range indexes {
		if idxName, ok := idx["name"].(string); ok && idxName == name {
			return idx
		}
	}
	return nil
}

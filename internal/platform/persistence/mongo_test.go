package persistence

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestMongoDB_CollectionBelongsToDatabase(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	// mongo.Connect does not dial until the first operation
	client, err := mongo.Connect(context.TODO(), options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.TODO()) }()

	mdb := &MongoDB{
		logger:   logger,
		client:   client,
		database: client.Database("mc_economy_test"),
	}

	assert.Equal(t, "mc_economy_test", mdb.Database().Name())
	events := mdb.Collection("economy_events")
	assert.Equal(t, "economy_events", events.Name())
	assert.Equal(t, "mc_economy_test", events.Database().Name())
}

package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/voxroom/voxroom/internal/models"
)

const (
	collectionSessions     = "sessions"
	collectionScreenShares = "screen_shares"
)

// Mongo implements SessionStore on top of a MongoDB database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to MongoDB and pings it before returning.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return &Mongo{client: client, db: client.Database(database)}, nil
}

// Close disconnects the underlying client.
func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Mongo) InsertSession(ctx context.Context, rec models.SessionRecord) error {
	_, err := s.db.Collection(collectionSessions).InsertOne(ctx, rec)
	return err
}

func (s *Mongo) MarkSessionEnded(ctx context.Context, connectionID string) error {
	now := time.Now()
	_, err := s.db.Collection(collectionSessions).UpdateOne(ctx,
		bson.M{"connectionId": connectionID, "leftAt": nil},
		bson.M{"$set": bson.M{"leftAt": now}},
	)
	return err
}

func (s *Mongo) RecordScreenShare(ctx context.Context, roomID, participantID string) error {
	_, err := s.db.Collection(collectionScreenShares).InsertOne(ctx, bson.M{
		"roomId":        roomID,
		"participantId": participantID,
		"startedAt":     time.Now(),
	})
	return err
}

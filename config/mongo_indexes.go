package config

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}

	db := MongoClient.Database(MongoDBName())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// audit_log indexes
	audit := db.Collection("audit_log")
	_, err := audit.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "entry_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_entry_id").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "invitation_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("by_invitation_ts"),
		},
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("by_event_ts"),
		},
	})
	return err
}

func MongoDBName() string {
	if name := os.Getenv("MONGO_DB"); name != "" {
		return name
	}
	return "intake"
}

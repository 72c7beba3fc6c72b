package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names shared with the bot process.
const (
	LogChannelsCollection    = "logchannels"
	GuildLanguagesCollection = "guildlanguages"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique guildId index on both settings collections.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "guildId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("guildId_1"),
	}
	for _, name := range []string{LogChannelsCollection, GuildLanguagesCollection} {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, idx); err != nil {
			return fmt.Errorf("create guildId index on %s: %w", name, err)
		}
	}
	return nil
}

// Ping reports whether the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slayerbot/panel/internal/database"
	"github.com/slayerbot/panel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores settings in the logchannels and guildlanguages
// collections, one document per guildId. Writes are single
// findOneAndUpdate calls so readers never observe a partial merge.
type MongoRepo struct {
	logs  *mongo.Collection
	langs *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		logs:  db.Collection(database.LogChannelsCollection),
		langs: db.Collection(database.GuildLanguagesCollection),
	}
}

// retryDuplicate reruns an upsert once when two concurrent first writes race
// on the unique guildId index; the second attempt matches the winner's document.
func retryDuplicate(fn func() error) error {
	err := fn()
	if mongo.IsDuplicateKeyError(err) {
		err = fn()
	}
	return err
}

func byGuild(guildID string) bson.M { return bson.M{"guildId": guildID} }

func channelValue(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func (m *MongoRepo) FindLogChannels(ctx context.Context, guildID string) (*models.LogChannels, error) {
	var d models.LogChannels
	err := m.logs.FindOne(ctx, byGuild(guildID)).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find log channels %s: %w", guildID, err)
	}
	return &d, nil
}

func (m *MongoRepo) CreateLogChannels(ctx context.Context, guildID string) (*models.LogChannels, bool, error) {
	now := time.Now().UTC()
	def := models.DefaultLogChannels(guildID)
	def.CreatedAt, def.UpdatedAt = now, now

	onInsert := bson.M{"createdAt": now, "updatedAt": now}
	for _, c := range models.LogCategories {
		onInsert[string(c)] = nil
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var (
		prev    models.LogChannels
		created bool
	)
	err := retryDuplicate(func() error {
		err := m.logs.FindOneAndUpdate(ctx, byGuild(guildID), bson.M{"$setOnInsert": onInsert}, opts).Decode(&prev)
		created = errors.Is(err, mongo.ErrNoDocuments)
		if created {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("create log channels %s: %w", guildID, err)
	}
	if created {
		return def, true, nil
	}
	return &prev, false, nil
}

func (m *MongoRepo) UpsertLogChannels(ctx context.Context, guildID string, patch models.LogChannelPatch) (*models.LogChannels, error) {
	now := time.Now().UTC()
	set := bson.M{"updatedAt": now}
	onInsert := bson.M{"createdAt": now}
	for _, c := range models.LogCategories {
		if v, ok := patch[c]; ok {
			set[string(c)] = channelValue(v)
		} else {
			onInsert[string(c)] = nil
		}
	}
	update := bson.M{"$set": set, "$setOnInsert": onInsert}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var d models.LogChannels
	err := retryDuplicate(func() error {
		return m.logs.FindOneAndUpdate(ctx, byGuild(guildID), update, opts).Decode(&d)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert log channels %s: %w", guildID, err)
	}
	return &d, nil
}

func (m *MongoRepo) FindLanguage(ctx context.Context, guildID string) (*models.GuildLanguage, error) {
	var d models.GuildLanguage
	err := m.langs.FindOne(ctx, byGuild(guildID)).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find language %s: %w", guildID, err)
	}
	return &d, nil
}

func (m *MongoRepo) CreateLanguage(ctx context.Context, guildID string) (*models.GuildLanguage, bool, error) {
	now := time.Now().UTC()
	def := models.DefaultGuildLanguage(guildID)
	def.CreatedAt, def.UpdatedAt = now, now

	onInsert := bson.M{"language": def.Language, "createdAt": now, "updatedAt": now}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var (
		prev    models.GuildLanguage
		created bool
	)
	err := retryDuplicate(func() error {
		err := m.langs.FindOneAndUpdate(ctx, byGuild(guildID), bson.M{"$setOnInsert": onInsert}, opts).Decode(&prev)
		created = errors.Is(err, mongo.ErrNoDocuments)
		if created {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("create language %s: %w", guildID, err)
	}
	if created {
		return def, true, nil
	}
	return &prev, false, nil
}

func (m *MongoRepo) UpsertLanguage(ctx context.Context, guildID string, lang models.Language) (*models.GuildLanguage, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set":         bson.M{"language": lang, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var d models.GuildLanguage
	err := retryDuplicate(func() error {
		return m.langs.FindOneAndUpdate(ctx, byGuild(guildID), update, opts).Decode(&d)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert language %s: %w", guildID, err)
	}
	return &d, nil
}

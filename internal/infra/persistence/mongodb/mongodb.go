// Package mongodb implements the credential store on a MongoDB collection.
package mongodb

import (
	"context"
	"log/slog"

	"gatekeeper/config"
	"gatekeeper/internal/domain/lifecycle"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/persistence/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
)

// New connects to MongoDB and returns the users collection. The start hook
// pings the server and ensures the unique indexes; the stop hook disconnects.
func New(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*mongo.Collection, error) {
	if cfg.MongoDB == nil || cfg.MongoDB.URI == "" {
		return nil, errors.New("mongodb configuration is missing")
	}

	clientOpts := options.Client().
		ApplyURI(cfg.MongoDB.URI).
		SetConnectTimeout(cfg.MongoDB.ConnectTimeout).
		SetServerSelectionTimeout(cfg.MongoDB.ConnectTimeout)

	client, err := mongo.Connect(context.Background(), clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MongoDB client")
	}

	collection := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx, readpref.Primary()); err != nil {
				return errors.Wrap(err, "failed to ping MongoDB")
			}

			if err := EnsureIndexes(ctx, collection); err != nil {
				return err
			}

			logger.Info("MongoDB connected",
				slog.String("database", cfg.MongoDB.Database),
				slog.String("collection", cfg.MongoDB.Collection),
			)

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			return client.Disconnect(stopCtx)
		},
	})

	return collection, nil
}

// EnsureIndexes creates the unique username and email indexes if missing.
func EnsureIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateMany(ctx, userIndexes())

	return errors.Wrap(err, "failed to create users indexes")
}

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(model.UsernameUniqueIndex),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(model.EmailUniqueIndex),
		},
	}
}

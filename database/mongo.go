package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Database owns the mongo client and hands out the store adapters.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials mongo, pings the primary and selects the named database.
func Connect(ctx context.Context, uri, name string) (*Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	log.Info().Str("database", name).Msg("mongodb connected...")

	return &Database{
		client: client,
		db:     client.Database(name),
	}, nil
}

func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// Users returns the user store bound to its collection.
func (d *Database) Users() *UserStore {
	return NewUserStore(d.db.Collection("users"))
}

// Videos returns the video store bound to its collection.
func (d *Database) Videos() *VideoStore {
	return NewVideoStore(d.db.Collection("videos"))
}

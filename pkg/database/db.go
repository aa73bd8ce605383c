// Package database owns the MongoDB client for the application.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/cremaze/cremaze/config"
)

var (
	Client *mongo.Client
	db     *mongo.Database
)

// Connect opens the MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context) error {
	opts := options.Client().
		ApplyURI(config.MongoURI()).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(25)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("database: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("database: ping: %w", err)
	}

	Client = client
	db = client.Database(config.MongoDB())
	return nil
}

// Disconnect closes the client. Safe to call when never connected.
func Disconnect(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}

// Collection returns a handle to a named collection in the app database.
func Collection(name string) *mongo.Collection {
	return db.Collection(name)
}

// WithTransaction runs fn inside a multi-document transaction when the
// deployment supports it (replica set / mongos). On standalone servers,
// where transactions are unavailable, fn runs without one — the dual write
// then matches the pre-transaction behaviour of sequential updates.
func WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := Client.StartSession()
	if err != nil {
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && isTransactionUnsupported(err) {
		return fn(ctx)
	}
	return err
}

func isTransactionUnsupported(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Transaction numbers are only allowed") ||
		strings.Contains(msg, "transactions are not supported")
}

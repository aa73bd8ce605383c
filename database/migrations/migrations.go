// Package migrations manages MongoDB index and collection setup.
// Each migration file registers itself through init(); the package is
// imported by cmd/cremaze so everything is registered at CLI startup.
// Applied migrations are recorded in the "migrations" collection.
package migrations

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/cremaze/cremaze/pkg/database"
)

type migration struct {
	name string
	up   func(ctx context.Context) error
}

var registry []migration

// Register adds a migration under a sortable timestamped name.
func Register(name string, up func(ctx context.Context) error) {
	registry = append(registry, migration{name: name, up: up})
}

func appliedSet(ctx context.Context) (map[string]bool, error) {
	cur, err := database.Collection("migrations").Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	applied := map[string]bool{}
	for cur.Next(ctx) {
		var rec struct {
			Name string `bson:"name"`
		}
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		applied[rec.Name] = true
	}
	return applied, cur.Err()
}

// Run applies every pending migration in name order.
func Run(ctx context.Context) error {
	applied, err := appliedSet(ctx)
	if err != nil {
		return fmt.Errorf("migrations: read state: %w", err)
	}

	sort.Slice(registry, func(i, j int) bool { return registry[i].name < registry[j].name })

	for _, m := range registry {
		if applied[m.name] {
			continue
		}
		if err := m.up(ctx); err != nil {
			return fmt.Errorf("migrations: %s: %w", m.name, err)
		}
		_, err := database.Collection("migrations").InsertOne(ctx, bson.M{
			"name":      m.name,
			"appliedAt": time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("migrations: record %s: %w", m.name, err)
		}
		fmt.Printf("migrated  %s\n", m.name)
	}
	return nil
}

// Status prints each migration with its applied state.
func Status(ctx context.Context) error {
	applied, err := appliedSet(ctx)
	if err != nil {
		return fmt.Errorf("migrations: read state: %w", err)
	}

	sort.Slice(registry, func(i, j int) bool { return registry[i].name < registry[j].name })

	for _, m := range registry {
		state := "pending"
		if applied[m.name] {
			state = "applied"
		}
		fmt.Printf("%-8s  %s\n", state, m.name)
	}
	return nil
}

package seeders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/pkg/auth"
	"github.com/cremaze/cremaze/pkg/database"
)

func init() {
	Register("admin-user", SeedAdminUser)
	Register("products", SeedProducts)
}

// SeedAdminUser creates the back-office account when none exists. Change the
// password immediately after first login.
func SeedAdminUser(ctx context.Context) error {
	col := database.Collection("users")

	n, err := col.CountDocuments(ctx, bson.M{"isAdmin": true})
	if err != nil || n > 0 {
		return err
	}

	hash, err := auth.HashPassword("changeme123")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = col.InsertOne(ctx, models.User{
		FirstName: "CreMaze",
		LastName:  "Admin",
		Email:     "admin@cremaze.shop",
		Password:  hash,
		IsAdmin:   true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return err
}

// SeedProducts fills an empty catalog with the launch range. Prices in paise.
func SeedProducts(ctx context.Context) error {
	col := database.Collection("products")

	n, err := col.CountDocuments(ctx, bson.M{})
	if err != nil || n > 0 {
		return err
	}

	now := time.Now().UTC()
	launch := []interface{}{
		models.Product{Name: "Alphonso Mango Tub", Description: "Slow-churned with Ratnagiri alphonso pulp, 500ml.", Price: 34900, CreatedAt: now, UpdatedAt: now},
		models.Product{Name: "Pista Kulfi", Description: "Traditional kulfi with roasted pistachios.", Price: 12000, CreatedAt: now, UpdatedAt: now},
		models.Product{Name: "Dark Chocolate Scoop", Description: "70% single-origin dark chocolate.", Price: 14900, CreatedAt: now, UpdatedAt: now},
		models.Product{Name: "Filter Coffee Crunch", Description: "South Indian filter coffee with praline shards.", Price: 19900, CreatedAt: now, UpdatedAt: now},
		models.Product{Name: "Tender Coconut Sorbet", Description: "Dairy-free, made with fresh tender coconut.", Price: 17500, CreatedAt: now, UpdatedAt: now},
	}
	_, err = col.InsertMany(ctx, launch)
	return err
}

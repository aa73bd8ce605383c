package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cremaze/cremaze/pkg/database"
)

func init() {
	Register("20260801000000_user_indexes", userIndexes)
	Register("20260801000001_order_indexes", orderIndexes)
	Register("20260801000002_payment_indexes", paymentIndexes)
	Register("20260801000003_contact_indexes", contactIndexes)
}

func userIndexes(ctx context.Context) error {
	_, err := database.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func orderIndexes(ctx context.Context) error {
	_, err := database.Collection("orders").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func paymentIndexes(ctx context.Context) error {
	_, err := database.Collection("payments").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "gatewayOrderId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$gt": ""}}),
		},
		{Keys: bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func contactIndexes(ctx context.Context) error {
	_, err := database.Collection("contacts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "isRead", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

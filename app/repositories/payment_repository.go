package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/pkg/database"
)

// PaymentRepository handles persistence for Payment documents. gatewayOrderId
// carries a unique index (see database/migrations), so one gateway order maps
// to exactly one document.
type PaymentRepository struct{}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

func (r *PaymentRepository) col() *mongo.Collection {
	return database.Collection("payments")
}

// Create inserts a new payment attempt.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	res, err := r.col().InsertOne(ctx, payment)
	if err != nil {
		return err
	}
	payment.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByGatewayOrderID looks up the payment for a gateway order.
func (r *PaymentRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (models.Payment, error) {
	var payment models.Payment
	err := r.col().FindOne(ctx, bson.M{"gatewayOrderId": gatewayOrderID}).Decode(&payment)
	return payment, err
}

// FindByOrderID returns the most recent payment attempt for an order.
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID primitive.ObjectID) (models.Payment, error) {
	var payment models.Payment
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.col().FindOne(ctx, bson.M{"order": orderID}, opts).Decode(&payment)
	return payment, err
}

// FindByIdempotencyKey returns the payment created under a given
// Idempotency-Key, if any.
func (r *PaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (models.Payment, error) {
	var payment models.Payment
	err := r.col().FindOne(ctx, bson.M{"idempotencyKey": key}).Decode(&payment)
	return payment, err
}

// MarkSucceeded records a verified payment against its gateway order.
func (r *PaymentRepository) MarkSucceeded(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error {
	res, err := r.col().UpdateOne(ctx,
		bson.M{"gatewayOrderId": gatewayOrderID},
		bson.M{"$set": bson.M{
			"gatewayPaymentId": gatewayPaymentID,
			"status":           models.PaymentSucceeded,
			"updatedAt":        time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpsertFailed marks the payment for a gateway order as failed, creating the
// document when the failure webhook beats the intent write. Only non-terminal
// attempts are touched: a record that already reached succeeded stays
// succeeded, so a late or replayed failure callback cannot contradict a
// verified payment.
func (r *PaymentRepository) UpsertFailed(ctx context.Context, gatewayOrderID string) error {
	now := time.Now().UTC()
	_, err := r.col().UpdateOne(ctx,
		bson.M{
			"gatewayOrderId": gatewayOrderID,
			"status": bson.M{"$in": bson.A{
				models.PaymentCreated, models.PaymentPending, models.PaymentFailed,
			}},
		},
		bson.M{
			"$set":         bson.M{"status": models.PaymentFailed, "updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// A succeeded (or refunded) document exists for this gateway order;
		// the unique index stopped the upsert from inserting a rival row.
		return nil
	}
	return err
}

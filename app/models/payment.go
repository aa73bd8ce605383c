package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus tracks a payment attempt through the gateway flow.
type PaymentStatus string

const (
	PaymentCreated   PaymentStatus = "created"
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is one gateway payment attempt for an order. GatewayOrderID is
// unique: retries for the same gateway order update this document rather than
// inserting a sibling. Amount is paise.
type Payment struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User             primitive.ObjectID `bson:"user" json:"user"`
	Order            primitive.ObjectID `bson:"order" json:"order"`
	GatewayOrderID   string             `bson:"gatewayOrderId" json:"gatewayOrderId"`
	GatewayPaymentID string             `bson:"gatewayPaymentId,omitempty" json:"gatewayPaymentId,omitempty"`
	Amount           int64              `bson:"amount" json:"amount"`
	Currency         string             `bson:"currency" json:"currency"`
	Status           PaymentStatus      `bson:"status" json:"status"`
	IdempotencyKey   string             `bson:"idempotencyKey,omitempty" json:"-"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

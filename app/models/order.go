package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the single source of truth for an order's lifecycle state.
type OrderStatus string

const (
	OrderPlaced    OrderStatus = "Placed"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

// OrderItem is a point-in-time snapshot of a product at purchase. Price is in
// paise; later product edits never change it.
type OrderItem struct {
	Product primitive.ObjectID `bson:"product" json:"product"`
	Name    string             `bson:"name" json:"name"`
	Image   string             `bson:"image" json:"image"`
	Qty     int                `bson:"qty" json:"qty"`
	Price   int64              `bson:"price" json:"price"`
}

// ShippingAddress is the delivery destination captured at checkout.
type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// PaymentResult records the gateway identifiers attached to a paid order.
type PaymentResult struct {
	GatewayOrderID   string `bson:"gatewayOrderId,omitempty" json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string `bson:"gatewayPaymentId,omitempty" json:"gatewayPaymentId,omitempty"`
	Status           string `bson:"status,omitempty" json:"status,omitempty"`
}

// Order is a placed customer order. All money fields are paise.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	ItemsPrice      int64              `bson:"itemsPrice" json:"itemsPrice"`
	TaxPrice        int64              `bson:"taxPrice" json:"taxPrice"`
	ShippingPrice   int64              `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice      int64              `bson:"totalPrice" json:"totalPrice"`
	Status          OrderStatus        `bson:"status" json:"status"`
	IsPaid          bool               `bson:"isPaid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	PaymentResult   *PaymentResult     `bson:"paymentResult,omitempty" json:"paymentResult,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Purchaser is populated on admin listings only (joined from users).
	Purchaser *OrderPurchaser `bson:"purchaser,omitempty" json:"purchaser,omitempty"`
}

// OrderPurchaser is the joined user summary shown on admin order listings.
type OrderPurchaser struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

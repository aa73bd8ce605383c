package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/repositories"
	"github.com/cremaze/cremaze/config"
	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/cache"
	"github.com/cremaze/cremaze/pkg/database"
	"github.com/cremaze/cremaze/pkg/event"
	"github.com/cremaze/cremaze/pkg/gateway"
	"github.com/cremaze/cremaze/pkg/metrics"
)

// PaymentStore is the persistence surface PaymentService needs.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (models.Payment, error)
	FindByOrderID(ctx context.Context, orderID primitive.ObjectID) (models.Payment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (models.Payment, error)
	MarkSucceeded(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error
	UpsertFailed(ctx context.Context, gatewayOrderID string) error
}

// PaidOrderStore is the slice of order persistence the payment flow touches.
type PaidOrderStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID, result models.PaymentResult, paidAt time.Time) error
}

// TxRunner runs fn atomically when the deployment supports transactions.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// PaymentService drives the gateway payment flow: intent creation, signature
// verification and the paid-state dual write.
type PaymentService struct {
	payments PaymentStore
	orders   PaidOrderStore
	gateway  gateway.Client
	tx       TxRunner
	secret   func() string
}

func NewPaymentService() *PaymentService {
	return &PaymentService{
		payments: repositories.NewPaymentRepository(),
		orders:   repositories.NewOrderRepository(),
		gateway:  gateway.New(),
		tx:       database.WithTransaction,
		secret:   config.PaymentKeySecret,
	}
}

func NewPaymentServiceWith(payments PaymentStore, orders PaidOrderStore, gw gateway.Client, tx TxRunner, secret func() string) *PaymentService {
	return &PaymentService{payments: payments, orders: orders, gateway: gw, tx: tx, secret: secret}
}

// Intent is what the storefront needs to open the gateway checkout widget.
type Intent struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"keyId"`
}

// CreateIntent creates a gateway order for an unpaid order. A repeated
// Idempotency-Key returns the intent created the first time instead of
// opening a second gateway order.
func (s *PaymentService) CreateIntent(ctx context.Context, userID, orderID, idempotencyKey string) (Intent, error) {
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return Intent{}, apperr.Validation("invalid order id")
	}

	order, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Intent{}, apperr.NotFound("Order not found")
		}
		return Intent{}, apperr.Persistence("could not load order", err)
	}
	if order.User.Hex() != userID {
		return Intent{}, apperr.Authorization("Not authorized to pay for this order")
	}
	if order.IsPaid {
		return Intent{}, apperr.Conflict("Order is already paid")
	}
	if order.Status == models.OrderCancelled {
		return Intent{}, apperr.Conflict("Cancelled orders cannot be paid")
	}

	if idempotencyKey != "" {
		if prior, err := s.payments.FindByIdempotencyKey(ctx, idempotencyKey); err == nil {
			return s.intentFrom(prior), nil
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return Intent{}, apperr.Persistence("could not check idempotency key", err)
		}

		// Reserve the key so a concurrent retry waits for this request
		// instead of opening a second gateway order. The store lookup above
		// stays authoritative; the reservation only narrows the race.
		reserved, err := cache.SetNX("payment:idem:"+idempotencyKey, orderID, 2*time.Minute)
		if err == nil && !reserved {
			return Intent{}, apperr.Conflict("A payment request with this key is already in progress")
		}
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, order.TotalPrice, config.PaymentCurrency(), order.ID.Hex())
	if err != nil {
		return Intent{}, apperr.Upstream("payment gateway rejected the order", err)
	}

	payment := models.Payment{
		User:           order.User,
		Order:          order.ID,
		GatewayOrderID: gwOrder.ID,
		Amount:         order.TotalPrice,
		Currency:       gwOrder.Currency,
		Status:         models.PaymentCreated,
		IdempotencyKey: idempotencyKey,
	}
	if err := s.payments.Create(ctx, &payment); err != nil {
		return Intent{}, apperr.Persistence("could not record payment", err)
	}
	return s.intentFrom(payment), nil
}

func (s *PaymentService) intentFrom(p models.Payment) Intent {
	return Intent{
		GatewayOrderID: p.GatewayOrderID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		KeyID:          config.PaymentKeyID(),
	}
}

// VerifyInput is the gateway callback payload relayed by the storefront.
type VerifyInput struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
}

// Verify checks the gateway signature and, on a match, marks the order paid
// and the payment succeeded in one transaction. A replay of an already
// applied verification succeeds without touching state.
func (s *PaymentService) Verify(ctx context.Context, in VerifyInput) (models.Order, error) {
	if !gateway.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature, s.secret()) {
		metrics.PaymentVerifications.WithLabelValues("forged").Inc()
		return models.Order{}, apperr.Signature("Invalid payment signature")
	}

	payment, err := s.payments.FindByGatewayOrderID(ctx, in.GatewayOrderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Order{}, apperr.NotFound("No payment found for this gateway order")
		}
		return models.Order{}, apperr.Persistence("could not load payment", err)
	}

	order, err := s.orders.FindByID(ctx, payment.Order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Order{}, apperr.NotFound("Order not found")
		}
		return models.Order{}, apperr.Persistence("could not load order", err)
	}

	if order.IsPaid {
		if order.PaymentResult != nil && order.PaymentResult.GatewayPaymentID == in.GatewayPaymentID {
			metrics.PaymentVerifications.WithLabelValues("replay").Inc()
			return order, nil
		}
		metrics.PaymentVerifications.WithLabelValues("error").Inc()
		return models.Order{}, apperr.Conflict("Order is already paid with a different payment")
	}

	paidAt := time.Now().UTC()
	result := models.PaymentResult{
		GatewayOrderID:   in.GatewayOrderID,
		GatewayPaymentID: in.GatewayPaymentID,
		Status:           string(models.PaymentSucceeded),
	}

	err = s.tx(ctx, func(txCtx context.Context) error {
		if err := s.orders.MarkPaid(txCtx, order.ID, result, paidAt); err != nil {
			return err
		}
		return s.payments.MarkSucceeded(txCtx, in.GatewayOrderID, in.GatewayPaymentID)
	})
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("error").Inc()
		return models.Order{}, apperr.Persistence("could not record payment result", err)
	}

	order.IsPaid = true
	order.PaidAt = &paidAt
	order.PaymentResult = &result
	metrics.PaymentVerifications.WithLabelValues("ok").Inc()
	event.FireAsync(event.OrderPaid, order)
	return order, nil
}

// Fail records a gateway failure for an order, for example when the checkout
// widget reports payment.failed. Idempotent.
func (s *PaymentService) Fail(ctx context.Context, gatewayOrderID string) error {
	if gatewayOrderID == "" {
		return apperr.Validation("gateway order id is required")
	}
	if err := s.payments.UpsertFailed(ctx, gatewayOrderID); err != nil {
		return apperr.Persistence("could not record payment failure", err)
	}
	return nil
}

// Status summarises the payment state of an order for its owner.
type Status struct {
	OrderID       string `json:"orderId"`
	PaymentMethod string `json:"paymentMethod"`
	IsPaid        bool   `json:"isPaid"`
	TotalPrice    int64  `json:"totalPrice"`
}

// GetStatus returns the payment status of an order. Non-admins may only read
// their own orders.
func (s *PaymentService) GetStatus(ctx context.Context, orderID, userID string, isAdmin bool) (Status, error) {
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return Status{}, apperr.Validation("invalid order id")
	}
	order, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Status{}, apperr.NotFound("Order not found")
		}
		return Status{}, apperr.Persistence("could not load order", err)
	}
	if !isAdmin && order.User.Hex() != userID {
		return Status{}, apperr.Authorization("Not authorized to view this order")
	}
	return Status{
		OrderID:       order.ID.Hex(),
		PaymentMethod: order.PaymentMethod,
		IsPaid:        order.IsPaid,
		TotalPrice:    order.TotalPrice,
	}, nil
}

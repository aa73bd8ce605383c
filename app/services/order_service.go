package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/repositories"
	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/collection"
	"github.com/cremaze/cremaze/pkg/event"
	"github.com/cremaze/cremaze/pkg/metrics"
)

// Pricing constants, in paise. Orders at or under the free-shipping threshold
// pay the flat rate; tax is 5% of the items subtotal.
const (
	shippingFlatRate      int64 = 5000
	freeShippingThreshold int64 = 100000
	taxRatePercent        int64 = 5
)

// OrderStore is the persistence surface OrderService needs.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, set bson.M, unset []string) error
}

// OrderService implements checkout and the admin order state machine.
type OrderService struct {
	orders OrderStore
}

func NewOrderService() *OrderService {
	return &OrderService{orders: repositories.NewOrderRepository()}
}

func NewOrderServiceWith(orders OrderStore) *OrderService {
	return &OrderService{orders: orders}
}

// OrderItemInput is one cart line at checkout. Price is paise.
type OrderItemInput struct {
	Product string `json:"product" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Image   string `json:"image" validate:"nullable"`
	Qty     int    `json:"qty" validate:"required,gt=0"`
	Price   int64  `json:"price" validate:"required,gt=0"`
}

// CreateOrderInput is the checkout payload.
type CreateOrderInput struct {
	Items           []OrderItemInput       `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required"`
}

// ComputePrices derives tax, shipping and total from the items subtotal.
// itemsPrice is paise; tax rounds half away from zero on the paise value.
func ComputePrices(itemsPrice int64) (tax, shipping, total int64) {
	tax = (itemsPrice*taxRatePercent + 50) / 100
	if itemsPrice <= freeShippingThreshold {
		shipping = shippingFlatRate
	}
	return tax, shipping, itemsPrice + tax + shipping
}

// Create places an order for the given user, snapshotting items and computing
// prices server-side.
func (s *OrderService) Create(ctx context.Context, userID string, in CreateOrderInput) (models.Order, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.Order{}, apperr.Authentication("invalid token subject")
	}
	if len(in.Items) == 0 {
		return models.Order{}, apperr.Validation("No order items")
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		pid, err := primitive.ObjectIDFromHex(it.Product)
		if err != nil {
			return models.Order{}, apperr.Validation("invalid product id in items")
		}
		if it.Name == "" || it.Qty <= 0 || it.Price <= 0 {
			return models.Order{}, apperr.Validation("each item needs a name, a positive qty and a positive price")
		}
		items = append(items, models.OrderItem{
			Product: pid,
			Name:    it.Name,
			Image:   it.Image,
			Qty:     it.Qty,
			Price:   it.Price,
		})
	}
	itemsPrice := collection.Sum(items, func(it models.OrderItem) int64 {
		return it.Price * int64(it.Qty)
	})

	tax, shipping, total := ComputePrices(itemsPrice)
	order := models.Order{
		User:            uid,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      itemsPrice,
		TaxPrice:        tax,
		ShippingPrice:   shipping,
		TotalPrice:      total,
		Status:          models.OrderPlaced,
	}

	if err := s.orders.Create(ctx, &order); err != nil {
		return models.Order{}, apperr.Persistence("could not create order", err)
	}

	metrics.OrdersPlaced.Inc()
	event.FireAsync(event.OrderCreated, order)
	return order, nil
}

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, userID string) ([]models.Order, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Authentication("invalid token subject")
	}
	orders, err := s.orders.ListByUser(ctx, uid)
	if err != nil {
		return nil, apperr.Persistence("could not load orders", err)
	}
	return orders, nil
}

// ListAll returns every order with purchaser details, for the back office.
func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, apperr.Persistence("could not load orders", err)
	}
	return orders, nil
}

// Get returns one order. Non-admin callers may only read their own.
func (s *OrderService) Get(ctx context.Context, id, userID string, isAdmin bool) (models.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !isAdmin && order.User.Hex() != userID {
		return models.Order{}, apperr.Authorization("Not authorized to view this order")
	}
	return order, nil
}

// MarkDelivered moves a placed order to Delivered.
func (s *OrderService) MarkDelivered(ctx context.Context, id string) (models.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return models.Order{}, err
	}

	switch order.Status {
	case models.OrderCancelled:
		return models.Order{}, apperr.Conflict("Cancelled orders cannot be delivered")
	case models.OrderDelivered:
		return models.Order{}, apperr.Conflict("Order is already delivered")
	}

	now := time.Now().UTC()
	err = s.orders.UpdateStatus(ctx, order.ID, models.OrderPlaced, models.OrderDelivered,
		bson.M{"deliveredAt": now}, nil)
	if err != nil {
		return models.Order{}, s.transitionErr(err)
	}

	order.Status = models.OrderDelivered
	order.DeliveredAt = &now
	metrics.OrderTransitions.WithLabelValues("delivered").Inc()
	event.FireAsync(event.OrderUpdated, order)
	return order, nil
}

// Cancel moves a placed order to Cancelled.
func (s *OrderService) Cancel(ctx context.Context, id string) (models.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return models.Order{}, err
	}

	switch order.Status {
	case models.OrderDelivered:
		return models.Order{}, apperr.Conflict("Delivered orders cannot be cancelled")
	case models.OrderCancelled:
		return models.Order{}, apperr.Conflict("Order is already cancelled")
	}

	now := time.Now().UTC()
	err = s.orders.UpdateStatus(ctx, order.ID, models.OrderPlaced, models.OrderCancelled,
		bson.M{"cancelledAt": now}, nil)
	if err != nil {
		return models.Order{}, s.transitionErr(err)
	}

	order.Status = models.OrderCancelled
	order.CancelledAt = &now
	metrics.OrderTransitions.WithLabelValues("cancelled").Inc()
	event.FireAsync(event.OrderUpdated, order)
	return order, nil
}

// Restore moves a cancelled order back to Placed.
func (s *OrderService) Restore(ctx context.Context, id string) (models.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return models.Order{}, err
	}

	if order.Status != models.OrderCancelled {
		return models.Order{}, apperr.Conflict("Only cancelled orders can be restored")
	}

	err = s.orders.UpdateStatus(ctx, order.ID, models.OrderCancelled, models.OrderPlaced,
		nil, []string{"cancelledAt"})
	if err != nil {
		return models.Order{}, s.transitionErr(err)
	}

	order.Status = models.OrderPlaced
	order.CancelledAt = nil
	metrics.OrderTransitions.WithLabelValues("restored").Inc()
	event.FireAsync(event.OrderUpdated, order)
	return order, nil
}

func (s *OrderService) find(ctx context.Context, id string) (models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Order{}, apperr.Validation("invalid order id")
	}
	order, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Order{}, apperr.NotFound("Order not found")
		}
		return models.Order{}, apperr.Persistence("could not load order", err)
	}
	return order, nil
}

// transitionErr translates a guarded status update that matched nothing into
// a conflict: the order moved out from under us between the read and update.
func (s *OrderService) transitionErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Conflict("Order status changed, retry the action")
	}
	return apperr.Persistence("could not update order status", err)
}

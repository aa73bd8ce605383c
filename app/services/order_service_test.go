package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/validate"
)

type fakeOrderStore struct {
	orders map[primitive.ObjectID]models.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[primitive.ObjectID]models.Order{}}
}

func (f *fakeOrderStore) Create(_ context.Context, order *models.Order) error {
	order.ID = primitive.NewObjectID()
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, mongo.ErrNoDocuments
	}
	return o, nil
}

func (f *fakeOrderStore) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range f.orders {
		if o.User == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListAll(_ context.Context) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus, set bson.M, unset []string) error {
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return mongo.ErrNoDocuments
	}
	o.Status = to
	f.orders[id] = o
	return nil
}

func seedOrder(f *fakeOrderStore, user primitive.ObjectID, status models.OrderStatus) models.Order {
	o := models.Order{
		ID:     primitive.NewObjectID(),
		User:   user,
		Status: status,
		Items:  []models.OrderItem{{Product: primitive.NewObjectID(), Name: "Vanilla Scoop", Qty: 1, Price: 5000}},
	}
	f.orders[o.ID] = o
	return o
}

func TestComputePrices(t *testing.T) {
	// The worked example: Rs 500 of items carries Rs 25 tax and Rs 50
	// shipping for a Rs 575 total.
	tax, shipping, total := ComputePrices(50000)
	assert.Equal(t, int64(2500), tax)
	assert.Equal(t, int64(5000), shipping)
	assert.Equal(t, int64(57500), total)

	// Above the threshold shipping is free.
	tax, shipping, total = ComputePrices(200000)
	assert.Equal(t, int64(10000), tax)
	assert.Equal(t, int64(0), shipping)
	assert.Equal(t, int64(210000), total)

	// Exactly at the threshold still pays shipping.
	_, shipping, _ = ComputePrices(100000)
	assert.Equal(t, int64(5000), shipping)
}

func TestCreateOrder(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderServiceWith(store)
	user := primitive.NewObjectID()

	in := CreateOrderInput{
		Items: []OrderItemInput{
			{Product: primitive.NewObjectID().Hex(), Name: "Mango Tub", Qty: 2, Price: 20000},
			{Product: primitive.NewObjectID().Hex(), Name: "Choco Bar", Qty: 1, Price: 10000},
		},
		PaymentMethod: "razorpay",
	}

	order, err := svc.Create(context.Background(), user.Hex(), in)
	require.NoError(t, err)

	assert.Equal(t, models.OrderPlaced, order.Status)
	assert.False(t, order.IsPaid)
	assert.Equal(t, int64(50000), order.ItemsPrice)
	assert.Equal(t, int64(57500), order.TotalPrice)
	assert.Len(t, order.Items, 2)
	assert.False(t, order.ID.IsZero())
}

func TestCreateOrderRejectsEmptyAndBadItems(t *testing.T) {
	svc := NewOrderServiceWith(newFakeOrderStore())
	user := primitive.NewObjectID().Hex()

	_, err := svc.Create(context.Background(), user, CreateOrderInput{PaymentMethod: "razorpay"})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = svc.Create(context.Background(), user, CreateOrderInput{
		Items:         []OrderItemInput{{Product: primitive.NewObjectID().Hex(), Name: "Bad", Qty: 0, Price: 100}},
		PaymentMethod: "razorpay",
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = svc.Create(context.Background(), user, CreateOrderInput{
		Items:         []OrderItemInput{{Product: "not-an-id", Name: "Bad", Qty: 1, Price: 100}},
		PaymentMethod: "razorpay",
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestStatusTransitions(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderServiceWith(store)
	user := primitive.NewObjectID()

	t.Run("deliver placed", func(t *testing.T) {
		o := seedOrder(store, user, models.OrderPlaced)
		got, err := svc.MarkDelivered(context.Background(), o.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.OrderDelivered, got.Status)
		assert.NotNil(t, got.DeliveredAt)
	})

	t.Run("deliver cancelled is rejected", func(t *testing.T) {
		o := seedOrder(store, user, models.OrderCancelled)
		_, err := svc.MarkDelivered(context.Background(), o.ID.Hex())
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
		assert.Contains(t, err.Error(), "Cancelled orders cannot be delivered")
		// State unchanged.
		cur, _ := store.FindByID(context.Background(), o.ID)
		assert.Equal(t, models.OrderCancelled, cur.Status)
	})

	t.Run("cancel delivered is rejected", func(t *testing.T) {
		o := seedOrder(store, user, models.OrderDelivered)
		_, err := svc.Cancel(context.Background(), o.ID.Hex())
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
		assert.Contains(t, err.Error(), "Delivered orders cannot be cancelled")
	})

	t.Run("cancel then restore round trip", func(t *testing.T) {
		o := seedOrder(store, user, models.OrderPlaced)

		got, err := svc.Cancel(context.Background(), o.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.OrderCancelled, got.Status)

		got, err = svc.Restore(context.Background(), o.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.OrderPlaced, got.Status)
		assert.Nil(t, got.CancelledAt)
	})

	t.Run("restore placed is rejected", func(t *testing.T) {
		o := seedOrder(store, user, models.OrderPlaced)
		_, err := svc.Restore(context.Background(), o.ID.Hex())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Only cancelled orders can be restored")
	})

	t.Run("double cancel is rejected", func(t *testing.T) {
		o := seedOrder(store, user, models.OrderCancelled)
		_, err := svc.Cancel(context.Background(), o.ID.Hex())
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := svc.MarkDelivered(context.Background(), primitive.NewObjectID().Hex())
		assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	})
}

func TestGetOrderAuthorization(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderServiceWith(store)

	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	o := seedOrder(store, owner, models.OrderPlaced)

	// Owner reads their own order.
	got, err := svc.Get(context.Background(), o.ID.Hex(), owner.Hex(), false)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	// A different non-admin user is refused.
	_, err = svc.Get(context.Background(), o.ID.Hex(), stranger.Hex(), false)
	assert.True(t, apperr.IsCode(err, apperr.CodeAuthorization))

	// An admin reads anyone's order.
	_, err = svc.Get(context.Background(), o.ID.Hex(), stranger.Hex(), true)
	assert.NoError(t, err)

	// Unknown id is not found, malformed id is a validation error.
	_, err = svc.Get(context.Background(), primitive.NewObjectID().Hex(), owner.Hex(), true)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	_, err = svc.Get(context.Background(), "garbage", owner.Hex(), true)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestOrderItemInputTags(t *testing.T) {
	errs := validate.Struct(OrderItemInput{Product: "p1", Name: "Vanilla Tub", Qty: 0, Price: 10000})
	assert.Contains(t, errs, "qty")

	errs = validate.Struct(OrderItemInput{Product: "p1", Name: "Vanilla Tub", Qty: 2, Price: -1})
	assert.Contains(t, errs, "price")

	errs = validate.Struct(OrderItemInput{Product: "p1", Name: "Vanilla Tub", Qty: 2, Price: 10000})
	assert.False(t, validate.HasErrors(errs), "unexpected errors: %v", errs)
}

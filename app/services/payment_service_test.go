package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/gateway"
)

const testSecret = "test-gateway-secret"

type fakePaymentStore struct {
	byGatewayOrder map[string]models.Payment
	created        int
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{byGatewayOrder: map[string]models.Payment{}}
}

func (f *fakePaymentStore) Create(_ context.Context, p *models.Payment) error {
	p.ID = primitive.NewObjectID()
	f.byGatewayOrder[p.GatewayOrderID] = *p
	f.created++
	return nil
}

func (f *fakePaymentStore) FindByGatewayOrderID(_ context.Context, id string) (models.Payment, error) {
	p, ok := f.byGatewayOrder[id]
	if !ok {
		return models.Payment{}, mongo.ErrNoDocuments
	}
	return p, nil
}

func (f *fakePaymentStore) FindByOrderID(_ context.Context, orderID primitive.ObjectID) (models.Payment, error) {
	for _, p := range f.byGatewayOrder {
		if p.Order == orderID {
			return p, nil
		}
	}
	return models.Payment{}, mongo.ErrNoDocuments
}

func (f *fakePaymentStore) FindByIdempotencyKey(_ context.Context, key string) (models.Payment, error) {
	for _, p := range f.byGatewayOrder {
		if p.IdempotencyKey != "" && p.IdempotencyKey == key {
			return p, nil
		}
	}
	return models.Payment{}, mongo.ErrNoDocuments
}

func (f *fakePaymentStore) MarkSucceeded(_ context.Context, gatewayOrderID, gatewayPaymentID string) error {
	p, ok := f.byGatewayOrder[gatewayOrderID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	p.GatewayPaymentID = gatewayPaymentID
	p.Status = models.PaymentSucceeded
	f.byGatewayOrder[gatewayOrderID] = p
	return nil
}

func (f *fakePaymentStore) UpsertFailed(_ context.Context, gatewayOrderID string) error {
	p, ok := f.byGatewayOrder[gatewayOrderID]
	if ok && (p.Status == models.PaymentSucceeded || p.Status == models.PaymentRefunded) {
		return nil // terminal, left untouched
	}
	p.GatewayOrderID = gatewayOrderID
	p.Status = models.PaymentFailed
	f.byGatewayOrder[gatewayOrderID] = p
	return nil
}

type fakePaidOrderStore struct {
	orders map[primitive.ObjectID]models.Order
}

func newFakePaidOrderStore() *fakePaidOrderStore {
	return &fakePaidOrderStore{orders: map[primitive.ObjectID]models.Order{}}
}

func (f *fakePaidOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, mongo.ErrNoDocuments
	}
	return o, nil
}

func (f *fakePaidOrderStore) MarkPaid(_ context.Context, id primitive.ObjectID, result models.PaymentResult, paidAt time.Time) error {
	o, ok := f.orders[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	o.IsPaid = true
	o.PaidAt = &paidAt
	o.PaymentResult = &result
	f.orders[id] = o
	return nil
}

type fakeGateway struct {
	next int
	fail bool
}

func (f *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (gateway.Order, error) {
	if f.fail {
		return gateway.Order{}, errors.New("gateway down")
	}
	f.next++
	return gateway.Order{ID: fmt.Sprintf("order_gw%03d", f.next), Amount: amount, Currency: currency}, nil
}

func directTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newPaymentFixture() (*PaymentService, *fakePaymentStore, *fakePaidOrderStore, *fakeGateway) {
	payments := newFakePaymentStore()
	orders := newFakePaidOrderStore()
	gw := &fakeGateway{}
	svc := NewPaymentServiceWith(payments, orders, gw, directTx, func() string { return testSecret })
	return svc, payments, orders, gw
}

func seedUnpaidOrder(orders *fakePaidOrderStore) models.Order {
	o := models.Order{
		ID:         primitive.NewObjectID(),
		User:       primitive.NewObjectID(),
		Status:     models.OrderPlaced,
		TotalPrice: 57500,
	}
	orders.orders[o.ID] = o
	return o
}

func TestCreateIntent(t *testing.T) {
	svc, payments, orders, _ := newPaymentFixture()
	order := seedUnpaidOrder(orders)

	intent, err := svc.CreateIntent(context.Background(), order.User.Hex(), order.ID.Hex(), "")
	require.NoError(t, err)
	assert.Equal(t, "order_gw001", intent.GatewayOrderID)
	assert.Equal(t, int64(57500), intent.Amount)
	assert.Equal(t, 1, payments.created)

	p, err := payments.FindByGatewayOrderID(context.Background(), intent.GatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCreated, p.Status)
	assert.Equal(t, order.ID, p.Order)
}

func TestCreateIntentIdempotencyKey(t *testing.T) {
	svc, payments, orders, _ := newPaymentFixture()
	order := seedUnpaidOrder(orders)

	first, err := svc.CreateIntent(context.Background(), order.User.Hex(), order.ID.Hex(), "idem-1")
	require.NoError(t, err)

	second, err := svc.CreateIntent(context.Background(), order.User.Hex(), order.ID.Hex(), "idem-1")
	require.NoError(t, err)

	assert.Equal(t, first.GatewayOrderID, second.GatewayOrderID)
	assert.Equal(t, 1, payments.created, "repeated key must not open a second gateway order")
}

func TestCreateIntentGuards(t *testing.T) {
	svc, _, orders, gw := newPaymentFixture()

	t.Run("unknown order", func(t *testing.T) {
		_, err := svc.CreateIntent(context.Background(), primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex(), "")
		assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	})

	t.Run("not the owner", func(t *testing.T) {
		order := seedUnpaidOrder(orders)
		_, err := svc.CreateIntent(context.Background(), primitive.NewObjectID().Hex(), order.ID.Hex(), "")
		assert.True(t, apperr.IsCode(err, apperr.CodeAuthorization))
	})

	t.Run("already paid", func(t *testing.T) {
		order := seedUnpaidOrder(orders)
		order.IsPaid = true
		orders.orders[order.ID] = order
		_, err := svc.CreateIntent(context.Background(), order.User.Hex(), order.ID.Hex(), "")
		assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	})

	t.Run("cancelled order", func(t *testing.T) {
		order := seedUnpaidOrder(orders)
		order.Status = models.OrderCancelled
		orders.orders[order.ID] = order
		_, err := svc.CreateIntent(context.Background(), order.User.Hex(), order.ID.Hex(), "")
		assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	})

	t.Run("gateway failure", func(t *testing.T) {
		order := seedUnpaidOrder(orders)
		gw.fail = true
		defer func() { gw.fail = false }()
		_, err := svc.CreateIntent(context.Background(), order.User.Hex(), order.ID.Hex(), "")
		assert.True(t, apperr.IsCode(err, apperr.CodeUpstream))
	})
}

func TestVerifyHappyPathAndReplay(t *testing.T) {
	svc, payments, orders, _ := newPaymentFixture()
	order := seedUnpaidOrder(orders)

	intent, err := svc.CreateIntent(context.Background(), order.User.Hex(), order.ID.Hex(), "")
	require.NoError(t, err)

	in := VerifyInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_123",
		Signature:        gateway.Sign(intent.GatewayOrderID, "pay_123", testSecret),
	}

	got, err := svc.Verify(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	require.NotNil(t, got.PaymentResult)
	assert.Equal(t, "pay_123", got.PaymentResult.GatewayPaymentID)

	stored, _ := orders.FindByID(context.Background(), order.ID)
	assert.True(t, stored.IsPaid)
	p, _ := payments.FindByGatewayOrderID(context.Background(), intent.GatewayOrderID)
	assert.Equal(t, models.PaymentSucceeded, p.Status)

	// Replaying the exact same verification succeeds without change.
	firstPaidAt := stored.PaidAt
	got, err = svc.Verify(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	stored, _ = orders.FindByID(context.Background(), order.ID)
	assert.Equal(t, firstPaidAt, stored.PaidAt)
}

func TestVerifyRejectsForgedSignature(t *testing.T) {
	svc, payments, orders, _ := newPaymentFixture()
	order := seedUnpaidOrder(orders)

	intent, err := svc.CreateIntent(context.Background(), order.User.Hex(), order.ID.Hex(), "")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), VerifyInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_123",
		Signature:        gateway.Sign(intent.GatewayOrderID, "pay_123", "wrong-secret"),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeSignature))

	// No state was touched.
	stored, _ := orders.FindByID(context.Background(), order.ID)
	assert.False(t, stored.IsPaid)
	p, _ := payments.FindByGatewayOrderID(context.Background(), intent.GatewayOrderID)
	assert.Equal(t, models.PaymentCreated, p.Status)
}

func TestVerifyConflictingPaymentOnPaidOrder(t *testing.T) {
	svc, _, orders, _ := newPaymentFixture()
	order := seedUnpaidOrder(orders)

	intent, err := svc.CreateIntent(context.Background(), order.User.Hex(), order.ID.Hex(), "")
	require.NoError(t, err)

	first := VerifyInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_aaa",
		Signature:        gateway.Sign(intent.GatewayOrderID, "pay_aaa", testSecret),
	}
	_, err = svc.Verify(context.Background(), first)
	require.NoError(t, err)

	// A different payment id with a valid signature cannot re-pay the order.
	_, err = svc.Verify(context.Background(), VerifyInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_bbb",
		Signature:        gateway.Sign(intent.GatewayOrderID, "pay_bbb", testSecret),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
}

func TestVerifyUnknownGatewayOrder(t *testing.T) {
	svc, _, _, _ := newPaymentFixture()
	_, err := svc.Verify(context.Background(), VerifyInput{
		GatewayOrderID:   "order_missing",
		GatewayPaymentID: "pay_123",
		Signature:        gateway.Sign("order_missing", "pay_123", testSecret),
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestFailUpserts(t *testing.T) {
	svc, payments, _, _ := newPaymentFixture()

	require.NoError(t, svc.Fail(context.Background(), "order_gw999"))
	p, err := payments.FindByGatewayOrderID(context.Background(), "order_gw999")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, p.Status)

	// Repeat is a no-op, not a duplicate.
	require.NoError(t, svc.Fail(context.Background(), "order_gw999"))
	assert.Len(t, payments.byGatewayOrder, 1)

	assert.True(t, apperr.IsCode(svc.Fail(context.Background(), ""), apperr.CodeValidation))
}

func TestFailAfterVerifyLeavesPaymentSucceeded(t *testing.T) {
	svc, payments, orders, _ := newPaymentFixture()
	order := seedUnpaidOrder(orders)

	intent, err := svc.CreateIntent(context.Background(), order.User.Hex(), order.ID.Hex(), "")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), VerifyInput{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_123",
		Signature:        gateway.Sign(intent.GatewayOrderID, "pay_123", testSecret),
	})
	require.NoError(t, err)

	// A late failure callback for the same gateway order is accepted but
	// cannot demote the verified payment.
	require.NoError(t, svc.Fail(context.Background(), intent.GatewayOrderID))

	p, err := payments.FindByGatewayOrderID(context.Background(), intent.GatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSucceeded, p.Status)
	stored, _ := orders.FindByID(context.Background(), order.ID)
	assert.True(t, stored.IsPaid)
}

func TestGetStatus(t *testing.T) {
	svc, _, orders, _ := newPaymentFixture()
	order := seedUnpaidOrder(orders)
	order.PaymentMethod = "razorpay"
	orders.orders[order.ID] = order

	st, err := svc.GetStatus(context.Background(), order.ID.Hex(), order.User.Hex(), false)
	require.NoError(t, err)
	assert.Equal(t, order.ID.Hex(), st.OrderID)
	assert.Equal(t, "razorpay", st.PaymentMethod)
	assert.False(t, st.IsPaid)
	assert.Equal(t, int64(57500), st.TotalPrice)

	_, err = svc.GetStatus(context.Background(), order.ID.Hex(), primitive.NewObjectID().Hex(), false)
	assert.True(t, apperr.IsCode(err, apperr.CodeAuthorization))
}

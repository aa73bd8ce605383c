package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/services"
	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/middleware"
)

type fakeOrderAPI struct {
	created []services.CreateOrderInput
}

func (f *fakeOrderAPI) Create(_ context.Context, _ string, in services.CreateOrderInput) (models.Order, error) {
	if len(in.Items) == 0 {
		return models.Order{}, apperr.Validation("No order items")
	}
	f.created = append(f.created, in)
	return models.Order{Status: models.OrderPlaced, TotalPrice: 57500}, nil
}

func (f *fakeOrderAPI) ListMine(_ context.Context, _ string) ([]models.Order, error) {
	return []models.Order{{Status: models.OrderPlaced}}, nil
}

func (f *fakeOrderAPI) ListAll(_ context.Context) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (f *fakeOrderAPI) Get(_ context.Context, id, userID string, isAdmin bool) (models.Order, error) {
	if id == "theirs" && !isAdmin {
		return models.Order{}, apperr.Authorization("Not authorized to view this order")
	}
	return models.Order{Status: models.OrderPlaced}, nil
}

func (f *fakeOrderAPI) MarkDelivered(_ context.Context, id string) (models.Order, error) {
	if id == "cancelled" {
		return models.Order{}, apperr.Conflict("Cancelled orders cannot be delivered")
	}
	return models.Order{Status: models.OrderDelivered}, nil
}

func (f *fakeOrderAPI) Cancel(_ context.Context, _ string) (models.Order, error) {
	return models.Order{Status: models.OrderCancelled}, nil
}

func (f *fakeOrderAPI) Restore(_ context.Context, _ string) (models.Order, error) {
	return models.Order{Status: models.OrderPlaced}, nil
}

// asUser injects an authenticated identity the way the auth middleware does.
func asUser(req *http.Request, userID string, isAdmin bool) *http.Request {
	ctx := middleware.WithIdentity(req.Context(), middleware.Identity{UserID: userID, IsAdmin: isAdmin})
	return req.WithContext(ctx)
}

func orderRouter(api OrderAPI) http.Handler {
	c := NewOrderControllerWith(api)
	r := chi.NewRouter()
	r.Post("/api/orders", c.Create)
	r.Get("/api/orders/myorders", c.ListMine)
	r.Get("/api/orders/{id}", c.Get)
	r.Put("/api/orders/{id}/deliver", c.MarkDelivered)
	return r
}

func TestOrderCreateHTTP(t *testing.T) {
	api := &fakeOrderAPI{}
	srv := orderRouter(api)

	body := `{"items":[{"product":"65f000000000000000000001","name":"Mango Tub","qty":2,"price":20000}],"paymentMethod":"razorpay"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)), "u1", false)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, api.created, 1)
	assert.Contains(t, rec.Body.String(), `"totalPrice":57500`)
}

func TestOrderCreateRequiresAuth(t *testing.T) {
	srv := orderRouter(&fakeOrderAPI{})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderCreateEmptyItems(t *testing.T) {
	api := &fakeOrderAPI{}
	srv := orderRouter(api)

	body := `{"items":[],"paymentMethod":"razorpay"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)), "u1", false)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No order items")
}

func TestOrderGetAuthorizationMapping(t *testing.T) {
	srv := orderRouter(&fakeOrderAPI{})

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders/theirs", nil), "u1", false)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTHORIZATION")

	req = asUser(httptest.NewRequest(http.MethodGet, "/api/orders/theirs", nil), "u1", true)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderTransitionConflictMapping(t *testing.T) {
	srv := orderRouter(&fakeOrderAPI{})

	req := asUser(httptest.NewRequest(http.MethodPut, "/api/orders/cancelled/deliver", nil), "admin", true)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cancelled orders cannot be delivered")
	assert.Contains(t, rec.Body.String(), "CONFLICT")
}

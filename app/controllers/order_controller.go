package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/services"
	"github.com/cremaze/cremaze/pkg/bind"
	"github.com/cremaze/cremaze/pkg/middleware"
	"github.com/cremaze/cremaze/pkg/response"
	"github.com/cremaze/cremaze/pkg/validate"
)

// OrderAPI is the service surface OrderController depends on.
type OrderAPI interface {
	Create(ctx context.Context, userID string, in services.CreateOrderInput) (models.Order, error)
	ListMine(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	Get(ctx context.Context, id, userID string, isAdmin bool) (models.Order, error)
	MarkDelivered(ctx context.Context, id string) (models.Order, error)
	Cancel(ctx context.Context, id string) (models.Order, error)
	Restore(ctx context.Context, id string) (models.Order, error)
}

type OrderController struct {
	service OrderAPI
}

func NewOrderController() *OrderController {
	return &OrderController{service: services.NewOrderService()}
}

func NewOrderControllerWith(service OrderAPI) *OrderController {
	return &OrderController{service: service}
}

// Create handles POST /api/orders.
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	var in services.CreateOrderInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.ErrorFrom(w, err)
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	order, err := c.service.Create(r.Context(), id.UserID, in)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Created(w, order)
}

// ListMine handles GET /api/orders/myorders.
func (c *OrderController) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	orders, err := c.service.ListMine(r.Context(), id.UserID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, orders)
}

// ListAll handles GET /api/orders (admin).
func (c *OrderController) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := c.service.ListAll(r.Context())
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, orders)
}

// Get handles GET /api/orders/{id}. Owners and admins only.
func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	order, err := c.service.Get(r.Context(), chi.URLParam(r, "id"), id.UserID, id.IsAdmin)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, order)
}

// MarkDelivered handles PUT /api/orders/{id}/deliver (admin).
func (c *OrderController) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	order, err := c.service.MarkDelivered(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, order)
}

// Cancel handles PUT /api/orders/{id}/cancel (admin).
func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	order, err := c.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, order)
}

// Restore handles PUT /api/orders/{id}/restore (admin).
func (c *OrderController) Restore(w http.ResponseWriter, r *http.Request) {
	order, err := c.service.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, order)
}

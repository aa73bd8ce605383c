package controllers

import (
	"context"
	"net/http"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/services"
	"github.com/cremaze/cremaze/pkg/bind"
	"github.com/cremaze/cremaze/pkg/middleware"
	"github.com/cremaze/cremaze/pkg/response"
	"github.com/cremaze/cremaze/pkg/validate"
)

// PaymentAPI is the service surface PaymentController depends on.
type PaymentAPI interface {
	CreateIntent(ctx context.Context, userID, orderID, idempotencyKey string) (services.Intent, error)
	Verify(ctx context.Context, in services.VerifyInput) (models.Order, error)
	Fail(ctx context.Context, gatewayOrderID string) error
	GetStatus(ctx context.Context, orderID, userID string, isAdmin bool) (services.Status, error)
}

type PaymentController struct {
	service PaymentAPI
}

func NewPaymentController() *PaymentController {
	return &PaymentController{service: services.NewPaymentService()}
}

func NewPaymentControllerWith(service PaymentAPI) *PaymentController {
	return &PaymentController{service: service}
}

// CreateIntent handles POST /api/payment/create-order. The optional Idempotency-Key
// header makes retries safe.
func (c *PaymentController) CreateIntent(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	var in struct {
		OrderID string `json:"orderId" validate:"required"`
	}
	if errs, err := bind.JSON(r, &in); err != nil {
		response.ErrorFrom(w, err)
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	intent, err := c.service.CreateIntent(r.Context(), id.UserID, in.OrderID, r.Header.Get("Idempotency-Key"))
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Created(w, intent)
}

// Verify handles POST /api/payment/verify.
func (c *PaymentController) Verify(w http.ResponseWriter, r *http.Request) {
	var in services.VerifyInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.ErrorFrom(w, err)
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	order, err := c.service.Verify(r.Context(), in)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, order)
}

// Fail handles POST /api/payment/failed, reported by the checkout widget.
func (c *PaymentController) Fail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		GatewayOrderID string `json:"razorpay_order_id" validate:"required"`
	}
	if errs, err := bind.JSON(r, &in); err != nil {
		response.ErrorFrom(w, err)
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	if err := c.service.Fail(r.Context(), in.GatewayOrderID); err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Message(w, "Payment failure recorded")
}

// Status handles POST /api/payment/status.
func (c *PaymentController) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	var in struct {
		OrderID string `json:"orderId" validate:"required"`
	}
	if errs, err := bind.JSON(r, &in); err != nil {
		response.ErrorFrom(w, err)
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	st, err := c.service.GetStatus(r.Context(), in.OrderID, id.UserID, id.IsAdmin)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, st)
}

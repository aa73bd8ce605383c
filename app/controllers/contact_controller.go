package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/services"
	"github.com/cremaze/cremaze/pkg/bind"
	"github.com/cremaze/cremaze/pkg/response"
	"github.com/cremaze/cremaze/pkg/validate"
)

// ContactAPI is the service surface ContactController depends on.
type ContactAPI interface {
	Submit(ctx context.Context, in services.SubmitInput) (models.ContactMessage, error)
	List(ctx context.Context, filter string) ([]models.ContactMessage, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type ContactController struct {
	service ContactAPI
}

func NewContactController() *ContactController {
	return &ContactController{service: services.NewContactService()}
}

func NewContactControllerWith(service ContactAPI) *ContactController {
	return &ContactController{service: service}
}

// Submit handles POST /api/contact/send (public).
func (c *ContactController) Submit(w http.ResponseWriter, r *http.Request) {
	var in services.SubmitInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.ErrorFrom(w, err)
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	msg, err := c.service.Submit(r.Context(), in)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Created(w, msg)
}

// List handles GET /api/contact (admin). ?filter=unread|archived narrows
// the view.
func (c *ContactController) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := c.service.List(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, msgs)
}

// UnreadCount handles GET /api/contact/unread-count (admin).
func (c *ContactController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := c.service.UnreadCount(r.Context())
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, map[string]int64{"count": count})
}

// MarkRead handles PUT /api/contact/{id}/read (admin).
func (c *ContactController) MarkRead(w http.ResponseWriter, r *http.Request) {
	c.flagAction(w, r, c.service.MarkRead, "Message marked as read")
}

// Archive handles PUT /api/contact/{id}/archive (admin).
func (c *ContactController) Archive(w http.ResponseWriter, r *http.Request) {
	c.flagAction(w, r, c.service.Archive, "Message archived")
}

// Restore handles PUT /api/contact/{id}/restore (admin).
func (c *ContactController) Restore(w http.ResponseWriter, r *http.Request) {
	c.flagAction(w, r, c.service.Restore, "Message restored")
}

// Delete handles DELETE /api/contact/{id} (admin).
func (c *ContactController) Delete(w http.ResponseWriter, r *http.Request) {
	c.flagAction(w, r, c.service.Delete, "Message deleted")
}

func (c *ContactController) flagAction(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) error, msg string) {
	if err := fn(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Message(w, msg)
}

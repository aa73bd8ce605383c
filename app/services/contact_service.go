package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/repositories"
	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/cache"
	"github.com/cremaze/cremaze/pkg/event"
	"github.com/cremaze/cremaze/pkg/logger"
	"github.com/cremaze/cremaze/pkg/mail"
)

const (
	unreadCountCacheKey = "contacts:unread"
	unreadCountCacheTTL = 30 * time.Second
)

// ContactStore is the persistence surface ContactService needs.
type ContactStore interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	All(ctx context.Context, filter bson.M) ([]models.ContactMessage, error)
	CountUnread(ctx context.Context) (int64, error)
	SetFlags(ctx context.Context, id primitive.ObjectID, set bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ContactService implements the public contact form and the admin inbox.
type ContactService struct {
	contacts ContactStore
	send     mail.Sender
}

func NewContactService() *ContactService {
	return &ContactService{
		contacts: repositories.NewContactRepository(),
		send:     mail.Deliver,
	}
}

func NewContactServiceWith(contacts ContactStore, send mail.Sender) *ContactService {
	return &ContactService{contacts: contacts, send: send}
}

// SubmitInput is the public contact form payload.
type SubmitInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"nullable,max=20"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Submit stores a contact message and sends a confirmation email. The email
// is best effort: a delivery failure is logged, never surfaced.
func (s *ContactService) Submit(ctx context.Context, in SubmitInput) (models.ContactMessage, error) {
	msg := models.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Message: in.Message,
	}
	if err := s.contacts.Create(ctx, &msg); err != nil {
		return models.ContactMessage{}, apperr.Persistence("could not save message", err)
	}
	_ = cache.Forget(unreadCountCacheKey)
	event.FireAsync(event.ContactCreated, msg)

	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Thanks for reaching out to CreMaze. We received your message and will get back to you soon.</p>",
		html.EscapeString(msg.Name),
	)
	if err := s.send(msg.Email, "We got your message", body); err != nil {
		logger.WithCtx(ctx).Warn("contact: confirmation email failed", "error", err, "to", msg.Email)
	}
	return msg, nil
}

// List returns inbox messages, unread first. filter narrows the view:
// "unread" for new messages, "archived" for the archive, "" for everything.
func (s *ContactService) List(ctx context.Context, filter string) ([]models.ContactMessage, error) {
	var query bson.M
	switch filter {
	case "":
		// full inbox
	case "unread":
		query = bson.M{"isRead": false, "isArchived": false}
	case "archived":
		query = bson.M{"isArchived": true}
	default:
		return nil, apperr.Validation("filter must be unread or archived")
	}

	msgs, err := s.contacts.All(ctx, query)
	if err != nil {
		return nil, apperr.Persistence("could not load messages", err)
	}
	return msgs, nil
}

// UnreadCount returns the badge count: unread and not archived. Served from
// a short-lived cache.
func (s *ContactService) UnreadCount(ctx context.Context) (int64, error) {
	var cached int64
	if cache.Get(unreadCountCacheKey, &cached) {
		return cached, nil
	}

	count, err := s.contacts.CountUnread(ctx)
	if err != nil {
		return 0, apperr.Persistence("could not count messages", err)
	}
	_ = cache.Set(unreadCountCacheKey, count, unreadCountCacheTTL)
	return count, nil
}

// MarkRead flags a message as read.
func (s *ContactService) MarkRead(ctx context.Context, id string) error {
	return s.setFlags(ctx, id, bson.M{"isRead": true})
}

// Archive moves a message out of the active inbox.
func (s *ContactService) Archive(ctx context.Context, id string) error {
	return s.setFlags(ctx, id, bson.M{"isArchived": true})
}

// Restore brings an archived message back to the active inbox.
func (s *ContactService) Restore(ctx context.Context, id string) error {
	return s.setFlags(ctx, id, bson.M{"isArchived": false})
}

// Delete permanently removes a message.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Validation("invalid message id")
	}
	if err := s.contacts.Delete(ctx, oid); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("Message not found")
		}
		return apperr.Persistence("could not delete message", err)
	}
	_ = cache.Forget(unreadCountCacheKey)
	return nil
}

func (s *ContactService) setFlags(ctx context.Context, id string, set bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Validation("invalid message id")
	}
	if err := s.contacts.SetFlags(ctx, oid, set); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("Message not found")
		}
		return apperr.Persistence("could not update message", err)
	}
	_ = cache.Forget(unreadCountCacheKey)
	return nil
}

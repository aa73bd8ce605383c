package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/pkg/database"
)

// ContactRepository handles persistence for ContactMessage documents.
type ContactRepository struct{}

func NewContactRepository() *ContactRepository {
	return &ContactRepository{}
}

func (r *ContactRepository) col() *mongo.Collection {
	return database.Collection("contacts")
}

// Create inserts a new contact message.
func (r *ContactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	res, err := r.col().InsertOne(ctx, msg)
	if err != nil {
		return err
	}
	msg.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// All returns contact messages matching filter (nil for everything), unread
// first, newest first within each group.
func (r *ContactRepository) All(ctx context.Context, filter bson.M) ([]models.ContactMessage, error) {
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "isRead", Value: 1},
		{Key: "createdAt", Value: -1},
	})
	cur, err := r.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	msgs := []models.ContactMessage{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// CountUnread counts messages that are neither read nor archived.
func (r *ContactRepository) CountUnread(ctx context.Context) (int64, error) {
	return r.col().CountDocuments(ctx, bson.M{"isRead": false, "isArchived": false})
}

// SetFlags applies the given flag set to a message.
func (r *ContactRepository) SetFlags(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	res, err := r.col().UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete permanently removes a message.
func (r *ContactRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/pkg/database"
)

// UserRepository handles persistence for User documents.
type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) col() *mongo.Collection {
	return database.Collection("users")
}

// FindByEmail looks up a user by email address. Returns mongo.ErrNoDocuments
// when absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.col().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	return user, err
}

// FindByID looks up a user by document id.
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	return user, err
}

// Create inserts a new user and fills in the generated id and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.col().InsertOne(ctx, user)
	if err != nil {
		return err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Update applies the given field set to a user document.
func (r *UserRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
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

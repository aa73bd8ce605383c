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

// OrderRepository handles persistence for Order documents.
type OrderRepository struct{}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

func (r *OrderRepository) col() *mongo.Collection {
	return database.Collection("orders")
}

// Create inserts a new order.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	res, err := r.col().InsertOne(ctx, order)
	if err != nil {
		return err
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID looks up an order by document id.
func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var order models.Order
	err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	return order, err
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col().Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAll returns every order with the purchaser's name and email joined in,
// newest first. Used by the admin back office.
func (r *OrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "purchaserDoc"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "purchaser", Value: bson.D{
				{Key: "name", Value: bson.D{{Key: "$concat", Value: bson.A{
					bson.D{{Key: "$ifNull", Value: bson.A{
						bson.D{{Key: "$arrayElemAt", Value: bson.A{"$purchaserDoc.firstName", 0}}}, "",
					}}},
					" ",
					bson.D{{Key: "$ifNull", Value: bson.A{
						bson.D{{Key: "$arrayElemAt", Value: bson.A{"$purchaserDoc.lastName", 0}}}, "",
					}}},
				}}}},
				{Key: "email", Value: bson.D{{Key: "$ifNull", Value: bson.A{
					bson.D{{Key: "$arrayElemAt", Value: bson.A{"$purchaserDoc.email", 0}}}, "",
				}}}},
			}},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "purchaserDoc", Value: 0}}}},
	}

	cur, err := r.col().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an order to the given status, guarded by the expected
// current status so a concurrent transition loses cleanly. set is merged on
// top of the status change; unset fields are removed.
func (r *OrderRepository) UpdateStatus(
	ctx context.Context,
	id primitive.ObjectID,
	from, to models.OrderStatus,
	set bson.M,
	unset []string,
) error {
	if set == nil {
		set = bson.M{}
	}
	set["status"] = to
	set["updatedAt"] = time.Now().UTC()

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		u := bson.M{}
		for _, f := range unset {
			u[f] = ""
		}
		update["$unset"] = u
	}

	res, err := r.col().UpdateOne(ctx, bson.M{"_id": id, "status": from}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkPaid sets the paid flags and payment result on an order.
func (r *OrderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, result models.PaymentResult, paidAt time.Time) error {
	res, err := r.col().UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"isPaid":        true,
		"paidAt":        paidAt,
		"paymentResult": result,
		"updatedAt":     time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

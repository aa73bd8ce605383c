package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the primary account model. Password holds the bcrypt hash and is
// never serialised.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	IsAdmin   bool               `bson:"isAdmin" json:"isAdmin"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FullName joins first and last name for display contexts (order listings,
// contact replies).
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

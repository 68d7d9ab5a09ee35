package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Unique index names of the users collection, matched when translating duplicate key errors.
const (
	UsernameUniqueIndex = "username_unique"
	EmailUniqueIndex    = "email_unique"
)

// UserDocument mirrors a document of the 'users' collection.
type UserDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

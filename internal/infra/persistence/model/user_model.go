// Package model holds the persistence representations of domain entities.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Constraint names of the users table, matched when translating unique violations.
const (
	UsersUsernameKey = "users_username_key"
	UsersEmailKey    = "users_email_key"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via gen_random_uuid().
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"type:varchar(64);not null;uniqueIndex:users_username_key"`
	Email        string    `gorm:"type:varchar(254);not null;uniqueIndex:users_email_key"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

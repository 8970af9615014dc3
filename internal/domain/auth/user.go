package auth

import "time"

// User is an account that can own stored files. The ID doubles as the owner
// identifier the storage core scopes records by.
type User struct {
	ID           string    `gorm:"column:id;primaryKey" json:"user_id"`
	Email        string    `gorm:"column:email;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	IsActive     bool      `gorm:"column:is_active" json:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (User) TableName() string { return "users" }

// Package models defines the persisted entities and the request shapes
// accepted for creating them.
package models

import (
	"time"
)

// User is a row of the users table and the full shape returned by the API.
// Password holds the bcrypt hash and is never serialized.
type User struct {
	ID          int64     `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	Password    string    `json:"-" db:"password"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	Field1      *string   `json:"field_1" db:"field_1"`
	Field2      *string   `json:"field_2" db:"field_2"`
}

// UserCreate is the body accepted by POST /users/.
type UserCreate struct {
	Email       *string `json:"email" validate:"required"`
	Password    *string `json:"password" validate:"required"`
	Description *string `json:"description,omitempty"`
	Field1      *string `json:"field_1,omitempty"`
	Field2      *string `json:"field_2,omitempty"`
}

// User converts the validated request into an unsaved entity. The password
// is copied as given; hashing is the caller's job.
func (c UserCreate) User() *User {
	u := &User{
		Description: c.Description,
		Field1:      c.Field1,
		Field2:      c.Field2,
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.Password != nil {
		u.Password = *c.Password
	}
	return u
}

package models

import (
	"time"
)

// Tenant is a row of the tenants table and the full shape returned by the
// API.
type Tenant struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TenantCreate is the body accepted by POST /tenants/. Both fields must be
// present; empty strings are allowed.
type TenantCreate struct {
	Name        *string `json:"name" validate:"required"`
	Description *string `json:"description" validate:"required"`
}

// Tenant converts the validated request into an unsaved entity.
func (c TenantCreate) Tenant() *Tenant {
	t := &Tenant{Description: c.Description}
	if c.Name != nil {
		t.Name = *c.Name
	}
	return t
}

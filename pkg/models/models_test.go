package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserJSONOmitsPassword(t *testing.T) {
	u := User{
		ID:        1,
		Email:     "a@x.com",
		Password:  "$2a$10$hash",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(u)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.NotContains(t, body, "password")
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, float64(1), body["id"])
	assert.Contains(t, body, "field_1")
	assert.Nil(t, body["field_1"])
}

func TestUserCreate_User(t *testing.T) {
	in := UserCreate{
		Email:       strPtr("a@x.com"),
		Password:    strPtr("p1"),
		Description: strPtr("ops"),
	}

	u := in.User()
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "p1", u.Password)
	assert.Equal(t, "ops", *u.Description)
	assert.Nil(t, u.Field1)
	assert.Zero(t, u.ID)
}

func TestTenantCreate_Tenant(t *testing.T) {
	in := TenantCreate{Name: strPtr("Acme"), Description: strPtr("")}

	tenant := in.Tenant()
	assert.Equal(t, "Acme", tenant.Name)
	require.NotNil(t, tenant.Description)
	assert.Empty(t, *tenant.Description)
}

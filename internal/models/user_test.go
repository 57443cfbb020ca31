package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_BeforeCreateAssignsDefaults(t *testing.T) {
	u := &User{Email: "a@example.com", Username: "alice"}
	require.NoError(t, u.BeforeCreate(nil))

	assert.Len(t, u.ID, 36)
	assert.Equal(t, RoleUser, u.Role)

	keep := &User{ID: "fixed", Role: RoleAdmin}
	require.NoError(t, keep.BeforeCreate(nil))
	assert.Equal(t, "fixed", keep.ID)
	assert.True(t, keep.IsAdmin())
}

func TestUser_SafeAndPublic(t *testing.T) {
	name := "Alice"
	u := &User{ID: "u1", Email: "a@example.com", Username: "alice", PasswordHash: "secret", DisplayName: &name}

	safe := u.Safe()
	assert.Equal(t, "a@example.com", safe.Email)
	assert.Equal(t, &name, safe.DisplayName)

	pub := u.Public()
	assert.Equal(t, PublicUser{ID: "u1", Username: "alice", DisplayName: &name}, pub)

	var nilUser *User
	assert.Equal(t, PublicUser{}, nilUser.Public())
	assert.False(t, nilUser.IsAdmin())
}

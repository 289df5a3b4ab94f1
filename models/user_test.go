package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPasswordChangedAfter(t *testing.T) {
	issued := time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)

	never := User{}
	assert.False(t, never.PasswordChangedAfter(issued))

	before := User{PasswordChangedAt: issued.Add(-time.Hour)}
	assert.False(t, before.PasswordChangedAfter(issued))

	after := User{PasswordChangedAt: issued.Add(time.Hour)}
	assert.True(t, after.PasswordChangedAfter(issued))
}

func TestIsActive(t *testing.T) {
	yes, no := true, false

	assert.True(t, (&User{}).IsActive())
	assert.True(t, (&User{Active: &yes}).IsActive())
	assert.False(t, (&User{Active: &no}).IsActive())
}

func TestRoleValid(t *testing.T) {
	for _, role := range ValidRoles {
		assert.True(t, RoleValid(role))
	}
	assert.False(t, RoleValid("superadmin"))
	assert.False(t, RoleValid(""))
}

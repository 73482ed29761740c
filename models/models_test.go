package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecurringPatternValid(t *testing.T) {
	for _, p := range []RecurringPattern{PatternWeekly, PatternMonthly, PatternYearly} {
		assert.True(t, p.Valid(), p)
	}
	for _, p := range []RecurringPattern{"", "DAILY", "weekly"} {
		assert.False(t, p.Valid(), p)
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleEditor.Valid())
	assert.False(t, Role("admin").Valid())
}

func TestUserResponseHidesHash(t *testing.T) {
	u := User{ID: "u1", Username: "ds", PasswordHash: "secret", Role: RoleAdmin}
	r := u.ToResponse()
	assert.Equal(t, "u1", r.ID)
	assert.Equal(t, RoleAdmin, r.Role)
}

func TestNewIDKeepsExisting(t *testing.T) {
	id := "fixed"
	newID(&id)
	assert.Equal(t, "fixed", id)

	var empty string
	newID(&empty)
	assert.Len(t, empty, 36)
}

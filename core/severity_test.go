package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_Ordinal(t *testing.T) {
	assert.Equal(t, 1, SeverityLow.Ordinal())
	assert.Equal(t, 2, SeverityMedium.Ordinal())
	assert.Equal(t, 3, SeverityHigh.Ordinal())
	assert.Equal(t, 4, SeverityCritical.Ordinal())
	assert.Equal(t, 0, Severity("bogus").Ordinal())
}

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))
	// Unknown severities never satisfy a floor
	assert.False(t, Severity("bogus").AtLeast(SeverityLow))
}

func TestIdentity_CanDelete(t *testing.T) {
	owner := &Identity{ID: "user-1", Role: RoleUser}
	other := &Identity{ID: "user-2", Role: RoleAnalyst}
	admin := &Identity{ID: "admin-1", Role: RoleAdmin}

	assert.True(t, owner.CanDelete("user-1"))
	assert.False(t, other.CanDelete("user-1"))
	assert.True(t, admin.CanDelete("user-1"))

	var nobody *Identity
	assert.False(t, nobody.CanDelete("user-1"))
}

func TestSystemIdentity(t *testing.T) {
	assert.Equal(t, "system", SystemIdentity.ID)
	assert.True(t, SystemIdentity.Role.IsValid())
	assert.False(t, SystemIdentity.IsAdmin())
}

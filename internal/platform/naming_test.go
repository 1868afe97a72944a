package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceGroupName(t *testing.T) {
	name := ResourceGroupName("ws", "1a2b3c4d-0000-0000-0000-000000000000", "alice")
	assert.Equal(t, "ws-1a2b3c4d-alice", name)
}

func TestResourceGroupName_ShortWorkshopID(t *testing.T) {
	name := ResourceGroupName("ws", "abc", "bob")
	assert.Equal(t, "ws-abc-bob", name)
}

func TestUserPrincipalName(t *testing.T) {
	assert.Equal(t, "alice@contoso.onmicrosoft.com", UserPrincipalName("alice", "contoso.onmicrosoft.com"))
}

func TestNormalizeAlias(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Alice", "alice"},
		{" bob ", "bob"},
		{"kim.min-jun", "kim.min-jun"},
		{"o'brien", "obrien"},
		{"user_42", "user_42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeAlias(tt.in), "alias=%q", tt.in)
	}
}

package pageauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestWildcardMatch(t *testing.T) {
	rules := []*PageRule{
		{Path: "/admin/*", AllowedRoles: []UserRole{RoleAdmin}},
		{Path: "/admin/settings/*", AllowedRoles: []UserRole{RoleOwner}},
		{Path: "/reports/*", AllowedRoles: []UserRole{RoleMember}},
		{Path: "/exact", AllowedRoles: []UserRole{RoleGuest}},
	}

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"Shallow admin page", "/admin/users", "/admin/*"},
		{"Deeper rule wins", "/admin/settings/security", "/admin/settings/*"},
		{"Prefix itself matches", "/admin", "/admin/*"},
		{"Other subtree", "/reports/2025", "/reports/*"},
		{"No match", "/public", ""},
		{"Prefix must align on segment", "/administrator", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := bestWildcardMatch(tt.path, rules)
			if tt.expected == "" {
				assert.Nil(t, match)
				return
			}
			assert.NotNil(t, match)
			assert.Equal(t, tt.expected, match.Path)
		})
	}
}

package pageauth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPageRules serves rules from a map keyed by normalized path, the
// embedded interface covers the repository surface
type stubPageRules struct {
	pageauth.PageRules
	rules map[string]*pageauth.PageRule
	err   error
}

func (s *stubPageRules) FindForPath(ctx context.Context, path string) (*pageauth.PageRule, error) {
	if s.err != nil {
		return nil, s.err
	}

	if rule, ok := s.rules[pageauth.NormalizePagePath(path)]; ok {
		return rule, nil
	}

	return nil, repository.NewRecordNotFound()
}

func TestNormalizePagePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Already normalized", "/admin", "/admin"},
		{"Uppercase", "/Admin", "/admin"},
		{"Trailing slash", "/admin/", "/admin"},
		{"Missing leading slash", "admin/users", "/admin/users"},
		{"Query string stripped", "/admin?tab=users", "/admin"},
		{"Fragment stripped", "/admin#section", "/admin"},
		{"Empty path", "", "/"},
		{"Just a slash", "/", "/"},
		{"Whitespace", "  /Admin/Users/  ", "/admin/users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pageauth.NormalizePagePath(tt.input))
		})
	}
}

func TestPageRuleAllows(t *testing.T) {
	rule := &pageauth.PageRule{
		Path:         "/admin/*",
		AllowedRoles: []pageauth.UserRole{pageauth.RoleAdmin, pageauth.RoleOwner},
	}

	assert.True(t, rule.Allows(pageauth.RoleAdmin))
	assert.True(t, rule.Allows(pageauth.RoleOwner))
	assert.False(t, rule.Allows(pageauth.RoleMember))
	assert.False(t, rule.Allows(pageauth.RoleGuest))

	empty := &pageauth.PageRule{Path: "/private"}
	assert.False(t, empty.Allows(pageauth.RoleOwner))
}

func TestAccessCheckerCanAccessPage(t *testing.T) {
	rules := &stubPageRules{rules: map[string]*pageauth.PageRule{
		"/admin": {
			Path:         "/admin",
			AllowedRoles: []pageauth.UserRole{pageauth.RoleAdmin, pageauth.RoleOwner},
		},
	}}

	checker := pageauth.NewAccessChecker(rules)

	decision, err := checker.CanAccessPage(context.Background(), pageauth.RoleAdmin, "/admin")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	require.NotNil(t, decision.Rule)
	assert.Equal(t, "/admin", decision.Path)

	decision, err = checker.CanAccessPage(context.Background(), pageauth.RoleMember, "/admin")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	require.NotNil(t, decision.Rule)
	assert.Equal(t, pageauth.RoleMember, decision.Role)
}

func TestAccessCheckerOpensPagesWithoutRules(t *testing.T) {
	checker := pageauth.NewAccessChecker(&stubPageRules{})

	decision, err := checker.CanAccessPage(context.Background(), pageauth.RoleGuest, "/todos")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Nil(t, decision.Rule)
}

func TestAccessCheckerPropagatesStoreErrors(t *testing.T) {
	checker := pageauth.NewAccessChecker(&stubPageRules{err: errors.New("connection reset")})

	_, err := checker.CanAccessPage(context.Background(), pageauth.RoleAdmin, "/admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve page rule")
}

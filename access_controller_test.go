package pageauth_test

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sessionToken(role string) *jwt.Token {
	return &jwt.Token{Claims: jwt.MapClaims{
		"uid":  uuid.NewString(),
		"role": role,
	}}
}

func newTestAccessController(rules map[string]*pageauth.PageRule) *pageauth.AccessController {
	checker := pageauth.NewAccessChecker(&stubPageRules{rules: rules})

	return pageauth.NewAccessController(func(c *pageauth.AccessController) *pageauth.AccessController {
		c.Checker = checker
		return c
	})
}

func adminOnlyRules() map[string]*pageauth.PageRule {
	return map[string]*pageauth.PageRule{
		"/admin": {
			Path:         "/admin",
			AllowedRoles: []pageauth.UserRole{pageauth.RoleAdmin, pageauth.RoleOwner},
		},
	}
}

func TestCanAccessPageWithoutSession(t *testing.T) {
	controller := newTestAccessController(adminOnlyRules())

	ctx := router.NewMockContext()
	ctx.On("JSON", fiber.StatusUnauthorized, mock.Anything).Return(nil).Once()

	require.NoError(t, controller.CanAccessPage(ctx))
	ctx.AssertExpectations(t)
}

func TestCanAccessPageDeniedRole(t *testing.T) {
	controller := newTestAccessController(adminOnlyRules())

	ctx := router.NewMockContext()
	ctx.LocalsMock["user"] = sessionToken("member")
	ctx.On("Context").Return(context.Background())
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*pageauth.CanAccessPagePayload)
		payload.Path = "/admin"
	}).Return(nil).Once()
	ctx.On("JSON", fiber.StatusForbidden, mock.MatchedBy(func(v any) bool {
		decision, ok := v.(pageauth.AccessDecision)
		return ok && !decision.Allowed && decision.Path == "/admin"
	})).Return(nil).Once()

	require.NoError(t, controller.CanAccessPage(ctx))
	ctx.AssertExpectations(t)
}

func TestCanAccessPageAllowedRole(t *testing.T) {
	controller := newTestAccessController(adminOnlyRules())

	ctx := router.NewMockContext()
	ctx.LocalsMock["user"] = sessionToken("admin")
	ctx.On("Context").Return(context.Background())
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*pageauth.CanAccessPagePayload)
		payload.Path = "/admin"
	}).Return(nil).Once()
	ctx.On("JSON", fiber.StatusOK, mock.MatchedBy(func(v any) bool {
		decision, ok := v.(pageauth.AccessDecision)
		return ok && decision.Allowed
	})).Return(nil).Once()

	require.NoError(t, controller.CanAccessPage(ctx))
	ctx.AssertExpectations(t)
}

func TestCanAccessPageUnruledPathIsOpen(t *testing.T) {
	controller := newTestAccessController(adminOnlyRules())

	ctx := router.NewMockContext()
	ctx.LocalsMock["user"] = sessionToken("member")
	ctx.On("Context").Return(context.Background())
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*pageauth.CanAccessPagePayload)
		payload.Path = "/todos"
	}).Return(nil).Once()
	ctx.On("JSON", fiber.StatusOK, mock.MatchedBy(func(v any) bool {
		decision, ok := v.(pageauth.AccessDecision)
		return ok && decision.Allowed && decision.Rule == nil
	})).Return(nil).Once()

	require.NoError(t, controller.CanAccessPage(ctx))
	ctx.AssertExpectations(t)
}

func TestRequirePageAccessRendersUnauthorized(t *testing.T) {
	checker := pageauth.NewAccessChecker(&stubPageRules{rules: adminOnlyRules()})
	guard := pageauth.RequirePageAccess(checker, "user")

	nextCalled := false
	handler := guard(func(ctx router.Context) error {
		nextCalled = true
		return nil
	})

	ctx := router.NewMockContext()
	ctx.On("Status", fiber.StatusUnauthorized).Return(ctx)
	ctx.On("Render", "errors/401", mock.Anything).Return(nil).Once()

	require.NoError(t, handler(ctx))
	assert.False(t, nextCalled)
	ctx.AssertExpectations(t)
}

func TestRequirePageAccessRendersForbidden(t *testing.T) {
	checker := pageauth.NewAccessChecker(&stubPageRules{rules: adminOnlyRules()})
	guard := pageauth.RequirePageAccess(checker, "user")

	nextCalled := false
	handler := guard(func(ctx router.Context) error {
		nextCalled = true
		return nil
	})

	ctx := router.NewMockContext()
	ctx.LocalsMock["user"] = sessionToken("member")
	ctx.On("Context").Return(context.Background())
	ctx.On("OriginalURL").Return("/admin")
	ctx.On("Status", fiber.StatusForbidden).Return(ctx)
	ctx.On("Render", "errors/403", mock.MatchedBy(func(v any) bool {
		data, ok := v.(router.ViewContext)
		return ok && data["path"] == "/admin"
	})).Return(nil).Once()

	require.NoError(t, handler(ctx))
	assert.False(t, nextCalled)
	ctx.AssertExpectations(t)
}

func TestRequirePageAccessCallsNextWhenAllowed(t *testing.T) {
	checker := pageauth.NewAccessChecker(&stubPageRules{rules: adminOnlyRules()})
	guard := pageauth.RequirePageAccess(checker, "user")

	nextCalled := false
	handler := guard(func(ctx router.Context) error {
		nextCalled = true
		return nil
	})

	ctx := router.NewMockContext()
	ctx.LocalsMock["user"] = sessionToken("owner")
	ctx.On("Context").Return(context.Background())
	ctx.On("OriginalURL").Return("/admin")

	require.NoError(t, handler(ctx))
	assert.True(t, nextCalled)
	ctx.AssertExpectations(t)
}

package pageauth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

func RegisterAccessRoutes[T any](app router.Router[T], opts ...AccessControllerOption) {
	controller := NewAccessController(opts...)

	app.Post("/api/roles/canAccessPage", controller.CanAccessPage).
		SetName("roles-can-access.post")
}

// AccessController answers page access questions for the client side router.
// The response status carries the answer: 200 allowed, 401 no session, 403
// the session role is not on the page's allow list.
type AccessController struct {
	Logger     Logger
	Checker    *AccessChecker
	ContextKey string
}

type AccessControllerOption func(*AccessController) *AccessController

func NewAccessController(opts ...AccessControllerOption) *AccessController {
	c := &AccessController{
		Logger:     defLogger{},
		ContextKey: "user",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Checker == nil {
		panic("Missing AccessChecker in access controller...")
	}

	return c
}

// CanAccessPagePayload names the page the client wants to open
type CanAccessPagePayload struct {
	Path string `json:"path" form:"path"`
}

// Validate will validate the payload
func (r CanAccessPagePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required, validation.Length(1, 2048)),
	)
}

func (a *AccessController) CanAccessPage(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.ContextKey)
	if err != nil {
		return unauthorizedJSON(ctx)
	}

	payload := new(CanAccessPagePayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"error": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrorToMap(err),
		})
	}

	decision, err := a.Checker.CanAccessPage(ctx.Context(), session.GetRole(), payload.Path)
	if err != nil {
		return jsonError(ctx, a.Logger, err)
	}

	if !decision.Allowed {
		return ctx.JSON(fiber.StatusForbidden, decision)
	}

	return ctx.JSON(fiber.StatusOK, decision)
}

// RequirePageAccess gates server rendered pages behind the page rules. It
// expects the JWT middleware to have run first.
func RequirePageAccess(checker *AccessChecker, contextKey string) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			session, err := GetRouterSession(ctx, contextKey)
			if err != nil {
				return ctx.Status(fiber.StatusUnauthorized).Render("errors/401", router.ViewContext{})
			}

			decision, err := checker.CanAccessPage(ctx.Context(), session.GetRole(), ctx.OriginalURL())
			if err != nil {
				return err
			}

			if !decision.Allowed {
				return ctx.Status(fiber.StatusForbidden).Render("errors/403", router.ViewContext{
					"path": decision.Path,
				})
			}

			return next(ctx)
		}
	}
}

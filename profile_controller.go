package pageauth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

func RegisterProfileRoutes[T any](app router.Router[T], opts ...ProfileControllerOption) {
	controller := NewProfileController(opts...)

	app.Get("/api/profile", controller.Show).SetName("profile.get")
	app.Put("/api/profile", controller.Update).SetName("profile.put")
	app.Post("/api/profile/password", controller.ChangePassword).SetName("profile-password.post")
	app.Post("/api/profile/two-factor", controller.ToggleTwoFactor).SetName("profile-two-factor.post")
}

// ProfileController serves the JSON profile API for the logged in user
type ProfileController struct {
	Logger     Logger
	Repo       RepositoryManager
	ContextKey string
}

type ProfileControllerOption func(*ProfileController) *ProfileController

func NewProfileController(opts ...ProfileControllerOption) *ProfileController {
	c := &ProfileController{
		Logger:     defLogger{},
		ContextKey: "user",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in profile controller...")
	}

	return c
}

func (p *ProfileController) sessionUserID(ctx router.Context) (uuid.UUID, error) {
	session, err := GetRouterSession(ctx, p.ContextKey)
	if err != nil {
		return uuid.Nil, err
	}
	return session.GetUserUUID()
}

func (p *ProfileController) Show(ctx router.Context) error {
	userID, err := p.sessionUserID(ctx)
	if err != nil {
		return unauthorizedJSON(ctx)
	}

	user, err := p.Repo.Users().GetByIdentifier(ctx.Context(), userID.String())
	if err != nil {
		return jsonError(ctx, p.Logger, err)
	}

	return ctx.JSON(fiber.StatusOK, user)
}

// ProfileUpdatePayload is the JSON body for profile edits
type ProfileUpdatePayload struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Username       string `json:"username"`
	Phone          string `json:"phone_number"`
	ProfilePicture string `json:"profile_picture"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Username, validation.Length(3, 100)),
		validation.Field(&r.ProfilePicture, validation.Length(0, 2048)),
	)
}

func (p *ProfileController) Update(ctx router.Context) error {
	userID, err := p.sessionUserID(ctx)
	if err != nil {
		return unauthorizedJSON(ctx)
	}

	payload := new(ProfileUpdatePayload)
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

	var res *UpdateProfileResponse

	req := UpdateProfileMessage{
		UserID:         userID,
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Username:       payload.Username,
		Phone:          payload.Phone,
		ProfilePicture: payload.ProfilePicture,
		OnResponse: func(resp *UpdateProfileResponse) {
			res = resp
		},
	}

	updateProfile := NewUpdateProfileHandler(p.Repo)
	if err := updateProfile.Execute(ctx.Context(), req); err != nil {
		return jsonError(ctx, p.Logger, err)
	}

	return ctx.JSON(fiber.StatusOK, res.User)
}

// ChangePasswordPayload is the JSON body for password changes
type ChangePasswordPayload struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate will validate the payload
func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

func (p *ProfileController) ChangePassword(ctx router.Context) error {
	userID, err := p.sessionUserID(ctx)
	if err != nil {
		return unauthorizedJSON(ctx)
	}

	payload := new(ChangePasswordPayload)
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

	req := ChangePasswordMessage{
		UserID:          userID,
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
	}

	changePassword := NewChangePasswordHandler(p.Repo)
	if err := changePassword.Execute(ctx.Context(), req); err != nil {
		return jsonError(ctx, p.Logger, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
	})
}

// ToggleTwoFactorPayload is the JSON body for the two factor switch
type ToggleTwoFactorPayload struct {
	Enabled         bool   `json:"enabled"`
	CurrentPassword string `json:"current_password"`
}

// Validate will validate the payload
func (r ToggleTwoFactorPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
	)
}

func (p *ProfileController) ToggleTwoFactor(ctx router.Context) error {
	userID, err := p.sessionUserID(ctx)
	if err != nil {
		return unauthorizedJSON(ctx)
	}

	payload := new(ToggleTwoFactorPayload)
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

	req := ToggleTwoFactorMessage{
		UserID:          userID,
		Enabled:         payload.Enabled,
		CurrentPassword: payload.CurrentPassword,
	}

	toggle := NewToggleTwoFactorHandler(p.Repo)
	if err := toggle.Execute(ctx.Context(), req); err != nil {
		return jsonError(ctx, p.Logger, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success":            true,
		"two_factor_enabled": payload.Enabled,
	})
}

func unauthorizedJSON(ctx router.Context) error {
	return ctx.JSON(fiber.StatusUnauthorized, map[string]any{
		"error": "authentication required",
	})
}

// jsonError maps rich errors to an HTTP status and JSON body
func jsonError(ctx router.Context, logger Logger, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "unexpected error").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		switch richErr.Category {
		case goerrors.CategoryNotFound:
			status = fiber.StatusNotFound
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			status = fiber.StatusBadRequest
		case goerrors.CategoryConflict:
			status = fiber.StatusConflict
		case goerrors.CategoryAuth:
			status = fiber.StatusUnauthorized
		case goerrors.CategoryAuthz:
			status = fiber.StatusForbidden
		default:
			status = fiber.StatusInternalServerError
		}
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("api error", "error", richErr.Message, "category", richErr.Category)
	}

	body := map[string]any{
		"error": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}

	return ctx.JSON(status, body)
}

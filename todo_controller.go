package pageauth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

func RegisterTodoRoutes[T any](app router.Router[T], opts ...TodoControllerOption) {
	controller := NewTodoController(opts...)

	app.Get("/api/todos", controller.List).SetName("todos.list")
	app.Post("/api/todos", controller.Create).SetName("todos.create")
	app.Get("/api/todos/:id", controller.Show).SetName("todos.get")
	app.Put("/api/todos/:id", controller.Update).SetName("todos.update")
	app.Delete("/api/todos/:id", controller.Delete).SetName("todos.delete")
}

// TodoController serves the JSON todo API. Every operation is scoped to the
// session user; someone else's todo id behaves like a missing record.
type TodoController struct {
	Logger     Logger
	Repo       RepositoryManager
	ContextKey string
}

type TodoControllerOption func(*TodoController) *TodoController

func NewTodoController(opts ...TodoControllerOption) *TodoController {
	c := &TodoController{
		Logger:     defLogger{},
		ContextKey: "user",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in todo controller...")
	}

	return c
}

func (t *TodoController) sessionUserID(ctx router.Context) (uuid.UUID, error) {
	session, err := GetRouterSession(ctx, t.ContextKey)
	if err != nil {
		return uuid.Nil, err
	}
	return session.GetUserUUID()
}

func (t *TodoController) List(ctx router.Context) error {
	ownerID, err := t.sessionUserID(ctx)
	if err != nil {
		return unauthorizedJSON(ctx)
	}

	records, err := t.Repo.Todos().ListByOwner(ctx.Context(), ownerID)
	if err != nil {
		return jsonError(ctx, t.Logger, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"todos": records,
	})
}

// TodoPayload is the JSON body for creating and updating todos
type TodoPayload struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Validate will validate the payload
func (r TodoPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required, validation.Length(1, 1000)),
	)
}

func (t *TodoController) Create(ctx router.Context) error {
	ownerID, err := t.sessionUserID(ctx)
	if err != nil {
		return unauthorizedJSON(ctx)
	}

	payload := new(TodoPayload)
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

	record := &Todo{
		OwnerID:   ownerID,
		Text:      payload.Text,
		Completed: payload.Completed,
	}

	created, err := t.Repo.Todos().Create(ctx.Context(), record)
	if err != nil {
		return jsonError(ctx, t.Logger, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create todo"))
	}

	return ctx.JSON(fiber.StatusCreated, created)
}

func (t *TodoController) Show(ctx router.Context) error {
	ownerID, err := t.sessionUserID(ctx)
	if err != nil {
		return unauthorizedJSON(ctx)
	}

	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return todoNotFoundJSON(ctx)
	}

	record, err := t.Repo.Todos().GetForOwner(ctx.Context(), ownerID, id)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return todoNotFoundJSON(ctx)
		}
		return jsonError(ctx, t.Logger, err)
	}

	return ctx.JSON(fiber.StatusOK, record)
}

func (t *TodoController) Update(ctx router.Context) error {
	ownerID, err := t.sessionUserID(ctx)
	if err != nil {
		return unauthorizedJSON(ctx)
	}

	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return todoNotFoundJSON(ctx)
	}

	payload := new(TodoPayload)
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

	record := &Todo{
		ID:        id,
		OwnerID:   ownerID,
		Text:      payload.Text,
		Completed: payload.Completed,
	}

	updated, err := t.Repo.Todos().UpdateForOwner(ctx.Context(), record)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return todoNotFoundJSON(ctx)
		}
		return jsonError(ctx, t.Logger, err)
	}

	return ctx.JSON(fiber.StatusOK, updated)
}

func (t *TodoController) Delete(ctx router.Context) error {
	ownerID, err := t.sessionUserID(ctx)
	if err != nil {
		return unauthorizedJSON(ctx)
	}

	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return todoNotFoundJSON(ctx)
	}

	if err := t.Repo.Todos().DeleteForOwner(ctx.Context(), ownerID, id); err != nil {
		if goerrors.IsNotFound(err) {
			return todoNotFoundJSON(ctx)
		}
		return jsonError(ctx, t.Logger, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
	})
}

func todoNotFoundJSON(ctx router.Context) error {
	return ctx.JSON(fiber.StatusNotFound, map[string]any{
		"error": "todo not found",
	})
}

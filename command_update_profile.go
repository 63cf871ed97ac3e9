package pageauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UpdateProfileMessage struct {
	UserID         uuid.UUID `json:"user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Username       string    `json:"username"`
	Phone          string    `json:"phone"`
	ProfilePicture string    `json:"profile_picture"`
	OnResponse     func(resp *UpdateProfileResponse)
}

func (e UpdateProfileMessage) Type() string { return "user.update_profile" }

type UpdateProfileResponse struct {
	User    *User
	Success bool
}

// UpdateProfileHandler edits the mutable profile fields. Email changes go
// through the verification flow instead, so the address stays trustworthy.
type UpdateProfileHandler struct {
	repo RepositoryManager
}

func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{repo: repo}
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	resp := &UpdateProfileResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	phone, err := normalizePhone(event.Phone)
	if err != nil {
		return err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.UserID.String())
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for profile update")
		}

		res, err := h.repo.Users().RawTx(ctx, tx, UpdateUserProfileSQL,
			event.FirstName,
			event.LastName,
			getUsername(event.Username, user.Email),
			phone,
			event.ProfilePicture,
			user.ID.String(),
		)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not update profile")
		}

		if len(res) == 0 {
			return ErrIdentityNotFound
		}

		resp.User = res[0]
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "profile update transaction failed")
	}

	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

package pageauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationTTL is how long an emailed verification link stays valid
var VerificationTTL = "24h"

type ConfirmEmailVerificationMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *ConfirmEmailVerificationResponse)
}

func (e ConfirmEmailVerificationMessage) Type() string { return "user.verification_confirm" }

type ConfirmEmailVerificationResponse struct {
	User    *User
	Success bool
}

// ConfirmEmailVerificationHandler consumes a verification token and flips the
// user's is_email_verified flag. Tokens are single use.
type ConfirmEmailVerificationHandler struct {
	repo RepositoryManager
}

func NewConfirmEmailVerificationHandler(repo RepositoryManager) *ConfirmEmailVerificationHandler {
	return &ConfirmEmailVerificationHandler{repo: repo}
}

func (h *ConfirmEmailVerificationHandler) Execute(ctx context.Context, event ConfirmEmailVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmEmailVerificationHandler) execute(ctx context.Context, event ConfirmEmailVerificationMessage) error {
	resp := &ConfirmEmailVerificationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	token, err := uuid.Parse(event.Token)
	if err != nil {
		return goerrors.New("invalid verification token", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		verification, err := h.repo.Verifications().FindPendingTx(ctx, tx, token, PurposeVerifyEmail)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return goerrors.New("invalid or already used verification token", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve verification record")
		}

		if verification.CreatedAt == nil {
			return goerrors.New("verification record is missing creation date", goerrors.CategoryInternal)
		}

		expired, err := IsOutsideThresholdPeriod(*verification.CreatedAt, VerificationTTL)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check token expiration period")
		}

		if expired {
			return goerrors.New("verification token has expired", goerrors.CategoryValidation).
				WithTextCode(TextCodeTokenExpired)
		}

		if verification.UserID == nil {
			return goerrors.New("verification record is not associated with a user", goerrors.CategoryInternal)
		}

		consumed := MarkVerificationConsumed(verification.ID)
		if _, err := h.repo.Verifications().UpdateTx(ctx, tx, consumed); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume verification token")
		}

		if err := h.repo.Users().MarkEmailVerifiedTx(ctx, tx, *verification.UserID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email as verified")
		}

		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, verification.UserID.String())
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load verified user")
		}

		resp.User = user
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm email verification")
	}

	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

package pageauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RequestEmailVerificationMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *RequestEmailVerificationResponse)
}

func (e RequestEmailVerificationMessage) Type() string { return "user.verification_request" }

type RequestEmailVerificationResponse struct {
	Verification *Verification
	Success      bool
}

// RequestEmailVerificationHandler issues a fresh verification token and mails
// the verification link. Unknown and already verified addresses report
// success without sending anything so the endpoint does not leak which
// addresses have accounts.
type RequestEmailVerificationHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewRequestEmailVerificationHandler(repo RepositoryManager, mailer Mailer) *RequestEmailVerificationHandler {
	return &RequestEmailVerificationHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *RequestEmailVerificationHandler) WithLogger(logger Logger) *RequestEmailVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestEmailVerificationHandler) Execute(ctx context.Context, event RequestEmailVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestEmailVerificationHandler) execute(ctx context.Context, event RequestEmailVerificationMessage) error {
	verification := &Verification{}
	resp := &RequestEmailVerificationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User
	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err = h.repo.Users().GetByIdentifier(ctx, event.Email)
		if err != nil {
			if goerrors.IsNotFound(err) {
				user = nil
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification request")
		}

		if user.EmailValidated {
			user = nil
			return nil
		}

		verification.UserID = &user.ID
		verification.Email = user.Email
		verification.Purpose = PurposeVerifyEmail

		if verification, err = h.repo.Verifications().CreateTx(ctx, tx, verification); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create email verification record")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to request email verification")
	}

	if user != nil {
		if err := h.mailer.SendVerificationEmail(ctx, user.Email, verification.ID.String()); err != nil {
			h.logger.Warn("failed to send verification email", "error", err, "email", user.Email)
		}
		resp.Verification = verification
	}

	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

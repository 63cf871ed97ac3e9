package pageauth

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TwoFactorCodeTTL is how long an emailed login code stays valid
var TwoFactorCodeTTL = "10m"

// TwoFactorCodeLength is the number of digits in the emailed code
var TwoFactorCodeLength = 6

// MaxTwoFactorAttempts is how many wrong codes a challenge survives before
// it is burned
var MaxTwoFactorAttempts = 3

type ToggleTwoFactorMessage struct {
	UserID          uuid.UUID `json:"user_id"`
	Enabled         bool      `json:"enabled"`
	CurrentPassword string    `json:"current_password"`
}

func (e ToggleTwoFactorMessage) Type() string { return "user.two_factor_toggle" }

// ToggleTwoFactorHandler flips the two factor flag for a user. Enabling
// requires a verified email, the challenge codes are delivered there.
type ToggleTwoFactorHandler struct {
	repo RepositoryManager
}

func NewToggleTwoFactorHandler(repo RepositoryManager) *ToggleTwoFactorHandler {
	return &ToggleTwoFactorHandler{repo: repo}
}

func (h *ToggleTwoFactorHandler) Execute(ctx context.Context, event ToggleTwoFactorMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during two factor toggle",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ToggleTwoFactorHandler) execute(ctx context.Context, event ToggleTwoFactorMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.UserID.String())
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for two factor toggle")
		}

		if err := ComparePasswordAndHash(event.CurrentPassword, user.PasswordHash); err != nil {
			return ErrMismatchedHashAndPassword
		}

		if event.Enabled && !user.EmailValidated {
			return ErrEmailNotVerified
		}

		if user.TwoFactorEnabled == event.Enabled {
			return nil
		}

		if err := h.repo.Users().SetTwoFactorTx(ctx, tx, user.ID, event.Enabled); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update two factor flag")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to toggle two factor")
	}

	return nil
}

type StartTwoFactorChallengeMessage struct {
	Identifier string `json:"identifier"`
	OnResponse func(resp *StartTwoFactorChallengeResponse)
}

func (e StartTwoFactorChallengeMessage) Type() string { return "user.two_factor_start" }

type StartTwoFactorChallengeResponse struct {
	ChallengeID uuid.UUID
	Success     bool
}

// StartTwoFactorChallengeHandler creates a login challenge and mails the
// one-time code. It runs after the password check succeeded.
type StartTwoFactorChallengeHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewStartTwoFactorChallengeHandler(repo RepositoryManager, mailer Mailer) *StartTwoFactorChallengeHandler {
	return &StartTwoFactorChallengeHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *StartTwoFactorChallengeHandler) WithLogger(logger Logger) *StartTwoFactorChallengeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *StartTwoFactorChallengeHandler) Execute(ctx context.Context, event StartTwoFactorChallengeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during two factor challenge",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *StartTwoFactorChallengeHandler) execute(ctx context.Context, event StartTwoFactorChallengeMessage) error {
	verification := &Verification{}
	resp := &StartTwoFactorChallengeResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User
	var code string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByIdentifier(ctx, event.Identifier)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for two factor challenge")
		}

		if !user.TwoFactorEnabled {
			return goerrors.New("two factor is not enabled for this account", goerrors.CategoryBadInput).
				WithCode(goerrors.CodeBadRequest)
		}

		code, err = randomDigits(TwoFactorCodeLength)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate challenge code")
		}

		verification.UserID = &user.ID
		verification.Email = user.Email
		verification.Purpose = PurposeTwoFactor
		verification.Code = code

		if verification, err = h.repo.Verifications().CreateTx(ctx, tx, verification); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create challenge record")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to start two factor challenge")
	}

	if err := h.mailer.SendTwoFactorCode(ctx, user.Email, code); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deliver two factor code")
	}

	resp.ChallengeID = verification.ID
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

type CompleteTwoFactorChallengeMessage struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
	Extended    bool   `json:"extended"`
	OnResponse  func(resp *CompleteTwoFactorChallengeResponse)
}

func (e CompleteTwoFactorChallengeMessage) Type() string { return "user.two_factor_complete" }

type CompleteTwoFactorChallengeResponse struct {
	Token   string
	Success bool
}

// CompleteTwoFactorChallengeHandler checks the emailed code, consumes the
// challenge, and mints the session token the password step withheld. Wrong
// codes count against the challenge, MaxTwoFactorAttempts failures burn it.
type CompleteTwoFactorChallengeHandler struct {
	repo RepositoryManager
	auth Authenticator
}

func NewCompleteTwoFactorChallengeHandler(repo RepositoryManager, auth Authenticator) *CompleteTwoFactorChallengeHandler {
	return &CompleteTwoFactorChallengeHandler{
		repo: repo,
		auth: auth,
	}
}

func (h *CompleteTwoFactorChallengeHandler) Execute(ctx context.Context, event CompleteTwoFactorChallengeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during two factor completion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CompleteTwoFactorChallengeHandler) execute(ctx context.Context, event CompleteTwoFactorChallengeMessage) error {
	resp := &CompleteTwoFactorChallengeResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	challengeID, err := uuid.Parse(event.ChallengeID)
	if err != nil {
		return goerrors.New("invalid challenge id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	var userID uuid.UUID
	var badCode bool

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		verification, err := h.repo.Verifications().FindPendingTx(ctx, tx, challengeID, PurposeTwoFactor)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return goerrors.New("invalid or already used challenge", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve challenge record")
		}

		if verification.CreatedAt == nil {
			return goerrors.New("challenge record is missing creation date", goerrors.CategoryInternal)
		}

		expired, err := IsOutsideThresholdPeriod(*verification.CreatedAt, TwoFactorCodeTTL)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check challenge expiration period")
		}

		if expired {
			return goerrors.New("challenge code has expired", goerrors.CategoryValidation).
				WithTextCode(TextCodeTokenExpired)
		}

		if verification.Code == "" || verification.Code != event.Code {
			// the failed attempt has to commit, returning an error here
			// would roll it back
			badCode = true

			attempt := &Verification{}
			attempt.ID = verification.ID
			attempt.Attempts = verification.Attempts + 1
			if attempt.Attempts >= MaxTwoFactorAttempts {
				now := time.Now()
				attempt.ConsumedAt = &now
			}

			if _, err := h.repo.Verifications().UpdateTx(ctx, tx, attempt); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record challenge attempt")
			}

			return nil
		}

		if verification.UserID == nil {
			return goerrors.New("challenge record is not associated with a user", goerrors.CategoryInternal)
		}

		consumed := MarkVerificationConsumed(verification.ID)
		if _, err := h.repo.Verifications().UpdateTx(ctx, tx, consumed); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume challenge")
		}

		userID = *verification.UserID
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to complete two factor challenge")
	}

	if badCode {
		return goerrors.New("invalid challenge code", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	token, err := h.auth.Impersonate(ctx, userID.String())
	if err != nil {
		return err
	}

	resp.Token = token
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + d.Int64())
	}
	return string(digits), nil
}

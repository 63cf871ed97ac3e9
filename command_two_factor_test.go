package pageauth_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingChallenge(id uuid.UUID, userID uuid.UUID, code string, attempts int) *pageauth.Verification {
	now := time.Now()
	return &pageauth.Verification{
		ID:        id,
		UserID:    &userID,
		Purpose:   pageauth.PurposeTwoFactor,
		Code:      code,
		Attempts:  attempts,
		CreatedAt: &now,
	}
}

func TestCompleteTwoFactorChallengeIsSingleUse(t *testing.T) {
	verifs := &MockVerifications{}
	authn := &MockAuthenticator{}
	repo := &MockRepositoryManager{VerificationsRepo: verifs}

	userID := uuid.New()
	challengeID := uuid.New()

	verifs.On("FindPendingTx", mock.Anything, mock.Anything, challengeID, pageauth.PurposeTwoFactor).
		Return(pendingChallenge(challengeID, userID, "123456", 0), nil).Once()
	verifs.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(v *pageauth.Verification) bool {
		return v.ID == challengeID && v.ConsumedAt != nil
	})).Return(&pageauth.Verification{}, nil).Once()
	authn.On("Impersonate", mock.Anything, userID.String()).Return("session.jwt", nil).Once()

	handler := pageauth.NewCompleteTwoFactorChallengeHandler(repo, authn)

	var resp *pageauth.CompleteTwoFactorChallengeResponse
	err := handler.Execute(context.Background(), pageauth.CompleteTwoFactorChallengeMessage{
		ChallengeID: challengeID.String(),
		Code:        "123456",
		OnResponse: func(r *pageauth.CompleteTwoFactorChallengeResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "session.jwt", resp.Token)

	// the consumed challenge no longer matches the pending lookup
	verifs.On("FindPendingTx", mock.Anything, mock.Anything, challengeID, pageauth.PurposeTwoFactor).
		Return(nil, repository.NewRecordNotFound()).Once()

	err = handler.Execute(context.Background(), pageauth.CompleteTwoFactorChallengeMessage{
		ChallengeID: challengeID.String(),
		Code:        "123456",
	})
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "already used")

	verifs.AssertExpectations(t)
	authn.AssertExpectations(t)
}

func TestCompleteTwoFactorChallengeTracksBadGuesses(t *testing.T) {
	verifs := &MockVerifications{}
	authn := &MockAuthenticator{}
	repo := &MockRepositoryManager{VerificationsRepo: verifs}

	userID := uuid.New()
	challengeID := uuid.New()

	verifs.On("FindPendingTx", mock.Anything, mock.Anything, challengeID, pageauth.PurposeTwoFactor).
		Return(pendingChallenge(challengeID, userID, "123456", 0), nil).Once()
	verifs.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(v *pageauth.Verification) bool {
		return v.ID == challengeID && v.Attempts == 1 && v.ConsumedAt == nil
	})).Return(&pageauth.Verification{}, nil).Once()

	handler := pageauth.NewCompleteTwoFactorChallengeHandler(repo, authn)

	err := handler.Execute(context.Background(), pageauth.CompleteTwoFactorChallengeMessage{
		ChallengeID: challengeID.String(),
		Code:        "000000",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid challenge code")

	authn.AssertNotCalled(t, "Impersonate", mock.Anything, mock.Anything)
	verifs.AssertExpectations(t)
}

func TestCompleteTwoFactorChallengeBurnsAfterTooManyGuesses(t *testing.T) {
	verifs := &MockVerifications{}
	authn := &MockAuthenticator{}
	repo := &MockRepositoryManager{VerificationsRepo: verifs}

	userID := uuid.New()
	challengeID := uuid.New()

	verifs.On("FindPendingTx", mock.Anything, mock.Anything, challengeID, pageauth.PurposeTwoFactor).
		Return(pendingChallenge(challengeID, userID, "123456", pageauth.MaxTwoFactorAttempts-1), nil).Once()
	verifs.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(v *pageauth.Verification) bool {
		return v.ID == challengeID &&
			v.Attempts == pageauth.MaxTwoFactorAttempts &&
			v.ConsumedAt != nil
	})).Return(&pageauth.Verification{}, nil).Once()

	handler := pageauth.NewCompleteTwoFactorChallengeHandler(repo, authn)

	err := handler.Execute(context.Background(), pageauth.CompleteTwoFactorChallengeMessage{
		ChallengeID: challengeID.String(),
		Code:        "000000",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid challenge code")

	authn.AssertNotCalled(t, "Impersonate", mock.Anything, mock.Anything)
	verifs.AssertExpectations(t)
}

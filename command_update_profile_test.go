package pageauth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfileClearsPhoneAndReturnsFullRecord(t *testing.T) {
	users := &MockUsers{}
	repo := &MockRepositoryManager{UsersRepo: users}

	userID := uuid.New()
	current := &pageauth.User{
		ID:    userID,
		Email: "member@example.com",
		Phone: "+12125550123",
	}

	users.On("GetByIdentifierTx", mock.Anything, mock.Anything, userID.String()).
		Return(current, nil).Once()

	stored := &pageauth.User{
		ID:        userID,
		Email:     "member@example.com",
		FirstName: "Pat",
		LastName:  "Doe",
		Username:  "member",
		Phone:     "",
	}

	users.On("RawTx", mock.Anything, mock.Anything, pageauth.UpdateUserProfileSQL,
		mock.MatchedBy(func(params []any) bool {
			return len(params) == 6 &&
				params[0] == "Pat" &&
				params[3] == "" &&
				params[5] == userID.String()
		})).Return([]*pageauth.User{stored}, nil).Once()

	handler := pageauth.NewUpdateProfileHandler(repo)

	var resp *pageauth.UpdateProfileResponse
	err := handler.Execute(context.Background(), pageauth.UpdateProfileMessage{
		UserID:    userID,
		FirstName: "Pat",
		LastName:  "Doe",
		Username:  "member",
		Phone:     "",
		OnResponse: func(r *pageauth.UpdateProfileResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Same(t, stored, resp.User)
	assert.Equal(t, "member@example.com", resp.User.Email)
	assert.Empty(t, resp.User.Phone)

	users.AssertExpectations(t)
}

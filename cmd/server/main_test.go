package main

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ pageauth.UserTracker = userTrackerAdapter{}

// recordingUsers satisfies pageauth.Users through the embedded interface,
// only the tracker methods are implemented
type recordingUsers struct {
	pageauth.Users
	identifier string
	attempted  *pageauth.User
	succeeded  *pageauth.User
	user       *pageauth.User
}

func (r *recordingUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*pageauth.User, error) {
	r.identifier = identifier
	return r.user, nil
}

func (r *recordingUsers) TrackAttemptedLogin(ctx context.Context, user *pageauth.User) error {
	r.attempted = user
	return nil
}

func (r *recordingUsers) TrackSucccessfulLogin(ctx context.Context, user *pageauth.User) error {
	r.succeeded = user
	return nil
}

func TestUserTrackerAdapterForwardsToRepository(t *testing.T) {
	user := &pageauth.User{Email: "admin@example.com"}
	store := &recordingUsers{user: user}
	adapter := userTrackerAdapter{users: store}

	got, err := adapter.GetByIdentifier(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.Same(t, user, got)
	assert.Equal(t, "admin@example.com", store.identifier)

	require.NoError(t, adapter.TrackAttemptedLogin(context.Background(), user))
	assert.Same(t, user, store.attempted)

	require.NoError(t, adapter.TrackSucccessfulLogin(context.Background(), user))
	assert.Same(t, user, store.succeeded)
}

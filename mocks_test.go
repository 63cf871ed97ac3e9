package pageauth_test

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUserTracker implements pageauth.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*pageauth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*pageauth.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *pageauth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSucccessfulLogin(ctx context.Context, user *pageauth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockIdentityProvider implements pageauth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (pageauth.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(pageauth.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (pageauth.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(pageauth.Identity)
	return identity, args.Error(1)
}

// MockAuthenticator implements pageauth.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, identifier, password string) (string, error) {
	args := m.Called(ctx, identifier, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) Impersonate(ctx context.Context, identifier string) (string, error) {
	args := m.Called(ctx, identifier)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) SessionFromToken(token string) (pageauth.Session, error) {
	args := m.Called(token)
	session, _ := args.Get(0).(pageauth.Session)
	return session, args.Error(1)
}

func (m *MockAuthenticator) IdentityFromSession(ctx context.Context, session pageauth.Session) (pageauth.Identity, error) {
	args := m.Called(ctx, session)
	identity, _ := args.Get(0).(pageauth.Identity)
	return identity, args.Error(1)
}

// MockMailer implements pageauth.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	args := m.Called(ctx, to, token)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	args := m.Called(ctx, to, token)
	return args.Error(0)
}

func (m *MockMailer) SendTwoFactorCode(ctx context.Context, to, code string) error {
	args := m.Called(ctx, to, code)
	return args.Error(0)
}

// MockUsers mocks the methods the command handlers touch, the embedded
// interface supplies the rest
type MockUsers struct {
	mock.Mock
	pageauth.Users
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*pageauth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*pageauth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*pageauth.User, error) {
	args := m.Called(ctx, tx, identifier)
	user, _ := args.Get(0).(*pageauth.User)
	return user, args.Error(1)
}

func (m *MockUsers) RawTx(ctx context.Context, tx bun.IDB, query string, params ...any) ([]*pageauth.User, error) {
	args := m.Called(ctx, tx, query, params)
	res, _ := args.Get(0).([]*pageauth.User)
	return res, args.Error(1)
}

// MockVerifications mocks the verification store
type MockVerifications struct {
	mock.Mock
	pageauth.Verifications
}

func (m *MockVerifications) CreateTx(ctx context.Context, tx bun.IDB, record *pageauth.Verification, criteria ...repository.InsertCriteria) (*pageauth.Verification, error) {
	args := m.Called(ctx, tx, record)
	rec, _ := args.Get(0).(*pageauth.Verification)
	return rec, args.Error(1)
}

func (m *MockVerifications) FindPendingTx(ctx context.Context, tx bun.IDB, id uuid.UUID, purpose string) (*pageauth.Verification, error) {
	args := m.Called(ctx, tx, id, purpose)
	rec, _ := args.Get(0).(*pageauth.Verification)
	return rec, args.Error(1)
}

func (m *MockVerifications) UpdateTx(ctx context.Context, tx bun.IDB, record *pageauth.Verification, criteria ...repository.UpdateCriteria) (*pageauth.Verification, error) {
	args := m.Called(ctx, tx, record)
	rec, _ := args.Get(0).(*pageauth.Verification)
	return rec, args.Error(1)
}

// MockRepositoryManager hands out the mock repositories and runs the
// transaction body against a zero value bun.Tx
type MockRepositoryManager struct {
	mock.Mock
	UsersRepo         *MockUsers
	VerificationsRepo *MockVerifications
}

func (m *MockRepositoryManager) Validate() error { return nil }

func (m *MockRepositoryManager) MustValidate() {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(context.Context, bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() pageauth.Users { return m.UsersRepo }

func (m *MockRepositoryManager) Verifications() pageauth.Verifications {
	return m.VerificationsRepo
}

func (m *MockRepositoryManager) Todos() pageauth.Todos { return nil }

func (m *MockRepositoryManager) PageRules() pageauth.PageRules { return nil }

func (m *MockRepositoryManager) PasswordResets() repository.Repository[*pageauth.PasswordReset] {
	return nil
}

// testIdentity implements pageauth.Identity, optionally flagging two factor
type testIdentity struct {
	id        string
	username  string
	email     string
	role      string
	twoFactor bool
}

func (t testIdentity) ID() string             { return t.id }
func (t testIdentity) Username() string       { return t.username }
func (t testIdentity) Email() string          { return t.email }
func (t testIdentity) Role() string           { return t.role }
func (t testIdentity) TwoFactorEnabled() bool { return t.twoFactor }

// testConfig implements pageauth.Config with sane test defaults
type testConfig struct {
	signingKey string
}

func (c testConfig) GetSigningKey() string {
	if c.signingKey != "" {
		return c.signingKey
	}
	return "test-signing-key"
}

func (c testConfig) GetSigningMethod() string        { return "HS256" }
func (c testConfig) GetContextKey() string           { return "user" }
func (c testConfig) GetTokenExpiration() int         { return 1 }
func (c testConfig) GetExtendedTokenDuration() int   { return 24 }
func (c testConfig) GetTokenLookup() string          { return "cookie:user,header:Authorization" }
func (c testConfig) GetAuthScheme() string           { return "Bearer" }
func (c testConfig) GetIssuer() string               { return "test-issuer" }
func (c testConfig) GetAudience() []string           { return []string{"test-app"} }
func (c testConfig) GetRejectedRouteKey() string     { return "rejected_route" }
func (c testConfig) GetRejectedRouteDefault() string { return "/" }

package pageauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole string

const (
	// RoleGuest can only view public resources
	RoleGuest UserRole = "guest"
	// RoleMember is a regular signed up user (view, edit own records)
	RoleMember UserRole = "member"
	// RoleAdmin manages other users' content
	RoleAdmin UserRole = "admin"
	// RoleOwner has full control, including destructive operations
	RoleOwner UserRole = "owner"
)

// UserStatus is the lifecycle status of an account
type UserStatus = string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusDisabled  UserStatus = "disabled"
	UserStatusArchived  UserStatus = "archived"
)

// User is the user model
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role             UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Status           UserStatus `bun:"status,notnull" json:"status,omitempty"`
	FirstName        string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName         string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Username         string     `bun:"username,notnull,unique" json:"username,omitempty"`
	ProfilePicture   string     `bun:"profile_picture" json:"profile_picture,omitempty"`
	Email            string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone            string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash     string     `bun:"password_hash" json:"-"`
	EmailValidated   bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	TwoFactorEnabled bool       `bun:"two_factor_enabled" json:"two_factor_enabled,omitempty"`
	LoginAttempts    int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt   *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt       *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	ResetedAt        *time.Time `bun:"reseted_at,nullzero" json:"reseted_at,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt        *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the status column for records created before the
// lifecycle field existed.
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

// FullName joins the user's names, used by email templates
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// PasswordResetStep step on password reset
type PasswordResetStep = string

const (
	// ResetUnknown is the unknown status
	ResetUnknown PasswordResetStep = "unknown"
	// ResetInit is the initial step
	ResetInit PasswordResetStep = "show-reset"
	// AccountVerification notification sent
	AccountVerification PasswordResetStep = "email-sent"
	// ChangingPassword user will change password
	ChangingPassword PasswordResetStep = "change-password"
	// ChangeFinalized processing change
	ChangeFinalized PasswordResetStep = "password-changed"
)

const (
	// ResetRequestedStatus is the requested status
	ResetRequestedStatus = "requested"
	// ResetExpiredStatus is the expired status
	ResetExpiredStatus = "expired"
	// ResetChangedStatus is the changed status
	ResetChangedStatus = "changed"
)

// PasswordReset tracks an in flight forgot-password request. The record ID
// doubles as the token mailed to the user.
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_reset,alias:pwdr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User      `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
	ResetedAt     *time.Time `bun:"reseted_at,nullzero" json:"reseted_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// MarkPasswordAsReseted will create a new instance
func MarkPasswordAsReseted(id uuid.UUID) *PasswordReset {
	r := &PasswordReset{}
	r.ID = id
	r.Status = ResetChangedStatus
	n := time.Now()
	r.ResetedAt = &n
	return r
}

// Verification purposes
const (
	// PurposeVerifyEmail marks a record backing the email verification link
	PurposeVerifyEmail = "verify_email"
	// PurposeTwoFactor marks a record backing a login challenge code
	PurposeTwoFactor = "two_factor"
)

// Verification is a single-use token record. For email verification the ID
// is the token embedded in the emailed link; for two-factor challenges the
// short numeric code is mailed and the ID identifies the pending challenge.
type Verification struct {
	bun.BaseModel `bun:"table:email_verifications,alias:ver"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User      `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Purpose       string     `bun:"purpose,notnull" json:"purpose,omitempty"`
	Code          string     `bun:"code" json:"-"`
	Attempts      int        `bun:"attempts" json:"-"`
	ConsumedAt    *time.Time `bun:"consumed_at,nullzero" json:"consumed_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Consumed reports whether the token was already used
func (v *Verification) Consumed() bool {
	return v.ConsumedAt != nil
}

// MarkVerificationConsumed will create an update record
func MarkVerificationConsumed(id uuid.UUID) *Verification {
	v := &Verification{}
	v.ID = id
	n := time.Now()
	v.ConsumedAt = &n
	return v
}

// Todo is a user owned todo item
type Todo struct {
	bun.BaseModel `bun:"table:todos,alias:tdo"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	OwnerID       uuid.UUID  `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	Owner         *User      `bun:"rel:has-one,join:owner_id=id" json:"owner,omitempty"`
	Text          string     `bun:"text,notnull" json:"text"`
	Completed     bool       `bun:"completed,notnull" json:"completed"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// PageRule maps a route path to the roles allowed to view it. Paths may end
// in "/*" to cover a whole subtree. A path with no rule is open.
type PageRule struct {
	bun.BaseModel `bun:"table:page_rules,alias:prl"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Path          string     `bun:"path,notnull,unique" json:"path"`
	AllowedRoles  []UserRole `bun:"allowed_roles,type:jsonb" json:"allowed_roles"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Allows is the role membership test for this rule
func (r *PageRule) Allows(role UserRole) bool {
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

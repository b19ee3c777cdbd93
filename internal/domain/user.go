package domain

import "time"

// User is the credential record. PK: user_id, GSI: email-index.
// RegisterOTP is non-nil while the account is unverified; ResetOTP is non-nil
// while a password reset is pending.
type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	FullName     string    `json:"fullName" dynamodbav:"full_name"`
	Email        string    `json:"email" dynamodbav:"email"`
	Address      string    `json:"address" dynamodbav:"address"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	IsVerified   bool      `json:"isVerified" dynamodbav:"is_verified"`
	RegisterOTP  *string   `json:"-" dynamodbav:"register_otp"`
	ResetOTP     *string   `json:"-" dynamodbav:"reset_otp"`
	Avatar       *string   `json:"avatar" dynamodbav:"avatar"`
	AccessToken  *string   `json:"-" dynamodbav:"access_token"` // last issued; informational only
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// PublicProfile is the owner projection joined into a single-listing view.
type PublicProfile struct {
	UserID   string  `json:"id"`
	FullName string  `json:"fullName"`
	Email    string  `json:"email"`
	Address  string  `json:"address"`
	Avatar   *string `json:"avatar"`
}

// Public returns the owner fields that may be shown to other users.
func (u *User) Public() *PublicProfile {
	return &PublicProfile{
		UserID:   u.UserID,
		FullName: u.FullName,
		Email:    u.Email,
		Address:  u.Address,
		Avatar:   u.Avatar,
	}
}

type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Address  string `json:"address" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type VerifyRegistrationRequest struct {
	OTP string `json:"otp" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

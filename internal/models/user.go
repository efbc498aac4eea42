package models

import (
	"time"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UnverifiedAccountTTL is how long a new account may stay unverified
// before the cleanup sweep removes it.
const UnverifiedAccountTTL = 10 * time.Minute

// CartItem is one entry of the server-held cart stored on the user record
type CartItem struct {
	TrophyID string  `json:"trophyId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// User represents a storefront account
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	MobileNumber string     `db:"mobile_number" json:"mobileNumber"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	Verified     bool       `db:"verified" json:"verified"`
	OTP          string     `db:"otp" json:"-"`
	OTPExpiry    *time.Time `db:"otp_expiry" json:"-"`
	ExpiresAt    *time.Time `db:"expires_at" json:"-"`
	Cart         []CartItem `json:"cart"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewUser creates an unverified account with a fresh verification code.
// The account expires and becomes eligible for cleanup if the email is
// never verified.
func NewUser(name, mobileNumber, email, passwordHash string) *User {
	now := GetCurrentTime()
	otpExpiry := now.Add(OTPValidity)
	accountExpiry := now.Add(UnverifiedAccountTTL)

	return &User{
		ID:           GenerateID("usr"),
		Name:         name,
		MobileNumber: mobileNumber,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		Verified:     false,
		OTP:          GenerateOTP(),
		OTPExpiry:    &otpExpiry,
		ExpiresAt:    &accountExpiry,
		Cart:         []CartItem{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasPendingOTP reports whether a verification or reset code is in flight
func (u *User) HasPendingOTP() bool {
	return u.OTP != ""
}

// OTPExpired reports whether the stored code is past its window
func (u *User) OTPExpired(now time.Time) bool {
	return u.OTPExpiry != nil && now.After(*u.OTPExpiry)
}

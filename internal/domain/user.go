package domain

import "time"

type UserRole string

const (
	UserRoleRenter UserRole = "RENTER"
	UserRoleOwner  UserRole = "OWNER"
	UserRoleAdmin  UserRole = "ADMIN"
)

type User struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone,omitempty"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
	// KYCVerified gates an owner's vehicles from accepting bookings. The
	// verification workflow itself lives outside this service.
	KYCVerified bool      `json:"kyc_verified"`
	DeviceToken string    `json:"-"` // FCM registration token, if any
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

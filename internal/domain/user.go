package domain

import "time"

// User is a server-side account. Users are not synchronized; every device of
// one user shares the same account and the same remote dataset.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Username  string    `json:"username" gorm:"uniqueIndex;size:30" validate:"required,min=3,max=30,alphanum"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255" validate:"required,email"`
	Password  string    `json:"password,omitempty"` // stored hashed, blanked in responses
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// SyncState is a client-side key/value row holding the device's durable sync
// watermarks (last_pulled_at, last_pushed_at). Losing it is safe but forces a
// full resync from epoch.
type SyncState struct {
	Key   string `gorm:"primaryKey;size:40"`
	Value string
}

func (SyncState) TableName() string { return "sync_state" }

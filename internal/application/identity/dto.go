package identity

import (
	"time"

	"github.com/carconfig/backend/internal/domain/identity"
)

// LoginInput contains the credentials of a login attempt
type LoginInput struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginResult contains the session token and the logged in user
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
	User        UserInfo  `json:"user"`
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID                  int64  `json:"id"`
	Email               string `json:"email"`
	Name                string `json:"name"`
	IsGoodClient        bool   `json:"is_good_client"`
	HasCarConfiguration bool   `json:"has_car_configuration"`
}

// EstimationTokenResult is the short-lived token for the estimator
type EstimationTokenResult struct {
	Token        string    `json:"token"`
	IsGoodClient bool      `json:"is_good_client"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ToUserInfo converts a domain user
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		IsGoodClient:        u.IsGoodClient,
		HasCarConfiguration: u.HasCarConfiguration,
	}
}

// Package account provides the authenticated user session and profile entities.
package account

import "time"

// User represents an authenticated backend user.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
}

// Session represents a signed-in user with its tokens.
type Session struct {
	User         User      `yaml:"user"`
	AccessToken  string    `yaml:"access_token"`
	RefreshToken string    `yaml:"refresh_token"`
	ExpiresAt    time.Time `yaml:"expires_at"`
}

// NewSession creates a session from a token response.
func NewSession(user User, accessToken, refreshToken string, expiresIn time.Duration) *Session {
	return &Session{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(expiresIn),
	}
}

// IsExpired checks if the access token has expired.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// CanRefresh returns true if the session holds a refresh token.
func (s *Session) CanRefresh() bool {
	return s.RefreshToken != ""
}

// Profile represents a user_profiles row.
type Profile struct {
	ID       string `json:"id" yaml:"id" validate:"required"`
	Username string `json:"username" yaml:"username"`
	Bio      string `json:"bio" yaml:"bio"`
}

// NewProfile creates an empty profile for a user.
func NewProfile(userID string) Profile {
	return Profile{ID: userID}
}

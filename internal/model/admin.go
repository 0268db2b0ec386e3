package model

import "time"

// Admin is the single administrator account. The row is created at startup
// from configuration if it does not exist yet.
//
// GitHubLogin is set when the operator enables GitHub sign-in; only that
// exact login may complete the OAuth flow. PasswordHash is a bcrypt hash,
// never the plaintext.
type Admin struct {
	ID           string    `json:"id"          db:"id"`
	Username     string    `json:"username"    db:"username"`
	PasswordHash string    `json:"-"           db:"password_hash"`
	GitHubLogin  string    `json:"githubLogin,omitempty" db:"github_login"`
	CreatedAt    time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"   db:"updated_at"`
}

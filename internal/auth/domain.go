package auth

import "time"

// User is the public shape of an account returned by auth endpoints. The
// password hash never leaves the repository layer.
type User struct {
	ID           int64
	Email        string
	Nom          string
	Prenom       string
	DateCreation time.Time
}

// Credentials carries the fields needed to check a login attempt.
type Credentials struct {
	ID           int64
	Email        string
	PasswordHash string
	Nom          string
	Prenom       string
	Actif        bool
}

// Session backs one bearer token. A session is valid iff actif is true and
// the expiry lies in the future; both are re-read on every check.
type Session struct {
	ID             int64
	UtilisateurID  int64
	Token          string
	DateExpiration time.Time
	Actif          bool
	DateCreation   time.Time
}

// LoginAudit is one append-only record of an authentication attempt.
// UtilisateurID is nil for attempts against nonexistent accounts.
type LoginAudit struct {
	UtilisateurID  *int64
	EmailTentative string
	Succes         bool
	Message        string
	AdresseIP      string
	UserAgent      string
	DateHeure      time.Time
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

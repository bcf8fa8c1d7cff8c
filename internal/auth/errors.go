package auth

import (
	"errors"

	"github.com/userdesk/userdesk/internal/platform/httpx"
)

var (
	// ErrEmailTaken indicates a registration against an existing email.
	ErrEmailTaken = httpx.Errorf(httpx.ErrDuplicate, "Email déjà utilisé")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the response does not reveal which one failed.
	ErrInvalidCredentials = httpx.Errorf(httpx.ErrUnauthorized, "Email ou mot de passe incorrect")
	// ErrAccountDisabled is intentionally distinct from ErrInvalidCredentials.
	ErrAccountDisabled = httpx.Errorf(httpx.ErrForbidden, "Compte désactivé")
	// ErrMissingToken rejects requests without a well-formed bearer header.
	ErrMissingToken = httpx.Errorf(httpx.ErrUnauthorized, "Token manquant ou format invalide")
	// ErrInvalidToken rejects revoked, expired or unknown tokens, and tokens
	// whose owning user has been deactivated.
	ErrInvalidToken = httpx.Errorf(httpx.ErrUnauthorized, "Token invalide ou expiré")

	// ErrTokenCollision reports a unique-constraint hit on session insert.
	// Given the token entropy this is an internal fault, not a retry case.
	ErrTokenCollision = errors.New("auth: session token collision")
)

package rbac

import "time"

// Permission represents an atomic capability on a resource.
type Permission struct {
	Nom         string `json:"nom"`
	Ressource   string `json:"ressource"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// UserProfile aggregates a user with the names of all roles they hold.
// Roles is always non-nil; a user without roles has an empty list.
type UserProfile struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Nom          string    `json:"nom"`
	Prenom       string    `json:"prenom"`
	Actif        bool      `json:"actif"`
	DateCreation time.Time `json:"date_creation"`
	Roles        []string  `json:"roles"`
}

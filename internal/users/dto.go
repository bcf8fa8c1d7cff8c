package users

// UpdateUserRequest carries the optional fields of a user update. A nil
// pointer means "leave as is"; Roles replaces the whole assignment set when
// present, including an empty slice which clears all roles.
type UpdateUserRequest struct {
	Nom      *string   `json:"nom" validate:"omitempty,max=100"`
	Prenom   *string   `json:"prenom" validate:"omitempty,max=100"`
	Actif    *bool     `json:"actif"`
	Password *string   `json:"password" validate:"omitempty,min=1"`
	Roles    *[]string `json:"roles"`
}

// UpdateFields is the persisted subset of an update, with the password
// already hashed. All pointers nil is still a valid update; it only bumps
// the modification timestamp.
type UpdateFields struct {
	Nom          *string
	Prenom       *string
	Actif        *bool
	PasswordHash *string
}

package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/userdesk/userdesk/internal/platform/httpx"
)

// Repository answers role and permission queries for users.
type Repository interface {
	HasPermission(ctx context.Context, userID int64, ressource, action string) (bool, error)
	PermissionsForUser(ctx context.Context, userID int64) ([]Permission, error)
	UserWithRoles(ctx context.Context, userID int64) (*UserProfile, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// HasPermission delegates the membership test to the store-side function so
// the transitive user->role->permission walk stays next to the data.
func (r *PGRepository) HasPermission(ctx context.Context, userID int64, ressource, action string) (bool, error) {
	var granted bool
	err := r.pool.QueryRow(ctx, `SELECT utilisateur_a_permission($1, $2, $3)`, userID, ressource, action).Scan(&granted)
	if err != nil {
		return false, err
	}
	return granted, nil
}

// PermissionsForUser returns the distinct permissions reachable through any
// held role, ordered by (ressource, action) for deterministic output.
func (r *PGRepository) PermissionsForUser(ctx context.Context, userID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT p.nom, p.ressource, p.action, COALESCE(p.description, '')
		FROM utilisateur_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.utilisateur_id = $1
		ORDER BY p.ressource, p.action`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.Nom, &p.Ressource, &p.Action, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// UserWithRoles fetches a user and aggregates their role names.
func (r *PGRepository) UserWithRoles(ctx context.Context, userID int64) (*UserProfile, error) {
	var profile UserProfile
	err := r.pool.QueryRow(ctx, `
		SELECT u.id, u.email, COALESCE(u.nom, ''), COALESCE(u.prenom, ''), u.actif, u.date_creation,
		       COALESCE(array_agg(r.nom ORDER BY r.nom) FILTER (WHERE r.nom IS NOT NULL), '{}')
		FROM utilisateurs u
		LEFT JOIN utilisateur_roles ur ON ur.utilisateur_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		WHERE u.id = $1
		GROUP BY u.id`,
		userID).Scan(&profile.ID, &profile.Email, &profile.Nom, &profile.Prenom,
		&profile.Actif, &profile.DateCreation, &profile.Roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	if profile.Roles == nil {
		profile.Roles = []string{}
	}
	return &profile, nil
}

var _ Repository = (*PGRepository)(nil)

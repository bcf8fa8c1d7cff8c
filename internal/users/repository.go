package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/userdesk/userdesk/internal/platform/db"
	"github.com/userdesk/userdesk/internal/rbac"
)

// TxRepository groups the directory mutations that must share one transaction.
type TxRepository interface {
	UpdateUser(ctx context.Context, id int64, fields UpdateFields) (bool, error)
	RoleIDsByNames(ctx context.Context, names []string) (map[string]int64, error)
	ReplaceUserRoles(ctx context.Context, userID int64, roleIDs []int64) error
	DeleteUserRoles(ctx context.Context, userID int64) error
	DeleteUserSessions(ctx context.Context, userID int64) error
	DeleteUserLogs(ctx context.Context, userID int64) error
	DeleteUser(ctx context.Context, id int64) (bool, error)
}

// Repository defines persistence operations for the user directory.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListUsers(ctx context.Context, limit, offset int) ([]rbac.UserProfile, error)
	CountUsers(ctx context.Context) (int, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx runs fn against a transactional view of the repository.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, queries{q: tx})
	})
}

// ListUsers returns one page of users with their role names aggregated,
// newest account first.
func (r *PGRepository) ListUsers(ctx context.Context, limit, offset int) ([]rbac.UserProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, COALESCE(u.nom, ''), COALESCE(u.prenom, ''), u.actif, u.date_creation,
		       COALESCE(array_agg(r.nom ORDER BY r.nom) FILTER (WHERE r.nom IS NOT NULL), '{}')
		FROM utilisateurs u
		LEFT JOIN utilisateur_roles ur ON ur.utilisateur_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		GROUP BY u.id
		ORDER BY u.id DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []rbac.UserProfile
	for rows.Next() {
		var p rbac.UserProfile
		if err := rows.Scan(&p.ID, &p.Email, &p.Nom, &p.Prenom, &p.Actif, &p.DateCreation, &p.Roles); err != nil {
			return nil, err
		}
		if p.Roles == nil {
			p.Roles = []string{}
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// CountUsers returns the total number of accounts.
func (r *PGRepository) CountUsers(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM utilisateurs`).Scan(&total)
	return total, err
}

// queries implements TxRepository over a transaction handle.
type queries struct {
	q querier
}

// UpdateUser applies the non-nil fields in a single statement and always
// bumps the modification timestamp, even when no field is set. Columns are
// bound in a fixed order so the SQL shape only depends on which fields are
// set, never on request ordering. Rows affected doubles as the existence
// check.
func (s queries) UpdateUser(ctx context.Context, id int64, fields UpdateFields) (bool, error) {
	set := make([]string, 0, 5)
	args := make([]any, 0, 5)
	bind := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if fields.Nom != nil {
		bind("nom", *fields.Nom)
	}
	if fields.Prenom != nil {
		bind("prenom", *fields.Prenom)
	}
	if fields.Actif != nil {
		bind("actif", *fields.Actif)
	}
	if fields.PasswordHash != nil {
		bind("password_hash", *fields.PasswordHash)
	}
	set = append(set, "date_modification = NOW()")
	args = append(args, id)
	tag, err := s.q.Exec(ctx,
		fmt.Sprintf(`UPDATE utilisateurs SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args)),
		args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s queries) RoleIDsByNames(ctx context.Context, names []string) (map[string]int64, error) {
	rows, err := s.q.Query(ctx, `SELECT id, nom FROM roles WHERE nom = ANY($1)`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make(map[string]int64, len(names))
	for rows.Next() {
		var (
			id  int64
			nom string
		)
		if err := rows.Scan(&id, &nom); err != nil {
			return nil, err
		}
		ids[nom] = id
	}
	return ids, rows.Err()
}

// ReplaceUserRoles swaps the full role assignment set of a user.
func (s queries) ReplaceUserRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM utilisateur_roles WHERE utilisateur_id = $1`, userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := s.q.Exec(ctx, `
			INSERT INTO utilisateur_roles (utilisateur_id, role_id)
			VALUES ($1, $2)`,
			userID, roleID); err != nil {
			return err
		}
	}
	return nil
}

func (s queries) DeleteUserRoles(ctx context.Context, userID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM utilisateur_roles WHERE utilisateur_id = $1`, userID)
	return err
}

func (s queries) DeleteUserSessions(ctx context.Context, userID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM sessions WHERE utilisateur_id = $1`, userID)
	return err
}

func (s queries) DeleteUserLogs(ctx context.Context, userID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM logs_connexion WHERE utilisateur_id = $1`, userID)
	return err
}

func (s queries) DeleteUser(ctx context.Context, id int64) (bool, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM utilisateurs WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var _ Repository = (*PGRepository)(nil)
var _ TxRepository = queries{}

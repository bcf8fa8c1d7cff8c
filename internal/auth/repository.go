package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/userdesk/userdesk/internal/platform/db"
	"github.com/userdesk/userdesk/internal/platform/httpx"
	"github.com/userdesk/userdesk/internal/shared"
)

// TxRepository groups the mutations that must share one transaction.
type TxRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	InsertUser(ctx context.Context, email, passwordHash, nom, prenom string) (*User, error)
	AssignRoleByName(ctx context.Context, userID int64, role string) error
	CredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	InsertSession(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	RevokeSession(ctx context.Context, token string) (userID int64, revoked bool, err error)
	InsertAudit(ctx context.Context, entry LoginAudit) error
}

// Repository defines persistence operations for the auth module.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	IdentityByToken(ctx context.Context, token string) (*shared.Identity, error)
	RecentLogs(ctx context.Context, userID int64, limit int) ([]LoginAudit, error)
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

// IdentityByToken resolves a token to its owning user. The join re-checks
// session and user state on every call, so revocation and deactivation take
// effect immediately.
func (r *PGRepository) IdentityByToken(ctx context.Context, token string) (*shared.Identity, error) {
	var identity shared.Identity
	err := r.pool.QueryRow(ctx, `
		SELECT u.id, u.email, COALESCE(u.nom, ''), COALESCE(u.prenom, '')
		FROM sessions s
		JOIN utilisateurs u ON u.id = s.utilisateur_id
		WHERE s.token = $1
		  AND s.actif = TRUE
		  AND s.date_expiration > NOW()
		  AND u.actif = TRUE`,
		token).Scan(&identity.UserID, &identity.Email, &identity.Nom, &identity.Prenom)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &identity, nil
}

// RecentLogs returns the newest audit entries for a user.
func (r *PGRepository) RecentLogs(ctx context.Context, userID int64, limit int) ([]LoginAudit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT utilisateur_id, COALESCE(email_tentative, ''), succes, COALESCE(message, ''),
		       COALESCE(adresse_ip, ''), COALESCE(user_agent, ''), date_heure
		FROM logs_connexion
		WHERE utilisateur_id = $1
		ORDER BY date_heure DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []LoginAudit
	for rows.Next() {
		var entry LoginAudit
		if err := rows.Scan(&entry.UtilisateurID, &entry.EmailTentative, &entry.Succes,
			&entry.Message, &entry.AdresseIP, &entry.UserAgent, &entry.DateHeure); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// queries implements TxRepository over a transaction handle.
type queries struct {
	q querier
}

func (s queries) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM utilisateurs WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (s queries) InsertUser(ctx context.Context, email, passwordHash, nom, prenom string) (*User, error) {
	var user User
	err := s.q.QueryRow(ctx, `
		INSERT INTO utilisateurs (email, password_hash, nom, prenom)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		RETURNING id, email, COALESCE(nom, ''), COALESCE(prenom, ''), date_creation`,
		email, passwordHash, nom, prenom).
		Scan(&user.ID, &user.Email, &user.Nom, &user.Prenom, &user.DateCreation)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

func (s queries) AssignRoleByName(ctx context.Context, userID int64, role string) error {
	tag, err := s.q.Exec(ctx, `
		INSERT INTO utilisateur_roles (utilisateur_id, role_id)
		SELECT $1, id FROM roles WHERE nom = $2`,
		userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("auth: role " + role + " is not provisioned")
	}
	return nil
}

func (s queries) CredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	var creds Credentials
	err := s.q.QueryRow(ctx, `
		SELECT id, email, password_hash, COALESCE(nom, ''), COALESCE(prenom, ''), actif
		FROM utilisateurs
		WHERE email = $1`,
		email).Scan(&creds.ID, &creds.Email, &creds.PasswordHash, &creds.Nom, &creds.Prenom, &creds.Actif)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &creds, nil
}

func (s queries) InsertSession(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO sessions (utilisateur_id, token, date_expiration)
		VALUES ($1, $2, $3)`,
		userID, token, expiresAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTokenCollision
		}
		return err
	}
	return nil
}

func (s queries) RevokeSession(ctx context.Context, token string) (int64, bool, error) {
	var userID int64
	err := s.q.QueryRow(ctx, `
		UPDATE sessions
		SET actif = FALSE
		WHERE token = $1 AND actif = TRUE
		RETURNING utilisateur_id`,
		token).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return userID, true, nil
}

func (s queries) InsertAudit(ctx context.Context, entry LoginAudit) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO logs_connexion (utilisateur_id, email_tentative, succes, message, adresse_ip, user_agent)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
		entry.UtilisateurID, entry.EmailTentative, entry.Succes, entry.Message, entry.AdresseIP, entry.UserAgent)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
var _ TxRepository = queries{}

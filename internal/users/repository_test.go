package users

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type recordedExec struct {
	sql  string
	args []any
}

// recordingQuerier captures Exec statements; rowsAffected feeds the
// returned command tag.
type recordingQuerier struct {
	execs        []recordedExec
	rowsAffected int64
}

func (q *recordingQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, recordedExec{sql: sql, args: args})
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", q.rowsAffected)), nil
}

func (q *recordingQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (q *recordingQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("unexpected query row")
}

func TestUpdateUserFixedColumnOrder(t *testing.T) {
	q := &recordingQuerier{rowsAffected: 1}
	nom, actif := "Dupont", false

	found, err := queries{q: q}.UpdateUser(context.Background(), 7, UpdateFields{Nom: &nom, Actif: &actif})
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, q.execs, 1)
	require.Equal(t,
		`UPDATE utilisateurs SET nom = $1, actif = $2, date_modification = NOW() WHERE id = $3`,
		q.execs[0].sql)
	require.Equal(t, []any{"Dupont", false, int64(7)}, q.execs[0].args)
}

// Even with no field set the statement must run, so date_modification moves
// and rows affected answers whether the user exists.
func TestUpdateUserWithoutFieldsBumpsTimestamp(t *testing.T) {
	q := &recordingQuerier{rowsAffected: 1}

	found, err := queries{q: q}.UpdateUser(context.Background(), 7, UpdateFields{})
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, q.execs, 1)
	require.Equal(t,
		`UPDATE utilisateurs SET date_modification = NOW() WHERE id = $1`,
		q.execs[0].sql)
	require.Equal(t, []any{int64(7)}, q.execs[0].args)
}

func TestUpdateUserWithoutFieldsUnknownUser(t *testing.T) {
	q := &recordingQuerier{rowsAffected: 0}

	found, err := queries{q: q}.UpdateUser(context.Background(), 42, UpdateFields{})
	require.NoError(t, err)
	require.False(t, found)
}

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/supermovie/internal/crawler"
	"github.com/JakeFAU/supermovie/internal/normalize"
)

func strPtr(s string) *string { return &s }

func TestReplaceRunsInOneTransaction(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	l, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	movies := []normalize.MovieRow{{
		Name:  strPtr("Nomadland"),
		Stars: []string{"Frances McDormand"},
		Score: "7.4",
	}}
	casts := []normalize.CastRow{{
		Name:     strPtr("Frances McDormand"),
		Position: crawler.PositionStar,
	}}

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS "movies"`).WillReturnResult(pgxmock.NewResult("DROP TABLE", 0))
	mock.ExpectExec(`CREATE TABLE "movies"`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`INSERT INTO "movies"`).
		WithArgs("Nomadland", nil, "Frances McDormand", "-", "-", nil, "7.4", nil, nil, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DROP TABLE IF EXISTS "casts"`).WillReturnResult(pgxmock.NewResult("DROP TABLE", 0))
	mock.ExpectExec(`CREATE TABLE "casts"`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`INSERT INTO "casts"`).
		WithArgs("Frances McDormand", "star", nil,
			"-", "-", "-", "-", "-", "-", "-", "-", "-", "-", "-", "-",
			nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, l.Replace(context.Background(), movies, casts))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	l, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS "movies"`).WillReturnResult(pgxmock.NewResult("DROP TABLE", 0))
	mock.ExpectExec(`CREATE TABLE "movies"`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`INSERT INTO "movies"`).
		WithArgs("Nomadland", nil, "-", "-", "-", nil, "7.4", nil, nil, nil).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = l.Replace(context.Background(), []normalize.MovieRow{{Name: strPtr("Nomadland"), Score: "7.4"}}, nil)
	require.Error(t, err)
	require.ErrorContains(t, err, "insert movies row 0")
	require.ErrorContains(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceBeginFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	l, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	require.Error(t, l.Replace(context.Background(), nil, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil, nil)
	require.Error(t, err)
}

func TestNewRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "", nil)
	require.Error(t, err)
}

package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finreport-labs/balproc/internal/emit"
	"github.com/finreport-labs/balproc/internal/testutil"
)

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return &Client{db: mockDB, logger: testutil.Logger(t)}, mock
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "defaults",
			cfg:  Config{Database: "balance"},
			want: "host=localhost port=5432 dbname=balance sslmode=disable",
		},
		{
			name: "full",
			cfg: Config{
				Host: "db.internal", Port: 6432, Database: "balance",
				User: "app", Password: "secret", SSLMode: "require",
			},
			want: "host=db.internal port=6432 dbname=balance sslmode=require user=app password=secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildDSN(tt.cfg))
		})
	}
}

func TestNextID(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT balance_api.fn_get_new_obj_ids(1)")).
		WillReturnRows(sqlmock.NewRows([]string{"fn_get_new_obj_ids"}).AddRow(2001))

	id, err := client.NextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2001, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextID_QueryError(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT balance_api.fn_get_new_obj_ids(1)")).
		WillReturnError(errors.New("boom"))

	_, err := client.NextID(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to allocate article ID")
}

func TestExecute(t *testing.T) {
	client, mock := newMockClient(t)

	statements := []emit.Statement{
		{Category: emit.CategoryRenumber, Text: "SELECT balance_api.fn_balance_article_renum_up_down(1);"},
		{Category: emit.CategoryChange, Text: "-- ERROR in row 7: bad row"},
		{Category: emit.CategoryChange, Text: "SELECT balance_api.fn_balance_article_rename(2);"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("fn_balance_article_renum_up_down")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("fn_balance_article_rename")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := client.Execute(context.Background(), statements)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "comment lines do not count as executed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RollbackOnFailure(t *testing.T) {
	client, mock := newMockClient(t)

	statements := []emit.Statement{
		{Text: "SELECT balance_api.fn_balance_article_rename(1);"},
		{Text: "SELECT balance_api.fn_balance_article_rename(2);"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("fn_balance_article_rename(1)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("fn_balance_article_rename(2)")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	n, err := client.Execute(context.Background(), statements)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2 failed")
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_EmptyCommits(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	n, err := client.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClosedClient(t *testing.T) {
	client := &Client{}

	_, err := client.NextID(context.Background())
	require.Error(t, err)

	_, err = client.Execute(context.Background(), nil)
	require.Error(t, err)

	assert.NoError(t, client.Close())
}

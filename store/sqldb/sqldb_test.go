package sqldb

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ageorm/agtype"
	"ageorm/store"
)

func newMock(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return Wrap(db), mock
}

func TestExecute(t *testing.T) {
	client, mock := newMock(t)
	stmt := store.Statement("g", "MATCH (n) RETURN n")
	mock.ExpectQuery(stmt).WillReturnRows(
		sqlmock.NewRows([]string{"result"}).
			AddRow([]byte(`{"id": 1, "label": "Person", "properties": {"name": "Alice"}}::vertex`)),
	)

	recs, err := store.Cypher(context.Background(), client, "g", "MATCH (n) RETURN n")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec, ok := recs[0].Result().(*agtype.GraphRecord)
	require.True(t, ok)
	assert.Equal(t, "Alice", rec.Properties["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteConvertsBytes(t *testing.T) {
	client, mock := newMock(t)
	mock.ExpectQuery("SELECT name FROM ag_catalog.ag_graph").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow([]byte("social")).AddRow("other"))

	rows, err := client.Execute(context.Background(), "SELECT name FROM ag_catalog.ag_graph")
	require.NoError(t, err)
	assert.Equal(t, []store.Row{{"social"}, {"other"}}, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteError(t *testing.T) {
	client, mock := newMock(t)
	boom := errors.New("boom")
	mock.ExpectQuery("SELECT 1").WillReturnError(boom)

	_, err := client.Execute(context.Background(), "SELECT 1")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "running statement")
}

func TestPinned(t *testing.T) {
	t.Run("commits", func(t *testing.T) {
		client, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT 1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("10"))
		mock.ExpectQuery("INSERT 2").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("11"))
		mock.ExpectCommit()

		var got []store.Row
		err := client.Pinned(context.Background(), func(x store.Executor) error {
			for _, stmt := range []string{"INSERT 1", "INSERT 2"} {
				rows, err := x.Execute(context.Background(), stmt)
				if err != nil {
					return err
				}
				got = append(got, rows...)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []store.Row{{"10"}, {"11"}}, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		client, mock := newMock(t)
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT 1").WillReturnError(boom)
		mock.ExpectRollback()

		err := client.Pinned(context.Background(), func(x store.Executor) error {
			_, err := x.Execute(context.Background(), "INSERT 1")
			return err
		})
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin fails", func(t *testing.T) {
		client, mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errors.New("no conn"))

		err := client.Pinned(context.Background(), func(store.Executor) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "beginning transaction")
	})
}

type fakeConn struct {
	driver.Conn
	executed []string
	failOn   string
	closed   bool
}

func (c *fakeConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	if query == c.failOn {
		return nil, errors.New("exec failed")
	}
	c.executed = append(c.executed, query)
	return driver.RowsAffected(0), nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	conn *fakeConn
}

func (c fakeConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c fakeConnector) Driver() driver.Driver                      { return nil }

func TestAgeConnector(t *testing.T) {
	t.Run("runs session setup", func(t *testing.T) {
		conn := &fakeConn{}
		got, err := ageConnector{Connector: fakeConnector{conn: conn}}.Connect(context.Background())
		require.NoError(t, err)
		assert.Same(t, conn, got)
		assert.Equal(t, sessionSetup, conn.executed)
	})

	t.Run("setup failure closes", func(t *testing.T) {
		conn := &fakeConn{failOn: "LOAD 'age'"}
		_, err := ageConnector{Connector: fakeConnector{conn: conn}}.Connect(context.Background())
		require.Error(t, err)
		assert.True(t, conn.closed)
	})
}

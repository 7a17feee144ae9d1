package orm

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawQuerier(t *testing.T) {
	db, mock := mockDB(t, DBWithDialect(SQLServer))
	ctx := context.Background()

	mock.ExpectQuery("SELECT [id], [first_name] FROM [test_model] WHERE [age] > @p1").
		WithArgs(18).WillReturnRows(sqlmock.NewRows([]string{"id", "first_name"}).
		AddRow(1, "Tom").AddRow(2, "Jerry"))
	res, err := RawQuery[TestModel](db, "SELECT [id], [first_name] FROM [test_model] WHERE [age] > @p1", 18).
		GetMulti(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*TestModel{{Id: 1, FirstName: "Tom"}, {Id: 2, FirstName: "Jerry"}}, res)

	mock.ExpectQuery("SELECT COUNT(*) FROM [test_model]").
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(2))
	cnt, err := RawQuery[int64](db, "SELECT COUNT(*) FROM [test_model]").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), *cnt)

	mock.ExpectQuery("SELECT [id] FROM [test_model] WHERE 1 = 0").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = RawQuery[TestModel](db, "SELECT [id] FROM [test_model] WHERE 1 = 0").Get(ctx)
	assert.Equal(t, ErrNoRows, err)

	mock.ExpectExec("DELETE FROM [test_model]").
		WillReturnResult(sqlmock.NewResult(0, 2))
	affected, err := RawQuery[any](db, "DELETE FROM [test_model]").Exec(ctx).RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	assert.NoError(t, mock.ExpectationsWereMet())
}

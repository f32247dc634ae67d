package types

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func buildSQL(t *testing.T, fs CommonFilters) (string, []interface{}) {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{})
	require.NoError(t, err)
	stmt := &gorm.Statement{DB: db}
	fs.Build(stmt)
	return stmt.SQL.String(), stmt.Vars
}

func TestCommonFilters_Build(t *testing.T) {
	sql, vars := buildSQL(t, CommonFilters{
		{Field: "status", Operator: CommonFilterOperatorEq, Values: []any{"active"}},
		{Field: "price", Operator: CommonFilterOperatorGte, Values: []any{int64(10000)}},
	})

	require.Contains(t, sql, "status")
	require.Contains(t, sql, "price")
	require.Contains(t, sql, "AND")
	require.Len(t, vars, 2)
	require.Equal(t, "active", vars[0])
	require.Equal(t, int64(10000), vars[1])
}

func TestCommonFilters_BuildEmpty(t *testing.T) {
	sql, vars := buildSQL(t, nil)
	require.Equal(t, "1=1", sql)
	require.Empty(t, vars)
}

func TestCommonFilters_BuildSingle(t *testing.T) {
	sql, vars := buildSQL(t, CommonFilters{
		{Field: "coach_id", Operator: CommonFilterOperatorIn, Values: []any{"c1", "c2"}},
	})

	require.Contains(t, sql, "coach_id")
	require.Contains(t, sql, "IN")
	require.Len(t, vars, 2)
}

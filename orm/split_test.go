package orm

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	//no connection, nothing can be queried
	q := NewQuery(Message{})

	t.Run("identifiers are printed", func(t *testing.T) {
		s := q.Split(2013, 2014)
		require.NoError(t, s.Error())
		assert.Equal(t, []string{"2013", "2014"}, s.SplitTables())
	})

	t.Run("one slice", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, q.Split([]string{"a", "b"}).SplitTables())
		assert.Equal(t, []string{"1", "2"}, q.Split([]int{1, 2}).SplitTables())
	})

	t.Run("generator", func(t *testing.T) {
		calls := 0
		s := q.Split(func() []string {
			calls++
			return []string{"asd1", "asd2"}
		})
		assert.Equal(t, 1, calls)
		assert.Equal(t, []string{"asd1", "asd2"}, s.SplitTables())
	})

	t.Run("coerce filter sort", func(t *testing.T) {
		s := q.SplitWith(SplitOptions{
			Coerce: func(v any) string { return fmt.Sprintf("message_%v", v) },
			Filter: func(name string) bool { return !strings.HasSuffix(name, "2015") },
			Sort: func(names []string) []string {
				slices.Reverse(names)
				return names
			},
		}, 2013, 2014, 2015)
		assert.Equal(t, []string{"message_2014", "message_2013"}, s.SplitTables())
	})

	t.Run("default tables", func(t *testing.T) {
		opts := SplitOptions{Tables: []any{"asd1", "asd2"}}
		assert.Equal(t, []string{"asd1", "asd2"}, q.SplitWith(opts).SplitTables())
		assert.Equal(t, []string{"asd3"}, q.SplitWith(opts, "asd3").SplitTables())
	})

	t.Run("sort gets a copy", func(t *testing.T) {
		var sorted []string
		s := q.SplitWith(SplitOptions{Sort: func(names []string) []string {
			sorted = names
			return []string{"x"}
		}}, "a", "b")
		assert.Equal(t, []string{"x"}, s.SplitTables())
		assert.Equal(t, []string{"a", "b"}, sorted)
	})

	t.Run("empty", func(t *testing.T) {
		s := q.Split()
		assert.ErrorIs(t, s.Error(), ErrNoTablesSelected)
		assert.Nil(t, s.SplitTables())

		s = q.Split([]string{})
		assert.ErrorIs(t, s.Error(), ErrNoTablesSelected)
	})

	t.Run("resplit replaces tables", func(t *testing.T) {
		assert.Equal(t, []string{"c"}, q.Split("a", "b").Split("c").SplitTables())
	})

	t.Run("resplit replaces an empty split", func(t *testing.T) {
		s := q.Split().Split("a")
		require.NoError(t, s.Error())
		assert.Equal(t, []string{"a"}, s.SplitTables())

		//other errors are kept
		s = q.Where(1, 1).Split().Split("a")
		assert.ErrorIs(t, s.Error(), ErrColumnShouldBeStringOrPtr)
	})

	t.Run("raw sql", func(t *testing.T) {
		raw := q.UseDialect(MysqlDialect).Raw("select * from `message` where id = ?", 1).Split("asd1", "asd2")
		assert.ErrorIs(t, raw.Error(), ErrSplitRawQuery)
		assert.Nil(t, raw.SplitTables())

		_, err := raw.UnionSubQuery(OperatorUnionAll)
		assert.ErrorIs(t, err, ErrSplitRawQuery)
	})

	t.Run("tables are copied out", func(t *testing.T) {
		s := q.Split("a", "b")
		tables := s.SplitTables()
		tables[0] = "z"
		assert.Equal(t, []string{"a", "b"}, s.SplitTables())
	})
}

func TestSplitSnapshot(t *testing.T) {
	q := NewQuery(Message{}).UseDialect(MysqlDialect)
	s := q.Where(&q.T.Id, 1).OrderBy(&q.T.Id).Limit(3).Offset(1).ForUpdate().Split("asd1")

	require.NotNil(t, s.split)
	base := s.split.base
	assert.Len(t, base.wheres, 1)
	assert.Empty(t, base.orderbys)
	assert.Zero(t, base.limit)
	assert.Zero(t, base.offset)
	assert.Empty(t, base.forUpdate)

	assert.Len(t, s.orderbys, 1)
	assert.Equal(t, 3, s.limit)
	assert.Equal(t, 1, s.offset)
}

func TestRetargetKeepsColumnPrefix(t *testing.T) {
	q := NewQuery(Message{}).UseDialect(MysqlDialect)
	sub := q.Where(&q.T.Id, 1).retarget("shard.asd1").SubQuery()
	assert.Equal(t, "select * from `shard`.`asd1` as `message` where `message`.`id` = ?", sub.PrepareSql())

	aliased := q.Alias("m")
	sub = aliased.Where(&aliased.T.Id, 1).retarget("asd1").SubQuery()
	assert.Equal(t, "select * from `asd1` as `m` where `m`.`id` = ?", sub.PrepareSql())
}

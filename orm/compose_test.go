package orm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filteredMessages(d Dialect) Query[Message] {
	q := NewQuery(Message{}).UseDialect(d).WithUnionConfig(UnionConfig{Quiet: true})
	return q.Where(&q.T.Text, "filter")
}

func TestComposeMysql(t *testing.T) {
	sub, err := filteredMessages(MysqlDialect).Split("asd1", "asd2").Limit(5).UnionSubQuery(OperatorUnionAll)
	require.NoError(t, err)

	assert.Equal(t, "select * from ((select * from `asd1` as `message` where `message`.`text` = ?)"+
		" union all (select * from `asd2` as `message` where `message`.`text` = ?))"+
		" as `message` where `message`.`text` = ? limit 5", sub.PrepareSql())
	assert.Equal(t, []interface{}{"filter", "filter", "filter"}, sub.Bindings())
}

func TestComposeSqliteBranchesAreBare(t *testing.T) {
	q := filteredMessages(SqliteDialect)
	sub, err := q.Split("asd1", "asd2").OrderByDesc(&q.T.Id).UnionSubQuery(OperatorUnion)
	require.NoError(t, err)

	assert.Equal(t, `select * from (select * from "asd1" as "message" where "message"."text" = ?`+
		` union select * from "asd2" as "message" where "message"."text" = ?)`+
		` as "message" where "message"."text" = ? order by "message"."id" desc`, sub.PrepareSql())
}

func TestComposePostgresRebind(t *testing.T) {
	q := filteredMessages(PostgresDialect)
	sub, err := q.Split("asd1", "asd2").Where(&q.T.Id, WhereIn, []int{1, 2}).UnionSubQuery(OperatorUnionAll)
	require.NoError(t, err)
	assert.Len(t, sub.Bindings(), 5)

	rebound := PostgresDialect.Rebind(sub.PrepareSql())
	assert.NotContains(t, rebound, "?")
	assert.Contains(t, rebound, `((select * from "asd1" as "message" where "message"."text" = $1)`)
	assert.Contains(t, rebound, `"message"."id" in ($4,$5)`)
}

type Author struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

func (Author) TableName() string {
	return "author"
}

func (Author) DatabaseName() string {
	return ""
}

func TestComposeKeepsJoinsInBranches(t *testing.T) {
	q := filteredMessages(MysqlDialect)
	sub, err := q.LeftJoin(&Author{}, func(j Query[Message]) Query[Message] {
		return j.Where("`author`.`id` = `message`.`id`")
	}).Split("asd1", "asd2").UnionSubQuery(OperatorUnionAll)
	require.NoError(t, err)

	branch := func(table string) string {
		return "(select `message`.* from `" + table + "` as `message`" +
			" left join `author` on `author`.`id` = `message`.`id` where `message`.`text` = ?)"
	}
	assert.Equal(t, "select `message`.* from ("+branch("asd1")+" union all "+branch("asd2")+") as `message`"+
		" left join `author` on `author`.`id` = `message`.`id` where `message`.`text` = ?", sub.PrepareSql())
	assert.Len(t, sub.Bindings(), 3)
}

func TestComposeJoinKeepsExplicitColumns(t *testing.T) {
	q := filteredMessages(MysqlDialect)
	sub, err := q.Select(&q.T.Id).LeftJoin(&Author{}, func(j Query[Message]) Query[Message] {
		return j.Where("`author`.`id` = `message`.`id`")
	}).Split("asd1").UnionSubQuery(OperatorUnionAll)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sub.PrepareSql(), "select `message`.`id` from ((select `message`.`id` from `asd1`"))
}

func TestComposeSplitSurvivesLaterChaining(t *testing.T) {
	q := filteredMessages(MysqlDialect).Split("asd1")
	a := q.Where("a = 1")
	b := q.Where("b = 1")

	subA, err := a.UnionSubQuery(OperatorUnionAll)
	require.NoError(t, err)
	subB, err := b.UnionSubQuery(OperatorUnionAll)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(subA.PrepareSql(), "and a = 1"))
	assert.True(t, strings.HasSuffix(subB.PrepareSql(), "and b = 1"))
	assert.NotContains(t, subA.PrepareSql(), "b = 1")
	//branches only see conditions from before the split
	assert.Equal(t, 1, strings.Count(subA.PrepareSql(), "a = 1"))
}

func TestComposeCarriesFirstError(t *testing.T) {
	q := filteredMessages(MysqlDialect).Where(1).Split("asd1")
	_, err := q.UnionSubQuery(OperatorUnionAll)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFetchWithoutUnion)

	_, err = filteredMessages(MysqlDialect).UnionSubQuery(OperatorUnion)
	assert.ErrorIs(t, err, ErrFetchWithoutUnion)
}

func TestSubstitutePlaceholder(t *testing.T) {
	inner := NewSubQuery("select ? union all select ?", "i1", "i2")

	t.Run("once", func(t *testing.T) {
		outer := NewSubQuery("select ? as k from `ph` as `m` where x = ?", "a", "b")
		sub, err := SubstitutePlaceholder(outer, "`ph`", inner)
		require.NoError(t, err)
		assert.Equal(t, "select ? as k from (select ? union all select ?) as `m` where x = ?", sub.PrepareSql())
		assert.Equal(t, []interface{}{"a", "i1", "i2", "b"}, sub.Bindings())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := SubstitutePlaceholder(NewSubQuery("select 1"), "`ph`", inner)
		assert.ErrorIs(t, err, ErrAmbiguousPlaceholder)
	})

	t.Run("twice", func(t *testing.T) {
		outer := NewSubQuery("select * from `ph` join `ph` on 1")
		_, err := SubstitutePlaceholder(outer, "`ph`", inner)
		assert.ErrorIs(t, err, ErrAmbiguousPlaceholder)
	})

	t.Run("question mark in literal", func(t *testing.T) {
		outer := NewSubQuery("select '?' from `ph` where x = ?", "b")
		sub, err := SubstitutePlaceholder(outer, "`ph`", inner)
		require.NoError(t, err)
		assert.Equal(t, []interface{}{"i1", "i2", "b"}, sub.Bindings())
	})
}

//outer query that can only be compiled against a table name
type namedOuter struct {
	tables []string
	outer  func(placeholder string) SubQuery
}

func (n namedOuter) unionDialect() Dialect  { return MysqlDialect }
func (n namedOuter) unionTables() []string { return n.tables }
func (n namedOuter) rootTableName() string { return "message" }

func (n namedOuter) compileBranch(table string) (SubQuery, error) {
	return NewSubQuery("select * from `"+table+"` where a = ?", table), nil
}

func (n namedOuter) compileOuterAt(placeholder string) (SubQuery, error) {
	if n.outer != nil {
		return n.outer(placeholder), nil
	}
	return NewSubQuery("select * from `"+placeholder+"` as `m` where b = ?", "outer"), nil
}

func stubPlaceholderNames(t *testing.T, names ...string) {
	old := newPlaceholderName
	t.Cleanup(func() { newPlaceholderName = old })
	i := 0
	newPlaceholderName = func(UnionConfig) string {
		name := names[i%len(names)]
		i++
		return name
	}
}

func TestComposePlaceholder(t *testing.T) {
	src := namedOuter{tables: []string{"asd1", "asd2"}}

	t.Run("retries taken names", func(t *testing.T) {
		stubPlaceholderNames(t, "asd1", "message", "ufresh")
		sub, err := composeUnion(src, OperatorUnionAll, NewUnionConfig())
		require.NoError(t, err)
		assert.Equal(t, "select * from ((select * from `asd1` where a = ?) union all (select * from `asd2` where a = ?))"+
			" as `m` where b = ?", sub.PrepareSql())
		assert.Equal(t, []interface{}{"asd1", "asd2", "outer"}, sub.Bindings())
	})

	t.Run("gives up", func(t *testing.T) {
		stubPlaceholderNames(t, "asd2")
		_, err := composeUnion(src, OperatorUnion, NewUnionConfig())
		assert.ErrorIs(t, err, ErrPlaceholderCollision)
	})

	t.Run("outer repeats placeholder", func(t *testing.T) {
		stubPlaceholderNames(t, "ufresh")
		twice := namedOuter{tables: src.tables, outer: func(p string) SubQuery {
			return NewSubQuery("select * from `" + p + "` where id in (select id from `" + p + "`)")
		}}
		_, err := composeUnion(twice, OperatorUnion, NewUnionConfig())
		assert.ErrorIs(t, err, ErrAmbiguousPlaceholder)
	})

	t.Run("no tables", func(t *testing.T) {
		_, err := composeUnion(namedOuter{}, OperatorUnion, NewUnionConfig())
		assert.ErrorIs(t, err, ErrNoTablesSelected)
	})
}

func TestPlaceholderName(t *testing.T) {
	cfg := NewUnionConfig()
	a, b := newPlaceholderName(cfg), newPlaceholderName(cfg)
	assert.True(t, strings.HasPrefix(a, "u"))
	assert.Len(t, a, 13)
	assert.NotEqual(t, a, b)

	long := newPlaceholderName(UnionConfig{PlaceholderPrefix: "tmp_", PlaceholderLength: 100})
	assert.Len(t, long, 4+32)
}

func TestUnionConfigDefaults(t *testing.T) {
	assert.Equal(t, UnionConfig{PlaceholderPrefix: "u", PlaceholderLength: 12, PlaceholderAttempts: 4}, NewUnionConfig())

	q := NewQuery(Message{}).WithUnionConfig(UnionConfig{PlaceholderLength: 6, Quiet: true})
	assert.Equal(t, UnionConfig{PlaceholderPrefix: "u", PlaceholderLength: 6, PlaceholderAttempts: 4, Quiet: true}, q.getUnionConfig())

	old := DefaultUnionConfig()
	t.Cleanup(func() { SetDefaultUnionConfig(old) })
	SetDefaultUnionConfig(UnionConfig{PlaceholderPrefix: "x"})
	assert.Equal(t, "x", NewQuery(Message{}).getUnionConfig().PlaceholderPrefix)
	assert.Equal(t, 4, DefaultUnionConfig().PlaceholderAttempts)
}

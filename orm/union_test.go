package orm

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/suite"
)

type Message struct {
	Id   int    `json:"id"`
	Text string `json:"text" orm:"text,varchar(40)"`
}

func (Message) TableName() string {
	return "message"
}

func (Message) DatabaseName() string {
	return ""
}

type UnionSuite struct {
	suite.Suite
	db   *sql.DB
	base Query[Message]
}

func TestUnionSuite(t *testing.T) {
	suite.Run(t, new(UnionSuite))
}

func (s *UnionSuite) SetupTest() {
	db, err := sql.Open("sqlite3", ":memory:")
	s.Require().NoError(err)
	//every query must see the same in-memory database
	db.SetMaxOpenConns(1)
	s.db = db
	s.base = NewQuery(Message{}, db).WithUnionConfig(UnionConfig{Quiet: true})

	s.createTable("asd1", 1, false)
	s.createTable("asd2", 11, true)
}

func (s *UnionSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

//ten rows matching text = 'filter', ids from firstId
func (s *UnionSuite) createTable(name string, firstId int, explicitIds bool) {
	model := GetModel(s.base, name)
	creates, pending, err := CreateSql(model)
	s.Require().NoError(err)
	for _, v := range append(creates, pending...) {
		_, err := s.db.Exec(v)
		s.Require().NoError(err)
	}

	rows := make([]Message, 10)
	for k := range rows {
		rows[k].Text = "filter"
		if explicitIds {
			rows[k].Id = firstId + k
		}
	}
	res := model.Inserts(rows)
	s.Require().NoError(res.Error())
	s.Require().EqualValues(10, res.RowsAffected)
}

func (s *UnionSuite) filtered() Query[Message] {
	return s.base.Where(&s.base.T.Text, "filter")
}

func (s *UnionSuite) TestUnionAllReturnsEveryBranchRow() {
	messages, res := s.filtered().Split("asd1", "asd2").UnionAll().Gets()
	s.Require().NoError(res.Error())
	s.Len(messages, 20)

	ids := make(map[int]bool)
	for _, v := range messages {
		s.Equal("filter", v.Text)
		ids[v.Id] = true
	}
	s.Len(ids, 20)
}

func (s *UnionSuite) TestUnionOnDisjointTables() {
	messages, res := s.filtered().Split("asd1", "asd2").Union().Gets()
	s.Require().NoError(res.Error())
	s.Len(messages, 20)
}

func (s *UnionSuite) TestUnionDedupsRepeatedBranches() {
	all, res := s.filtered().Split("asd1", "asd1").UnionAll().Gets()
	s.Require().NoError(res.Error())
	s.Len(all, 20)

	distinct, res := s.filtered().Split("asd1", "asd1").Union().Gets()
	s.Require().NoError(res.Error())
	s.Len(distinct, 10)
}

func (s *UnionSuite) TestFetchWithoutSplit() {
	res := s.filtered().UnionAll()
	s.ErrorIs(res.Error(), ErrFetchWithoutUnion)

	_, err := s.filtered().UnionCursor(context.Background())
	s.ErrorIs(err, ErrFetchWithoutUnion)
}

func (s *UnionSuite) TestSplitWithoutTables() {
	s.ErrorIs(s.filtered().Split().Error(), ErrNoTablesSelected)
	s.ErrorIs(s.filtered().Split().UnionAll().Error(), ErrNoTablesSelected)

	rejected := s.filtered().SplitWith(SplitOptions{Filter: func(string) bool { return false }}, "asd1")
	_, res := rejected.UnionAll().Gets()
	s.ErrorIs(res.Error(), ErrNoTablesSelected)
}

func (s *UnionSuite) TestBindingsFollowPlaceholders() {
	q := s.filtered().Split("asd1", "asd2").Where(&s.base.T.Id, WhereGreatThan, 3)

	sub, err := q.UnionSubQuery(OperatorUnionAll)
	s.Require().NoError(err)
	s.Equal([]interface{}{"filter", "filter", "filter", 3}, sub.Bindings())
	s.Len(placeholderPositions(sub.PrepareSql()), len(sub.Bindings()))

	messages, res := q.UnionAll().Gets()
	s.Require().NoError(res.Error())
	s.Len(messages, 17)
}

func (s *UnionSuite) TestOuterFilterOnlyNarrowsResult() {
	res := s.filtered().Split("asd1", "asd2").Where(&s.base.T.Id, 1).UnionAll()
	s.Require().NoError(res.Error())
	s.Equal(1, strings.Count(res.PrepareSql(), `"message"."id" = ?`))

	messages, qr := res.Gets()
	s.Require().NoError(qr.Error())
	s.Require().Len(messages, 1)
	s.Equal(1, messages[0].Id)
}

func (s *UnionSuite) TestOrderingAppliesToUnionedResult() {
	res := s.filtered().Split("asd1", "asd2").OrderByDesc(&s.base.T.Id).Limit(5).UnionAll()
	s.Require().NoError(res.Error())
	s.Equal(1, strings.Count(res.PrepareSql(), "order by"))
	s.True(strings.HasSuffix(res.PrepareSql(), "limit 5"))

	messages, qr := res.Gets()
	s.Require().NoError(qr.Error())
	s.Require().Len(messages, 5)
	s.Equal(20, messages[0].Id)
	s.Equal(16, messages[4].Id)
}

func (s *UnionSuite) TestOrderingBeforeSplitStaysOuter() {
	res := s.filtered().OrderByDesc(&s.base.T.Id).Split("asd1", "asd2").UnionAll()
	s.Require().NoError(res.Error())
	s.Equal(1, strings.Count(res.PrepareSql(), "order by"))

	messages, qr := res.Gets()
	s.Require().NoError(qr.Error())
	s.Require().Len(messages, 20)
	s.Equal(20, messages[0].Id)
}

func (s *UnionSuite) TestCursorReturnsPositionalRows() {
	rows, err := s.filtered().Select(&s.base.T.Id, &s.base.T.Text).
		Split("asd1", "asd2").
		OrderBy(&s.base.T.Id).
		UnionAllCursor(context.Background())
	s.Require().NoError(err)
	defer rows.Close()

	columns, err := rows.Columns()
	s.Require().NoError(err)
	s.Len(columns, 2)

	var count int
	for rows.Next() {
		var id int
		var text string
		s.Require().NoError(rows.Scan(&id, &text))
		count++
		s.Equal(count, id)
		s.Equal("filter", text)
	}
	s.Require().NoError(rows.Err())
	s.Equal(20, count)
}

func (s *UnionSuite) TestAllIsLazy() {
	res := s.filtered().Split("asd1", "missing_table").UnionAll()
	s.Require().NoError(res.Error())

	//driver errors surface only when ranging
	var errs []error
	for _, err := range res.All(context.Background()) {
		errs = append(errs, err)
	}
	s.Require().Len(errs, 1)
	s.ErrorContains(errs[0], "missing_table")
}

func (s *UnionSuite) TestAllStopsWhenBreaking() {
	var seen []Message
	for m, err := range s.filtered().Split("asd1", "asd2").UnionAll().All(context.Background()) {
		s.Require().NoError(err)
		seen = append(seen, m)
		if len(seen) == 3 {
			break
		}
	}
	s.Len(seen, 3)

	//the cursor was closed, the single connection is free again
	count, res := s.filtered().Split("asd1", "asd2").UnionAll().GetCount()
	s.Require().NoError(res.Error())
	s.EqualValues(20, count)
}

func (s *UnionSuite) TestGetRowsReportsBareColumnNames() {
	rows, res := s.filtered().Select(&s.base.T.Text).Split("asd1", "asd2").Union().GetRows()
	s.Require().NoError(res.Error())
	s.Require().Len(rows, 1)
	s.Contains(rows[0], "text")
}

func (s *UnionSuite) TestJoinedSplitReturnsRootColumns() {
	authors := NewQuery(Author{}, s.db)
	_, err := CreateTableFromStruct(authors)
	s.Require().NoError(err)
	s.Require().NoError(authors.Inserts([]Author{{Name: "a"}, {Name: "b"}, {Name: "c"}}).Error())

	joined := s.filtered().LeftJoin(&Author{}, func(j Query[Message]) Query[Message] {
		return j.Where(`"author"."id" = "message"."id"`)
	}).Split("asd1", "asd2")

	rows, res := joined.UnionAll().GetRows()
	s.Require().NoError(res.Error())
	s.Require().Len(rows, 20)
	s.Len(rows[0], 2)
	s.Contains(rows[0], "id")
	s.Contains(rows[0], "text")

	//a filter on the joined table after the split narrows the outer query
	messages, res := joined.Where(`"author"."id" is not null`).OrderBy(&s.base.T.Id).UnionAll().Gets()
	s.Require().NoError(res.Error())
	s.Require().Len(messages, 3)
	s.Equal(1, messages[0].Id)
	s.Equal("filter", messages[2].Text)
}

func (s *UnionSuite) TestSplitAfterRebinding() {
	messages, res := GetModel(s.base, "asd2").Where(&s.base.T.Id, WhereLessThan, 13).
		Split("asd1", "asd2").
		UnionAll().Gets()
	s.Require().NoError(res.Error())
	s.Len(messages, 12)
}

func (s *UnionSuite) TestUsingRegisteredConnection() {
	s.Require().NoError(RegisterConnection("union_suite", nil, s.db))
	defer UnregisterConnection("union_suite")

	q := NewQuery(Message{}).Using("union_suite")
	s.Equal(DialectSqlite, q.Dialect().Name())

	messages, res := q.Where(&q.T.Text, "filter").Split("asd1", "asd2").UnionAll().Gets()
	s.Require().NoError(res.Error())
	s.Len(messages, 20)

	_, res = NewQuery(Message{}).Using("nope").Split("asd1").UnionAll().Gets()
	s.ErrorIs(res.Error(), ErrConnectionNotFound)
}

func (s *UnionSuite) TestTransactionRollback() {
	err := s.base.Transaction(func(tx Query[Message]) error {
		res := GetModel(tx, "asd1").Insert(Message{Text: "filter"})
		if res.Error() != nil {
			return res.Error()
		}
		count, res := tx.Where(&tx.T.Text, "filter").Split("asd1", "asd2").UnionAll().GetCount()
		s.Require().NoError(res.Error())
		s.EqualValues(21, count)
		return errors.New("rollback")
	})
	s.EqualError(err, "rollback")

	count, res := s.filtered().Split("asd1", "asd2").UnionAll().GetCount()
	s.Require().NoError(res.Error())
	s.EqualValues(20, count)
}

func (s *UnionSuite) TestTableNames() {
	names, err := TableNames(context.Background(), s.db, nil)
	s.Require().NoError(err)
	s.Equal([]string{"asd1", "asd2"}, names)

	//shards found at runtime
	messages, res := s.filtered().Split(func() []string { return names }).UnionAll().Gets()
	s.Require().NoError(res.Error())
	s.Len(messages, 20)
}

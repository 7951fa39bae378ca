package orm

import (
	"database/sql"
	"errors"
	"math/rand"
	"reflect"
	"strconv"
	"strings"
)

type Raw string

type Query[T Table] struct {
	writeAndReadDbs []*sql.DB //first element as write db, rest as read dbs
	tx              *sql.Tx
	dialect         Dialect
	tables          []*queryTable
	wheres          []where
	result          QueryResult
	limit           int
	offset          int
	orderbys        []string
	forUpdate       SelectForUpdateType
	T               *T
	columns         []interface{}
	prepareSql      string
	bindings        []interface{}
	groupBy         []interface{}
	having          []where
	split           *splitState[T]
	unionConfig     *UnionConfig
}

//query table[struct] generics
func NewQuery[T Table](t T, writeAndReadDbs ...*sql.DB) Query[T] {
	q := Query[T]{T: &t, writeAndReadDbs: writeAndReadDbs}
	return q.FromTable(q.TableInterface())
}

//query raw, tablename can be empty
func NewQueryRaw(tableName string, writeAndReadDbs ...*sql.DB) Query[SubQuery] {
	sq := SubQuery{}
	if tableName != "" {
		sq.tableName = tableName
	}
	return NewQuery(sq, writeAndReadDbs...)
}

//query from subquery
func NewQuerySub(subquery SubQuery) Query[SubQuery] {
	q := NewQuery(subquery, subquery.dbs...)
	q.tx = subquery.tx
	q.dialect = subquery.dialect
	return q
}

//the table the query reads from, which may be re-bound by GetModel
func (m Query[T]) TableInterface() Table {
	if len(m.tables) > 0 && m.tables[0].table != nil {
		return m.tables[0].table
	}
	return interface{}(m.T).(Table)
}

func (m Query[T]) AllCols() string {
	return m.getDialect().QuoteIdentifier(m.tables[0].getAliasOrTableName()) + ".*"
}

func (m Query[T]) UseDB(db ...*sql.DB) Query[T] {
	m.writeAndReadDbs = db
	return m
}

func (m Query[T]) UseTx(tx *sql.Tx) Query[T] {
	m.tx = tx
	return m
}

//overrides the dialect detected from the db driver
func (m Query[T]) UseDialect(d Dialect) Query[T] {
	m.dialect = d
	return m
}

func (m Query[T]) Dialect() Dialect {
	return m.getDialect()
}

func (m Query[T]) getDialect() Dialect {
	if m.dialect != nil {
		return m.dialect
	}
	return DialectOf(m.writeDB())
}

func (m Query[T]) DB() *sql.DB {
	return m.writeDB()
}

func (m Query[T]) DBs() []*sql.DB {
	return m.writeAndReadDbs
}

func (m Query[T]) writeDB() *sql.DB {
	if len(m.writeAndReadDbs) > 0 {
		return m.writeAndReadDbs[0]
	}
	return nil
}

func (m Query[T]) readDB() *sql.DB {
	if len(m.writeAndReadDbs) > 1 {
		return m.writeAndReadDbs[rand.Intn(len(m.writeAndReadDbs)-1)+1] //rand get db
	} else {
		return m.writeDB()
	}
}

func (m Query[T]) dbTx() *sql.Tx {
	return m.tx
}

//error carried by the query so far
func (m Query[T]) Error() error {
	return m.result.Err
}

func (m Query[T]) FromTable(table Table, alias ...string) Query[T] {
	m.tables = nil
	m.wheres = nil
	m.orderbys = nil
	m.columns = nil
	m.prepareSql = ""
	m.bindings = nil
	m.groupBy = nil
	m.having = nil
	m.split = nil
	m.limit, m.offset = 0, 0
	m.result = QueryResult{}

	newTable, err := m.parseTable(table)
	if err != nil {
		return m.setErr(err)
	}

	if len(alias) > 0 {
		newTable.alias = alias[0]
	}
	m.tables = []*queryTable{newTable}
	return m
}

func (m Query[T]) parseTable(table Table) (*queryTable, error) {
	if temp, ok := table.(SubQuery); ok {
		return &queryTable{table: table, rawSql: temp.raw, bindings: temp.bindings}, nil
	}
	if temp, ok := table.(*SubQuery); ok {
		return &queryTable{table: table, rawSql: temp.raw, bindings: temp.bindings}, nil
	}

	cached := getTableFromCache(table)
	if cached != nil {
		return cached, nil
	}
	tableStructAddr := reflect.ValueOf(table)
	if tableStructAddr.Kind() != reflect.Ptr {
		return nil, ErrParamMustBePtr
	}
	tableStruct := tableStructAddr.Elem()
	if tableStruct.Kind() != reflect.Struct {
		return nil, ErrParamElemKindMustBeStruct
	}

	tableStructType := tableStruct.Type()
	ormFields := make(map[interface{}]string)

	for i := 0; i < tableStruct.NumField(); i++ {
		if !tableStructType.Field(i).IsExported() {
			continue
		}
		name := columnName(tableStructType.Field(i))
		if name != "" {
			ormFields[tableStruct.Field(i).Addr().Interface()] = name
		}
	}
	newTable := &queryTable{
		table:       table,
		tableStruct: tableStruct,
		ormFields:   ormFields,
	}
	cacheTable(table, newTable)

	cp := *newTable
	return &cp, nil
}

func (m Query[T]) Alias(alias string) Query[T] {
	if len(m.tables) == 0 {
		return m.setErr(ErrTableNotSelected)
	}
	root := *m.tables[0]
	root.alias = alias
	m.tables = append([]*queryTable{&root}, m.tables[1:]...)
	return m
}

func (m Query[T]) isRaw(v interface{}) (string, bool) {
	val, ok := v.(Raw)
	return string(val), ok
}

func (m Query[T]) isOperator(v interface{}) (string, bool) {
	val, ok := v.(WhereOperator)
	return string(val), ok
}

func (m Query[T]) isStringOrRaw(v interface{}) (string, bool) {
	val := reflect.ValueOf(v)

	if val.Kind() == reflect.String {
		return val.String(), true
	} else {
		return "", false
	}
}

func (m Query[T]) parseColumn(v interface{}) (string, error) {
	columnVar := reflect.ValueOf(v)
	if columnVar.Kind() == reflect.String {
		ret := columnVar.String()
		if ret == "*" && len(m.tables) > 0 {
			prefix := m.tables[0].getAliasOrTableName()
			if prefix != "" {
				return m.getDialect().QuoteIdentifier(prefix) + ".*", nil
			}
		}
		return ret, nil
	} else if columnVar.Kind() == reflect.Ptr {
		table, column := m.getTableColumn(columnVar)
		if table == nil {
			return "", ErrColumnNotExisted
		}
		if column == "" {
			return "", errors.New("column is not exist in table " + table.table.TableName())
		}
		d := m.getDialect()
		prefix := table.getAliasOrTableName()
		if prefix != "" {
			return d.QuoteIdentifier(prefix) + "." + d.QuoteIdentifier(column), nil
		}
		return d.QuoteIdentifier(column), nil
	} else {
		return "", ErrColumnShouldBeStringOrPtr
	}
}

//column name without table prefix, as used by insert and update
func (m Query[T]) parseBareColumn(v interface{}) (string, error) {
	columnVar := reflect.ValueOf(v)
	if columnVar.Kind() != reflect.Ptr {
		return m.parseColumn(v)
	}
	table, column := m.getTableColumn(columnVar)
	if table == nil || column == "" {
		return "", ErrColumnNotExisted
	}
	return m.getDialect().QuoteIdentifier(column), nil
}

func (m Query[T]) getTableColumn(i reflect.Value) (*queryTable, string) {
	if i.IsNil() {
		return nil, ""
	}
	for _, t := range m.tables {
		if s, exist := t.ormFields[i.Elem().Addr().Interface()]; exist {
			return t, s
		}
	}
	return nil, ""
}

func (m *Query[T]) setErr(err error) Query[T] {
	if err != nil && m.result.Err == nil {
		m.result.Err = err
	}
	return *m
}

func (m Query[T]) Limit(limit int) Query[T] {
	m.limit = limit
	return m
}

func (m Query[T]) Offset(offset int) Query[T] {
	m.offset = offset
	return m
}

//should not use group by after order by
func (m Query[T]) GroupBy(columns ...interface{}) Query[T] {
	m.groupBy = append(m.groupBy[:len(m.groupBy):len(m.groupBy)], columns...)
	return m
}

func (m Query[T]) Having(column interface{}, vals ...interface{}) Query[T] {
	oldWheres := m.wheres

	newQuery := m.where(false, column, vals...)

	newWheres := newQuery.wheres[len(oldWheres):]
	if len(newWheres) > 0 {
		newQuery.having = append(newQuery.having[:len(newQuery.having):len(newQuery.having)], newWheres...)
		newQuery.wheres = oldWheres
	}
	return newQuery
}

func (m Query[T]) OrderBy(column interface{}) Query[T] {
	val, err := m.parseColumn(column)
	if err != nil {
		return m.setErr(err)
	}
	m.orderbys = append(m.orderbys[:len(m.orderbys):len(m.orderbys)], val)
	return m
}

func (m Query[T]) OrderByDesc(column interface{}) Query[T] {
	val, err := m.parseColumn(column)
	if err != nil {
		return m.setErr(err)
	}
	m.orderbys = append(m.orderbys[:len(m.orderbys):len(m.orderbys)], val+" desc")
	return m
}

func (m Query[T]) getOrderAndLimitSqlStr() string {
	var ret []string
	if len(m.orderbys) > 0 {
		orderStr := "order by " + strings.Join(m.orderbys, ",")
		ret = append(ret, orderStr)
	}
	if m.limit > 0 {
		limitStr := "limit " + strconv.Itoa(m.limit)
		ret = append(ret, limitStr)
	}
	if m.offset > 0 {
		offsetStr := "offset " + strconv.Itoa(m.offset)
		ret = append(ret, offsetStr)
	}

	return strings.Join(ret, " ")
}

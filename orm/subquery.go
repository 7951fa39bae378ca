package orm

import (
	"database/sql"
	"strings"
)

const subqueryDefaultName = "sub"

//compiled sql with ? bindings, usable as a table
type SubQuery struct {
	raw       string
	bindings  []interface{}
	dbName    string
	tableName string
	dbs       []*sql.DB
	tx        *sql.Tx
	dialect   Dialect
	err       error
}

func NewSubQuery(prepareSql string, bindings ...interface{}) SubQuery {
	return SubQuery{raw: prepareSql, bindings: bindings}
}

func (m SubQuery) TableName() string {
	if m.tableName != "" {
		return m.tableName
	}
	if m.raw != "" {
		return subqueryDefaultName
	}
	return ""
}

func (m SubQuery) DatabaseName() string {
	return m.dbName
}

func (m SubQuery) Error() error {
	return m.err
}

func (m SubQuery) PrepareSql() string {
	return m.raw
}

func (m SubQuery) Bindings() []interface{} {
	return m.bindings
}

//sql with bindings inlined, for logging only
func (m SubQuery) Sql() string {
	positions := placeholderPositions(m.raw)

	var sqlb strings.Builder
	last := 0
	for k, pos := range positions {
		if k >= len(m.bindings) {
			break
		}
		sqlb.WriteString(m.raw[last:pos])
		sqlb.WriteString(varToString(m.bindings[k]))
		last = pos + 1
	}
	sqlb.WriteString(m.raw[last:])
	return sqlb.String()
}

package orm

import "reflect"

type queryTable struct {
	table         Table
	tableStruct   reflect.Value
	ormFields     map[interface{}]string
	joinType      JoinType //(left|right) join
	joinCondition where
	alias         string
	rawSql        string
	bindings      []interface{}
}

//prefix of column references
func (q queryTable) getAliasOrTableName() string {
	if q.alias != "" {
		return q.alias
	}
	return q.table.TableName()
}

func (q queryTable) getTableName(d Dialect) string {
	name := q.table.TableName()
	if name == "" {
		return ""
	}
	if db := q.table.DatabaseName(); db != "" {
		return d.QuoteIdentifier(db) + "." + d.QuoteIdentifier(name)
	}
	return d.QuoteIdentifier(name)
}

func (q queryTable) getTableNameAndAlias(d Dialect) string {
	if q.rawSql != "" {
		ret := "(" + q.rawSql + ")"
		if alias := q.getAliasOrTableName(); alias != "" {
			ret += " as " + d.QuoteIdentifier(alias)
		}
		return ret
	}
	ret := q.getTableName(d)
	if q.alias != "" {
		ret += " as " + d.QuoteIdentifier(q.alias)
	}
	return ret
}

func (q queryTable) field(i int) reflect.StructField {
	return q.tableStruct.Type().Field(i)
}

//first value of a comma separated struct tag
func (q queryTable) getTag(i int, tag string) string {
	return q.field(i).Tag.Get(tag)
}

func (q queryTable) getTags(i int, tag string) []string {
	return stringSplitEscapeParentheses(q.getTag(i, tag), ",")
}

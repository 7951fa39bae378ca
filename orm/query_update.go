package orm

import (
	"reflect"
	"strings"
)

type UpdateColumn struct {
	Column interface{}
	Val    interface{}
}

func (m Query[T]) Update(column interface{}, val interface{}) QueryResult {
	return m.Updates(UpdateColumn{
		Column: column,
		Val:    val,
	})
}

func (m Query[T]) Updates(updates ...UpdateColumn) QueryResult {
	if len(m.wheres) == 0 && m.limit == 0 {
		return m.setErr(ErrUpdateWithoutCondition).result
	}

	bindings := make([]interface{}, 0)

	tableStr := m.generateTableAndJoinStr(m.tables, &bindings)

	updateStr, err := m.generateUpdateStr(updates, &bindings)
	if err != nil {
		return m.setErr(err).result
	}

	whereStr := m.generateWhereStr(m.wheres, &bindings)

	orderAndLimitStr := m.getOrderAndLimitSqlStr()

	rawSql := "update " + tableStr + " set " + updateStr
	if whereStr != "" {
		rawSql += " where " + whereStr
	}

	//mysql only
	if orderAndLimitStr != "" && m.getDialect().Name() == DialectMysql {
		rawSql += " " + orderAndLimitStr
	}

	m.prepareSql = rawSql
	m.bindings = bindings

	return m.Execute()
}

func (m Query[T]) generateUpdateStr(updates []UpdateColumn, bindings *[]interface{}) (string, error) {
	var updateStrs []string
	for _, v := range updates {
		var temp string
		column, err := m.parseBareColumn(v.Column)
		if err != nil {
			return "", err
		}

		if val, ok := m.isRaw(v.Val); ok {
			temp = column + " = " + val
		} else if reflect.ValueOf(v.Val).Kind() == reflect.Ptr && reflect.ValueOf(v.Val).Type() == reflect.ValueOf(v.Column).Type() {
			targetColumn, err := m.parseColumn(v.Val)
			if err != nil {
				return "", err
			}
			temp = column + " = " + targetColumn
		} else {
			temp = column + " = ?"
			*bindings = append(*bindings, v.Val)
		}
		updateStrs = append(updateStrs, temp)
	}
	return strings.Join(updateStrs, ","), nil
}

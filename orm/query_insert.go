package orm

import (
	"errors"
	"reflect"
	"strings"
)

//acceptFieldPtrs: allow insert table columns
func (m Query[T]) Insert(data T, acceptFieldPtrs ...interface{}) QueryResult {
	return m.insert([]T{data}, acceptFieldPtrs)
}

//acceptFieldPtrs: allow insert table columns
func (m Query[T]) Inserts(data []T, acceptFieldPtrs ...interface{}) QueryResult {
	return m.insert(data, acceptFieldPtrs)
}

//insert rows from a select, columns in the order of acceptFieldPtrs
func (m Query[T]) InsertSubquery(data SubQuery, acceptFieldPtrs ...interface{}) QueryResult {
	var columns []string
	for _, v := range acceptFieldPtrs {
		c, err := m.parseBareColumn(v)
		if err != nil {
			return m.setErr(err).result
		}
		columns = append(columns, c)
	}

	rawSql := "insert into " + m.tables[0].getTableName(m.getDialect())
	if len(columns) > 0 {
		rawSql += " (" + strings.Join(columns, ",") + ")"
	}
	m.prepareSql = rawSql + " " + data.raw
	m.bindings = data.bindings
	return m.Execute()
}

func (m Query[T]) insert(data []T, acceptFieldPtrs []interface{}) QueryResult {
	if len(data) == 0 {
		return m.setErr(errors.New("slice is empty")).result
	}
	if len(m.tables) == 0 || !m.tables[0].tableStruct.IsValid() {
		return m.setErr(ErrTableNotSelected).result
	}
	rowType := reflect.TypeOf(data[0])
	if rowType.Kind() == reflect.Ptr {
		return m.setErr(ErrInsertPtrNotAllowed).result
	}
	structFields, err := getStructFieldNameSlice(rowType)
	if err != nil {
		return m.setErr(err).result
	}
	structDefaults := getStructFieldWithDefaultTime(rowType)

	var allowColumns = make(map[string]struct{})
	for _, v := range acceptFieldPtrs {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr {
			return m.setErr(ErrParamMustBePtr).result
		}
		_, c := m.getTableColumn(rv)
		if c == "" {
			return m.setErr(ErrColumnNotExisted).result
		}
		allowColumns[c] = struct{}{}
	}

	rows := make([]reflect.Value, len(data))
	for k := range data {
		rows[k] = reflect.ValueOf(data[k])
	}

	d := m.getDialect()
	var fieldIndexes []int
	var columns []string
	for i, name := range structFields {
		if name == "" {
			continue
		}
		if len(allowColumns) > 0 {
			if _, ok := allowColumns[name]; !ok {
				continue
			}
		} else if i == 0 && allZeroInt(rows, i) {
			//auto increment primary key
			continue
		}
		fieldIndexes = append(fieldIndexes, i)
		columns = append(columns, d.QuoteIdentifier(name))
	}
	if len(columns) == 0 {
		return m.setErr(errors.New("no column to insert")).result
	}

	var bindings []interface{}
	valueStrs := make([]string, len(rows))
	rowPlaceholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"
	for k, row := range rows {
		for _, i := range fieldIndexes {
			if structDefaults[i] != nil && row.Field(i).IsZero() {
				bindings = append(bindings, structDefaults[i])
			} else {
				bindings = append(bindings, row.Field(i).Interface())
			}
		}
		valueStrs[k] = rowPlaceholders
	}

	m.prepareSql = "insert into " + m.tables[0].getTableName(d) +
		" (" + strings.Join(columns, ",") + ") values " + strings.Join(valueStrs, ",")
	m.bindings = bindings

	return m.Execute()
}

func allZeroInt(rows []reflect.Value, field int) bool {
	for _, row := range rows {
		f := row.Field(field)
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if !f.IsZero() {
				return false
			}
		default:
			return false
		}
	}
	return true
}

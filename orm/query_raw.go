package orm

import "context"

//query with raw sql, later Get* calls run it as is
func (m Query[T]) Raw(prepareSql string, bindings ...interface{}) Query[T] {
	m.prepareSql = prepareSql
	m.bindings = bindings
	return m
}

//select from raw sql
func (m Query[T]) SelectRaw(dest interface{}, prepareSql string, bindings ...interface{}) QueryResult {
	m.result.PrepareSql = prepareSql
	m.result.Bindings = bindings

	if m.result.Err != nil {
		return m.result
	}

	rows, err := m.queryContext(context.Background(), NewSubQuery(prepareSql, bindings...))
	if err != nil {
		m.result.Err = err
		logError(m.result.Sql(), err)
		return m.result
	}
	defer rows.Close()

	m.result.Err = m.scanRows(dest, rows)
	return m.result
}

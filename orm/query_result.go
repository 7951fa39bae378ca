package orm

type QueryResult struct {
	PrepareSql   string
	Bindings     []interface{}
	LastInsertId int64
	RowsAffected int64
	Err          error
}

func (q QueryResult) Sql() string {
	return NewSubQuery(q.PrepareSql, q.Bindings...).Sql()
}

func (q QueryResult) Error() error {
	return q.Err
}

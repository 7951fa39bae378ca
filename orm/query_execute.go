package orm

import (
	"context"
	"database/sql"
	"errors"
)

//excute raw
func (m Query[T]) Execute() QueryResult {
	return m.ExecuteContext(context.Background())
}

func (m Query[T]) ExecuteContext(ctx context.Context) QueryResult {
	if m.prepareSql == "" {
		m.setErr(errors.New("sql not exist"))
	}

	m.result.PrepareSql = m.prepareSql
	m.result.Bindings = m.bindings

	if m.result.Err != nil {
		logError(m.result.Sql(), m.result.Err)
		return m.result
	}

	prepareSql := m.getDialect().Rebind(m.prepareSql)

	var res sql.Result
	var err error
	if m.dbTx() != nil {
		res, err = m.dbTx().ExecContext(ctx, prepareSql, m.bindings...)
	} else if m.writeDB() != nil {
		res, err = m.writeDB().ExecContext(ctx, prepareSql, m.bindings...)
	} else {
		err = ErrDbNotSelected
	}

	if err != nil {
		m.result.Err = err
		logError(m.result.Sql(), err)
		return m.result
	}
	logInfo(m.result.Sql())

	//postgres has no last insert id
	if id, err := res.LastInsertId(); err == nil {
		m.result.LastInsertId = id
	}
	m.result.RowsAffected, m.result.Err = res.RowsAffected()
	return m.result
}

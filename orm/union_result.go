package orm

import (
	"context"
	"database/sql"
	"iter"
)

//composed union statement, runs when read
type UnionResult[T Table] struct {
	query Query[T]
	sub   SubQuery
	err   error
}

func (m Query[T]) Union() UnionResult[T] {
	return m.union(OperatorUnion)
}

func (m Query[T]) UnionAll() UnionResult[T] {
	return m.union(OperatorUnionAll)
}

//union executed at once, the caller closes the rows
func (m Query[T]) UnionCursor(ctx context.Context) (*sql.Rows, error) {
	return m.Union().Cursor(ctx)
}

func (m Query[T]) UnionAllCursor(ctx context.Context) (*sql.Rows, error) {
	return m.UnionAll().Cursor(ctx)
}

func (m Query[T]) union(op UnionOperator) UnionResult[T] {
	sub, err := m.UnionSubQuery(op)
	return UnionResult[T]{query: m, sub: sub, err: err}
}

func (r UnionResult[T]) Error() error {
	return r.err
}

func (r UnionResult[T]) PrepareSql() string {
	return r.sub.raw
}

func (r UnionResult[T]) Bindings() []interface{} {
	return r.sub.bindings
}

func (r UnionResult[T]) Sql() string {
	return r.sub.Sql()
}

func (r UnionResult[T]) SubQuery() SubQuery {
	return r.sub
}

func (r UnionResult[T]) Cursor(ctx context.Context) (*sql.Rows, error) {
	if r.err != nil {
		return nil, r.err
	}
	rows, err := r.query.queryContext(ctx, r.sub)
	if err != nil {
		logError(r.sub.Sql(), err)
		return nil, err
	}
	return rows, nil
}

//rows hydrated one by one while ranging, the statement runs on the first pull
func (r UnionResult[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		rows, err := r.Cursor(ctx)
		if err != nil {
			yield(zero, err)
			return
		}
		defer rows.Close()

		rowColumns, err := rowColumnNames(rows)
		if err != nil {
			yield(zero, err)
			return
		}
		for rows.Next() {
			var row T
			baseAddrs, err := structScanAddrs(&row, rowColumns)
			if err == nil {
				err = scanRow(rows, baseAddrs)
			}
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, err)
		}
	}
}

func (r UnionResult[T]) Gets() ([]T, QueryResult) {
	var ret []T
	res := r.GetTo(&ret)
	return ret, res
}

func (r UnionResult[T]) GetRows() ([]map[string]interface{}, QueryResult) {
	var ret []map[string]interface{}
	res := r.GetTo(&ret)
	return ret, res
}

func (r UnionResult[T]) GetTo(destPtr interface{}) QueryResult {
	res := QueryResult{PrepareSql: r.sub.raw, Bindings: r.sub.bindings, Err: r.err}
	if res.Err != nil {
		return res
	}
	rows, err := r.Cursor(context.Background())
	if err != nil {
		res.Err = err
		return res
	}
	defer rows.Close()

	res.Err = r.query.scanRows(destPtr, rows)
	return res
}

//rows of the whole union, outer limit included
func (r UnionResult[T]) GetCount() (int64, QueryResult) {
	if r.err != nil {
		return 0, QueryResult{PrepareSql: r.sub.raw, Bindings: r.sub.bindings, Err: r.err}
	}
	return NewQuerySub(r.sub).GetCount()
}

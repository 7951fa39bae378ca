package orm

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
)

//get first T
func (m Query[T]) Get(primaryValue ...interface{}) (T, QueryResult) {
	var ret T
	if len(primaryValue) > 0 {
		m = m.WherePrimary(primaryValue[0])
	}
	res := m.Limit(1).GetTo(&ret)
	return ret, res
}

//get slice T
func (m Query[T]) Gets(primaryValues ...interface{}) ([]T, QueryResult) {
	var ret []T
	if len(primaryValues) > 0 {
		m = m.WherePrimary(WhereIn, primaryValues)
	}
	res := m.GetTo(&ret)
	return ret, res
}

//get first row
func (m Query[T]) GetRow() (map[string]interface{}, QueryResult) {
	var ret map[string]interface{}
	res := m.Limit(1).GetTo(&ret)
	return ret, res
}

//get slice row
func (m Query[T]) GetRows() ([]map[string]interface{}, QueryResult) {
	var ret []map[string]interface{}
	res := m.GetTo(&ret)
	return ret, res
}

//get count T
func (m Query[T]) GetCount() (int64, QueryResult) {
	var ret int64
	if len(m.groupBy) > 0 || m.prepareSql != "" {
		res := NewQuerySub(m.SubQuery()).Select("count(*)").GetTo(&ret)
		return ret, res
	}
	if len(m.columns) == 0 {
		res := m.Select("count(*)").GetTo(&ret)
		return ret, res
	}

	c, err := m.parseColumn(m.columns[0])
	m.columns = nil
	if err == nil {
		cl := strings.ToLower(c)
		if !strings.HasPrefix(cl, "count(") || !strings.Contains(cl, ")") {
			c = "count(" + c + ")"
		}
	}
	res := m.setErr(err).Select(c).GetTo(&ret)
	return ret, res
}

//destPtr: *int | *int64 |  *string | ...
//destPtr: *[]int | *[]string | ...
//destPtr: *struct | *[]struct
//destPtr: *map [int | string | ...] int | string ...
//destPtr: *map [int | string | ...] struct
//destPtr: *map [int | string | ...] []struct
func (m Query[T]) GetTo(destPtr interface{}) QueryResult {
	return m.GetToContext(context.Background(), destPtr)
}

func (m Query[T]) GetToContext(ctx context.Context, destPtr interface{}) QueryResult {
	tempTable := m.SubQuery()

	m.result.PrepareSql = tempTable.raw
	m.result.Bindings = tempTable.bindings

	if m.result.Err != nil {
		logError(m.result.Sql(), m.result.Err)
		return m.result
	}

	rows, err := m.queryContext(ctx, tempTable)
	if err != nil {
		m.result.Err = err
		logError(m.result.Sql(), err)
		return m.result
	}
	defer rows.Close()
	logInfo(m.result.Sql())

	m.result.Err = m.scanRows(destPtr, rows)
	return m.result
}

//runs sub on the tx if any, else a read db
func (m Query[T]) queryContext(ctx context.Context, sub SubQuery) (*sql.Rows, error) {
	prepareSql := m.getDialect().Rebind(sub.raw)
	if m.dbTx() != nil {
		return m.dbTx().QueryContext(ctx, prepareSql, sub.bindings...)
	}
	db := m.readDB()
	if db == nil {
		return nil, ErrDbNotSelected
	}
	return db.QueryContext(ctx, prepareSql, sub.bindings...)
}

//result column names without table prefix or quotes
func rowColumnNames(rows *sql.Rows) ([]string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	ret := make([]string, len(columns))
	for k, v := range columns {
		if i := strings.LastIndex(v, "."); i >= 0 && !strings.HasSuffix(v, ")") {
			v = v[i+1:]
		}
		ret[k] = strings.Trim(v, "`\"")
	}
	return ret, nil
}

func (m Query[T]) scanValues(baseAddrs []interface{}, rows *sql.Rows, setVal func(), tryOnce bool) error {
	for rows.Next() {
		if err := scanRow(rows, baseAddrs); err != nil {
			return err
		}
		if setVal != nil {
			setVal()
		}
		if tryOnce {
			break
		}
	}
	return rows.Err()
}

//scans the current row into baseAddrs, null columns keep the zero value
func scanRow(rows *sql.Rows, baseAddrs []interface{}) error {
	var tempAddrs = make([]interface{}, len(baseAddrs))
	for k := range tempAddrs {
		var temp interface{}
		tempAddrs[k] = &temp
	}
	if err := rows.Scan(tempAddrs...); err != nil {
		return err
	}

	finalAddrs := make([]interface{}, len(baseAddrs))
	for k, v := range tempAddrs {
		if reflect.ValueOf(v).Elem().IsNil() {
			felement := reflect.ValueOf(baseAddrs[k]).Elem()
			felement.Set(reflect.Zero(felement.Type()))
			finalAddrs[k] = v
		} else {
			finalAddrs[k] = baseAddrs[k]
		}
	}
	return rows.Scan(finalAddrs...)
}

//field address per result column, unknown columns are discarded
func structScanAddrs(structAddr interface{}, rowColumns []string) ([]interface{}, error) {
	structAddrMap, err := getStructFieldAddrMap(structAddr)
	if err != nil {
		return nil, err
	}
	var baseAddrs = make([]interface{}, len(rowColumns))
	for k, v := range rowColumns {
		baseAddrs[k] = structAddrMap[v]
		if baseAddrs[k] == nil {
			var temp interface{}
			baseAddrs[k] = &temp
		}
	}
	return baseAddrs, nil
}

//first columns scan into heads, the rest are discarded
func positionalScanAddrs(count int, heads ...interface{}) []interface{} {
	var baseAddrs = make([]interface{}, count)
	for k := range baseAddrs {
		if k < len(heads) {
			baseAddrs[k] = heads[k]
		} else {
			var temp interface{}
			baseAddrs[k] = &temp
		}
	}
	return baseAddrs
}

func (m Query[T]) scanRows(dest interface{}, rows *sql.Rows) error {
	rowColumns, err := rowColumnNames(rows)
	if err != nil {
		return err
	}
	base := reflect.ValueOf(dest)
	if base.Kind() != reflect.Ptr {
		return ErrDestOfGetToMustBePtr
	}
	val := base.Elem()
	if val.Kind() == reflect.Ptr {
		return ErrDestOfGetToMustBePtr
	}

	switch val.Kind() {
	case reflect.Map:
		ele := val.Type().Elem()
		if ele.Kind() == reflect.Ptr {
			return ErrDestOfGetToSliceElemMustNotBePtr
		}

		newVal := reflect.MakeMap(val.Type())
		switch ele.Kind() {
		case reflect.Struct:
			structAddr := reflect.New(ele).Interface()
			baseAddrs, err := structScanAddrs(structAddr, rowColumns)
			if err != nil {
				return err
			}
			err = m.scanValues(baseAddrs, rows, func() {
				newVal.SetMapIndex(reflect.ValueOf(baseAddrs[0]).Elem(), reflect.ValueOf(structAddr).Elem())
			}, false)
			val.Set(newVal)
			return err
		case reflect.Slice:
			if ele.Elem().Kind() != reflect.Struct {
				return errors.New("map slice only struct item allowed")
			}
			structAddr := reflect.New(ele.Elem()).Interface()
			baseAddrs, err := structScanAddrs(structAddr, rowColumns)
			if err != nil {
				return err
			}
			err = m.scanValues(baseAddrs, rows, func() {
				index := reflect.ValueOf(baseAddrs[0]).Elem()
				tempSlice := newVal.MapIndex(index)
				if !tempSlice.IsValid() {
					tempSlice = reflect.MakeSlice(ele, 0, 0)
				}
				newVal.SetMapIndex(index, reflect.Append(tempSlice, reflect.ValueOf(structAddr).Elem()))
			}, false)
			val.Set(newVal)
			return err
		case reflect.Interface:
			//single row as column => value
			if val.Type().Key().Kind() == reflect.String {
				baseAddrs := positionalScanAddrs(len(rowColumns))
				err = m.scanValues(baseAddrs, rows, func() {
					for k, v := range rowColumns {
						newVal.SetMapIndex(reflect.ValueOf(v), reflect.ValueOf(baseAddrs[k]).Elem())
					}
				}, true)
				val.Set(newVal)
				return err
			}
			fallthrough
		default:
			keyAddr := reflect.New(val.Type().Key()).Interface()
			tempAddr := reflect.New(ele).Interface()
			baseAddrs := positionalScanAddrs(len(rowColumns), keyAddr, tempAddr)
			err = m.scanValues(baseAddrs, rows, func() {
				newVal.SetMapIndex(reflect.ValueOf(keyAddr).Elem(), reflect.ValueOf(tempAddr).Elem())
			}, false)
			val.Set(newVal)
			return err
		}
	case reflect.Struct:
		baseAddrs, err := structScanAddrs(dest, rowColumns)
		if err != nil {
			return err
		}
		return m.scanValues(baseAddrs, rows, nil, true)
	case reflect.Slice:
		ele := val.Type().Elem()
		if ele.Kind() == reflect.Ptr {
			return ErrDestOfGetToSliceElemMustNotBePtr
		}

		switch ele.Kind() {
		case reflect.Struct:
			structAddr := reflect.New(ele).Interface()
			baseAddrs, err := structScanAddrs(structAddr, rowColumns)
			if err != nil {
				return err
			}
			err = m.scanValues(baseAddrs, rows, func() {
				val.Set(reflect.Append(val, reflect.ValueOf(structAddr).Elem()))
			}, false)
			return err
		case reflect.Map:
			baseAddrs := positionalScanAddrs(len(rowColumns))
			return m.scanValues(baseAddrs, rows, func() {
				newVal := reflect.MakeMap(ele)
				for k, v := range rowColumns {
					newVal.SetMapIndex(reflect.ValueOf(v), reflect.ValueOf(baseAddrs[k]).Elem())
				}
				val.Set(reflect.Append(val, newVal))
			}, false)
		default:
			tempAddr := reflect.New(ele).Interface()
			baseAddrs := positionalScanAddrs(len(rowColumns), tempAddr)
			return m.scanValues(baseAddrs, rows, func() {
				val.Set(reflect.Append(val, reflect.ValueOf(tempAddr).Elem()))
			}, false)
		}
	default:
		baseAddrs := positionalScanAddrs(len(rowColumns), dest)
		return m.scanValues(baseAddrs, rows, nil, true)
	}
}

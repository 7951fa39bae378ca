package orm

import (
	"errors"
	"fmt"
	"reflect"
)

//how Split turns table identifiers into table names
type SplitOptions struct {
	//used when Split gets no tables
	Tables []any
	//identifier => table name, fmt.Sprint if nil
	Coerce func(any) string
	//keeps tables it returns true for, all if nil
	Filter func(string) bool
	//reorders the filtered tables
	Sort func([]string) []string
}

//the query at split time and the tables every union branch reads
type splitState[T Table] struct {
	base   Query[T]
	tables []string
}

//Split records the tables a later Union reads.
//tables may be names, any value fmt.Sprint can print, one slice or one func() []string.
func (m Query[T]) Split(tables ...any) Query[T] {
	return m.SplitWith(SplitOptions{}, tables...)
}

func (m Query[T]) SplitWith(opts SplitOptions, tables ...any) Query[T] {
	names := opts.tableNames(tables)

	m.split = nil
	//a later split replaces an empty one
	if errors.Is(m.result.Err, ErrNoTablesSelected) {
		m.result.Err = nil
	}
	//raw sql has no table reference to rebind
	if m.prepareSql != "" {
		return m.setErr(ErrSplitRawQuery)
	}
	if len(names) == 0 {
		return m.setErr(ErrNoTablesSelected)
	}

	//ordering and row locking only apply to the unioned result
	base := m
	base.orderbys = nil
	base.limit, base.offset = 0, 0
	base.forUpdate = ""

	m.split = &splitState[T]{base: base, tables: names}
	return m
}

//coerce, filter then sort the identifiers, opts.Tables if tables is empty
func (opts SplitOptions) tableNames(tables []any) []string {
	ids := flattenTables(tables)
	if len(ids) == 0 {
		ids = flattenTables(opts.Tables)
	}

	coerce := opts.Coerce
	if coerce == nil {
		coerce = func(v any) string {
			return fmt.Sprint(v)
		}
	}

	names := make([]string, 0, len(ids))
	for _, v := range ids {
		name := coerce(v)
		if opts.Filter != nil && !opts.Filter(name) {
			continue
		}
		names = append(names, name)
	}
	if opts.Sort != nil && len(names) > 0 {
		names = opts.Sort(append([]string{}, names...))
	}
	return names
}

//tables recorded by Split, nil before it
func (m Query[T]) SplitTables() []string {
	if m.split == nil {
		return nil
	}
	return append([]string{}, m.split.tables...)
}

func flattenTables(tables []any) []any {
	if len(tables) != 1 {
		return tables
	}
	switch v := tables[0].(type) {
	case func() []string:
		return stringsToAny(v())
	case func() []any:
		return v()
	case []string:
		return stringsToAny(v)
	case []any:
		return v
	}

	rv := reflect.ValueOf(tables[0])
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		ret := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ret[i] = rv.Index(i).Interface()
		}
		return ret
	}
	return tables
}

func stringsToAny(s []string) []any {
	ret := make([]any, len(s))
	for k, v := range s {
		ret[k] = v
	}
	return ret
}

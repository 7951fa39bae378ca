package orm

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const primaryKeyPrefix = "primary"
const uniqueKeyPrefix = "unique"
const keyPrefix = "index"
const nullPrefix = "null"
const autoIncrementPrefix = "auto_increment"
const createdAtColumn = "created_at"
const updatedAtColumn = "updated_at"
const deletedAtColumn = "deleted_at"

const onUpdateCurrentTimestamp = " on update current_timestamp"

var definedDefault = []string{"null", "current_timestamp", "current_timestamp on update current_timestamp"}

type dBColumn struct {
	Name          string // `id`
	Type          string //bigint //varchar(255)
	Null          bool   //null //not null
	AutoIncrement bool   //auto_increment
	Primary       bool
	Unique        bool
	Index         bool

	Default string   //default ''
	Comment string   //comment ''
	Indexs  []string //composite index names
	Uniques []string //composite unique index names
}

//table definition of a query, split by statement kind
type tableDDL struct {
	table   string   //quoted, database qualified
	columns []string //column and inline key definitions
	pending []string //statements that need the table to exist
}

//CreateSql returns the create table statements of the query's table and
//the pending statements (indexes, comments) to run after them. Nothing is executed.
func CreateSql[T Table](query Query[T]) ([]string, []string, error) {
	ddl, err := getTableDDL(query)
	if err != nil {
		return nil, nil, err
	}
	createTableSql := fmt.Sprintf("create table if not exists %s (%s)", ddl.table, strings.Join(ddl.columns, ","))
	return []string{createTableSql}, ddl.pending, nil
}

//CreateTableFromStruct creates the query's table, on mysql an existing table gets the missing columns
func CreateTableFromStruct[T Table](query Query[T]) (string, error) {
	if query.DB() == nil && query.dbTx() == nil {
		return "", ErrDbNotSelected
	}

	var statements []string
	if query.getDialect().Name() == DialectMysql {
		originColumnStrs, _ := getSqlSegments(query)
		if len(originColumnStrs) > 0 {
			ddl, err := getTableDDL(query)
			if err != nil {
				return "", err
			}
			for _, v := range getTableNewColumns(originColumnStrs, ddl.columns) {
				statements = append(statements, "alter table "+ddl.table+" add "+v)
			}
		}
	}
	if statements == nil {
		creates, pending, err := CreateSql(query)
		if err != nil {
			return "", err
		}
		statements = append(creates, pending...)
	}

	var executed []string
	for _, v := range statements {
		executed = append(executed, v)
		if err := query.Raw(v).ExecuteContext(context.Background()).Err; err != nil {
			return strings.Join(executed, ";\n"), err
		}
	}
	return strings.Join(executed, ";\n"), nil
}

func getTableDDL[T Table](query Query[T]) (tableDDL, error) {
	if err := query.Error(); err != nil {
		return tableDDL{}, err
	}
	if len(query.tables) == 0 || len(query.tables[0].ormFields) == 0 ||
		query.tables[0].table == nil || query.tables[0].table.TableName() == "" {
		return tableDDL{}, ErrTableNotSelected
	}

	d := query.getDialect()
	dbColums := getMigrateColumns(query.tables[0], d)
	if len(dbColums) == 0 {
		return tableDDL{}, errors.Wrapf(ErrColumnNotExisted, "table %s", query.tables[0].table.TableName())
	}

	ddl := tableDDL{table: query.tables[0].getTableName(d)}
	ddl.columns, ddl.pending = generateColumnStrings(query.tables[0].table.TableName(), ddl.table, dbColums, d)
	return ddl, nil
}

//column names of existing definitions are compared case insensitively
func getTableNewColumns(origin, current []string) []string {
	var exist = make(map[string]bool)
	for _, v := range origin {
		exist[definitionName(v)] = true
	}

	var ret []string
	for _, v := range current {
		if !exist[definitionName(v)] {
			ret = append(ret, v)
		}
	}
	return ret
}

func definitionName(v string) string {
	v = strings.Trim(v, " ")
	if strings.HasPrefix(v, "`") {
		return strings.ToLower(strings.SplitN(v, " ", 2)[0])
	}
	return strings.ToLower(strings.SplitN(v, " (", 2)[0])
}

//composite key tag "index_ab(1)" => "index_ab", 1
func splitKeyTag(tag string) (string, int) {
	i := strings.Index(tag, "(")
	if i < 0 || !strings.HasSuffix(tag, ")") {
		return tag, 0
	}
	pos, err := strconv.Atoi(tag[i+1 : len(tag)-1])
	if err != nil {
		return tag, 0
	}
	return tag[:i], pos
}

type compositeKey struct {
	unique  bool
	columns map[int]string
	order   []int
}

func generateColumnStrings(tableName, quotedTable string, dbColums []dBColumn, d Dialect) ([]string, []string) {
	var ret []string
	var pending []string
	var primaryColumns []string
	var keyStrs []string
	var comps = make(map[string]*compositeKey)
	var compNames []string

	q := d.QuoteIdentifier
	addComp := func(tag string, unique bool, column string) {
		name, pos := splitKeyTag(tag)
		c, ok := comps[name]
		if !ok {
			c = &compositeKey{unique: unique, columns: make(map[int]string)}
			comps[name] = c
			compNames = append(compNames, name)
		}
		for {
			if _, taken := c.columns[pos]; !taken {
				break
			}
			pos++
		}
		c.columns[pos] = column
		c.order = append(c.order, pos)
	}
	indexStr := func(unique bool, name string, columns []string) string {
		quoted := make([]string, len(columns))
		for k, v := range columns {
			quoted[k] = q(v)
		}
		if d.Name() == DialectMysql {
			if unique {
				return fmt.Sprintf("unique key %s (%s)", q(name), strings.Join(quoted, ","))
			}
			return fmt.Sprintf("key %s (%s)", q(name), strings.Join(quoted, ","))
		}
		kind := "index"
		if unique {
			kind = "unique index"
		}
		return fmt.Sprintf("create %s if not exists %s on %s (%s)", kind, q(tableName+"_"+name), quotedTable, strings.Join(quoted, ","))
	}

	for _, v := range dbColums {
		var words []string
		words = append(words, q(v.Name))

		switch {
		case v.AutoIncrement && d.Name() == DialectSqlite:
			//rowid alias, the only auto increment sqlite has
			words = append(words, "integer not null primary key autoincrement")
		case v.AutoIncrement && d.Name() == DialectPostgres:
			if strings.Contains(v.Type, "bigint") {
				words = append(words, "bigserial not null")
			} else {
				words = append(words, "serial not null")
			}
		default:
			words = append(words, v.Type)
			if v.Null {
				words = append(words, "null")
			} else {
				words = append(words, "not null")
			}
			if v.AutoIncrement {
				words = append(words, "auto_increment")
			} else if v.Default != "" {
				words = append(words, "default "+v.Default)
			}
		}

		if v.Comment != "" {
			if d.Name() == DialectMysql {
				words = append(words, "comment "+quoteString(v.Comment))
			} else if d.Name() == DialectPostgres {
				pending = append(pending, fmt.Sprintf("comment on column %s.%s is %s", quotedTable, q(v.Name), quoteString(v.Comment)))
			}
		}

		if v.Primary && !(v.AutoIncrement && d.Name() == DialectSqlite) {
			primaryColumns = append(primaryColumns, v.Name)
		} else if v.Unique {
			keyStrs = append(keyStrs, indexStr(true, v.Name, []string{v.Name}))
		} else if v.Index {
			keyStrs = append(keyStrs, indexStr(false, v.Name, []string{v.Name}))
		}

		for _, v2 := range v.Uniques {
			addComp(v2, true, v.Name)
		}
		for _, v2 := range v.Indexs {
			addComp(v2, false, v.Name)
		}
		ret = append(ret, strings.Join(words, " "))
	}

	if len(primaryColumns) > 0 {
		quoted := make([]string, len(primaryColumns))
		for k, v := range primaryColumns {
			quoted[k] = q(v)
		}
		ret = append(ret, fmt.Sprintf("primary key (%s)", strings.Join(quoted, ",")))
	}

	for _, name := range compNames {
		c := comps[name]
		sort.Ints(c.order)
		columns := make([]string, len(c.order))
		for k, pos := range c.order {
			columns[k] = c.columns[pos]
		}
		keyStrs = append(keyStrs, indexStr(c.unique, name, columns))
	}

	if d.Name() == DialectMysql {
		ret = append(ret, keyStrs...)
	} else {
		pending = append(keyStrs, pending...)
	}
	return ret, pending
}

func getMigrateColumns(table *queryTable, d Dialect) []dBColumn {
	var ret []dBColumn
	for i := 0; i < table.tableStruct.NumField(); i++ {
		varField := table.tableStruct.Field(i)

		if !varField.CanSet() {
			continue
		}

		column := dBColumn{Name: columnName(table.field(i))}
		if column.Name == "" {
			continue
		}

		kind := varField.Kind()
		if kind == reflect.Ptr {
			kind = varField.Type().Elem().Kind()
			if kind == reflect.Ptr {
				continue
			}
			column.Null = true
		}

		column.Type, column.Default = getTypeAndDefault(varField.Type(), d)

		if i == 0 {
			column.Primary = true
			if column.Default == "0" {
				column.AutoIncrement = true
			}
		}

		switch column.Name {
		case createdAtColumn:
			column.Type = timestampType(d)
			column.Default = "CURRENT_TIMESTAMP"
		case updatedAtColumn:
			column.Type = timestampType(d)
			column.Default = "CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"
		case deletedAtColumn:
			column.Null = true
			column.Type = timestampType(d)
			column.Default = "Null"
		}

		column.Comment = table.getTags(i, "comment")[0]
		customDefault := table.getTags(i, "default")[0]
		if customDefault != "" {
			column.Default = customDefault
			if kind == reflect.Bool && d.Name() != DialectPostgres {
				if strings.ToLower(customDefault) == "true" {
					column.Default = "1"
				} else if strings.ToLower(customDefault) == "false" {
					column.Default = "0"
				}
			}
		}

		ormTags := table.getTags(i, "orm")
		if ormTags[0] != "" {
			overideColumn := dBColumn{}

			for _, v := range ormTags[1:] {
				if v == nullPrefix {
					overideColumn.Null = true
				} else if v == autoIncrementPrefix {
					overideColumn.AutoIncrement = true
				} else if strings.HasPrefix(v, primaryKeyPrefix) {
					overideColumn.Primary = true
				} else if strings.HasPrefix(v, uniqueKeyPrefix) {
					if v == uniqueKeyPrefix {
						column.Unique = true
					} else {
						column.Uniques = append(column.Uniques, v)
					}
				} else if strings.HasPrefix(v, keyPrefix) {
					if v == keyPrefix {
						column.Index = true
					} else {
						column.Indexs = append(column.Indexs, v)
					}
				} else {
					overideColumn.Type = v
				}
			}

			if len(ormTags) > 1 {
				column.Null = overideColumn.Null
				column.AutoIncrement = overideColumn.AutoIncrement
				column.Primary = overideColumn.Primary
			}
			if overideColumn.Type != "" {
				column.Type = overideColumn.Type
			}
		}

		if column.Null && customDefault == "" {
			column.Default = "null"
		}

		if d.Name() != DialectMysql && strings.HasSuffix(strings.ToLower(column.Default), onUpdateCurrentTimestamp) {
			column.Default = column.Default[:len(column.Default)-len(onUpdateCurrentTimestamp)]
		}

		if !slices.Contains(definedDefault, strings.ToLower(column.Default)) {
			column.Default = quoteString(strings.Trim(column.Default, "'"))
		}

		if !column.Null && strings.ToLower(customDefault) == "null" {
			column.Default = ""
		}

		ret = append(ret, column)
	}

	return ret
}

func timestampType(d Dialect) string {
	if d.Name() == DialectSqlite {
		return "datetime"
	}
	return "timestamp"
}

func getTypeAndDefault(t reflect.Type, d Dialect) (string, string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == reflect.TypeOf(time.Time{}) {
		return timestampType(d), ""
	}

	switch d.Name() {
	case DialectSqlite:
		switch t.Kind() {
		case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return "integer", "0"
		case reflect.Float32, reflect.Float64:
			return "real", "0"
		}
		return "text", ""
	case DialectPostgres:
		switch t.Kind() {
		case reflect.Bool:
			return "boolean", "false"
		case reflect.Int8, reflect.Int16, reflect.Uint8:
			return "smallint", "0"
		case reflect.Int, reflect.Int32, reflect.Uint16:
			return "integer", "0"
		case reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
			return "bigint", "0"
		case reflect.Float32, reflect.Float64:
			return "double precision", "0"
		}
		return "varchar(255)", ""
	}

	switch t.Kind() {
	case reflect.Bool, reflect.Int8:
		return "tinyint", "0"
	case reflect.Int16:
		return "smallint", "0"
	case reflect.Int, reflect.Int32:
		return "int", "0"
	case reflect.Int64:
		return "bigint", "0"
	case reflect.Uint8:
		return "tinyint unsigned", "0"
	case reflect.Uint16:
		return "smallint unsigned", "0"
	case reflect.Uint, reflect.Uint32:
		return "int unsigned", "0"
	case reflect.Uint64:
		return "bigint unsigned", "0"
	case reflect.Float32, reflect.Float64:
		return "double", "0"
	}
	return "varchar(255)", ""
}

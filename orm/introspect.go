package orm

import (
	"context"
	"database/sql"
)

//TableNames lists the tables of the current database or schema
func TableNames(ctx context.Context, db *sql.DB, d Dialect) ([]string, error) {
	if db == nil {
		return nil, ErrDbNotSelected
	}
	if d == nil {
		d = DialectOf(db)
	}

	var listSql string
	switch d.Name() {
	case DialectSqlite:
		listSql = "select name from sqlite_master where type = 'table' and name not like 'sqlite_%' order by name"
	case DialectPostgres:
		listSql = "select table_name from information_schema.tables where table_schema = current_schema() order by table_name"
	default:
		listSql = "show tables"
	}

	var names []string
	res := NewQueryRaw("", db).UseDialect(d).Raw(listSql).GetToContext(ctx, &names)
	return names, res.Err
}

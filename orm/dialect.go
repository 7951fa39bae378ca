package orm

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	DialectMysql    = "mysql"
	DialectSqlite   = "sqlite"
	DialectPostgres = "postgres"
)

//sql capabilities that differ per database vendor
type Dialect interface {
	Name() string
	//name used with sql.Open
	DriverName() string
	QuoteIdentifier(name string) string
	//wraps one select of a compound union statement
	WrapUnionBranch(sql string) string
	//rewrites ? bindings into the vendor's positional form
	Rebind(sql string) string
}

var (
	MysqlDialect    Dialect = mysqlDialect{}
	SqliteDialect   Dialect = sqliteDialect{}
	PostgresDialect Dialect = postgresDialect{}
)

type mysqlDialect struct{}

func (mysqlDialect) Name() string                      { return DialectMysql }
func (mysqlDialect) DriverName() string                { return "mysql" }
func (mysqlDialect) QuoteIdentifier(name string) string { return quoteIdentifier(name, "`") }
func (mysqlDialect) WrapUnionBranch(sql string) string  { return "(" + sql + ")" }
func (mysqlDialect) Rebind(sql string) string           { return sql }

//sqlite rejects parenthesized selects inside a compound select
type sqliteDialect struct{}

func (sqliteDialect) Name() string                      { return DialectSqlite }
func (sqliteDialect) DriverName() string                { return "sqlite3" }
func (sqliteDialect) QuoteIdentifier(name string) string { return quoteIdentifier(name, `"`) }
func (sqliteDialect) WrapUnionBranch(sql string) string  { return sql }
func (sqliteDialect) Rebind(sql string) string           { return sql }

type postgresDialect struct{}

func (postgresDialect) Name() string                      { return DialectPostgres }
func (postgresDialect) DriverName() string                { return "postgres" }
func (postgresDialect) QuoteIdentifier(name string) string { return quoteIdentifier(name, `"`) }
func (postgresDialect) WrapUnionBranch(sql string) string  { return "(" + sql + ")" }

func (postgresDialect) Rebind(sql string) string {
	positions := placeholderPositions(sql)
	if len(positions) == 0 {
		return sql
	}
	var sqlb strings.Builder
	last := 0
	for k, pos := range positions {
		sqlb.WriteString(sql[last:pos])
		sqlb.WriteString("$" + strconv.Itoa(k+1))
		last = pos + 1
	}
	sqlb.WriteString(sql[last:])
	return sqlb.String()
}

//DialectByName accepts driver names as well as dialect names
func DialectByName(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "mysql":
		return MysqlDialect, true
	case "sqlite", "sqlite3":
		return SqliteDialect, true
	case "postgres", "postgresql", "pq":
		return PostgresDialect, true
	}
	return nil, false
}

//DialectOf detects the dialect from the registered driver, mysql if unknown
func DialectOf(db *sql.DB) Dialect {
	if db == nil {
		return MysqlDialect
	}
	switch db.Driver().(type) {
	case *sqlite3.SQLiteDriver:
		return SqliteDialect
	case *pq.Driver:
		return PostgresDialect
	case *mysql.MySQLDriver:
		return MysqlDialect
	}
	return MysqlDialect
}

//quotes every part of a dotted name, "*" is left alone
func quoteIdentifier(name string, quote string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	for k, v := range parts {
		if v == "*" {
			continue
		}
		parts[k] = quote + strings.ReplaceAll(v, quote, quote+quote) + quote
	}
	return strings.Join(parts, ".")
}

//byte offsets of ? bindings outside quoted literals and identifiers
func placeholderPositions(sql string) []int {
	var ret []int
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if quote != 0 {
			if c == '\\' && quote == '\'' && i+1 < len(sql) {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '?':
			ret = append(ret, i)
		}
	}
	return ret
}

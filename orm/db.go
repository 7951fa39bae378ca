package orm

import (
	"database/sql"
	sqldriver "database/sql/driver"
)

func OpenMysql(dataSourceName string) (*sql.DB, error) {
	return sql.Open(MysqlDialect.DriverName(), dataSourceName)
}

func OpenSqlite(dataSourceName string) (*sql.DB, error) {
	return sql.Open(SqliteDialect.DriverName(), dataSourceName)
}

func OpenPostgres(dataSourceName string) (*sql.DB, error) {
	return sql.Open(PostgresDialect.DriverName(), dataSourceName)
}

func Open(driverName, dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

func OpenDB(driver sqldriver.Connector) *sql.DB {
	return sql.OpenDB(driver)
}

func Register(name string, drvier sqldriver.Driver) {
	sql.Register(name, drvier)
}

package orm

import (
	"database/sql"
	"sync"

	"github.com/pkg/errors"
)

const DefaultConnection = "default"

//named connection: first db writes, the rest read
type Connection struct {
	Alias   string
	DBs     []*sql.DB
	Dialect Dialect
}

var connections = struct {
	sync.RWMutex
	m map[string]Connection
}{m: make(map[string]Connection)}

//RegisterConnection makes dbs selectable with Query.Using(alias).
//dialect may be nil, it is then detected from the first db.
func RegisterConnection(alias string, dialect Dialect, writeAndReadDbs ...*sql.DB) error {
	if len(writeAndReadDbs) == 0 || writeAndReadDbs[0] == nil {
		return ErrDbNotSelected
	}
	if dialect == nil {
		dialect = DialectOf(writeAndReadDbs[0])
	}
	connections.Lock()
	defer connections.Unlock()
	connections.m[alias] = Connection{Alias: alias, DBs: writeAndReadDbs, Dialect: dialect}
	return nil
}

func GetConnection(alias string) (Connection, error) {
	connections.RLock()
	defer connections.RUnlock()
	conn, ok := connections.m[alias]
	if !ok {
		return Connection{}, errors.Wrapf(ErrConnectionNotFound, "alias %q", alias)
	}
	return conn, nil
}

func UnregisterConnection(alias string) {
	connections.Lock()
	defer connections.Unlock()
	delete(connections.m, alias)
}

//run the query against a registered connection
func (m Query[T]) Using(alias string) Query[T] {
	conn, err := GetConnection(alias)
	if err != nil {
		return m.setErr(err)
	}
	m.writeAndReadDbs = conn.DBs
	m.dialect = conn.Dialect
	return m
}

package orm

import (
	"context"
	"database/sql"

	"github.com/mcuadros/go-defaults"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormScope = func(*gorm.DB) *gorm.DB

//GormUnion runs split unions over gorm scopes.
//scopes added before Split shape every branch and the outer query, later ones only the outer query.
type GormUnion struct {
	db     *gorm.DB
	alias  string
	base   []GormScope
	outer  []GormScope
	tables []string
	split  bool
	config *UnionConfig
	err    error
}

//gorm over an existing connection, nothing is queried until a statement runs
func OpenGormMysql(conn *sql.DB) (*gorm.DB, error) {
	return gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
}

//alias names the table in every branch and in the outer query
func NewGormUnion(db *gorm.DB, alias string) GormUnion {
	return GormUnion{db: db, alias: alias}
}

func (g GormUnion) Scopes(scopes ...GormScope) GormUnion {
	if !g.split {
		g.base = append(g.base[:len(g.base):len(g.base)], scopes...)
	}
	g.outer = append(g.outer[:len(g.outer):len(g.outer)], scopes...)
	return g
}

func (g GormUnion) Split(tables ...any) GormUnion {
	return g.SplitWith(SplitOptions{}, tables...)
}

func (g GormUnion) SplitWith(opts SplitOptions, tables ...any) GormUnion {
	g.tables = opts.tableNames(tables)
	g.split = len(g.tables) > 0
	if g.err == ErrNoTablesSelected {
		g.err = nil
	}
	if !g.split && g.err == nil {
		g.err = ErrNoTablesSelected
	}
	return g
}

func (g GormUnion) WithUnionConfig(c UnionConfig) GormUnion {
	defaults.SetDefaults(&c)
	g.config = &c
	return g
}

func (g GormUnion) SplitTables() []string {
	return append([]string{}, g.tables...)
}

//compose the union, nothing is executed
func (g GormUnion) Compile(op UnionOperator) (SubQuery, error) {
	if g.err != nil {
		return SubQuery{}, g.err
	}
	if !g.split {
		return SubQuery{}, ErrFetchWithoutUnion
	}
	cfg := DefaultUnionConfig()
	if g.config != nil {
		cfg = *g.config
	}

	sub, err := composeUnion(g, op, cfg)
	if err != nil {
		logError(string(op), err)
		return SubQuery{}, err
	}
	sub.dialect = g.unionDialect()
	if !cfg.Quiet {
		logInfo(sub.Sql())
	}
	return sub, nil
}

//scan the union into dest like gorm Scan does
func (g GormUnion) Find(ctx context.Context, op UnionOperator, dest interface{}) error {
	sub, err := g.Compile(op)
	if err != nil {
		return err
	}
	return g.db.WithContext(ctx).Raw(sub.raw, sub.bindings...).Scan(dest).Error
}

func (g GormUnion) Rows(ctx context.Context, op UnionOperator) (*sql.Rows, error) {
	sub, err := g.Compile(op)
	if err != nil {
		return nil, err
	}
	return g.db.WithContext(ctx).Raw(sub.raw, sub.bindings...).Rows()
}

func (g GormUnion) unionDialect() Dialect {
	if d, ok := DialectByName(g.db.Dialector.Name()); ok {
		return d
	}
	return MysqlDialect
}

func (g GormUnion) unionTables() []string {
	return g.tables
}

func (g GormUnion) rootTableName() string {
	return g.alias
}

func (g GormUnion) compileBranch(table string) (SubQuery, error) {
	tx := g.session(table)
	for _, f := range g.base {
		tx = f(tx)
	}
	//ordering and row locking only apply to the unioned result
	for _, name := range []string{"ORDER BY", "LIMIT", "FOR"} {
		delete(tx.Statement.Clauses, name)
	}
	return g.compile(tx)
}

func (g GormUnion) compileOuterAt(placeholder string) (SubQuery, error) {
	tx := g.session(placeholder)
	for _, f := range g.outer {
		tx = f(tx)
	}
	return g.compile(tx)
}

func (g GormUnion) session(table string) *gorm.DB {
	q := g.unionDialect().QuoteIdentifier
	return g.db.Session(&gorm.Session{DryRun: true, NewDB: true}).Table(q(table) + " AS " + q(g.alias))
}

func (g GormUnion) compile(tx *gorm.DB) (SubQuery, error) {
	tx = tx.Find(&[]map[string]interface{}{})
	if tx.Error != nil {
		return SubQuery{}, errors.Wrap(tx.Error, "gorm dry run")
	}
	return NewSubQuery(tx.Statement.SQL.String(), tx.Statement.Vars...), nil
}

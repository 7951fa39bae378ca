package orm

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mcuadros/go-defaults"
	"github.com/pkg/errors"
)

type UnionOperator string

const (
	OperatorUnion    UnionOperator = "union"
	OperatorUnionAll UnionOperator = "union all"
)

//knobs of union composition, zero fields take the default tag
type UnionConfig struct {
	PlaceholderPrefix   string `default:"u" mapstructure:"placeholder_prefix"`
	PlaceholderLength   int    `default:"12" mapstructure:"placeholder_length"`
	PlaceholderAttempts int    `default:"4" mapstructure:"placeholder_attempts"`
	//skip logging the composed sql
	Quiet bool `mapstructure:"quiet"`
}

func NewUnionConfig() UnionConfig {
	var c UnionConfig
	defaults.SetDefaults(&c)
	return c
}

var defaultUnionConfig = struct {
	sync.RWMutex
	c UnionConfig
}{c: NewUnionConfig()}

func SetDefaultUnionConfig(c UnionConfig) {
	defaults.SetDefaults(&c)
	defaultUnionConfig.Lock()
	defer defaultUnionConfig.Unlock()
	defaultUnionConfig.c = c
}

func DefaultUnionConfig() UnionConfig {
	defaultUnionConfig.RLock()
	defer defaultUnionConfig.RUnlock()
	return defaultUnionConfig.c
}

func (m Query[T]) WithUnionConfig(c UnionConfig) Query[T] {
	defaults.SetDefaults(&c)
	m.unionConfig = &c
	return m
}

func (m Query[T]) getUnionConfig() UnionConfig {
	if m.unionConfig != nil {
		return *m.unionConfig
	}
	return DefaultUnionConfig()
}

//a split query the composer can compile branches of
type unionSource interface {
	unionDialect() Dialect
	unionTables() []string
	rootTableName() string
	compileBranch(table string) (SubQuery, error)
}

//outer query that can take the union as its table
type tableExprSource interface {
	compileOuterFrom(inner SubQuery) (SubQuery, error)
}

//outer query only compilable against a named table
type placeholderSource interface {
	compileOuterAt(placeholder string) (SubQuery, error)
}

func composeUnion(src unionSource, op UnionOperator, cfg UnionConfig) (SubQuery, error) {
	tables := src.unionTables()
	if len(tables) == 0 {
		return SubQuery{}, ErrNoTablesSelected
	}
	d := src.unionDialect()

	branches := make([]string, 0, len(tables))
	var bindings []interface{}
	for _, t := range tables {
		branch, err := src.compileBranch(t)
		if err != nil {
			return SubQuery{}, errors.Wrapf(err, "union branch %s", t)
		}
		branches = append(branches, d.WrapUnionBranch(branch.raw))
		bindings = append(bindings, branch.bindings...)
	}
	inner := NewSubQuery(strings.Join(branches, " "+string(op)+" "), bindings...)

	if s, ok := src.(tableExprSource); ok {
		return s.compileOuterFrom(inner)
	}
	s, ok := src.(placeholderSource)
	if !ok {
		return SubQuery{}, errors.Errorf("%T cannot compile an outer union query", src)
	}

	reserved := append([]string{src.rootTableName()}, tables...)
	for attempt := 0; attempt < cfg.PlaceholderAttempts; attempt++ {
		placeholder := newPlaceholderName(cfg)
		if slices.Contains(reserved, placeholder) {
			continue
		}
		outer, err := s.compileOuterAt(placeholder)
		if err != nil {
			return SubQuery{}, err
		}
		return SubstitutePlaceholder(outer, d.QuoteIdentifier(placeholder), inner)
	}
	return SubQuery{}, errors.Wrapf(ErrPlaceholderCollision, "%d attempts", cfg.PlaceholderAttempts)
}

//random table name the outer query is compiled against
var newPlaceholderName = func(cfg UnionConfig) string {
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	if cfg.PlaceholderLength > 0 && cfg.PlaceholderLength < len(name) {
		name = name[:cfg.PlaceholderLength]
	}
	return cfg.PlaceholderPrefix + name
}

//SubstitutePlaceholder replaces the single occurrence of quoted in outer with (inner).
//inner bindings are spliced in at the position of the placeholder.
func SubstitutePlaceholder(outer SubQuery, quoted string, inner SubQuery) (SubQuery, error) {
	if n := strings.Count(outer.raw, quoted); n != 1 {
		return SubQuery{}, errors.Wrapf(ErrAmbiguousPlaceholder, "%s found %d times", quoted, n)
	}
	idx := strings.Index(outer.raw, quoted)

	before := len(placeholderPositions(outer.raw[:idx]))
	if before > len(outer.bindings) {
		before = len(outer.bindings)
	}

	bindings := make([]interface{}, 0, len(outer.bindings)+len(inner.bindings))
	bindings = append(bindings, outer.bindings[:before]...)
	bindings = append(bindings, inner.bindings...)
	bindings = append(bindings, outer.bindings[before:]...)

	ret := outer
	ret.raw = outer.raw[:idx] + "(" + inner.raw + ")" + outer.raw[idx+len(quoted):]
	ret.bindings = bindings
	return ret, nil
}

//compose the split query into one statement, nothing is executed
func (m Query[T]) UnionSubQuery(op UnionOperator) (SubQuery, error) {
	if m.result.Err != nil {
		return SubQuery{}, m.result.Err
	}
	if m.split == nil {
		return SubQuery{}, ErrFetchWithoutUnion
	}

	cfg := m.getUnionConfig()
	sub, err := composeUnion(m, op, cfg)
	if err != nil {
		logError(string(op), err)
		return SubQuery{}, err
	}

	sub.dbs = m.DBs()
	sub.tx = m.tx
	sub.dialect = m.getDialect()
	if !cfg.Quiet {
		logInfo(sub.Sql())
	}
	return sub, nil
}

func (m Query[T]) unionDialect() Dialect {
	return m.getDialect()
}

func (m Query[T]) unionTables() []string {
	return m.split.tables
}

func (m Query[T]) rootTableName() string {
	if len(m.tables) == 0 || m.tables[0].table == nil {
		return ""
	}
	return m.tables[0].table.TableName()
}

func (m Query[T]) compileBranch(table string) (SubQuery, error) {
	sub := m.split.base.retarget(table).rootColumns().SubQuery()
	return sub, sub.err
}

func (m Query[T]) compileOuterFrom(inner SubQuery) (SubQuery, error) {
	outer := m
	outer.split = nil
	sub := outer.fromExpr(inner).rootColumns().SubQuery()
	return sub, sub.err
}

//joined tables would add their columns to select *, the union keeps the root's only
func (m Query[T]) rootColumns() Query[T] {
	if len(m.columns) > 0 || len(m.tables) < 2 {
		return m
	}
	return m.Select(m.AllCols())
}

//root table re-bound to another table name.
//the old name stays as alias so column references still resolve.
func (m Query[T]) retarget(table string) Query[T] {
	if len(m.tables) == 0 || m.tables[0].table == nil {
		return m.setErr(ErrTableNotSelected)
	}
	root := *m.tables[0]
	if root.alias == "" {
		root.alias = root.getAliasOrTableName()
	}
	dbName := root.table.DatabaseName()
	if strings.Contains(table, ".") {
		dbName = ""
	}
	root.table = boundTable{Table: root.table, name: table, dbName: dbName}
	root.rawSql, root.bindings = "", nil
	m.tables = append([]*queryTable{&root}, m.tables[1:]...)
	return m
}

//root table re-bound to a raw table expression
func (m Query[T]) fromExpr(inner SubQuery) Query[T] {
	if len(m.tables) == 0 || m.tables[0].table == nil {
		return m.setErr(ErrTableNotSelected)
	}
	root := *m.tables[0]
	if root.alias == "" {
		root.alias = root.getAliasOrTableName()
	}
	root.rawSql = inner.raw
	root.bindings = inner.bindings
	m.tables = append([]*queryTable{&root}, m.tables[1:]...)
	return m
}

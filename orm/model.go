package orm

//options of a table minted by GetModel
type ModelMeta struct {
	//database of the new table, the origin's if empty
	DatabaseName string
	//package name used by CreateStruct for a new file
	Module string
	Alias  string
}

//GetModel returns a query over table name with the same fields as origin.
//connections, dialect and union config are kept, conditions are not.
func GetModel[T Table](origin Query[T], name string, meta ...ModelMeta) Query[T] {
	if len(origin.tables) == 0 || origin.tables[0].table == nil || !origin.tables[0].tableStruct.IsValid() {
		return origin.setErr(ErrTableNotSelected)
	}
	var mm ModelMeta
	if len(meta) > 0 {
		mm = meta[0]
	}
	if mm.DatabaseName == "" {
		mm.DatabaseName = origin.tables[0].table.DatabaseName()
	}

	root := *origin.tables[0]
	root.table = boundTable{Table: root.table, name: name, dbName: mm.DatabaseName, module: mm.Module}
	root.alias = mm.Alias
	root.rawSql, root.bindings = "", nil

	return Query[T]{
		writeAndReadDbs: origin.writeAndReadDbs,
		tx:              origin.tx,
		dialect:         origin.dialect,
		T:               origin.T,
		unionConfig:     origin.unionConfig,
		tables:          []*queryTable{&root},
	}
}

//package of a table minted with ModelMeta.Module
func tableModule(t Table) string {
	if b, ok := t.(boundTable); ok {
		return b.module
	}
	return ""
}

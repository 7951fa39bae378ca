package orm

func (m Query[T]) Delete(primaryIds ...any) QueryResult {
	if len(m.tables) == 0 {
		return m.setErr(ErrTableNotSelected).result
	}

	if len(primaryIds) == 1 {
		return m.WherePrimary(primaryIds[0]).delete()
	} else if len(primaryIds) > 1 {
		return m.WherePrimary(primaryIds).delete()
	}
	return m.delete()
}

func (m Query[T]) delete() QueryResult {
	if len(m.wheres) == 0 && len(m.tables) <= 1 && m.limit == 0 {
		return m.setErr(ErrDeleteWithoutCondition).result
	}

	bindings := make([]any, 0)
	d := m.getDialect()

	rawSql := "delete"
	if len(m.tables) > 1 {
		//mysql multi table delete
		rawSql += " " + d.QuoteIdentifier(m.tables[0].getAliasOrTableName()) +
			" from " + m.generateTableAndJoinStr(m.tables, &bindings)
	} else {
		rawSql += " from " + m.tables[0].getTableNameAndAlias(d)
	}

	if whereStr := m.generateWhereStr(m.wheres, &bindings); whereStr != "" {
		rawSql += " where " + whereStr
	}
	if orderLimitOffsetStr := m.getOrderAndLimitSqlStr(); orderLimitOffsetStr != "" && d.Name() == DialectMysql {
		rawSql += " " + orderLimitOffsetStr
	}

	m.prepareSql = rawSql
	m.bindings = bindings

	return m.Execute()
}

package orm

type Table interface {
	DatabaseName() string
	TableName() string
}

//a Table re-bound to another table name, the field set stays the same
type boundTable struct {
	Table
	name   string
	dbName string
	module string
}

func (b boundTable) TableName() string {
	return b.name
}

func (b boundTable) DatabaseName() string {
	return b.dbName
}

package orm

import (
	"sync"
)

var tableCache sync.Map

//cached tables are shared, callers get a copy
func getTableFromCache(key Table) *queryTable {
	res, ok := tableCache.Load(key)
	if ok {
		ret, ok := res.(*queryTable)
		if ok {
			cp := *ret
			return &cp
		}
	}
	return nil
}

func cacheTable(key Table, val *queryTable) {
	tableCache.Store(key, val)
}

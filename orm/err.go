package orm

import "errors"

var (
	ErrDbNotSelected                    = errors.New("db not selected")
	ErrConnectionNotFound               = errors.New("connection not registered")
	ErrTableNotExisted                  = errors.New("table not existed")
	ErrTableNotSelected                 = errors.New("table not selected")
	ErrColumnNotExisted                 = errors.New("column not existed")
	ErrParamMustBePtr                   = errors.New("param must be ptr")
	ErrParamElemKindMustBeStruct        = errors.New("param elem kind must be struct")
	ErrColumnShouldBeStringOrPtr        = errors.New("select|where column should be string or ptr of Table.T.field")
	ErrDestOfGetToMustBePtr             = errors.New("dest of Get-to must be ptr")
	ErrDestOfGetToSliceElemMustNotBePtr = errors.New("dest of Get-to slice elem kind must not be ptr")
	ErrInsertPtrNotAllowed              = errors.New("insert ptr data not allowed")
	ErrUpdateWithoutCondition           = errors.New("update without condition not allowed")
	ErrDeleteWithoutCondition           = errors.New("delete without condition not allowed")

	ErrNoTablesSelected     = errors.New("no tables selected")
	ErrFetchWithoutUnion    = errors.New("fetch without union")
	ErrAmbiguousPlaceholder = errors.New("union placeholder must occur exactly once in outer sql")
	ErrPlaceholderCollision = errors.New("no free union placeholder name")
	ErrSplitRawQuery        = errors.New("raw sql query can not be split")
)

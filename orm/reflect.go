package orm

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gobeam/stringy"
)

//column of a struct field: orm tag, then json tag, then snake case field name.
//"-" skips the field.
func columnName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	for _, tag := range []string{"orm", "json"} {
		name := stringSplitEscapeParentheses(f.Tag.Get(tag), ",")[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return stringy.New(f.Name).SnakeCase().ToLower()
}

var structFieldsCache sync.Map

//column names indexed like the struct fields, "" for skipped fields
func getStructFieldNameSlice(t reflect.Type) ([]string, error) {
	if t.Kind() != reflect.Struct {
		return nil, ErrParamElemKindMustBeStruct
	}
	if cached, ok := structFieldsCache.Load(t); ok {
		return cached.([]string), nil
	}

	var ret = make([]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Anonymous && t.Field(i).Type.Kind() == reflect.Struct {
			continue
		}
		ret[i] = columnName(t.Field(i))
	}

	structFieldsCache.Store(t, ret)
	return ret, nil
}

//column name => field address, embedded structs are flattened
func getStructFieldAddrMap(objAddr any) (map[string]any, error) {
	tableStructAddr := reflect.ValueOf(objAddr)
	if tableStructAddr.Kind() != reflect.Ptr {
		return nil, ErrParamMustBePtr
	}

	tableStruct := tableStructAddr.Elem()
	if tableStruct.Kind() != reflect.Struct {
		return nil, ErrParamElemKindMustBeStruct
	}

	tableStructType := tableStruct.Type()

	fields, err := getStructFieldNameSlice(tableStructType)
	if err != nil {
		return nil, err
	}

	ret := make(map[string]any)
	for i := 0; i < tableStruct.NumField(); i++ {
		if tableStructType.Field(i).Anonymous && tableStruct.Field(i).Kind() == reflect.Struct {
			innerMap, err := getStructFieldAddrMap(tableStruct.Field(i).Addr().Interface())
			if err != nil {
				return ret, err
			}
			for k, v := range innerMap {
				ret[k] = v
			}
		} else if fields[i] != "" {
			ret[fields[i]] = tableStruct.Field(i).Addr().Interface()
		}
	}

	return ret, nil
}

//fields tagged with default current_timestamp get now() when zero on insert
func getStructFieldWithDefaultTime(t reflect.Type) map[int]any {
	ret := make(map[int]any)
	for i := 0; i < t.NumField(); i++ {
		defaultVar := t.Field(i).Tag.Get("default")
		if defaultVar == "" {
			continue
		}
		if t.Field(i).Type == reflect.TypeOf(time.Time{}) &&
			strings.Contains(strings.ToLower(defaultVar), "current_timestamp") {
			ret[i] = time.Now()
		}
	}
	return ret
}

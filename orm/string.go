package orm

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const nullStr = "NULL"

//sql literal of a binding, used when logging sql
func varToString(i interface{}) string {
	switch v := i.(type) {
	case nil:
		return nullStr
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float64, float32:
		return fmt.Sprintf("%.6f", v)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return quoteString(v)
	case []byte:
		if s := string(v); stringIsPrintable(s) {
			return quoteString(s)
		}
		return quoteString("<binary>")
	case time.Time:
		return timeToString(v)
	case *time.Time:
		if v == nil {
			return nullStr
		}
		return timeToString(*v)
	case driver.Valuer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nullStr
		}
		r, err := v.Value()
		if err != nil {
			return nullStr
		}
		return varToString(r)
	case fmt.Stringer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nullStr
		}
		return quoteString(v.String())
	}

	rv := reflect.ValueOf(i)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nullStr
		}
		return varToString(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.String:
		return quoteString(rv.String())
	}
	return quoteString(fmt.Sprint(i))
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func timeToString(t time.Time) string {
	if t.IsZero() {
		return quoteString("0000-00-00 00:00:00")
	}
	return quoteString(t.Format("2006-01-02 15:04:05.999"))
}

func stringIsPrintable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

//split by seperator, except inside parentheses: "a,decimal(10,2)" => ["a", "decimal(10,2)"]
func stringSplitEscapeParentheses(s string, seperator string) []string {
	var splits []string
	var openP int
	var before strings.Builder
	for _, v := range s {
		temp := string(v)
		if temp == seperator && openP == 0 {
			if before.Len() > 0 {
				splits = append(splits, before.String())
			}
			before.Reset()
			continue
		}
		if temp == "(" {
			openP++
		} else if temp == ")" && openP > 0 {
			openP--
		}
		before.WriteString(temp)
	}
	if before.Len() > 0 {
		splits = append(splits, before.String())
	}
	if len(splits) == 0 {
		splits = append(splits, "")
	}
	return splits
}

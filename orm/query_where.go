package orm

import (
	"errors"
	"reflect"
	"strings"
)

type WhereOperator Raw

const (
	WhereEqual          WhereOperator = "="
	WhereNotEqual       WhereOperator = "!="
	WhereGreatThan      WhereOperator = ">"
	WhereGreaterOrEqual WhereOperator = ">="
	WhereLessThan       WhereOperator = "<"
	WhereLessOrEqual    WhereOperator = "<="
	WhereIn             WhereOperator = "in"
	WhereNotIn          WhereOperator = "not in"
	WhereLike           WhereOperator = "like"
	WhereNotLike        WhereOperator = "not like"
	WhereIsNull         WhereOperator = "is null"
	WhereIsNotNull      WhereOperator = "is not null"
)

type where struct {
	Raw         string
	Column      string
	Val         interface{}
	Operator    string
	IsOr        bool
	RawBindings []interface{}
	SubWheres   []where
}

func (m Query[T]) where(isOr bool, column interface{}, vals ...interface{}) Query[T] {
	if len(vals) > 2 {
		return m.setErr(errors.New("two many where-params"))
	}

	if len(vals) == 0 {
		c, ok := m.isStringOrRaw(column)
		if ok == false {
			return m.setErr(errors.New("where-param should be string while only 1 param exist"))
		}
		if c == "" {
			return m.setErr(errors.New("where-param should not be empty string"))
		}
		return m.appendWhere(where{Raw: c, IsOr: isOr})
	}

	c, err := m.parseColumn(column)
	if err != nil {
		return m.setErr(err)
	}
	operator := "="
	var val interface{}
	if len(vals) == 2 {
		operator2, ok := m.isStringOrRaw(vals[0])
		if ok == false {
			return m.setErr(errors.New("the second where-param should be operator as string"))
		}
		operator = operator2
		val = vals[1]
	} else {
		if vals[0] == nil {
			vals = []interface{}{WhereIsNull}
		}
		tempVal, ok := m.isOperator(vals[0])
		if ok {
			if tempVal != string(WhereIsNull) && tempVal != string(WhereIsNotNull) {
				return m.setErr(errors.New("operator \"" + tempVal + "\" must have params"))
			}
			operator = ""
			val = Raw(tempVal)
		} else {
			val = vals[0]
		}
	}

	raw := ""
	var rawBindings []interface{}
	if value, ok := m.isRaw(val); ok {
		if operator != "" {
			operator += " "
		}
		raw = c + " " + operator + value
	} else if tempTable, ok := val.(SubQuery); ok {
		if operator != "" {
			operator += " "
		}
		raw = c + " " + operator + "(" + tempTable.raw + ")"
		rawBindings = append(rawBindings, tempTable.bindings...)
	} else {
		temp := reflect.ValueOf(val)
		if temp.Kind() == reflect.Slice && temp.Type().Elem().Kind() != reflect.Uint8 {
			if temp.Len() == 0 {
				return m.setErr(errors.New("where " + c + " " + operator + " with empty slice"))
			}
			rawBindings = make([]interface{}, temp.Len())
			rawCells := make([]string, temp.Len())

			for i := 0; i < temp.Len(); i++ {
				rawCells[i] = "?"
				rawBindings[i] = temp.Index(i).Interface()
			}

			raw = c + " " + operator + " " + "(" + strings.Join(rawCells, ",") + ")"
		} else if temp.Kind() == reflect.Ptr {
			rawColumn, err := m.parseColumn(val)
			if err != nil {
				return m.setErr(errors.New("where " + c + " " + operator + " ? val is invalid"))
			}
			raw = c + " " + operator + " " + rawColumn
		}
	}
	return m.appendWhere(where{Raw: raw, Column: c, Val: val, Operator: operator, IsOr: isOr, RawBindings: rawBindings})
}

//appends on a private copy so sibling queries never share wheres
func (m Query[T]) appendWhere(w where) Query[T] {
	m.wheres = append(m.wheres[:len(m.wheres):len(m.wheres)], w)
	return m
}

func (m Query[T]) generateWhereStr(wheres []where, bindings *[]interface{}) string {
	var whereStr []string
	for k, v := range wheres {
		tempStr := ""
		if k > 0 {
			if v.IsOr {
				tempStr = "or "
			} else {
				tempStr = "and "
			}
		}
		if len(v.SubWheres) == 0 {
			if v.Raw != "" {
				tempStr += v.Raw
				if len(v.RawBindings) > 0 {
					*bindings = append(*bindings, v.RawBindings...)
				}
			} else {
				tempStr += v.Column + " " + v.Operator + " ?"
				*bindings = append(*bindings, v.Val)
			}
		} else {
			tempStr += "(" + m.generateWhereStr(v.SubWheres, bindings) + ")"
		}
		whereStr = append(whereStr, tempStr)
	}
	return strings.Join(whereStr, " ")
}

//"id=1"
//&obj.id, 1
//&obj.id, "=", 1
func (m Query[T]) Where(column interface{}, vals ...interface{}) Query[T] {
	return m.where(false, column, vals...)
}

//"id=1"
//&obj.id, 1
//&obj.id, "=", 1
func (m Query[T]) OrWhere(column interface{}, vals ...interface{}) Query[T] {
	return m.where(true, column, vals...)
}

//short for Where(primaryKey, vals...)
func (m Query[T]) WherePrimary(operator interface{}, vals ...interface{}) Query[T] {
	primary, err := m.primaryColumn()
	if err != nil {
		return m.setErr(err)
	}
	//operator as vals
	if len(vals) == 0 {
		vals = []interface{}{operator}
		reflectVar := reflect.ValueOf(operator)
		if reflectVar.Kind() == reflect.Slice {
			if reflectVar.Len() == 0 {
				return m
			}
			operator = WhereIn
		} else {
			operator = WhereEqual
		}
	}

	return m.where(false, primary, operator, vals[0])
}

//first struct field is the primary key
func (m Query[T]) primaryColumn() (interface{}, error) {
	if len(m.tables) == 0 || !m.tables[0].tableStruct.IsValid() || m.tables[0].tableStruct.NumField() == 0 {
		return nil, ErrTableNotSelected
	}
	return m.tables[0].tableStruct.Field(0).Addr().Interface(), nil
}

//where group: (a or b)
func (m Query[T]) WhereFunc(f func(Query[T]) Query[T]) Query[T] {
	return m.whereGroup(false, f)
}

func (m Query[T]) OrWhereFunc(f func(Query[T]) Query[T]) Query[T] {
	return m.whereGroup(true, f)
}

func (m Query[T]) whereGroup(isOr bool, f func(Query[T]) Query[T]) Query[T] {
	temp, err := m.generateWhereGroup(f)
	if err != nil {
		return m.setErr(err)
	}
	if len(temp.SubWheres) > 0 {
		temp.IsOr = isOr
		m = m.appendWhere(temp)
	}
	return m
}

func (m Query[T]) generateWhereGroup(f func(Query[T]) Query[T]) (where, error) {
	start := len(m.wheres)
	nq := f(m)
	newWheres := nq.wheres[start:]

	if len(newWheres) > 0 {
		return where{SubWheres: append([]where{}, newWheres...)}, nq.result.Err
	}
	return where{}, nq.result.Err
}

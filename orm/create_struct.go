package orm

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gobeam/stringy"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var findCommentRegex = regexp.MustCompile("(.+) COMMENT '(.+)'")
var findDefaultRegex = regexp.MustCompile("(.+) DEFAULT (.+)")
var findAutoIncrementRegex = regexp.MustCompile("(.+) AUTO_INCREMENT")
var findNotNullRegex = regexp.MustCompile("(.+) NOT NULL")
var findNullRegex = regexp.MustCompile("(.+) NULL")

const defaultModule = "models"

//CreateStruct writes a go struct for the query's table into file.
//an existing struct of the same name is kept, renamed with a timestamp suffix.
func CreateStruct[T Table](query Query[T], fs afero.Fs, file string) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	table := query.TableInterface()
	dbColumns, err := getTableDbColumns(query)
	if err != nil {
		return err
	}
	if len(dbColumns) == 0 {
		return errors.Wrapf(ErrTableNotExisted, "table %s", table.TableName())
	}

	structName := tableStructName(table)

	var structLines []string
	var useTime bool
	for _, v := range dbColumns {
		structFieldType := getStructFieldTypeStringByDBType(v.Type)
		useTime = useTime || structFieldType == "time.Time"
		if v.Null {
			structFieldType = "*" + structFieldType
		}
		structLines = append(structLines, "\t"+goFieldName(v.Name)+" "+structFieldType+" `"+strings.Join(structFieldTags(v), " ")+"`")
	}

	fileBytes, err := afero.ReadFile(fs, file)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	fileContent := string(fileBytes)
	if fileContent == "" {
		module := tableModule(table)
		if module == "" {
			module = defaultModule
		}
		fileContent = "package " + module + "\n"
		if useTime {
			fileContent += "\nimport \"time\"\n"
		}
	}

	search := "type " + structName + " struct {"
	oldStructRename := "type " + structName + "_" + time.Now().Format("2006_01_02_15_04_05") + " struct {"

	fileParts := strings.SplitN(fileContent, search, 2)
	if len(fileParts) == 1 {
		fileParts[0] = strings.TrimRight(fileParts[0], "\n") + "\n\n"
	}

	finalFileContent := fileParts[0] + search + "\n" + strings.Join(structLines, "\n") + "\n}\n"

	if len(fileParts) > 1 {
		finalFileContent += "\n" + oldStructRename + fileParts[1]
	}

	if !strings.Contains(finalFileContent, "func ("+structName+") TableName() string") {
		finalFileContent += fmt.Sprintf("\nfunc (%s) TableName() string {\n\treturn %q\n}\n", structName, table.TableName())
		finalFileContent += fmt.Sprintf("\nfunc (%s) DatabaseName() string {\n\treturn %q\n}\n", structName, table.DatabaseName())
	}

	return afero.WriteFile(fs, file, []byte(finalFileContent), 0644)
}

//bound tables are named after the table, declared ones after their type
func tableStructName(table Table) string {
	if b, ok := table.(boundTable); ok {
		return goFieldName(b.TableName())
	}
	t := reflect.TypeOf(table)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func goFieldName(column string) string {
	return stringy.New(stringy.New(column).CamelCase()).UcFirst()
}

func structFieldTags(v dBColumn) []string {
	var tags []string
	tags = append(tags, fmt.Sprintf("json:\"%s\"", v.Name))

	ormTags := []string{v.Name, v.Type}
	if v.Null {
		ormTags = append(ormTags, nullPrefix)
	}
	if v.AutoIncrement {
		ormTags = append(ormTags, autoIncrementPrefix)
	}
	if v.Primary {
		ormTags = append(ormTags, primaryKeyPrefix)
	}
	if v.Unique {
		ormTags = append(ormTags, uniqueKeyPrefix)
	}
	if v.Index {
		ormTags = append(ormTags, keyPrefix)
	}
	ormTags = append(ormTags, v.Uniques...)
	ormTags = append(ormTags, v.Indexs...)

	tags = append(tags, fmt.Sprintf("orm:\"%s\"", strings.Join(ormTags, ",")))

	if v.Default != "" {
		tags = append(tags, fmt.Sprintf("default:\"%s\"", v.Default))
	}
	if v.Comment != "" {
		tags = append(tags, fmt.Sprintf("comment:\"%s\"", v.Comment))
	}
	return tags
}

func getStructFieldTypeStringByDBType(dbType string) string {
	dbType = strings.ToLower(dbType)
	if strings.Contains(dbType, "char") || strings.Contains(dbType, "text") {
		return "string"
	}
	if dbType == "boolean" || dbType == "bool" {
		return "bool"
	}
	if strings.Contains(dbType, "serial") {
		if strings.HasPrefix(dbType, "big") {
			return "int64"
		}
		return "int"
	}
	if strings.Contains(dbType, "int") {
		if strings.Contains(dbType, "unsigned") {
			if strings.HasPrefix(dbType, "tiny") {
				return "uint8"
			} else if strings.HasPrefix(dbType, "big") {
				return "uint64"
			} else {
				return "uint"
			}
		} else {
			if strings.HasPrefix(dbType, "tiny") {
				return "int8"
			} else if strings.HasPrefix(dbType, "big") {
				return "int64"
			} else {
				return "int"
			}
		}
	} else if strings.Contains(dbType, "float") || strings.Contains(dbType, "double") ||
		strings.Contains(dbType, "decimal") || strings.Contains(dbType, "real") || strings.Contains(dbType, "numeric") {
		return "float64"
	} else if strings.Contains(dbType, "time") || strings.Contains(dbType, "date") {
		return "time.Time"
	}
	return "string"
}

func getTableDbColumns[T Table](query Query[T]) ([]dBColumn, error) {
	switch query.getDialect().Name() {
	case DialectSqlite:
		return getSqliteTableColumns(query)
	case DialectPostgres:
		return getPostgresTableColumns(query)
	}
	return getMysqlTableColumns(query)
}

//column and key lines of mysql show create table
func getSqlSegments[T Table](query Query[T]) ([]string, error) {
	table := query.TableInterface()
	var res map[string]string

	err := query.Raw("show create table " + query.tables[0].getTableName(query.getDialect())).GetTo(&res).Err
	if err != nil {
		return nil, err
	}

	createTableSql := res[table.TableName()]
	if createTableSql == "" {
		return nil, ErrTableNotExisted
	}

	sqlSegments := strings.Split(createTableSql, "\n")

	if len(sqlSegments) <= 2 {
		return nil, errors.New(createTableSql)
	}
	return sqlSegments[1 : len(sqlSegments)-1], nil
}

func getMysqlTableColumns[T Table](query Query[T]) ([]dBColumn, error) {
	sqlSegments, err := getSqlSegments(query)
	if err != nil {
		return nil, err
	}

	ret := make([]dBColumn, 0)
	existColumn := make(map[string]int)

	//composite keys become "<prefix>_<name>(<pos>)"
	addKey := func(prefix, v string, unique bool) {
		keyNameAndCols := strings.Split(v, " ")
		if len(keyNameAndCols) != 2 {
			return
		}
		keyName := strings.Trim(keyNameAndCols[0], "`")
		cols := strings.Split(strings.Trim(keyNameAndCols[1], "()"), ",")
		for k2, v2 := range cols {
			colName := strings.Trim(v2, "`")
			i, ok := existColumn[colName]
			if !ok {
				continue
			}
			if len(cols) == 1 {
				if unique {
					ret[i].Unique = true
				} else {
					ret[i].Index = true
				}
			} else if unique {
				ret[i].Uniques = append(ret[i].Uniques, prefix+"_"+keyName+"("+strconv.Itoa(k2)+")")
			} else {
				ret[i].Indexs = append(ret[i].Indexs, prefix+"_"+keyName+"("+strconv.Itoa(k2)+")")
			}
		}
	}

	for _, v := range sqlSegments {
		v = strings.TrimLeft(v, " ")
		v = strings.TrimRight(v, ",")

		if strings.HasPrefix(v, "PRIMARY KEY ") {
			v = strings.TrimPrefix(v, "PRIMARY KEY ")
			for _, col := range strings.Split(strings.Trim(v, "()"), ",") {
				if i, ok := existColumn[strings.Trim(col, "`")]; ok {
					ret[i].Primary = true
				}
			}
		} else if strings.HasPrefix(v, "UNIQUE KEY ") {
			addKey(uniqueKeyPrefix, strings.TrimPrefix(v, "UNIQUE KEY "), true)
		} else if strings.HasPrefix(v, "KEY ") {
			addKey(keyPrefix, strings.TrimPrefix(v, "KEY "), false)
		} else if strings.HasPrefix(v, "`") {
			var col dBColumn
			col.Null = true
			temp := findCommentRegex.FindStringSubmatch(v)
			if len(temp) >= 3 {
				v = temp[1]
				col.Comment = temp[2]
			}

			temp = findDefaultRegex.FindStringSubmatch(v)
			if len(temp) >= 3 {
				v = temp[1]
				col.Default = strings.Trim(temp[2], "'")
			}

			temp = findAutoIncrementRegex.FindStringSubmatch(v)
			if len(temp) >= 2 {
				v = temp[1]
				col.AutoIncrement = true
			}

			temp = findNotNullRegex.FindStringSubmatch(v)
			if len(temp) >= 2 {
				v = temp[1]
				col.Null = false
			}

			temp = findNullRegex.FindStringSubmatch(v)
			if len(temp) >= 2 {
				v = temp[1]
			}

			nameAndTypeStrs := strings.SplitN(v, " ", 2)
			if len(nameAndTypeStrs) != 2 {
				continue
			}

			col.Type = nameAndTypeStrs[1]
			col.Name = strings.Trim(nameAndTypeStrs[0], "`")
			existColumn[col.Name] = len(ret)
			ret = append(ret, col)
		}
	}

	return ret, nil
}

type sqliteColumnInfo struct {
	Cid     int    `json:"cid"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	NotNull int    `json:"notnull"`
	Default string `json:"dflt_value"`
	Pk      int    `json:"pk"`
}

type sqliteIndexInfo struct {
	Name   string `json:"name"`
	Unique int    `json:"unique"`
	Origin string `json:"origin"`
}

func getSqliteTableColumns[T Table](query Query[T]) ([]dBColumn, error) {
	d := query.getDialect()
	quotedTable := d.QuoteIdentifier(query.TableInterface().TableName())

	var infos []sqliteColumnInfo
	if err := query.Raw("pragma table_info(" + quotedTable + ")").GetTo(&infos).Err; err != nil {
		return nil, err
	}

	var ret []dBColumn
	existColumn := make(map[string]int)
	for _, v := range infos {
		col := dBColumn{
			Name:    v.Name,
			Type:    strings.ToLower(v.Type),
			Null:    v.NotNull == 0 && v.Pk == 0,
			Primary: v.Pk > 0,
			Default: strings.Trim(v.Default, "'"),
		}
		//integer primary key is the rowid
		if v.Pk == 1 && col.Type == "integer" {
			col.AutoIncrement = true
			col.Default = ""
		}
		existColumn[col.Name] = len(ret)
		ret = append(ret, col)
	}

	var indexes []sqliteIndexInfo
	if err := query.Raw("pragma index_list(" + quotedTable + ")").GetTo(&indexes).Err; err != nil {
		return nil, err
	}
	for _, index := range indexes {
		if index.Origin == "pk" {
			continue
		}
		var cols []string
		if err := query.Raw("select name from pragma_index_info(?) order by seqno", index.Name).GetTo(&cols).Err; err != nil {
			return nil, err
		}
		for k, c := range cols {
			i, ok := existColumn[c]
			if !ok {
				continue
			}
			switch {
			case len(cols) == 1 && index.Unique == 1:
				ret[i].Unique = true
			case len(cols) == 1:
				ret[i].Index = true
			case index.Unique == 1:
				ret[i].Uniques = append(ret[i].Uniques, uniqueKeyPrefix+"_"+index.Name+"("+strconv.Itoa(k)+")")
			default:
				ret[i].Indexs = append(ret[i].Indexs, keyPrefix+"_"+index.Name+"("+strconv.Itoa(k)+")")
			}
		}
	}
	return ret, nil
}

type postgresColumnInfo struct {
	Name      string `json:"column_name"`
	DataType  string `json:"data_type"`
	Nullable  string `json:"is_nullable"`
	Default   string `json:"column_default"`
	MaxLength int    `json:"max_length"`
}

var postgresDefaultCast = regexp.MustCompile(`::[a-z ]+$`)

func getPostgresTableColumns[T Table](query Query[T]) ([]dBColumn, error) {
	tableName := query.TableInterface().TableName()

	var infos []postgresColumnInfo
	err := query.Raw("select column_name, data_type, is_nullable, coalesce(column_default, '') as column_default, "+
		"coalesce(character_maximum_length, 0) as max_length from information_schema.columns "+
		"where table_schema = current_schema() and table_name = ? order by ordinal_position", tableName).GetTo(&infos).Err
	if err != nil {
		return nil, err
	}

	var primaries []string
	err = query.Raw("select kcu.column_name from information_schema.table_constraints tc "+
		"join information_schema.key_column_usage kcu on tc.constraint_name = kcu.constraint_name and tc.table_schema = kcu.table_schema "+
		"where tc.table_schema = current_schema() and tc.table_name = ? and tc.constraint_type = 'PRIMARY KEY'", tableName).GetTo(&primaries).Err
	if err != nil {
		return nil, err
	}

	var ret []dBColumn
	for _, v := range infos {
		col := dBColumn{
			Name:    v.Name,
			Type:    v.DataType,
			Null:    v.Nullable == "YES",
			Primary: slices.Contains(primaries, v.Name),
		}
		switch {
		case v.DataType == "character varying" && v.MaxLength > 0:
			col.Type = "varchar(" + strconv.Itoa(v.MaxLength) + ")"
		case strings.HasPrefix(v.DataType, "timestamp"):
			col.Type = "timestamp"
		}
		if strings.HasPrefix(v.Default, "nextval(") {
			col.AutoIncrement = true
		} else {
			col.Default = strings.Trim(postgresDefaultCast.ReplaceAllString(v.Default, ""), "'")
		}
		ret = append(ret, col)
	}
	return ret, nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/folospace/go-orm-union/orm"
)

//one table per year, all shaped like Message
type Message struct {
	Id   int    `json:"id"`
	Text string `json:"text" orm:"text,varchar(40)" comment:"message body"`
}

func (Message) TableName() string {
	return "message"
}
func (Message) DatabaseName() string {
	return ""
}

func main() {
	orm.SetSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	db, err := orm.OpenSqlite("file::memory:?cache=shared")
	if err != nil {
		panic(err)
	}
	db.SetMaxOpenConns(1)
	if err := orm.RegisterConnection(orm.DefaultConnection, nil, db); err != nil {
		panic(err)
	}

	MessageTable := orm.NewQuery(Message{}).Using(orm.DefaultConnection)

	//create one table per year from the message struct
	for _, year := range []int{2013, 2014} {
		yearTable := orm.GetModel(MessageTable, fmt.Sprintf("message_%d", year))
		if _, err := orm.CreateTableFromStruct(yearTable); err != nil {
			panic(err)
		}
		if res := yearTable.Inserts([]Message{{Text: "hello"}, {Text: fmt.Sprint(year)}}); res.Error() != nil {
			panic(res.Error())
		}
	}

	//union all of every year table
	years := MessageTable.Where(&MessageTable.T.Text, orm.WhereNotEqual, "").
		SplitWith(orm.SplitOptions{
			Coerce: func(v any) string { return fmt.Sprintf("message_%v", v) },
		}, 2013, 2014)

	messages, res := years.OrderByDesc(&MessageTable.T.Id).UnionAll().Gets()
	fmt.Println(messages, res.Sql(), res.Error())

	//union dedups the hello rows
	for message, err := range years.Select(&MessageTable.T.Text).Union().All(context.Background()) {
		fmt.Println(message.Text, err)
	}

	//raw rows
	rows, err := years.UnionAllCursor(context.Background())
	if err != nil {
		panic(err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			panic(err)
		}
		fmt.Println(id, text)
	}
	if err := rows.Err(); err != nil {
		panic(err)
	}
}

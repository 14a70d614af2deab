package main

import (
	"fmt"
	"log"

	"github.com/areiqi/sitedb/internal/database"
)

func main() {
	db, err := database.OpenMemory("inspect_schema")
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)

	tables, err := db.Migrator().GetTables()
	if err != nil {
		log.Fatal(err)
	}

	for _, table := range tables {
		fmt.Printf("\n=== Table: %s ===\n", table)
		var schema string
		db.Raw("SELECT sql FROM sqlite_master WHERE name = ?", table).Scan(&schema)
		fmt.Println(schema)
	}
}

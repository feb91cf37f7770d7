package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
	"gitlab.com/dirk.krummacker/contacts-api/internal/service"
)

// Usage example on the command line:
// > DBHOST=localhost:3306 DBUSER=dirk DBPWD=secret go run main.go -file=../../scripts/database.sql
func main() {
	filePtr := flag.String("file", "scripts/database.sql", "the sql file to execute")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	sqlDB, err := service.CreateDatabase(service.DatabaseOptions{
		DSN:             cfg.DSN(),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatal(err)
	}
	db := service.SetupDatabaseWrapper(sqlDB)
	defer db.Close()

	readFile, err := os.Open(*filePtr) // nosemgrep
	if err != nil {
		log.Fatal(err)
	}
	defer readFile.Close()

	count := execStatements(db, bufio.NewScanner(readFile))
	log.Printf("executed %d statements from %s", count, *filePtr)
}

// execStatements collects lines until one ends a statement with ';' and executes it.
func execStatements(db *sqlx.DB, fileScanner *bufio.Scanner) int {
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	count := 0
	for fileScanner.Scan() {
		line := fileScanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			db.MustExec(builder.String())
			builder = strings.Builder{}
			count++
		}
	}
	if err := fileScanner.Err(); err != nil {
		log.Fatal(err)
	}
	return count
}

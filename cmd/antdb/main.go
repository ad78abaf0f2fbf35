// Package main implements the antdb command-line interface.
//
// The binary takes a database path and a single command:
//
//	antdb <db-path> <command>
//
// where the command is one of the dot-commands .dbinfo, .tables,
// .schema, .indices, or any other string, which is evaluated as a SQL
// statement. A `serve` subcommand exposes the same engine over HTTP.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/antdb/antdb/internal/sql/executor"
	"github.com/antdb/antdb/internal/sql/sqlerr"
	"github.com/antdb/antdb/internal/storage"
	"github.com/antdb/antdb/internal/web"
)

const version = "0.1.0"

func main() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	root := &cobra.Command{
		Use:           "antdb <db-path> <command>",
		Short:         "Read-only query engine over the SQLite file format",
		Version:       version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1])
		},
	}

	var port int
	serve := &cobra.Command{
		Use:           "serve <db-path>",
		Short:         "Serve the read-only HTTP API for a database",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveHTTP(args[0], port)
		},
	}
	serve.Flags().IntVar(&port, "port", 8080, "port to listen on")
	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		die(err)
	}
}

// die prints the one-line diagnostic, naming the failure kind, and
// exits non-zero.
func die(err error) {
	var sqlErr *sqlerr.Error
	var storageErr *storage.Error
	var invariantErr *executor.InvariantError
	switch {
	case errors.As(err, &invariantErr):
		log.WithField("kind", "invariant violation").Error(err)
	case errors.As(err, &sqlErr):
		log.WithField("kind", "sql error").Error(err)
	case errors.As(err, &storageErr):
		log.WithField("kind", "storage error").Error(err)
	default:
		log.Error(err)
	}
	os.Exit(1)
}

// run dispatches one command against the database at path.
func run(path, command string) error {
	file, err := storage.OpenBackingFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	engine, err := storage.NewStorageEngine(file)
	if err != nil {
		return err
	}

	switch command {
	case ".dbinfo":
		return dbinfo(engine)
	case ".tables":
		return tables(engine)
	case ".schema":
		return schema(engine)
	case ".indices":
		return indices(engine)
	default:
		return query(engine, command)
	}
}

// serveHTTP opens the database and blocks serving the HTTP API.
func serveHTTP(path string, port int) error {
	file, err := storage.OpenBackingFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	engine, err := storage.NewStorageEngine(file)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"path": path, "port": port}).Info("serving")
	return web.NewServer(port, engine).Run()
}

// dbinfo prints the header-derived fields, one `key: value` per line.
func dbinfo(engine *storage.StorageEngine) error {
	info, err := engine.Info()
	if err != nil {
		return err
	}
	for _, field := range info {
		fmt.Printf("%s: %v\n", field.Key, field.Value)
	}
	return nil
}

// tables prints the user table names space-separated on one line,
// excluding SQLite's internal sqlite_* tables.
func tables(engine *storage.StorageEngine) error {
	all, err := engine.Tables()
	if err != nil {
		return err
	}
	var names []string
	for _, t := range all {
		if strings.HasPrefix(t.Name(), "sqlite_") {
			continue
		}
		names = append(names, t.Name())
	}
	fmt.Println(strings.Join(names, " "))
	return nil
}

// schema prints every schema object as `key: 'value'` lines, objects
// separated by blank lines.
func schema(engine *storage.StorageEngine) error {
	objects, err := engine.Objects()
	if err != nil {
		return err
	}
	for _, obj := range objects {
		fmt.Printf("type: '%s'\n", obj.Type)
		fmt.Printf("name: '%s'\n", obj.Name)
		fmt.Printf("tbl_name: '%s'\n", obj.TblName)
		fmt.Printf("rootpage: '%s'\n", obj.RootPage)
		fmt.Printf("sql: '%s'\n", obj.SQL)
		fmt.Println()
	}
	return nil
}

// indices prints three lines per index: its name, its table, and the
// indexed column.
func indices(engine *storage.StorageEngine) error {
	all, err := engine.Indices()
	if err != nil {
		return err
	}
	for _, idx := range all {
		fmt.Printf("index: %s\n", idx.Name())
		fmt.Printf("table: %s\n", idx.Table().Name())
		fmt.Printf("fields: %s\n", idx.Column())
	}
	return nil
}

// query evaluates a SQL statement and prints one row per line, columns
// joined by `|`.
func query(engine *storage.StorageEngine, sql string) error {
	rows, err := executor.New(engine).Evaluate(sql)
	if err != nil {
		return err
	}
	for _, row := range rows {
		values := make([]string, 0, len(row))
		for _, v := range row {
			values = append(values, v.Display())
		}
		fmt.Println(strings.Join(values, "|"))
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/tracklog/pkg/blobstore"
	"github.com/cyclopcam/tracklog/server"
	"github.com/cyclopcam/tracklog/server/eventstore"
	"github.com/cyclopcam/tracklog/server/export"
)

type options struct {
	dbPath     string
	configFile string
	dir        string
	bucket     string
	name       string
	stdout     bool
}

func main() {
	parser := argparse.NewParser("exportevents", "Export the event store as CSV")
	dbPath := parser.String("", "db", &argparse.Options{Help: "Sqlite event store (default: TRACKLOG_DB, or " + eventstore.DefaultFilename + ")", Default: ""})
	configFile := parser.String("c", "config", &argparse.Options{Help: "JSON config file", Default: ""})
	dir := parser.String("d", "dir", &argparse.Options{Help: "Write into this directory", Default: ""})
	bucket := parser.String("b", "bucket", &argparse.Options{Help: "Write into this Google Cloud Storage bucket", Default: ""})
	name := parser.String("n", "name", &argparse.Options{Help: "Object name (default exports/events-<time>.csv)", Default: ""})
	stdout := parser.Flag("", "stdout", &argparse.Options{Help: "Write CSV to stdout instead of storage", Default: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	opt := options{
		dbPath:     *dbPath,
		configFile: *configFile,
		dir:        *dir,
		bucket:     *bucket,
		name:       *name,
		stdout:     *stdout,
	}
	if err := run(logger, opt); err != nil {
		logger.Errorf("%v", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func run(logger logs.Log, opt options) error {
	cfg, err := server.LoadConfig(opt.configFile)
	if err != nil {
		return err
	}
	if opt.dbPath != "" {
		cfg.DB = dbh.MakeSqliteConfig(opt.dbPath)
	}
	if opt.dir != "" {
		cfg.Export = blobstore.Config{Filesystem: &blobstore.ConfigFS{Root: opt.dir}}
	} else if opt.bucket != "" {
		cfg.Export = blobstore.Config{GCS: &blobstore.ConfigGCS{Bucket: opt.bucket}}
	}
	if !opt.stdout && !cfg.Export.IsConfigured() {
		return errors.New("No destination. Use --dir, --bucket, --stdout, or configure export.")
	}

	store, err := eventstore.OpenConfig(logger, cfg.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	if opt.stdout {
		n, err := export.WriteCSV(os.Stdout, store, 0)
		if err != nil {
			return fmt.Errorf("Export failed after %v events: %w", n, err)
		}
		return nil
	}

	storage, err := blobstore.Open(logger, cfg.Export)
	if err != nil {
		return err
	}
	name := opt.name
	if name == "" {
		name = export.DefaultName(time.Now())
	}
	n, err := export.ToStorage(logger, store, storage, name)
	if err != nil {
		return err
	}
	logger.Infof("Exported %v events to %v", n, name)
	return nil
}

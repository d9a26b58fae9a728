package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/tracklog/server"
	"github.com/cyclopcam/tracklog/server/eventstore"
	"github.com/cyclopcam/tracklog/server/ingest"
)

func main() {
	parser := argparse.NewParser("ingest", "Append the tracker output of one video to the event store")
	dbPath := parser.String("", "db", &argparse.Options{Help: "Sqlite event store (default: TRACKLOG_DB, or " + eventstore.DefaultFilename + ")", Default: ""})
	configFile := parser.String("c", "config", &argparse.Options{Help: "JSON config file, for a non-sqlite event store", Default: ""})
	video := parser.String("v", "video", &argparse.Options{Required: true, Help: "Video identifier stored with every event"})
	tracker := parser.String("t", "tracker", &argparse.Options{Required: true, Help: "Tracker name, eg bytetrack"})
	model := parser.String("m", "model", &argparse.Options{Help: "Detection model name, eg yolov8s", Default: ""})
	fps := parser.Float("", "fps", &argparse.Options{Help: "Frame rate of the video. Zero assumes 30 fps.", Default: 0.0})
	format := parser.Selector("f", "format", []string{"jsonl", "csv", "labels"}, &argparse.Options{Help: "Input format", Default: "jsonl"})
	skipUntracked := parser.Flag("", "skip-untracked", &argparse.Options{Help: "Drop detections without a track id", Default: false})
	input := parser.String("i", "input", &argparse.Options{Help: "Input file. Default is stdin.", Default: ""})
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
	if err := run(logger, *dbPath, *configFile, *video, *tracker, *model, *fps, *format, *skipUntracked, *input); err != nil {
		logger.Errorf("%v", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func run(logger logs.Log, dbPath, configFile, video, tracker, model string, fps float64, format string, skipUntracked bool, input string) error {
	cfg, err := server.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DB = dbh.MakeSqliteConfig(dbPath)
	}

	var r io.Reader = os.Stdin
	if input != "" && input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var src ingest.Source
	switch strings.ToLower(format) {
	case "csv":
		src, err = ingest.NewCSVSource(r)
	case "labels":
		src, err = ingest.NewLabelsSource(r)
	default:
		src = ingest.NewJSONLSource(r)
	}
	if err != nil {
		return err
	}

	store, err := eventstore.OpenConfig(logger, cfg.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := ingest.NewIngester(logger, store, video, tracker)
	in.Model = model
	in.FPS = fps
	in.SkipUntracked = skipUntracked
	stats, err := in.Run(ctx, src)
	if stats != nil {
		logger.Infof("%v frames, %v events committed, %v untracked, %v unknown classes, in %.1f seconds",
			stats.Frames, stats.Events, stats.Untracked, stats.UnknownClasses, stats.Duration.Seconds())
	}
	return err
}

package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/akamensky/argparse"
	"github.com/coreos/go-systemd/daemon"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/tracklog/server"
)

func main() {
	parser := argparse.NewParser("tracklog", "Store and analyze object tracking events")
	configFile := parser.String("c", "config", &argparse.Options{Help: "JSON config file. Environment variables override it.", Default: ""})
	listen := parser.String("l", "listen", &argparse.Options{Help: "HTTP listen address, eg :8080 (overrides the config)", Default: ""})
	hotReloadWWW := parser.Flag("", "hot", &argparse.Options{Help: "Hot reload www instead of embedding into binary", Default: false})
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
	defer logger.Close()

	cfg, err := server.LoadConfig(*configFile)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	logger.Infof("Event store: %v", cfg.DB.LogSafeDescription())

	srv, err := server.NewServer(logger, cfg, *hotReloadWWW)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	srv.ListenForKillSignals()

	// Tell systemd that we're alive
	daemon.SdNotify(false, daemon.SdNotifyReady)

	err = srv.ListenHTTP(*listen)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("ListenHTTP returned: %v", err)
		srv.Shutdown()
		os.Exit(1)
	}
	// ListenHTTP returns as soon as Shutdown starts, so wait for it to finish closing the store
	srv.Shutdown()
}

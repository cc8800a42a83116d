package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/handiism/vidconv/internal/app"
	"github.com/handiism/vidconv/internal/config"
	"github.com/handiism/vidconv/internal/tui"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "Path to config file")
	flag.Parse()

	if err := run(*configFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a, err := app.New(settings, app.NewLogger(io.Discard, false))
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(a.Controller, nil, settings.DownloadsPath)
}

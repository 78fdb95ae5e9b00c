// Package main provides the player entry point.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/infra/config"
	"github.com/osa030/groove/internal/infra/logger"
)

var (
	app        = kingpin.New("groove", "Groove audio playlist player")
	configPath = app.Flag("config", "Path to config file").Short('c').Default("config/groove.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout, discarded in play mode)").String()
	silent     = app.Flag("silent", "Play without audio output").Bool()

	// play command (default)
	playCmd = app.Command("play", "Play in the terminal (default)").Default()
	playWeb = playCmd.Flag("web", "Also serve the web API").Bool()

	// serve command
	serveCmd  = app.Command("serve", "Run headless and serve the web API")
	serveAddr = serveCmd.Flag("addr", "Listen address (overrides config)").String()

	// tracks command
	tracksCmd   = app.Command("tracks", "List the collected tracks and exit")
	tracksProbe = tracksCmd.Flag("probe", "Probe durations that are still unknown").Bool()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *silent {
		cfg.Player.Silent = true
	}

	closer, err := logger.Init(loggerConfig(cfg, command))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	zlog.Info().Msgf("Loaded config from %s", *configPath)

	switch command {
	case playCmd.FullCommand():
		err = runPlay(cfg, *playWeb)
	case serveCmd.FullCommand():
		if *serveAddr != "" {
			cfg.Web.Addr = *serveAddr
		}
		err = runServe(cfg)
	case tracksCmd.FullCommand():
		err = runTracks(cfg, *tracksProbe)
	}
	if err != nil {
		zlog.Error().Msgf("groove: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = closer.Close()
		os.Exit(1)
	}
}

// loggerConfig merges the config file's log section with the flags. The
// terminal UI owns stdout, so play logs nowhere unless a file is given.
func loggerConfig(cfg *config.Config, command string) logger.Config {
	lc := logger.Config{Output: logger.OutputStdout, Level: cfg.Log.Level, File: cfg.Log.File}
	switch command {
	case playCmd.FullCommand():
		lc.Output = logger.OutputNone
	case tracksCmd.FullCommand():
		lc.Output = logger.OutputStderr
	}
	if *verbose {
		lc.Level = "debug"
	}
	if *logfile != "" {
		lc.File = *logfile
	}
	if lc.File != "" {
		lc.Output = logger.OutputFile
	}
	return lc
}

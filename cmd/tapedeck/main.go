// Package main provides the player entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tapedeck/internal/app/filter"
	"github.com/osa030/tapedeck/internal/app/notification"
	"github.com/osa030/tapedeck/internal/app/selection"
	"github.com/osa030/tapedeck/internal/app/session"
	"github.com/osa030/tapedeck/internal/domain/track"
	"github.com/osa030/tapedeck/internal/infra/config"
	"github.com/osa030/tapedeck/internal/infra/engine"
	"github.com/osa030/tapedeck/internal/infra/logger"
	"github.com/osa030/tapedeck/internal/infra/source"
	"github.com/osa030/tapedeck/internal/tui"
)

// defaultTUILog receives logs while the terminal UI owns the screen.
const defaultTUILog = "tapedeck.log"

var (
	app        = kingpin.New("tapedeck", "Terminal playlist player for local audio files")
	configPath = app.Flag("config", "Path to config file").Default("config/tapedeck.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: tapedeck.log while playing, stderr otherwise)").String()

	// play command (default)
	playCmd   = app.Command("play", "Play files and folders (default)").Default()
	playPaths = playCmd.Arg("paths", "Files or folders to play").Strings()
	shuffle   = playCmd.Flag("shuffle", "Start with shuffle on").Bool()
	repeat    = playCmd.Flag("repeat", "Start with repeat on").Bool()
	volume    = playCmd.Flag("volume", "Initial volume (0-100)").Default("-1").Int()
	watchDir  = playCmd.Flag("watch", "Reselect this folder whenever its contents change").ExistingDir()

	// probe command
	probeCmd   = app.Command("probe", "Show which files would be played and exit")
	probePaths = probeCmd.Arg("paths", "Files or folders to inspect").Required().Strings()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-filters command
	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	closer, err := logger.Init(loggerConfig(cfg, command == playCmd.FullCommand()))
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()
	zlog.Info().Msgf("Config loaded: path=%s", *configPath)

	switch command {
	case probeCmd.FullCommand():
		err = probe(cfg, *probePaths)
	default:
		err = play(cfg)
	}
	if err != nil {
		zlog.Error().Msgf("tapedeck error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closer.Close()
		os.Exit(1)
	}
}

// loggerConfig merges the log section with the command-line flags. While the
// terminal UI runs, logs go to a file unless one is configured.
func loggerConfig(cfg *config.Config, interactive bool) logger.Config {
	lc := logger.Config{
		Output:     "stderr",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}
	if *verbose {
		lc.Level = "debug"
	}
	if *logfile != "" {
		lc.File = *logfile
	}
	if lc.File == "" && interactive {
		lc.File = defaultTUILog
	}
	if lc.File != "" {
		lc.Output = "file"
	}
	return lc
}

// play runs the interactive player until the user quits.
func play(cfg *config.Config) error {
	if err := applyPlayFlags(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sources := source.NewRegistry()
	eng, err := engine.New(sources, engine.Speaker(), engine.Config{
		SampleRate: cfg.Engine.SampleRate,
		Buffer:     cfg.Engine.Buffer(),
		Tick:       cfg.Engine.Tick(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to open audio output")
	}

	// Create session manager
	sessionMgr, err := session.NewManager(cfg, eng, sources)
	if err != nil {
		eng.Close()
		return errors.Wrap(err, "failed to create session manager")
	}
	defer sessionMgr.Close()

	if err := sessionMgr.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start session")
	}

	paths := *playPaths
	if *watchDir != "" {
		if err := sessionMgr.Watch(*watchDir); err != nil {
			return err
		}
		if len(paths) == 0 {
			paths = []string{*watchDir}
		}
	}

	return tui.Run(ctx, sessionMgr, paths, func(stream notification.Stream) func() {
		id := sessionMgr.Subscribe(stream)
		return func() { sessionMgr.Unsubscribe(id) }
	})
}

// applyPlayFlags overrides the player section with command-line flags.
func applyPlayFlags(cfg *config.Config) error {
	if *shuffle {
		cfg.Player.Shuffle = true
	}
	if *repeat {
		cfg.Player.Repeat = true
	}
	if *volume >= 0 {
		cfg.SetVolumeLevel(*volume)
	}
	return errors.Wrap(cfg.Validate(), "invalid command-line flags")
}

// probe prints what a selection of paths would produce.
func probe(cfg *config.Config, paths []string) error {
	chain, err := session.BuildFilterChain(cfg)
	if err != nil {
		return err
	}

	result, err := selection.NewSelector(chain, cfg.IsRecursive()).Select(context.Background(), paths)
	if err != nil && !errors.Is(err, selection.ErrNoFiles) {
		return err
	}

	fmt.Printf("Playlist (%d):\n", len(result.Files))
	for i, f := range result.Files {
		decoder := "ok"
		if !engine.Supported(f) {
			decoder = "no decoder"
		}
		fmt.Printf("  %3d. %-40s %-16s %s\n", i+1, track.TitleFromName(f.Name), f.MIMEType, decoder)
		fmt.Printf("       %s\n", f.Path)
	}

	if len(result.Rejected) > 0 {
		fmt.Printf("Rejected (%d):\n", len(result.Rejected))
		for _, r := range result.Rejected {
			fmt.Printf("  %-24s %s\n", r.Code, r.Path)
		}
	}
	return err
}

// printFilters prints available filters.
func printFilters() {
	cfg, err := config.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build default config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Available Filters:")
	printFilter(filter.NewAudioTypeFilter(cfg.Selection.Accept), true)
	for _, name := range filter.RegisteredNames() {
		printFilter(filter.GetRegistered()[name](), cfg.IsFilterEnabled(name))
	}
}

func printFilter(f filter.Filter, enabled bool) {
	state := "disabled"
	if enabled {
		state = "enabled by default"
	}
	codes := strings.Join(f.ReturnCodes(), ", ")
	fmt.Printf("  %-30s - %s [codes: %s] (%s)\n", f.Name(), f.Description(), codes, state)
}

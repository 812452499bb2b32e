package cli

import (
	"flag"

	"song-miner/internal/config"
	"song-miner/internal/model"
)

// runSync pushes already-mined items to the database without reprocessing
// them: the worker runs with --sync_only and no stage selection.
func runSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath(), "settings file path")
	cleanup := fs.Bool("cleanup", false, "delete the item work folder after a successful db sync")
	cookies := fs.String("cookies", "", "cookies file for restricted videos")
	dbURL := fs.String("db-url", "", "database URL handed to the worker")
	listPath := fs.String("list", "", "file with one URL per line")
	plain := fs.Bool("plain", false, "line output instead of the interactive view")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	queue, err := buildQueue(fs.Args(), *listPath)
	if err != nil {
		return err
	}

	cfg := model.RunConfig{
		StorageMode:  model.StorageModeDB,
		SyncOnly:     true,
		CleanupAfter: *cleanup,
		CookiesPath:  firstNonEmpty(*cookies, settings.CookiesPath),
		DBURL:        firstNonEmpty(*dbURL, settings.DBURL),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return runQueue(settings, cfg, queue, *plain)
}

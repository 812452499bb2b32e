package cli

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"

	"song-miner/internal/config"
	"song-miner/internal/control"
	"song-miner/internal/model"
	"song-miner/internal/runstore"
	"song-miner/internal/scheduler"
	"song-miner/internal/tui"
)

func runMine(args []string) error {
	fs := flag.NewFlagSet("mine", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath(), "settings file path")
	stages := fs.String("stages", "all", "stages to run: all or a comma list of metadata,audio,video,emotions")
	mode := fs.String("mode", model.StorageModeLocal, "storage mode: local or db")
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
	stageList, err := model.ParseStages(*stages)
	if err != nil {
		return err
	}

	cfg := model.RunConfig{
		Stages:       stageList,
		StorageMode:  *mode,
		CleanupAfter: *cleanup,
		CookiesPath:  firstNonEmpty(*cookies, settings.CookiesPath),
		DBURL:        firstNonEmpty(*dbURL, settings.DBURL),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return runQueue(settings, cfg, queue, *plain)
}

// runQueue wires one run together: work dir, run lock, control channel,
// scheduler, and the chosen presentation.
func runQueue(settings config.Settings, cfg model.RunConfig, queue []string, plain bool) error {
	if err := runstore.Mkdir(settings.WorkDir); err != nil {
		return err
	}
	logsDir := filepath.Join(settings.WorkDir, "logs")
	if err := runstore.Mkdir(logsDir); err != nil {
		return err
	}
	lock, err := runstore.AcquireRunLock(settings.WorkDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	ctrl := control.NewChannel(filepath.Join(settings.WorkDir, "skip.request"))
	sched := scheduler.New(settings, cfg, queue, ctrl, logsDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !plain && stdoutIsTTY() {
		sum, err := tui.RunInteractive(ctx, cancel, sched)
		if err != nil {
			return err
		}
		tui.NewPlain(os.Stdout).RunFinished(sum)
		return nil
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for range interrupts {
			sched.Notify(scheduler.SignalTerminate)
		}
	}()

	sched.Run(ctx, tui.NewPlain(os.Stdout))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

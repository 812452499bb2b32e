package cli

import (
	"flag"
	"fmt"

	"song-miner/internal/config"
)

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath(), "settings file path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.WriteSample(*configPath); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", *configPath)
	fmt.Println("edit it to point at your worker checkout, then run: song-miner doctor")
	return nil
}

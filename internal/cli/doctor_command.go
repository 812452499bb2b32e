package cli

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"song-miner/internal/config"
)

type checkResult struct {
	Name   string
	OK     bool
	Detail string
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath(), "settings file path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	failures := 0
	for _, check := range preflight(settings) {
		status := "ok     "
		if !check.OK {
			status = "missing"
			failures++
		}
		fmt.Printf("%s %-14s %s\n", status, check.Name, check.Detail)
	}
	if failures > 0 {
		return fmt.Errorf("preflight found %d problem(s)", failures)
	}
	return nil
}

func preflight(settings config.Settings) []checkResult {
	checks := []checkResult{
		lookupCheck("python", settings.Python),
		fileCheck("worker script", settings.WorkerScript),
		lookupCheck("ffmpeg", "ffmpeg"),
	}
	return checks
}

func lookupCheck(name, bin string) checkResult {
	if strings.ContainsRune(bin, os.PathSeparator) {
		return fileCheck(name, bin)
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return checkResult{Name: name, Detail: fmt.Sprintf("%s not found on PATH", bin)}
	}
	return checkResult{Name: name, OK: true, Detail: path}
}

func fileCheck(name, path string) checkResult {
	if _, err := os.Stat(path); err != nil {
		return checkResult{Name: name, Detail: fmt.Sprintf("%s: %v", path, err)}
	}
	return checkResult{Name: name, OK: true, Detail: path}
}

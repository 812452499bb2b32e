package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "mine":
		return runMine(args[1:])
	case "sync":
		return runSync(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "init":
		return runInit(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("song-miner: sequential host for the miner worker pipeline")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  song-miner init")
	fmt.Println("  song-miner doctor")
	fmt.Println("  song-miner mine <url>...")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  mine    process one worker per URL: download + selected stages")
	fmt.Println("  sync    push already-mined items to the database (no processing)")
	fmt.Println("  doctor  check the worker interpreter, script, and ffmpeg")
	fmt.Println("  init    write an annotated settings file")
	fmt.Println()
	fmt.Println("Keys during an interactive run:")
	fmt.Println("  s  skip the current stage")
	fmt.Println("  k  terminate the run")
}

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

func stdoutIsTTY() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// buildQueue assembles the run's ordered URL queue from positional args
// plus an optional list file (one URL per line, # starts a comment).
func buildQueue(args []string, listPath string) ([]string, error) {
	queue := make([]string, 0, len(args))
	for _, a := range args {
		a = strings.TrimSpace(a)
		if a != "" {
			queue = append(queue, a)
		}
	}

	if listPath != "" {
		f, err := os.Open(listPath)
		if err != nil {
			return nil, fmt.Errorf("open url list %s: %w", listPath, err)
		}
		defer func() {
			_ = f.Close()
		}()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			queue = append(queue, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read url list %s: %w", listPath, err)
		}
	}

	if len(queue) == 0 {
		return nil, fmt.Errorf("no URLs given (pass them as arguments or via --list)")
	}
	return queue, nil
}
